package models

import "time"

type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
	TransactionBonus    TransactionType = "bonus"
	TransactionPenalty  TransactionType = "penalty"
	TransactionTransfer TransactionType = "transfer"
)

// TokenTransaction is an append-only ledger row. The signed amount plus the
// balance recorded after the write make the ledger the audit trail for the
// denormalized Profile.TotalTokens counter.
type TokenTransaction struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	TransactionType TransactionType `gorm:"type:varchar(16);not null" json:"transaction_type"`

	Amount       int64 `gorm:"not null" json:"amount"`
	BalanceAfter int64 `gorm:"not null" json:"balance_after"`

	TaskID       *string `gorm:"index" json:"task_id,omitempty"`
	RedemptionID *string `json:"redemption_id,omitempty"`
	BadgeID      *string `json:"badge_id,omitempty"`

	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
