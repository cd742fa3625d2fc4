package models

import "time"

type RedemptionCategory string

const (
	RedemptionVoucher     RedemptionCategory = "voucher"
	RedemptionMerchandise RedemptionCategory = "merchandise"
	RedemptionDonation    RedemptionCategory = "donation"
	RedemptionCash        RedemptionCategory = "cash"
	RedemptionCertificate RedemptionCategory = "certificate"
	RedemptionExperience  RedemptionCategory = "experience"
)

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionApproved  RedemptionStatus = "approved"
	RedemptionDelivered RedemptionStatus = "delivered"
	RedemptionCancelled RedemptionStatus = "cancelled"
)

// RedemptionOption is a reward catalog entry. A negative StockQuantity
// means unlimited stock.
type RedemptionOption struct {
	ID          string             `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string             `gorm:"not null" json:"title"`
	Description string             `gorm:"type:text" json:"description"`
	Category    RedemptionCategory `gorm:"type:varchar(16);not null" json:"category"`

	TokensRequired int64 `gorm:"not null" json:"tokens_required"`

	ImageURL  *string `gorm:"type:text" json:"image_url,omitempty"`
	IconName  *string `json:"icon_name,omitempty"`
	PartnerID *string `gorm:"index" json:"partner_id,omitempty"`

	StockQuantity int64 `gorm:"not null;default:-1" json:"stock_quantity"`
	IsActive      bool  `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Redemption records a profile spending tokens against a catalog entry.
type Redemption struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	OptionID  string  `gorm:"index;not null" json:"option_id"`
	PartnerID *string `json:"partner_id,omitempty"`

	RewardTitle string             `gorm:"not null" json:"reward_title"`
	RewardType  RedemptionCategory `gorm:"type:varchar(16);not null" json:"reward_type"`
	TokensSpent int64              `gorm:"not null" json:"tokens_spent"`

	Status RedemptionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	// Shown at the partner counter as a QR code
	RedemptionCode string `gorm:"uniqueIndex;not null" json:"redemption_code"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
}
