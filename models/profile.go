package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole mirrors the role assigned by the identity provider
type UserRole string

const (
	RoleCitizen    UserRole = "citizen"
	RoleVerifier   UserRole = "verifier"
	RoleAdmin      UserRole = "admin"
	RoleCSRPartner UserRole = "csr_partner"
)

// Profile mirrors the identity provider's subject into local state.
// ID is the external auth subject id, created on first sight.
type Profile struct {
	ID          string   `gorm:"primaryKey" json:"id"`
	DisplayName string   `gorm:"not null" json:"display_name"`
	Phone       *string  `json:"phone,omitempty"`
	Role        UserRole `gorm:"type:varchar(16);not null;default:'citizen'" json:"role"`
	AvatarURL   *string  `gorm:"type:text" json:"avatar_url,omitempty"`
	City        *string  `gorm:"index" json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`

	// Gamification counters. TotalTokens is denormalized from the
	// token_transactions ledger and only ever mutated through
	// conditional UPDATEs inside a transaction so it cannot go negative.
	TotalTokens   int64 `gorm:"not null;default:0" json:"total_tokens"`
	TotalXP       int64 `gorm:"not null;default:0" json:"total_xp"`
	Level         int   `gorm:"not null;default:1" json:"level"`
	CurrentStreak int   `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int   `gorm:"not null;default:0" json:"longest_streak"`

	// Reputation
	VerificationLevel int   `gorm:"not null;default:1" json:"verification_level"`
	TasksCompleted    int64 `gorm:"not null;default:0" json:"tasks_completed"`
	TasksVerified     int64 `gorm:"not null;default:0" json:"tasks_verified"`
	ImpactScore       int64 `gorm:"not null;default:0" json:"impact_score"`

	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
