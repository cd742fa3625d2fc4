package models

import (
	"time"
)

type TaskCategory string

const (
	CategoryGarbage      TaskCategory = "garbage"
	CategoryPothole      TaskCategory = "pothole"
	CategoryGraffiti     TaskCategory = "graffiti"
	CategoryDrainage     TaskCategory = "drainage"
	CategoryStreetlight  TaskCategory = "streetlight"
	CategoryIllegalDump  TaskCategory = "illegal_dump"
	CategoryTreePlanting TaskCategory = "tree_planting"
	CategoryOther        TaskCategory = "other"
)

type TaskSeverity string

const (
	SeverityLow      TaskSeverity = "low"
	SeverityMedium   TaskSeverity = "medium"
	SeverityHigh     TaskSeverity = "high"
	SeverityCritical TaskSeverity = "critical"
)

// TaskStatus lifecycle: open → claimed → submitted → verified|rejected.
// Open/claimed tasks past their expiry are swept to expired.
// Rejected and expired are terminal; there is no resubmission path.
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusClaimed   TaskStatus = "claimed"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusVerified  TaskStatus = "verified"
	TaskStatusRejected  TaskStatus = "rejected"
	TaskStatusExpired   TaskStatus = "expired"
)

type ProofType string

const (
	ProofBeforePhoto ProofType = "before_photo"
	ProofAfterPhoto  ProofType = "after_photo"
	ProofVideo       ProofType = "video"
	ProofTimestamp   ProofType = "timestamp"
	ProofLocation    ProofType = "location"
	ProofAdditional  ProofType = "additional"
)

// DefaultProofTypes apply when a task declares no required_proof_types.
var DefaultProofTypes = []ProofType{ProofBeforePhoto, ProofAfterPhoto}

// Task is a reported civic issue / work item.
type Task struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Category TaskCategory `gorm:"type:varchar(32);not null;index" json:"category"`
	Severity TaskSeverity `gorm:"type:varchar(16);not null;index" json:"severity"`

	// Location
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	LocationAddress *string  `json:"location_address,omitempty"`
	City            *string  `gorm:"index" json:"city,omitempty"`

	ImageURL string `gorm:"type:text" json:"image_url"`

	// Rewards settled on approval
	TokenReward int64 `gorm:"not null" json:"token_reward"`
	XPReward    int64 `gorm:"not null" json:"xp_reward"`

	RequiredProofTypes []ProofType `gorm:"serializer:json" json:"required_proof_types"`

	Status TaskStatus `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`

	PostedBy   string  `gorm:"index;not null" json:"posted_by"`
	ClaimedBy  *string `gorm:"index" json:"claimed_by,omitempty"`
	VerifiedBy *string `json:"verified_by,omitempty"`

	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`

	Timestamps
}

// EffectiveProofTypes returns the declared required proof types, or the
// default set when the task declares none.
func (t *Task) EffectiveProofTypes() []ProofType {
	if len(t.RequiredProofTypes) == 0 {
		return DefaultProofTypes
	}
	return t.RequiredProofTypes
}

// TaskProof is evidence attached to a claimed task. Rows are immutable once
// created; no update path exists.
type TaskProof struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID string `gorm:"index;not null" json:"task_id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	ProofType ProofType `gorm:"type:varchar(16);not null" json:"proof_type"`

	MediaURL     string  `gorm:"type:text;not null" json:"media_url"`
	MediaType    string  `gorm:"type:varchar(8);not null;default:'image'" json:"media_type"`
	ThumbnailURL *string `gorm:"type:text" json:"thumbnail_url,omitempty"`

	Caption  *string        `json:"caption,omitempty"`
	Metadata map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
