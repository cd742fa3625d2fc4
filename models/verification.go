package models

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
	VerificationFlagged  VerificationStatus = "flagged"
)

// Verification is a verifier's scored judgment on a submitted task.
// The unique index on task_id means a task can be settled at most once.
type Verification struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID     string `gorm:"uniqueIndex;not null" json:"task_id"`
	VerifierID string `gorm:"index;not null" json:"verifier_id"`

	Status VerificationStatus `gorm:"type:varchar(16);not null" json:"status"`

	// Sub-scores each in [1,10]; OverallScore = round(mean of the three)
	QualityScore     int `gorm:"not null" json:"quality_score"`
	CleanlinessScore int `gorm:"not null" json:"cleanliness_score"`
	ImpactScore      int `gorm:"not null" json:"impact_score"`
	OverallScore     int `gorm:"not null" json:"overall_score"`

	Notes           *string `gorm:"type:text" json:"notes,omitempty"`
	RejectionReason *string `gorm:"type:text" json:"rejection_reason,omitempty"`

	VerificationMethod string `gorm:"type:varchar(8);not null;default:'manual'" json:"verification_method"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
