package models

import "time"

type NotificationType string

const (
	NotifyTaskClaimed     NotificationType = "task_claimed"
	NotifyTaskVerified    NotificationType = "task_verified"
	NotifyTaskRejected    NotificationType = "task_rejected"
	NotifyTaskExpired     NotificationType = "task_expired"
	NotifyBadgeEarned     NotificationType = "badge_earned"
	NotifyTokenEarned     NotificationType = "token_earned"
	NotifyLevelUp         NotificationType = "level_up"
	NotifyStreakMilestone NotificationType = "streak_milestone"
	NotifyRewardRedeemed  NotificationType = "reward_redeemed"
	NotifySystem          NotificationType = "system"
)

// Notification is a fire-and-forget user-facing event record.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	Type NotificationType `gorm:"type:varchar(24);not null" json:"type"`

	Title   string  `gorm:"not null" json:"title"`
	Message string  `gorm:"type:text;not null" json:"message"`
	Link    *string `json:"link,omitempty"`

	Read     bool           `gorm:"not null;default:false;index" json:"read"`
	Metadata map[string]any `gorm:"serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
