package models

import (
	"time"
)

type BadgeCategory string

const (
	BadgeCategoryMilestone   BadgeCategory = "milestone"
	BadgeCategoryStreak      BadgeCategory = "streak"
	BadgeCategorySpecial     BadgeCategory = "special"
	BadgeCategoryAchievement BadgeCategory = "achievement"
	BadgeCategoryImpact      BadgeCategory = "impact"
)

type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// Badge is a static catalog entry. Criteria maps profile counters to the
// minimum value required, e.g. {"tasks_completed": 10}.
type Badge struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IconURL     string `gorm:"type:text" json:"icon_url"`

	Category BadgeCategory `gorm:"type:varchar(16);not null;default:'milestone'" json:"category"`
	Rarity   BadgeRarity   `gorm:"type:varchar(16);not null;default:'common'" json:"rarity"`

	Criteria map[string]int64 `gorm:"serializer:json" json:"criteria"`

	// Granted through the token ledger / XP path on award
	RewardTokens int64 `gorm:"not null;default:0" json:"reward_tokens"`
	RewardXP     int64 `gorm:"not null;default:0" json:"reward_xp"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserBadge records which profile earned which badge and when.
type UserBadge struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string    `gorm:"index:idx_user_badge,unique;not null" json:"user_id"`
	BadgeID  string    `gorm:"index:idx_user_badge,unique;not null" json:"badge_id"`
	EarnedAt time.Time `json:"earned_at" gorm:"autoCreateTime"`

	Badge *Badge `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

// BadgeCatalog seeds the static badge table on startup.
var BadgeCatalog = []Badge{
	{
		Code:         "FIRST_CLEANUP",
		Name:         "First Cleanup",
		Description:  "Completed your first verified task",
		Category:     BadgeCategoryMilestone,
		Rarity:       RarityCommon,
		Criteria:     map[string]int64{"tasks_completed": 1},
		RewardTokens: 10,
		RewardXP:     25,
		SortOrder:    1,
	},
	{
		Code:         "NEIGHBOURHOOD_HERO",
		Name:         "Neighbourhood Hero",
		Description:  "Completed 10 verified tasks",
		Category:     BadgeCategoryMilestone,
		Rarity:       RarityRare,
		Criteria:     map[string]int64{"tasks_completed": 10},
		RewardTokens: 50,
		RewardXP:     100,
		SortOrder:    2,
	},
	{
		Code:         "CITY_CHAMPION",
		Name:         "City Champion",
		Description:  "Completed 50 verified tasks",
		Category:     BadgeCategoryMilestone,
		Rarity:       RarityEpic,
		Criteria:     map[string]int64{"tasks_completed": 50},
		RewardTokens: 250,
		RewardXP:     500,
		SortOrder:    3,
	},
	{
		Code:         "WEEK_STREAK",
		Name:         "On a Roll",
		Description:  "Kept a 7-day activity streak",
		Category:     BadgeCategoryStreak,
		Rarity:       RarityRare,
		Criteria:     map[string]int64{"current_streak": 7},
		RewardTokens: 30,
		RewardXP:     75,
		SortOrder:    4,
	},
	{
		Code:         "TRUSTED_EYES",
		Name:         "Trusted Eyes",
		Description:  "Verified 25 submitted tasks",
		Category:     BadgeCategoryAchievement,
		Rarity:       RarityRare,
		Criteria:     map[string]int64{"tasks_verified": 25},
		RewardTokens: 50,
		RewardXP:     100,
		SortOrder:    5,
	},
	{
		Code:         "LEVEL_10",
		Name:         "Seasoned Citizen",
		Description:  "Reached level 10",
		Category:     BadgeCategoryImpact,
		Rarity:       RarityEpic,
		Criteria:     map[string]int64{"level": 10},
		RewardTokens: 100,
		RewardXP:     0,
		SortOrder:    6,
	},
}
