package services

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saafsaksham-system/cache"
	"saafsaksham-system/metrics"
	"saafsaksham-system/models"
)

// BaseXPPerLevel anchors the progression curve: the XP needed to clear
// level n is floor(BaseXPPerLevel * n^1.2).
const BaseXPPerLevel = 100

const leaderboardCacheKey = "leaderboard:global"

// xpForNextLevel returns XP required to go from currentLevel to the next.
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// levelForXP replays the curve against a running XP total.
func levelForXP(totalXP int64) int {
	level := 1
	remaining := totalXP
	for {
		need := xpForNextLevel(level)
		if remaining < need {
			return level
		}
		remaining -= need
		level++
	}
}

// meetsCriteria checks a badge's thresholds against the profile counters.
func meetsCriteria(p *models.Profile, criteria map[string]int64) bool {
	if len(criteria) == 0 {
		return false
	}
	for key, required := range criteria {
		switch key {
		case "tasks_completed":
			if p.TasksCompleted < required {
				return false
			}
		case "tasks_verified":
			if p.TasksVerified < required {
				return false
			}
		case "current_streak":
			if int64(p.CurrentStreak) < required {
				return false
			}
		case "longest_streak":
			if int64(p.LongestStreak) < required {
				return false
			}
		case "level":
			if int64(p.Level) < required {
				return false
			}
		case "total_xp":
			if p.TotalXP < required {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// autoAwardBadges grants every active badge the user now qualifies for and
// has not earned yet. Badge token/XP rewards flow through the same ledger
// path as task rewards; everything commits with the caller's transaction.
func autoAwardBadges(tx *gorm.DB, userID string) ([]models.Badge, error) {
	var profile models.Profile
	if err := tx.First(&profile, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := tx.Where("is_active = ?", true).Order("sort_order ASC").Find(&badges).Error; err != nil {
		return nil, err
	}

	var awarded []models.Badge
	for _, badge := range badges {
		if !meetsCriteria(&profile, badge.Criteria) {
			continue
		}

		var count int64
		if err := tx.Model(&models.UserBadge{}).
			Where("user_id = ? AND badge_id = ?", userID, badge.ID).
			Count(&count).Error; err != nil {
			return awarded, err
		}
		if count > 0 {
			continue
		}

		ub := models.UserBadge{
			ID:      uuid.NewString(),
			UserID:  userID,
			BadgeID: badge.ID,
		}
		if err := tx.Create(&ub).Error; err != nil {
			return awarded, err
		}

		if badge.RewardTokens > 0 {
			badgeID := badge.ID
			if _, err := applyTokenDelta(tx, userID, badge.RewardTokens, models.TransactionBonus,
				ledgerRef{BadgeID: &badgeID}, "Badge earned: "+badge.Name); err != nil {
				return awarded, err
			}
		}
		if badge.RewardXP > 0 {
			if err := tx.Model(&models.Profile{}).
				Where("id = ?", userID).
				Update("total_xp", gorm.Expr("total_xp + ?", badge.RewardXP)).Error; err != nil {
				return awarded, err
			}
		}

		if err := insertNotification(tx, models.Notification{
			UserID:  userID,
			Type:    models.NotifyBadgeEarned,
			Title:   "Badge Earned!",
			Message: "You earned the \"" + badge.Name + "\" badge.",
			Metadata: map[string]any{
				"badge_id":   badge.ID,
				"badge_code": badge.Code,
			},
		}); err != nil {
			return awarded, err
		}

		metrics.BadgesAwardedTotal.WithLabelValues(badge.Code).Inc()
		awarded = append(awarded, badge)
		log.Info().Str("badge", badge.Code).Str("user_id", userID).Msg("badge awarded")
	}

	// Badge XP can push the user over a level boundary.
	if len(awarded) > 0 {
		if err := reconcileLevel(tx, userID); err != nil {
			return awarded, err
		}
	}

	return awarded, nil
}

// reconcileLevel recomputes the level from total XP and notifies on level-up.
func reconcileLevel(tx *gorm.DB, userID string) error {
	var profile models.Profile
	if err := tx.First(&profile, "id = ?", userID).Error; err != nil {
		return err
	}

	newLevel := levelForXP(profile.TotalXP)
	if newLevel == profile.Level {
		return nil
	}

	if err := tx.Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("level", newLevel).Error; err != nil {
		return err
	}

	if newLevel > profile.Level {
		return insertNotification(tx, models.Notification{
			UserID:  userID,
			Type:    models.NotifyLevelUp,
			Title:   "Level Up!",
			Message: "You reached level " + strconv.Itoa(newLevel) + ".",
		})
	}
	return nil
}

// SeedBadges upserts the static badge catalog; existing codes are left alone.
func SeedBadges(db *gorm.DB) error {
	for _, badge := range models.BadgeCatalog {
		badge.ID = uuid.NewString()
		badge.IsActive = true
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

// LeaderboardEntry is one ranked row of the global leaderboard.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	City           *string `json:"city,omitempty"`
	TotalTokens    int64   `json:"total_tokens"`
	TotalXP        int64   `json:"total_xp"`
	Level          int     `json:"level"`
	TasksCompleted int64   `json:"tasks_completed"`
	CurrentStreak  int     `json:"current_streak"`
}

type GamificationService struct {
	DB       *gorm.DB
	Cache    cache.Cache
	CacheTTL time.Duration
}

func NewGamificationService(db *gorm.DB, c cache.Cache, ttl time.Duration) *GamificationService {
	return &GamificationService{DB: db, Cache: c, CacheTTL: ttl}
}

// GetBadges lists the active badge catalog.
func (s *GamificationService) GetBadges(c *fiber.Ctx) error {
	var badges []models.Badge
	if err := s.DB.Where("is_active = ?", true).
		Order("sort_order ASC").
		Find(&badges).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch badges")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch badges"})
	}
	return c.JSON(badges)
}

// GetUserBadges lists badges earned by the authenticated user.
func (s *GamificationService) GetUserBadges(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var userBadges []models.UserBadge
	if err := s.DB.Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&userBadges).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch user badges")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch badges"})
	}
	return c.JSON(userBadges)
}

// GetLeaderboard serves the cached leaderboard, falling back to a live
// query when the cache is cold or unavailable.
func (s *GamificationService) GetLeaderboard(c *fiber.Ctx) error {
	if s.Cache != nil {
		cached, err := s.Cache.Get(c.UserContext(), leaderboardCacheKey)
		if err != nil {
			log.Warn().Err(err).Msg("leaderboard cache read failed")
		} else if cached != "" {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(cached)
		}
	}

	entries, err := s.computeLeaderboard(100)
	if err != nil {
		log.Error().Err(err).Msg("failed to compute leaderboard")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}
	return c.JSON(entries)
}

// RefreshLeaderboard recomputes the leaderboard and writes it to the cache.
// Called periodically by the scheduler.
func (s *GamificationService) RefreshLeaderboard(ctx context.Context) error {
	entries, err := s.computeLeaderboard(100)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	if s.Cache == nil {
		return nil
	}
	return s.Cache.Set(ctx, leaderboardCacheKey, string(payload), s.CacheTTL)
}

func (s *GamificationService) computeLeaderboard(limit int) ([]LeaderboardEntry, error) {
	var profiles []models.Profile
	if err := s.DB.Order("total_xp DESC, total_tokens DESC").
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = LeaderboardEntry{
			Rank:           i + 1,
			UserID:         p.ID,
			DisplayName:    p.DisplayName,
			AvatarURL:      p.AvatarURL,
			City:           p.City,
			TotalTokens:    p.TotalTokens,
			TotalXP:        p.TotalXP,
			Level:          p.Level,
			TasksCompleted: p.TasksCompleted,
			CurrentStreak:  p.CurrentStreak,
		}
	}
	return entries, nil
}
