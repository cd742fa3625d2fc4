package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saafsaksham-system/models"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// EnsureProfile mirrors the gateway identity into a local profile row.
// Safe to call on every request; existing rows are left untouched.
func (s *ProfileService) EnsureProfile(userID, displayName string) (*models.Profile, error) {
	if displayName == "" {
		displayName = "Citizen"
	}

	profile := models.Profile{
		ID:          userID,
		DisplayName: displayName,
		Role:        models.RoleCitizen,
		Level:       1,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&profile).Error; err != nil {
		return nil, err
	}

	var out models.Profile
	if err := s.DB.First(&out, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Fiber handlers ---

// GetMyProfile returns the caller's profile, creating it on first sight.
func (s *ProfileService) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	userName, _ := c.Locals("user_name").(string)

	profile, err := s.EnsureProfile(userID, userName)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to ensure profile")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(profile)
}

// GetProfile returns a public profile by id.
func (s *ProfileService) GetProfile(c *fiber.Ctx) error {
	var profile models.Profile
	if err := s.DB.First(&profile, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(profile)
}

// UpdateMyProfile applies a partial update; only provided fields change.
// Gamification counters are never writable through this endpoint.
func (s *ProfileService) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var existing models.Profile
	if err := s.DB.First(&existing, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		DisplayName *string `json:"display_name"`
		Phone       *string `json:"phone"`
		AvatarURL   *string `json:"avatar_url"`
		City        *string `json:"city"`
		State       *string `json:"state"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.DisplayName != nil {
		if *req.DisplayName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "display_name cannot be empty"})
		}
		existing.DisplayName = *req.DisplayName
	}
	if req.Phone != nil {
		existing.Phone = req.Phone
	}
	if req.AvatarURL != nil {
		existing.AvatarURL = req.AvatarURL
	}
	if req.City != nil {
		existing.City = req.City
	}
	if req.State != nil {
		existing.State = req.State
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Error().Err(err).Msg("failed to update profile")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(existing)
}

// UpdateRole changes a profile's role (admin only).
func (s *ProfileService) UpdateRole(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Role models.UserRole `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Role {
	case models.RoleCitizen, models.RoleVerifier, models.RoleAdmin, models.RoleCSRPartner:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
	}

	res := s.DB.Model(&models.Profile{}).Where("id = ?", id).Update("role", req.Role)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update role"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}

	return c.JSON(fiber.Map{"id": id, "role": req.Role})
}

// GetMyStats returns the caller's counters alongside a ledger cross-check,
// so drift between the denormalized balance and the transaction sum is
// visible from the app.
func (s *ProfileService) GetMyStats(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var profile models.Profile
	if err := s.DB.First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var ledgerSum int64
	if err := s.DB.Model(&models.TokenTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&ledgerSum).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var tasksPosted int64
	if err := s.DB.Model(&models.Task{}).
		Where("posted_by = ?", userID).
		Count(&tasksPosted).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var badgeCount int64
	if err := s.DB.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&badgeCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"total_tokens":    profile.TotalTokens,
		"total_xp":        profile.TotalXP,
		"level":           profile.Level,
		"xp_to_next":      xpForNextLevel(profile.Level),
		"current_streak":  profile.CurrentStreak,
		"longest_streak":  profile.LongestStreak,
		"tasks_completed": profile.TasksCompleted,
		"tasks_verified":  profile.TasksVerified,
		"tasks_posted":    tasksPosted,
		"impact_score":    profile.ImpactScore,
		"badges_earned":   badgeCount,
		"ledger_sum":      ledgerSum,
		"ledger_in_sync":  ledgerSum == profile.TotalTokens,
	})
}
