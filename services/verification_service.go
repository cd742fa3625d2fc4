package services

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"saafsaksham-system/metrics"
	"saafsaksham-system/models"
)

type VerificationService struct {
	DB *gorm.DB
}

func NewVerificationService(db *gorm.DB) *VerificationService {
	return &VerificationService{DB: db}
}

// SettleInput carries a verifier's decision on a submitted task.
type SettleInput struct {
	Approve          bool
	QualityScore     int
	CleanlinessScore int
	ImpactScore      int
	Notes            *string
	RejectionReason  *string
}

// Settle records the verification and applies its consequences inside one
// database transaction. The status flip is a conditional UPDATE on
// status='submitted': a second settlement attempt matches zero rows and
// rolls back without touching the ledger, so approval cannot double-award.
func (s *VerificationService) Settle(taskID, verifierID string, in SettleInput) (*models.Verification, error) {
	if !validScore(in.QualityScore) || !validScore(in.CleanlinessScore) || !validScore(in.ImpactScore) {
		return nil, ErrInvalidScore
	}
	overall := int(math.Round(float64(in.QualityScore+in.CleanlinessScore+in.ImpactScore) / 3.0))

	var verification *models.Verification
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			return err
		}

		switch task.Status {
		case models.TaskStatusSubmitted:
			// settle below
		case models.TaskStatusVerified, models.TaskStatusRejected:
			return ErrAlreadySettled
		default:
			return ErrNotSubmitted
		}

		// Re-checked at write time, not just when listing the queue.
		if verifierID == task.PostedBy || (task.ClaimedBy != nil && verifierID == *task.ClaimedBy) {
			return ErrSelfVerification
		}

		status := models.VerificationRejected
		taskStatus := models.TaskStatusRejected
		updates := map[string]any{"status": taskStatus}
		if in.Approve {
			status = models.VerificationApproved
			taskStatus = models.TaskStatusVerified
			now := time.Now()
			updates = map[string]any{
				"status":      taskStatus,
				"verified_at": now,
				"verified_by": verifierID,
			}
		}

		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", taskID, models.TaskStatusSubmitted).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		v := models.Verification{
			ID:                 uuid.NewString(),
			TaskID:             taskID,
			VerifierID:         verifierID,
			Status:             status,
			QualityScore:       in.QualityScore,
			CleanlinessScore:   in.CleanlinessScore,
			ImpactScore:        in.ImpactScore,
			OverallScore:       overall,
			Notes:              in.Notes,
			RejectionReason:    in.RejectionReason,
			VerificationMethod: "manual",
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Profile{}).
			Where("id = ?", verifierID).
			Update("tasks_verified", gorm.Expr("tasks_verified + 1")).Error; err != nil {
			return err
		}

		if in.Approve && task.ClaimedBy != nil {
			if err := s.applyApprovalRewards(tx, &task, overall); err != nil {
				return err
			}
		} else if !in.Approve && task.ClaimedBy != nil {
			link := "/dashboard/tasks/" + task.ID
			if err := insertNotification(tx, models.Notification{
				UserID:  *task.ClaimedBy,
				Type:    models.NotifyTaskRejected,
				Title:   "Task Rejected",
				Message: "Your task \"" + task.Title + "\" was rejected. Please review feedback.",
				Link:    &link,
			}); err != nil {
				return err
			}
		}

		verification = &v
		return nil
	})
	if err != nil {
		return nil, err
	}

	decision := "rejected"
	if in.Approve {
		decision = "approved"
	}
	metrics.VerificationsTotal.WithLabelValues(decision).Inc()

	return verification, nil
}

// applyApprovalRewards settles tokens, XP, counters, streak and badges for
// the submitter. Runs inside the settlement transaction.
func (s *VerificationService) applyApprovalRewards(tx *gorm.DB, task *models.Task, overall int) error {
	submitter := *task.ClaimedBy
	taskID := task.ID

	if _, err := applyTokenDelta(tx, submitter, task.TokenReward, models.TransactionEarned,
		ledgerRef{TaskID: &taskID}, "Task completed: "+task.Title); err != nil {
		return err
	}
	metrics.TokensAwardedTotal.Add(float64(task.TokenReward))

	var profile models.Profile
	if err := tx.First(&profile, "id = ?", submitter).Error; err != nil {
		return err
	}

	now := time.Now()
	profile.TotalXP += task.XPReward
	profile.TasksCompleted++
	profile.ImpactScore += int64(overall)
	profile.CurrentStreak = nextStreak(profile.LastActivityDate, profile.CurrentStreak, now)
	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}
	profile.LastActivityDate = &now

	oldLevel := profile.Level
	profile.Level = levelForXP(profile.TotalXP)

	if err := tx.Model(&models.Profile{}).Where("id = ?", submitter).Updates(map[string]any{
		"total_xp":           profile.TotalXP,
		"tasks_completed":    profile.TasksCompleted,
		"impact_score":       profile.ImpactScore,
		"current_streak":     profile.CurrentStreak,
		"longest_streak":     profile.LongestStreak,
		"last_activity_date": profile.LastActivityDate,
		"level":              profile.Level,
	}).Error; err != nil {
		return err
	}

	link := "/dashboard/tasks/" + task.ID
	if err := insertNotification(tx, models.Notification{
		UserID: submitter,
		Type:   models.NotifyTaskVerified,
		Title:  "Task Verified!",
		Message: "Your task \"" + task.Title + "\" has been verified. You earned " +
			strconv.FormatInt(task.TokenReward, 10) + " tokens and " +
			strconv.FormatInt(task.XPReward, 10) + " XP!",
		Link: &link,
	}); err != nil {
		return err
	}

	if profile.Level > oldLevel {
		if err := insertNotification(tx, models.Notification{
			UserID:  submitter,
			Type:    models.NotifyLevelUp,
			Title:   "Level Up!",
			Message: "You reached level " + strconv.Itoa(profile.Level) + ".",
		}); err != nil {
			return err
		}
	}

	if _, err := autoAwardBadges(tx, submitter); err != nil {
		return err
	}

	return nil
}

// nextStreak applies the reset-on-gap rule: consecutive-day activity
// extends the streak, same-day activity keeps it, anything else restarts
// at 1.
func nextStreak(lastActivity *time.Time, current int, now time.Time) int {
	if lastActivity == nil {
		return 1
	}
	lastDay := lastActivity.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	switch today.Sub(lastDay) {
	case 0:
		if current == 0 {
			return 1
		}
		return current
	case 24 * time.Hour:
		return current + 1
	default:
		return 1
	}
}

func validScore(score int) bool {
	return score >= 1 && score <= 10
}

// --- Fiber handlers ---

// GetQueue lists submitted tasks awaiting verification, oldest first,
// excluding tasks the caller posted or claimed.
func (s *VerificationService) GetQueue(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var tasks []models.Task
	if err := s.DB.
		Where("status = ? AND posted_by <> ? AND (claimed_by IS NULL OR claimed_by <> ?)",
			models.TaskStatusSubmitted, userID, userID).
		Order("submitted_at ASC").
		Find(&tasks).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch verification queue")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch queue"})
	}

	return c.JSON(tasks)
}

// SettleTask is the settlement endpoint.
func (s *VerificationService) SettleTask(c *fiber.Ctx) error {
	verifierID := c.Locals("user_id").(string)
	taskID := c.Params("id")

	var req struct {
		Decision         string  `json:"decision"` // approved | rejected
		QualityScore     int     `json:"quality_score"`
		CleanlinessScore int     `json:"cleanliness_score"`
		ImpactScore      int     `json:"impact_score"`
		Notes            *string `json:"notes"`
		RejectionReason  *string `json:"rejection_reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Decision != "approved" && req.Decision != "rejected" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "decision must be approved or rejected"})
	}

	verification, err := s.Settle(taskID, verifierID, SettleInput{
		Approve:          req.Decision == "approved",
		QualityScore:     req.QualityScore,
		CleanlinessScore: req.CleanlinessScore,
		ImpactScore:      req.ImpactScore,
		Notes:            req.Notes,
		RejectionReason:  req.RejectionReason,
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, ErrInvalidScore):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidScore.Error()})
	case errors.Is(err, ErrSelfVerification):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrSelfVerification.Error()})
	case errors.Is(err, ErrAlreadySettled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrAlreadySettled.Error()})
	case errors.Is(err, ErrNotSubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrNotSubmitted.Error()})
	case err != nil:
		log.Error().Err(err).Str("task_id", taskID).Msg("settlement failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to settle task"})
	}

	return c.JSON(verification)
}
