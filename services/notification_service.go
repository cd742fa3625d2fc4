package services

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"saafsaksham-system/models"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// insertNotification appends a user-facing event row. Callers inside a
// settlement transaction pass their tx so the notification commits with it.
func insertNotification(tx *gorm.DB, n models.Notification) error {
	n.ID = uuid.NewString()
	return tx.Create(&n).Error
}

// notify is the fire-and-forget variant: a failed insert is logged, never
// surfaced to the caller.
func notify(db *gorm.DB, n models.Notification) {
	if err := insertNotification(db, n); err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Str("type", string(n.Type)).
			Msg("failed to insert notification")
	}
}

// GetNotifications lists the authenticated user's notifications, newest
// first. ?unread=true restricts to unread.
func (s *NotificationService) GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch notifications")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	return c.JSON(notifications)
}

// GetCounts returns total and unread counts, pollable by the client.
func (s *NotificationService) GetCounts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var totalCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&totalCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting notifications"})
	}

	var unreadCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unreadCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting unread notifications"})
	}

	return c.JSON(fiber.Map{
		"total_count":  totalCount,
		"unread_count": unreadCount,
	})
}

// MarkRead marks a single notification read (idempotent).
func (s *NotificationService) MarkRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")

	res := s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("failed to mark notification read")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	return c.JSON(fiber.Map{"message": "OK", "notification_id": id, "read": true})
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		log.Error().Err(res.Error).Msg("failed to bulk mark notifications read")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message":      "OK",
		"marked_count": res.RowsAffected,
	})
}
