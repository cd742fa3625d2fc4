package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"saafsaksham-system/metrics"
	"saafsaksham-system/models"
)

type RewardsService struct {
	DB *gorm.DB
}

func NewRewardsService(db *gorm.DB) *RewardsService {
	return &RewardsService{DB: db}
}

// Redeem exchanges tokens for a catalog reward inside one transaction.
// Both the stock decrement and the balance debit are conditional UPDATEs:
// when either matches zero rows the whole redemption rolls back, so
// concurrent redemptions can neither oversell stock nor drive the balance
// negative.
func (s *RewardsService) Redeem(userID, optionID string) (*models.Redemption, error) {
	var redemption *models.Redemption
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var option models.RedemptionOption
		if err := tx.First(&option, "id = ?", optionID).Error; err != nil {
			return err
		}
		if !option.IsActive {
			return ErrOptionInactive
		}

		// Negative stock means unlimited.
		if option.StockQuantity >= 0 {
			res := tx.Model(&models.RedemptionOption{}).
				Where("id = ? AND stock_quantity > 0", optionID).
				Update("stock_quantity", gorm.Expr("stock_quantity - 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOutOfStock
			}
		}

		r := models.Redemption{
			ID:             uuid.NewString(),
			UserID:         userID,
			OptionID:       option.ID,
			PartnerID:      option.PartnerID,
			RewardTitle:    option.Title,
			RewardType:     option.Category,
			TokensSpent:    option.TokensRequired,
			Status:         models.RedemptionPending,
			RedemptionCode: newRedemptionCode(),
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}

		redemptionID := r.ID
		if _, err := applyTokenDelta(tx, userID, -option.TokensRequired, models.TransactionRedeemed,
			ledgerRef{RedemptionID: &redemptionID}, "Redeemed: "+option.Title); err != nil {
			return err
		}

		if err := insertNotification(tx, models.Notification{
			UserID: userID,
			Type:   models.NotifyRewardRedeemed,
			Title:  "Reward Redeemed!",
			Message: "You've redeemed " + option.Title + " for " +
				strconv.FormatInt(option.TokensRequired, 10) + " tokens.",
			Metadata: map[string]any{"redemption_id": r.ID},
		}); err != nil {
			return err
		}

		redemption = &r
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientTokens):
			metrics.RedemptionsTotal.WithLabelValues("insufficient_tokens").Inc()
		case errors.Is(err, ErrOutOfStock):
			metrics.RedemptionsTotal.WithLabelValues("out_of_stock").Inc()
		}
		return nil, err
	}

	metrics.RedemptionsTotal.WithLabelValues("redeemed").Inc()
	return redemption, nil
}

// Cancel voids a pending redemption, refunding the tokens and restoring
// stock. Admin operation.
func (s *RewardsService) Cancel(redemptionID string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Redemption{}).
			Where("id = ? AND status = ?", redemptionID, models.RedemptionPending).
			Update("status", models.RedemptionCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		if err := tx.First(&redemption, "id = ?", redemptionID).Error; err != nil {
			return err
		}

		refID := redemption.ID
		if _, err := applyTokenDelta(tx, redemption.UserID, redemption.TokensSpent, models.TransactionBonus,
			ledgerRef{RedemptionID: &refID}, "Refund: "+redemption.RewardTitle); err != nil {
			return err
		}

		// Only restock counted (non-negative) inventory.
		if err := tx.Model(&models.RedemptionOption{}).
			Where("id = ? AND stock_quantity >= 0", redemption.OptionID).
			Update("stock_quantity", gorm.Expr("stock_quantity + 1")).Error; err != nil {
			return err
		}

		return insertNotification(tx, models.Notification{
			UserID:  redemption.UserID,
			Type:    models.NotifySystem,
			Title:   "Redemption Cancelled",
			Message: "Your redemption of " + redemption.RewardTitle + " was cancelled and the tokens were refunded.",
		})
	})
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func newRedemptionCode() string {
	return "SS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// --- Fiber handlers ---

// GetCatalog lists active redemption options, cheapest first.
func (s *RewardsService) GetCatalog(c *fiber.Ctx) error {
	var options []models.RedemptionOption
	if err := s.DB.Where("is_active = ?", true).
		Order("tokens_required ASC").
		Find(&options).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch catalog")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rewards"})
	}

	return c.JSON(options)
}

// RedeemOption is the redemption endpoint.
func (s *RewardsService) RedeemOption(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	optionID := c.Params("id")

	redemption, err := s.Redeem(userID, optionID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
	case errors.Is(err, ErrOptionInactive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrOptionInactive.Error()})
	case errors.Is(err, ErrOutOfStock):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrOutOfStock.Error()})
	case errors.Is(err, ErrInsufficientTokens):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": ErrInsufficientTokens.Error()})
	case err != nil:
		log.Error().Err(err).Str("option_id", optionID).Msg("redemption failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to redeem reward"})
	}

	return c.Status(fiber.StatusCreated).JSON(redemption)
}

// GetRedemptionQR renders the redemption code as a PNG QR for the partner
// counter.
func (s *RewardsService) GetRedemptionQR(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")

	var redemption models.Redemption
	if err := s.DB.Where("id = ? AND user_id = ?", id, userID).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Redemption not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	png, err := qrcode.Encode(redemption.RedemptionCode, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode QR")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate QR code"})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// --- Admin handlers ---

// CreateOption adds a catalog entry (admin only).
func (s *RewardsService) CreateOption(c *fiber.Ctx) error {
	var req struct {
		Title          string                    `json:"title"`
		Description    string                    `json:"description"`
		Category       models.RedemptionCategory `json:"category"`
		TokensRequired int64                     `json:"tokens_required"`
		ImageURL       *string                   `json:"image_url"`
		IconName       *string                   `json:"icon_name"`
		PartnerID      *string                   `json:"partner_id"`
		StockQuantity  *int64                    `json:"stock_quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" || req.Category == "" || req.TokensRequired <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, category and a positive tokens_required are required"})
	}

	option := models.RedemptionOption{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		TokensRequired: req.TokensRequired,
		ImageURL:       req.ImageURL,
		IconName:       req.IconName,
		PartnerID:      req.PartnerID,
		StockQuantity:  -1,
		IsActive:       true,
	}
	if req.StockQuantity != nil {
		option.StockQuantity = *req.StockQuantity
	}

	if err := s.DB.Create(&option).Error; err != nil {
		log.Error().Err(err).Msg("failed to create redemption option")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reward"})
	}

	return c.Status(fiber.StatusCreated).JSON(option)
}

// UpdateOption updates a catalog entry; only provided fields change.
func (s *RewardsService) UpdateOption(c *fiber.Ctx) error {
	id := c.Params("id")

	var existing models.RedemptionOption
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Title          *string                    `json:"title"`
		Description    *string                    `json:"description"`
		Category       *models.RedemptionCategory `json:"category"`
		TokensRequired *int64                     `json:"tokens_required"`
		ImageURL       *string                    `json:"image_url"`
		IconName       *string                    `json:"icon_name"`
		StockQuantity  *int64                     `json:"stock_quantity"`
		IsActive       *bool                      `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.TokensRequired != nil {
		existing.TokensRequired = *req.TokensRequired
	}
	if req.ImageURL != nil {
		existing.ImageURL = req.ImageURL
	}
	if req.IconName != nil {
		existing.IconName = req.IconName
	}
	if req.StockQuantity != nil {
		existing.StockQuantity = *req.StockQuantity
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Error().Err(err).Msg("failed to update redemption option")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update reward"})
	}

	return c.JSON(existing)
}

// UpdateRedemptionStatus advances a redemption through fulfilment (admin
// only). Cancelling refunds through Cancel.
func (s *RewardsService) UpdateRedemptionStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status models.RedemptionStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch req.Status {
	case models.RedemptionCancelled:
		redemption, err := s.Cancel(id)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Redemption not found"})
		case errors.Is(err, ErrAlreadySettled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Redemption is not pending"})
		case err != nil:
			log.Error().Err(err).Msg("failed to cancel redemption")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel redemption"})
		}
		return c.JSON(redemption)

	case models.RedemptionApproved, models.RedemptionDelivered:
		updates := map[string]any{"status": req.Status}
		if req.Status == models.RedemptionDelivered {
			updates["fulfilled_at"] = time.Now()
		}
		res := s.DB.Model(&models.Redemption{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update redemption"})
		}
		if res.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Redemption not found"})
		}

		var redemption models.Redemption
		if err := s.DB.First(&redemption, "id = ?", id).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(redemption)

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be approved, delivered or cancelled"})
	}
}
