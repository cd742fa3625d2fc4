package services

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"saafsaksham-system/models"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// ledgerRef carries the optional foreign keys of a ledger row.
type ledgerRef struct {
	TaskID       *string
	RedemptionID *string
	BadgeID      *string
}

// applyTokenDelta mutates the denormalized balance and appends the matching
// ledger row, inside the caller's transaction. Debits are guarded by a
// compare-and-swap on the balance: the UPDATE only matches when
// total_tokens covers the debit, so the balance can never go negative,
// even under concurrent redemptions.
func applyTokenDelta(tx *gorm.DB, userID string, amount int64, txnType models.TransactionType, ref ledgerRef, description string) (int64, error) {
	if amount < 0 {
		res := tx.Model(&models.Profile{}).
			Where("id = ? AND total_tokens >= ?", userID, -amount).
			Update("total_tokens", gorm.Expr("total_tokens + ?", amount))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrInsufficientTokens
		}
	} else {
		res := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Update("total_tokens", gorm.Expr("total_tokens + ?", amount))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, gorm.ErrRecordNotFound
		}
	}

	var profile models.Profile
	if err := tx.Select("total_tokens").First(&profile, "id = ?", userID).Error; err != nil {
		return 0, err
	}

	txn := models.TokenTransaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		TransactionType: txnType,
		Amount:          amount,
		BalanceAfter:    profile.TotalTokens,
		TaskID:          ref.TaskID,
		RedemptionID:    ref.RedemptionID,
		BadgeID:         ref.BadgeID,
		Description:     description,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return 0, err
	}

	return profile.TotalTokens, nil
}

// GetTransactions lists the authenticated user's ledger, newest first.
func (s *WalletService) GetTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	var txns []models.TokenTransaction
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch transactions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	return c.JSON(txns)
}

// GetRedemptions lists the authenticated user's redemption history.
func (s *WalletService) GetRedemptions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var redemptions []models.Redemption
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&redemptions).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch redemptions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch redemptions"})
	}

	return c.JSON(redemptions)
}

// GetBalance returns the denormalized counter alongside the ledger sum so
// operators can spot drift between the two.
func (s *WalletService) GetBalance(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var profile models.Profile
	if err := s.DB.Select("total_tokens").First(&profile, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}

	var ledgerSum int64
	if err := s.DB.Model(&models.TokenTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&ledgerSum).Error; err != nil {
		log.Error().Err(err).Msg("failed to sum ledger")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute balance"})
	}

	return c.JSON(fiber.Map{
		"total_tokens": profile.TotalTokens,
		"ledger_sum":   ledgerSum,
		"in_sync":      profile.TotalTokens == ledgerSum,
	})
}
