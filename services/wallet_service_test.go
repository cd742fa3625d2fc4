package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saafsaksham-system/models"
)

func TestApplyTokenDelta_CreditAndDebit(t *testing.T) {
	db := setupTestDB(t)
	createTestProfile(t, db, "alice", models.RoleCitizen, 0)

	balance, err := applyTokenDelta(db, "alice", 150, models.TransactionEarned, ledgerRef{}, "earned")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	balance, err = applyTokenDelta(db, "alice", -60, models.TransactionRedeemed, ledgerRef{}, "spent")
	require.NoError(t, err)
	assert.Equal(t, int64(90), balance)

	var txns []models.TokenTransaction
	require.NoError(t, db.Where("user_id = ?", "alice").Order("balance_after DESC").Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(150), txns[0].BalanceAfter)
	assert.Equal(t, int64(90), txns[1].BalanceAfter)
}

func TestApplyTokenDelta_BalanceNeverGoesNegative(t *testing.T) {
	db := setupTestDB(t)
	createTestProfile(t, db, "alice", models.RoleCitizen, 40)

	_, err := applyTokenDelta(db, "alice", -41, models.TransactionRedeemed, ledgerRef{}, "too much")
	assert.ErrorIs(t, err, ErrInsufficientTokens)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", "alice").Error)
	assert.Equal(t, int64(40), profile.TotalTokens)

	// The failed debit leaves no ledger trace.
	var count int64
	require.NoError(t, db.Model(&models.TokenTransaction{}).Where("user_id = ?", "alice").Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Spending exactly the balance is allowed.
	balance, err := applyTokenDelta(db, "alice", -40, models.TransactionRedeemed, ledgerRef{}, "all in")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestApplyTokenDelta_UnknownUser(t *testing.T) {
	db := setupTestDB(t)

	_, err := applyTokenDelta(db, "ghost", 10, models.TransactionEarned, ledgerRef{}, "earned")
	assert.Error(t, err)
}
