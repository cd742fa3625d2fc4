package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saafsaksham-system/cache"
	"saafsaksham-system/models"
)

func TestXPCurve(t *testing.T) {
	assert.Equal(t, int64(100), xpForNextLevel(1))
	assert.Equal(t, int64(229), xpForNextLevel(2))
	assert.Equal(t, int64(689), xpForNextLevel(5))

	assert.Equal(t, 1, levelForXP(0))
	assert.Equal(t, 1, levelForXP(99))
	assert.Equal(t, 2, levelForXP(100))
	assert.Equal(t, 2, levelForXP(328))
	assert.Equal(t, 3, levelForXP(329))
}

func TestMeetsCriteria(t *testing.T) {
	profile := &models.Profile{
		TasksCompleted: 12,
		TasksVerified:  3,
		CurrentStreak:  5,
		LongestStreak:  9,
		Level:          4,
		TotalXP:        800,
	}

	assert.True(t, meetsCriteria(profile, map[string]int64{"tasks_completed": 10}))
	assert.True(t, meetsCriteria(profile, map[string]int64{"tasks_completed": 10, "level": 4}))
	assert.False(t, meetsCriteria(profile, map[string]int64{"tasks_completed": 50}))
	assert.False(t, meetsCriteria(profile, map[string]int64{"current_streak": 7}))
	assert.True(t, meetsCriteria(profile, map[string]int64{"longest_streak": 7}))

	// Empty or unknown criteria never match.
	assert.False(t, meetsCriteria(profile, nil))
	assert.False(t, meetsCriteria(profile, map[string]int64{"coffee_consumed": 1}))
}

func TestAutoAwardBadges_AwardsOnceAndPaysRewards(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SeedBadges(db))

	profile := createTestProfile(t, db, "alice", models.RoleCitizen, 0)
	profile.TasksCompleted = 10
	require.NoError(t, db.Save(profile).Error)

	awarded, err := autoAwardBadges(db, "alice")
	require.NoError(t, err)
	require.Len(t, awarded, 2)
	assert.Equal(t, "FIRST_CLEANUP", awarded[0].Code)
	assert.Equal(t, "NEIGHBOURHOOD_HERO", awarded[1].Code)

	// FIRST_CLEANUP pays 10/25, NEIGHBOURHOOD_HERO pays 50/100.
	var reloaded models.Profile
	require.NoError(t, db.First(&reloaded, "id = ?", "alice").Error)
	assert.Equal(t, int64(60), reloaded.TotalTokens)
	assert.Equal(t, int64(125), reloaded.TotalXP)
	assert.Equal(t, 2, reloaded.Level) // 125 XP clears level 1

	var txns []models.TokenTransaction
	require.NoError(t, db.Where("user_id = ?", "alice").Find(&txns).Error)
	assert.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, models.TransactionBonus, txn.TransactionType)
		assert.NotNil(t, txn.BadgeID)
	}

	// Second pass finds nothing new.
	awarded, err = autoAwardBadges(db, "alice")
	require.NoError(t, err)
	assert.Empty(t, awarded)

	var badgeCount int64
	require.NoError(t, db.Model(&models.UserBadge{}).Where("user_id = ?", "alice").Count(&badgeCount).Error)
	assert.Equal(t, int64(2), badgeCount)
}

func TestSeedBadges_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SeedBadges(db))
	require.NoError(t, SeedBadges(db))

	var count int64
	require.NoError(t, db.Model(&models.Badge{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.BadgeCatalog)), count)
}

func TestRefreshLeaderboard_WritesRankedEntriesToCache(t *testing.T) {
	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	svc := NewGamificationService(db, redisCache, time.Minute)

	first := createTestProfile(t, db, "alice", models.RoleCitizen, 100)
	first.TotalXP = 900
	require.NoError(t, db.Save(first).Error)

	second := createTestProfile(t, db, "bob", models.RoleCitizen, 400)
	second.TotalXP = 500
	require.NoError(t, db.Save(second).Error)

	// Same XP as bob; fewer tokens breaks the tie below him.
	third := createTestProfile(t, db, "carol", models.RoleCitizen, 100)
	third.TotalXP = 500
	require.NoError(t, db.Save(third).Error)

	ctx := context.Background()
	require.NoError(t, svc.RefreshLeaderboard(ctx))

	cached, err := redisCache.Get(ctx, "leaderboard:global")
	require.NoError(t, err)
	require.NotEmpty(t, cached)

	var entries []LeaderboardEntry
	require.NoError(t, json.Unmarshal([]byte(cached), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{entries[0].UserID, entries[1].UserID, entries[2].UserID})
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestLeaderboardCache_MissReturnsEmptyString(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	val, err := redisCache.Get(context.Background(), "leaderboard:global")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}
