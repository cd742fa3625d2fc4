package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"saafsaksham-system/models"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
// Badges are not seeded; tests that exercise the badge path call
// SeedBadges themselves so reward assertions stay exact.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Task{},
		&models.TaskProof{},
		&models.Verification{},
		&models.TokenTransaction{},
		&models.Badge{},
		&models.UserBadge{},
		&models.RedemptionOption{},
		&models.Redemption{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to auto-migrate tables: %v", err)
	}

	return db
}

func createTestProfile(t *testing.T, db *gorm.DB, id string, role models.UserRole, tokens int64) *models.Profile {
	t.Helper()

	profile := models.Profile{
		ID:          id,
		DisplayName: "Test " + id,
		Role:        role,
		TotalTokens: tokens,
		Level:       1,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return &profile
}

func createOpenTask(t *testing.T, db *gorm.DB, postedBy string, severity models.TaskSeverity) *models.Task {
	t.Helper()

	rewards := defaultRewards[severity]
	task := models.Task{
		ID:          uuid.NewString(),
		Title:       "Clear garbage near the park",
		Description: "Overflowing bins on the east gate",
		Category:    models.CategoryGarbage,
		Severity:    severity,
		TokenReward: rewards.Tokens,
		XPReward:    rewards.XP,
		Status:      models.TaskStatusOpen,
		PostedBy:    postedBy,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return &task
}

// attachRequiredProofs uploads one proof per required type so the task
// becomes submittable.
func attachRequiredProofs(t *testing.T, db *gorm.DB, svc *TaskService, task *models.Task, userID string) {
	t.Helper()

	for _, pt := range task.EffectiveProofTypes() {
		if _, err := svc.AddProof(task.ID, userID, models.TaskProof{
			ProofType: pt,
			MediaURL:  "https://cdn.example.com/" + string(pt) + ".jpg",
		}); err != nil {
			t.Fatalf("failed to attach %s proof: %v", pt, err)
		}
	}
}

// submittedTask walks a fresh task through claim, proofs and submit.
func submittedTask(t *testing.T, db *gorm.DB, postedBy, claimedBy string, severity models.TaskSeverity) *models.Task {
	t.Helper()

	svc := NewTaskService(db)
	task := createOpenTask(t, db, postedBy, severity)
	if _, err := svc.Claim(task.ID, claimedBy); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	attachRequiredProofs(t, db, svc, task, claimedBy)
	if _, err := svc.Submit(task.ID, claimedBy); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	var out models.Task
	if err := db.First(&out, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("failed to reload task: %v", err)
	}
	return &out
}

func timePtr(v time.Time) *time.Time { return &v }
