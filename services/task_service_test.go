package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saafsaksham-system/models"
)

func TestClaim_FirstClaimantWins(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	createTestProfile(t, db, "poster", models.RoleCitizen, 0)
	createTestProfile(t, db, "alice", models.RoleCitizen, 0)
	createTestProfile(t, db, "bob", models.RoleCitizen, 0)
	task := createOpenTask(t, db, "poster", models.SeverityMedium)

	claimed, err := svc.Claim(task.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimedBy)
	assert.Equal(t, "alice", *claimed.ClaimedBy)
	assert.NotNil(t, claimed.ClaimedAt)

	// Second claim hits the conditional UPDATE and loses.
	_, err = svc.Claim(task.ID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, "id = ?", task.ID).Error)
	assert.Equal(t, "alice", *reloaded.ClaimedBy)

	// The poster is told who took the task.
	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", "poster", models.NotifyTaskClaimed).First(&n).Error)
	assert.Contains(t, n.Message, task.Title)
}

func TestClaim_TaskNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	_, err := svc.Claim("no-such-task", "alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyClaimed)
}

func TestSubmit_RequiresAllProofTypes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	createTestProfile(t, db, "poster", models.RoleCitizen, 0)
	createTestProfile(t, db, "alice", models.RoleCitizen, 0)
	task := createOpenTask(t, db, "poster", models.SeverityMedium)

	_, err := svc.Claim(task.ID, "alice")
	require.NoError(t, err)

	// Only the before photo is uploaded; after_photo is still required.
	_, err = svc.AddProof(task.ID, "alice", models.TaskProof{
		ProofType: models.ProofBeforePhoto,
		MediaURL:  "https://cdn.example.com/before.jpg",
	})
	require.NoError(t, err)

	_, err = svc.Submit(task.ID, "alice")
	var missingErr *MissingProofsError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []models.ProofType{models.ProofAfterPhoto}, missingErr.Missing)

	// Task stays claimed after the failed submit.
	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, "id = ?", task.ID).Error)
	assert.Equal(t, models.TaskStatusClaimed, reloaded.Status)

	// Completing the set makes the submit go through.
	_, err = svc.AddProof(task.ID, "alice", models.TaskProof{
		ProofType: models.ProofAfterPhoto,
		MediaURL:  "https://cdn.example.com/after.jpg",
	})
	require.NoError(t, err)

	submitted, err := svc.Submit(task.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusSubmitted, submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)
}

func TestSubmit_OnlyClaimantCanSubmit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	createTestProfile(t, db, "poster", models.RoleCitizen, 0)
	createTestProfile(t, db, "alice", models.RoleCitizen, 0)
	task := createOpenTask(t, db, "poster", models.SeverityLow)

	_, err := svc.Claim(task.ID, "alice")
	require.NoError(t, err)

	_, err = svc.Submit(task.ID, "mallory")
	assert.ErrorIs(t, err, ErrNotClaimant)
}

func TestAddProof_RejectedWhenNotClaimed(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	createTestProfile(t, db, "poster", models.RoleCitizen, 0)
	task := createOpenTask(t, db, "poster", models.SeverityLow)

	_, err := svc.AddProof(task.ID, "alice", models.TaskProof{
		ProofType: models.ProofBeforePhoto,
		MediaURL:  "https://cdn.example.com/before.jpg",
	})
	assert.ErrorIs(t, err, ErrNotClaimant)
}

func TestExpireOverdue_SweepsOpenAndClaimed(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db)

	createTestProfile(t, db, "poster", models.RoleCitizen, 0)
	createTestProfile(t, db, "alice", models.RoleCitizen, 0)

	now := time.Now()
	past := timePtr(now.Add(-time.Hour))
	future := timePtr(now.Add(time.Hour))

	overdueOpen := createOpenTask(t, db, "poster", models.SeverityLow)
	require.NoError(t, db.Model(overdueOpen).Update("expires_at", past).Error)

	overdueClaimed := createOpenTask(t, db, "poster", models.SeverityLow)
	_, err := svc.Claim(overdueClaimed.ID, "alice")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", overdueClaimed.ID).Update("expires_at", past).Error)

	fresh := createOpenTask(t, db, "poster", models.SeverityLow)
	require.NoError(t, db.Model(fresh).Update("expires_at", future).Error)

	// Submitted tasks never expire.
	submitted := submittedTask(t, db, "poster", "alice", models.SeverityLow)
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", submitted.ID).Update("expires_at", past).Error)

	expired, err := svc.ExpireOverdue(now)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	for id, want := range map[string]models.TaskStatus{
		overdueOpen.ID:    models.TaskStatusExpired,
		overdueClaimed.ID: models.TaskStatusExpired,
		fresh.ID:          models.TaskStatusOpen,
		submitted.ID:      models.TaskStatusSubmitted,
	} {
		var task models.Task
		require.NoError(t, db.First(&task, "id = ?", id).Error)
		assert.Equal(t, want, task.Status, "task %s", id)
	}

	// The claimant of the expired claimed task gets notified.
	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", "alice", models.NotifyTaskExpired).First(&n).Error)

	// A second sweep finds nothing.
	expired, err = svc.ExpireOverdue(now)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestMissingProofsError_Message(t *testing.T) {
	err := &MissingProofsError{Missing: []models.ProofType{models.ProofBeforePhoto, models.ProofAfterPhoto}}
	assert.Equal(t, "missing required proofs: before_photo, after_photo", err.Error())

	var target *MissingProofsError
	assert.True(t, errors.As(err, &target))
}
