package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"saafsaksham-system/metrics"
	"saafsaksham-system/models"
	"saafsaksham-system/utils"
)

// defaultRewards by severity, applied when the poster does not set explicit
// token/XP rewards.
var defaultRewards = map[models.TaskSeverity]struct{ Tokens, XP int64 }{
	models.SeverityLow:      {Tokens: 25, XP: 10},
	models.SeverityMedium:   {Tokens: 50, XP: 25},
	models.SeverityHigh:     {Tokens: 100, XP: 50},
	models.SeverityCritical: {Tokens: 200, XP: 100},
}

type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

// Claim flips an open task to claimed with a single conditional UPDATE.
// Zero matched rows means a concurrent claimant won the race (or the task
// left the open state some other way): exactly one caller succeeds.
func (s *TaskService) Claim(taskID, userID string) (*models.Task, error) {
	now := time.Now()
	res := s.DB.Model(&models.Task{}).
		Where("id = ? AND status = ?", taskID, models.TaskStatusOpen).
		Updates(map[string]any{
			"status":     models.TaskStatusClaimed,
			"claimed_by": userID,
			"claimed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		metrics.TaskClaimsTotal.WithLabelValues("lost_race").Inc()
		var task models.Task
		if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
			return nil, err
		}
		return nil, ErrAlreadyClaimed
	}

	metrics.TaskClaimsTotal.WithLabelValues("claimed").Inc()

	var task models.Task
	if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}

	if task.PostedBy != userID {
		link := "/dashboard/tasks/" + task.ID
		notify(s.DB, models.Notification{
			UserID:  task.PostedBy,
			Type:    models.NotifyTaskClaimed,
			Title:   "Task Claimed",
			Message: "Your " + utils.HumanizeLabel(string(task.Category)) + " task \"" + task.Title + "\" has been claimed.",
			Link:    &link,
		})
	}

	return &task, nil
}

// AddProof attaches an evidence row to a task the user currently holds a
// claim on. Proofs are immutable and only accepted before submission.
func (s *TaskService) AddProof(taskID, userID string, proof models.TaskProof) (*models.TaskProof, error) {
	var task models.Task
	if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusClaimed || task.ClaimedBy == nil || *task.ClaimedBy != userID {
		return nil, ErrNotClaimant
	}

	proof.ID = uuid.NewString()
	proof.TaskID = taskID
	proof.UserID = userID
	if proof.MediaType == "" {
		proof.MediaType = "image"
	}
	if err := s.DB.Create(&proof).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

// Submit moves a claimed task to submitted once every required proof type
// has been uploaded; otherwise it fails reporting every missing type.
func (s *TaskService) Submit(taskID, userID string) (*models.Task, error) {
	var task models.Task
	if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusClaimed || task.ClaimedBy == nil || *task.ClaimedBy != userID {
		return nil, ErrNotClaimant
	}

	var proofs []models.TaskProof
	if err := s.DB.Where("task_id = ?", taskID).Find(&proofs).Error; err != nil {
		return nil, err
	}

	uploaded := make(map[models.ProofType]bool, len(proofs))
	for _, p := range proofs {
		uploaded[p.ProofType] = true
	}

	var missing []models.ProofType
	for _, required := range task.EffectiveProofTypes() {
		if !uploaded[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		metrics.TaskSubmissionsTotal.WithLabelValues("missing_proofs").Inc()
		return nil, &MissingProofsError{Missing: missing}
	}

	now := time.Now()
	res := s.DB.Model(&models.Task{}).
		Where("id = ? AND status = ? AND claimed_by = ?", taskID, models.TaskStatusClaimed, userID).
		Updates(map[string]any{
			"status":       models.TaskStatusSubmitted,
			"submitted_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotClaimant
	}

	metrics.TaskSubmissionsTotal.WithLabelValues("submitted").Inc()

	task.Status = models.TaskStatusSubmitted
	task.SubmittedAt = &now
	return &task, nil
}

// ExpireOverdue sweeps open/claimed tasks past their expiry to expired and
// notifies the claimant. Called by the scheduler.
func (s *TaskService) ExpireOverdue(now time.Time) (int, error) {
	var tasks []models.Task
	if err := s.DB.
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]models.TaskStatus{models.TaskStatusOpen, models.TaskStatusClaimed}, now).
		Find(&tasks).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, task := range tasks {
		res := s.DB.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, task.Status).
			Update("status", models.TaskStatusExpired)
		if res.Error != nil {
			log.Error().Err(res.Error).Str("task_id", task.ID).Msg("failed to expire task")
			continue
		}
		if res.RowsAffected == 0 {
			continue // status moved on under us, leave it alone
		}

		expired++
		metrics.TasksExpiredTotal.Inc()

		if task.ClaimedBy != nil {
			link := "/dashboard/tasks/" + task.ID
			notify(s.DB, models.Notification{
				UserID:  *task.ClaimedBy,
				Type:    models.NotifyTaskExpired,
				Title:   "Task Expired",
				Message: "The task \"" + task.Title + "\" expired before submission.",
				Link:    &link,
			})
		}
	}

	return expired, nil
}

// --- Fiber handlers ---

// CreateTask reports a new civic issue.
func (s *TaskService) CreateTask(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Title              string             `json:"title"`
		Description        string             `json:"description"`
		Category           models.TaskCategory `json:"category"`
		Severity           models.TaskSeverity `json:"severity"`
		Latitude           *float64           `json:"latitude"`
		Longitude          *float64           `json:"longitude"`
		LocationAddress    *string            `json:"location_address"`
		City               *string            `json:"city"`
		ImageURL           string             `json:"image_url"`
		TokenReward        *int64             `json:"token_reward"`
		XPReward           *int64             `json:"xp_reward"`
		RequiredProofTypes []models.ProofType `json:"required_proof_types"`
		ExpiresAt          *time.Time         `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title == "" || req.Category == "" || req.Severity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, category and severity are required"})
	}
	rewards, ok := defaultRewards[req.Severity]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid severity"})
	}

	task := models.Task{
		ID:                 uuid.NewString(),
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Severity:           req.Severity,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		LocationAddress:    req.LocationAddress,
		City:               req.City,
		ImageURL:           req.ImageURL,
		TokenReward:        rewards.Tokens,
		XPReward:           rewards.XP,
		RequiredProofTypes: req.RequiredProofTypes,
		Status:             models.TaskStatusOpen,
		PostedBy:           userID,
		ExpiresAt:          req.ExpiresAt,
	}
	if req.TokenReward != nil && *req.TokenReward > 0 {
		task.TokenReward = *req.TokenReward
	}
	if req.XPReward != nil && *req.XPReward > 0 {
		task.XPReward = *req.XPReward
	}

	if err := s.DB.Create(&task).Error; err != nil {
		log.Error().Err(err).Msg("failed to create task")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Category), string(task.Severity)).Inc()
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTasks lists tasks with optional filters, chained onto the query only
// when present.
func (s *TaskService) GetTasks(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Task{})

	if categories := splitList(c.Query("category")); len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}
	if severities := splitList(c.Query("severity")); len(severities) > 0 {
		query = query.Where("severity IN ?", severities)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if postedBy := c.Query("posted_by"); postedBy != "" {
		query = query.Where("posted_by = ?", postedBy)
	}
	if claimedBy := c.Query("claimed_by"); claimedBy != "" {
		query = query.Where("claimed_by = ?", claimedBy)
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch tasks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}

	return c.JSON(tasks)
}

// GetMyTasks lists tasks the authenticated user has claimed.
func (s *TaskService) GetMyTasks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var tasks []models.Task
	if err := s.DB.Where("claimed_by = ?", userID).
		Order("claimed_at DESC").
		Find(&tasks).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch my tasks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}

	return c.JSON(tasks)
}

// GetTask returns a single task by id.
func (s *TaskService) GetTask(c *fiber.Ctx) error {
	id := c.Params("id")

	var task models.Task
	if err := s.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(task)
}

// GetTaskProofs lists proofs attached to a task, oldest first.
func (s *TaskService) GetTaskProofs(c *fiber.Ctx) error {
	id := c.Params("id")

	var proofs []models.TaskProof
	if err := s.DB.Where("task_id = ?", id).
		Order("created_at ASC").
		Find(&proofs).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch proofs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch proofs"})
	}

	return c.JSON(proofs)
}

// ClaimTask is the claim endpoint; losing the race surfaces as 409.
func (s *TaskService) ClaimTask(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	taskID := c.Params("id")

	task, err := s.Claim(taskID, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, ErrAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Task already claimed"})
	case err != nil:
		log.Error().Err(err).Str("task_id", taskID).Msg("claim failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim task"})
	}

	return c.JSON(fiber.Map{"message": "Task claimed", "task": task})
}

// AttachProof is the proof-upload endpoint.
func (s *TaskService) AttachProof(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	taskID := c.Params("id")

	var req struct {
		ProofType models.ProofType `json:"proof_type"`
		MediaURL  string           `json:"media_url"`
		MediaType string           `json:"media_type"`
		Caption   *string          `json:"caption"`
		Metadata  map[string]any   `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ProofType == "" || req.MediaURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "proof_type and media_url are required"})
	}

	proof, err := s.AddProof(taskID, userID, models.TaskProof{
		ProofType: req.ProofType,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		Caption:   req.Caption,
		Metadata:  req.Metadata,
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, ErrNotClaimant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Task is not claimed by you"})
	case err != nil:
		log.Error().Err(err).Str("task_id", taskID).Msg("proof upload failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to attach proof"})
	}

	return c.Status(fiber.StatusCreated).JSON(proof)
}

// SubmitTask is the submission endpoint; missing proofs surface as 400
// with the full list of missing types.
func (s *TaskService) SubmitTask(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	taskID := c.Params("id")

	task, err := s.Submit(taskID, userID)
	var missingErr *MissingProofsError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, ErrNotClaimant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Task is not claimed by you"})
	case errors.As(err, &missingErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          missingErr.Error(),
			"missing_proofs": missingErr.Missing,
		})
	case err != nil:
		log.Error().Err(err).Str("task_id", taskID).Msg("submit failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit task"})
	}

	return c.JSON(fiber.Map{"message": "Task submitted for verification", "task": task})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
