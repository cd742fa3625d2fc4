package services

import (
	"errors"
	"fmt"
	"strings"

	"saafsaksham-system/models"
)

var (
	// ErrAlreadyClaimed: the conditional claim update matched zero rows.
	ErrAlreadyClaimed = errors.New("task already claimed")

	// ErrNotClaimant: the acting user does not hold the claim on the task.
	ErrNotClaimant = errors.New("task is not claimed by this user")

	// ErrNotSubmitted: settlement attempted on a task outside the submitted state.
	ErrNotSubmitted = errors.New("task is not awaiting verification")

	// ErrAlreadySettled: the task was already verified or rejected.
	ErrAlreadySettled = errors.New("task has already been settled")

	// ErrSelfVerification: a user may not settle a task they posted or claimed.
	ErrSelfVerification = errors.New("cannot verify your own task")

	// ErrInvalidScore: verification sub-scores must be within [1,10].
	ErrInvalidScore = errors.New("scores must be between 1 and 10")

	// ErrInsufficientTokens: the balance compare-and-swap matched zero rows.
	ErrInsufficientTokens = errors.New("Insufficient tokens")

	// ErrOutOfStock: the stock decrement matched zero rows.
	ErrOutOfStock = errors.New("reward is out of stock")

	// ErrOptionInactive: the redemption option is not active.
	ErrOptionInactive = errors.New("reward is not available")
)

// MissingProofsError reports every required proof type absent at submission.
type MissingProofsError struct {
	Missing []models.ProofType
}

func (e *MissingProofsError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		parts[i] = string(p)
	}
	return fmt.Sprintf("missing required proofs: %s", strings.Join(parts, ", "))
}
