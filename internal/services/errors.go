package services

import (
	"errors"
	"fmt"

	"github.com/Jonathon-AR/resollectAssignment/internal/database"
)

var (
	// ErrNotFound is returned when no task has the requested id
	ErrNotFound = errors.New("task not found")
	// ErrNotOngoing is returned when completing a task that already finished
	ErrNotOngoing = errors.New("task is not ongoing")
	// ErrStoreUnavailable wraps failures of the record store
	ErrStoreUnavailable = errors.New("task store unavailable")
	// ErrSweepInProgress is returned by RunOnce while another sweep is running
	ErrSweepInProgress = errors.New("sweep already in progress")
)

// storeError maps a record store error onto the service error set
func storeError(op string, err error) error {
	if errors.Is(err, database.ErrTaskNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
