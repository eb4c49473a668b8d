package services

import (
	"fmt"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

// ValidationError reports a missing or malformed input field. It is returned
// before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == common.ErrorValidation }

// ConflictError is returned by CreateContent when the (contentId, projectId)
// pair is taken. Existing is the stored record, nil if it could not be read.
type ConflictError struct {
	Existing *models.Content
}

func (e *ConflictError) Error() string { return "content already exists" }

func (e *ConflictError) Is(target error) bool { return target == common.ErrorConflict }

// PersistenceError is a failure of the non-transactional path. Writes issued
// before Step may have been applied.
type PersistenceError struct {
	Op   string
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Op, e.Step, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == common.ErrorPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// stepError tags a repository failure with the step of the mutation that
// produced it.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }

func (e *stepError) Unwrap() error { return e.err }

func atStep(step string, err error) error {
	return &stepError{step: step, err: err}
}
