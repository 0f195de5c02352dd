// Package storage provides the categorization ledger: categories, applied
// categorizations, run history and rule statistics.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-spice-must-sort/internal/model"
	"github.com/Veraticus/the-spice-must-sort/internal/service"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidUpdate = errors.New("invalid categorization update")
	ErrInvalidRun    = errors.New("invalid run")
	ErrNotFound      = errors.New("not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateUpdate(u service.Update) error {
	if strings.TrimSpace(u.TransactionID) == "" {
		return fmt.Errorf("%w: missing transaction ID", ErrInvalidUpdate)
	}
	if strings.TrimSpace(u.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidUpdate)
	}
	if u.Confidence < 0 || u.Confidence > 100 {
		return fmt.Errorf("%w: confidence %d outside 0-100", ErrInvalidUpdate, u.Confidence)
	}
	return nil
}

func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	return nil
}
