// Package storage provides the SQLite archive for history runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/account-history/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
	ErrInvalidLine  = errors.New("invalid report line")
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

func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	if run.AgingDays <= 0 {
		return fmt.Errorf("%w: aging window must be positive", ErrInvalidRun)
	}
	return nil
}

func validateReportLines(lines []model.ReportLine) error {
	for i, line := range lines {
		if line.CustomerID == "" {
			return fmt.Errorf("%w at index %d: missing customer", ErrInvalidLine, i)
		}
		if line.Date.IsZero() {
			return fmt.Errorf("%w at index %d: missing date", ErrInvalidLine, i)
		}
		if line.Classification.Status == "" {
			return fmt.Errorf("%w at index %d: missing status", ErrInvalidLine, i)
		}
	}
	return nil
}
