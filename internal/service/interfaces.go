// Package service defines the interfaces that connect the history builder to its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/account-history/internal/model"
)

// EventSource yields account events in input order.
// Next returns io.EOF once the source is exhausted.
type EventSource interface {
	Next(ctx context.Context) (model.Event, error)
}

// ReportSink consumes report lines in emission order.
type ReportSink interface {
	Write(ctx context.Context, line model.ReportLine) error
}

// RunStore archives the output of history runs.
type RunStore interface {
	CreateRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, run *model.Run) error
	SaveReportLines(ctx context.Context, runID string, lines []model.ReportLine) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetReportLines(ctx context.Context, runID string) ([]model.ReportLine, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
