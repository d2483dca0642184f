package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/model"
	"github.com/Veraticus/account-history/internal/service"
)

// DefaultBatchSize is how many report lines RunSink buffers before writing them.
const DefaultBatchSize = 500

// RunSink archives the report lines of one run. Lines are written in batches;
// Flush must be called once the run is complete.
type RunSink struct {
	store     service.RunStore
	runID     string
	pending   []model.ReportLine
	batchSize int
	retry     service.RetryOptions
}

// NewRunSink creates a sink appending to runID.
func NewRunSink(store service.RunStore, runID string, batchSize int) *RunSink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RunSink{
		store:     store,
		runID:     runID,
		batchSize: batchSize,
		pending:   make([]model.ReportLine, 0, batchSize),
		retry:     service.RetryOptions{MaxAttempts: 5},
	}
}

// Write implements service.ReportSink.
func (s *RunSink) Write(ctx context.Context, line model.ReportLine) error {
	s.pending = append(s.pending, line)
	if len(s.pending) < s.batchSize {
		return nil
	}
	return s.Flush(ctx)
}

// Flush writes all buffered lines.
func (s *RunSink) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	err := common.WithRetry(ctx, func() error {
		return s.store.SaveReportLines(ctx, s.runID, s.pending)
	}, s.retry)
	if err != nil {
		return fmt.Errorf("failed to archive report lines: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}
