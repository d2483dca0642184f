package model

import "time"

// RunStats counts what a history run processed.
type RunStats struct {
	Events       int
	Purchases    int
	FraudReports int
	Lines        int
	Customers    int
}

// Run describes one pass of the history builder over an input.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	Source     string
	Stats      RunStats
	AgingDays  int
}

// Finished reports whether the run completed.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}
