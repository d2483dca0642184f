// Package report provides sinks for the account history report.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/account-history/internal/model"
	"github.com/Veraticus/account-history/internal/service"
)

// TextSink writes one formatted line per report entry.
// Call Flush once the run is complete.
type TextSink struct {
	w *bufio.Writer
}

// NewTextSink creates a sink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// Write implements service.ReportSink.
func (s *TextSink) Write(_ context.Context, line model.ReportLine) error {
	if _, err := s.w.WriteString(line.String() + "\n"); err != nil {
		return fmt.Errorf("failed to write report line: %w", err)
	}
	return nil
}

// Flush writes any buffered output.
func (s *TextSink) Flush() error {
	return s.w.Flush()
}

// CollectSink keeps every report line in memory.
type CollectSink struct {
	Lines []model.ReportLine
}

// Write implements service.ReportSink.
func (s *CollectSink) Write(_ context.Context, line model.ReportLine) error {
	s.Lines = append(s.Lines, line)
	return nil
}

// Strings returns the collected lines in output format.
func (s *CollectSink) Strings() []string {
	out := make([]string, len(s.Lines))
	for i, line := range s.Lines {
		out[i] = line.String()
	}
	return out
}

// MultiSink fans every line out to several sinks, stopping at the first failure.
type MultiSink []service.ReportSink

// Write implements service.ReportSink.
func (m MultiSink) Write(ctx context.Context, line model.ReportLine) error {
	for _, sink := range m {
		if err := sink.Write(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
