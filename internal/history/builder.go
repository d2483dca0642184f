// Package history turns an ordered stream of account events into per-purchase history reports.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/eventsource"
	"github.com/Veraticus/account-history/internal/ledger"
	"github.com/Veraticus/account-history/internal/model"
	"github.com/Veraticus/account-history/internal/report"
	"github.com/Veraticus/account-history/internal/service"
)

// Builder drives a ledger over an event stream. A report line for a purchase
// always reflects the customer's history before that purchase.
type Builder struct {
	ledger *ledger.Ledger
	sink   service.ReportSink
	stats  model.RunStats
}

// New creates a builder that records into l and emits into sink.
func New(l *ledger.Ledger, sink service.ReportSink) *Builder {
	return &Builder{
		ledger: l,
		sink:   sink,
	}
}

// Stats returns what the builder processed so far.
func (b *Builder) Stats() model.RunStats {
	stats := b.stats
	stats.Customers = b.ledger.Len()
	return stats
}

// Process handles a single event. It returns the emitted line and true for
// purchases, and false for fraud reports.
func (b *Builder) Process(ctx context.Context, ev model.Event) (model.ReportLine, bool, error) {
	if !ev.Type.IsValid() {
		return model.ReportLine{}, false, fmt.Errorf("%w: %q", common.ErrUnknownEventType, ev.Type)
	}

	rec := b.ledger.LookupOrCreate(ev.CustomerID)
	b.stats.Events++

	if ev.Type == model.EventFraudReport {
		b.ledger.RecordFraud(rec)
		b.stats.FraudReports++
		return model.ReportLine{}, false, nil
	}

	b.ledger.AgeTo(rec, ev.Date)
	line := model.ReportLine{
		Date:           ev.Date,
		CustomerID:     ev.CustomerID,
		Classification: rec.Status(),
	}

	if err := b.sink.Write(ctx, line); err != nil {
		return line, true, fmt.Errorf("failed to emit report for %s: %w", ev.CustomerID, err)
	}
	b.stats.Lines++

	slog.Debug("Emitted account history",
		"date", ev.Date.Format(model.DateLayout),
		"customer", ev.CustomerID,
		"status", line.Classification.String())

	// Recorded only after the report was emitted; a purchase is never aged against itself.
	b.ledger.RecordPurchase(rec, ev.Date, false)
	b.stats.Purchases++
	return line, true, nil
}

// Run processes every event from src in order and stops at the first error.
func (b *Builder) Run(ctx context.Context, src service.EventSource) (model.RunStats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return b.Stats(), err
		}

		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return b.Stats(), fmt.Errorf("failed to read event: %w", err)
		}

		if _, _, err := b.Process(ctx, ev); err != nil {
			return b.Stats(), err
		}
	}

	stats := b.Stats()
	slog.Info("History run complete",
		"events", stats.Events,
		"purchases", stats.Purchases,
		"fraud_reports", stats.FraudReports,
		"customers", stats.Customers)

	return stats, nil
}

// Build converts raw input lines into report lines using l.
func Build(ctx context.Context, l *ledger.Ledger, lines []string) ([]string, error) {
	sink := &report.CollectSink{}
	if _, err := New(l, sink).Run(ctx, eventsource.NewLineSource(lines)); err != nil {
		return nil, err
	}
	return sink.Strings(), nil
}
