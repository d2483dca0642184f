// Package ledger tracks the accumulated account history of every customer seen in an event stream.
//
// A Ledger is not safe for concurrent use. Callers that need to ingest in
// parallel must partition events by customer and give each partition its own
// exclusive owner.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Veraticus/account-history/internal/model"
)

// DefaultAgingDays is how old a purchase must be, relative to the event being
// classified, before it confirms good history.
const DefaultAgingDays = 90

// ErrInvalidAgingWindow is returned when the aging window is not positive.
var ErrInvalidAgingWindow = errors.New("aging window must be positive")

// Record is the accumulated history of a single customer.
// Counters are the source of truth; the status is derived from them.
type Record struct {
	status            model.Classification
	ID                string
	purchases         []time.Time
	FraudCount        int
	PurchaseCount     int
	AgedPurchaseCount int
}

// Status returns the classification derived from the current counters.
func (r *Record) Status() model.Classification {
	return r.status
}

func (r *Record) refresh() {
	r.status = Classify(r.FraudCount, r.PurchaseCount, r.AgedPurchaseCount)
}

// Classify derives a status from the three history counters.
// Fraud dominates, then aged purchases, then any purchase at all.
func Classify(fraudCount, purchaseCount, agedPurchaseCount int) model.Classification {
	switch {
	case fraudCount > 0:
		return model.Classification{Status: model.StatusFraudHistory, Count: fraudCount}
	case agedPurchaseCount > 0:
		return model.Classification{Status: model.StatusGoodHistory, Count: agedPurchaseCount}
	case purchaseCount > 0:
		return model.Classification{Status: model.StatusUnconfirmedHistory, Count: purchaseCount}
	default:
		return model.Classification{Status: model.StatusNoHistory}
	}
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAgingDays overrides DefaultAgingDays.
func WithAgingDays(days int) Option {
	return func(l *Ledger) {
		l.agingDays = days
	}
}

// Ledger maps customer identifiers to their records.
type Ledger struct {
	records   map[string]*Record
	agingDays int
}

// New creates an empty ledger.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		records:   make(map[string]*Record),
		agingDays: DefaultAgingDays,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.agingDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidAgingWindow, l.agingDays)
	}

	return l, nil
}

// AgingDays returns the configured aging window in days.
func (l *Ledger) AgingDays() int {
	return l.agingDays
}

// LookupOrCreate returns the record for id, registering a fresh one on first reference.
func (l *Ledger) LookupOrCreate(id string) *Record {
	if rec, ok := l.records[id]; ok {
		return rec
	}

	rec := &Record{ID: id}
	rec.refresh()
	l.records[id] = rec
	return rec
}

// Lookup returns the record for id without creating it.
func (l *Ledger) Lookup(id string) (*Record, bool) {
	rec, ok := l.records[id]
	return rec, ok
}

// RecordFraud counts a fraud report against rec.
func (l *Ledger) RecordFraud(rec *Record) {
	rec.FraudCount++
	rec.refresh()
}

// RecordPurchase counts a purchase made on date. aged marks a purchase that
// already lies outside the aging window of the reference date the caller is
// evaluating against.
func (l *Ledger) RecordPurchase(rec *Record, date time.Time, aged bool) {
	idx := sort.Search(len(rec.purchases), func(i int) bool {
		return rec.purchases[i].After(date)
	})
	rec.purchases = slices.Insert(rec.purchases, idx, date)

	rec.PurchaseCount++
	if aged {
		rec.AgedPurchaseCount++
	}
	rec.refresh()
}

// AgeTo recounts the aged purchases of rec using horizon as the reference date.
func (l *Ledger) AgeTo(rec *Record, horizon time.Time) {
	// Purchases are sorted, so the aged ones form a prefix.
	rec.AgedPurchaseCount = sort.Search(len(rec.purchases), func(i int) bool {
		return !l.IsAged(rec.purchases[i], horizon)
	})
	rec.refresh()
}

// IsAged reports whether a purchase made on purchase counts as aged when
// classifying an event dated horizon.
func (l *Ledger) IsAged(purchase, horizon time.Time) bool {
	return purchase.Before(l.cutoff(horizon))
}

func (l *Ledger) cutoff(horizon time.Time) time.Time {
	return horizon.AddDate(0, 0, -l.agingDays)
}

// Len returns the number of customers in the ledger.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Each calls fn for every record in identifier order.
func (l *Ledger) Each(fn func(*Record)) {
	ids := make([]string, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fn(l.records[id])
	}
}

// Summary aggregates the ledger by current status.
type Summary struct {
	ByStatus     map[model.Status]int
	Customers    int
	Purchases    int
	FraudReports int
}

// Snapshot summarizes the current state of every record.
func (l *Ledger) Snapshot() Summary {
	summary := Summary{
		ByStatus:  make(map[model.Status]int, len(model.Statuses)),
		Customers: len(l.records),
	}

	for _, rec := range l.records {
		summary.ByStatus[rec.status.Status]++
		summary.Purchases += rec.PurchaseCount
		summary.FraudReports += rec.FraudCount
	}

	return summary
}
