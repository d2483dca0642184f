// Package model defines the core domain models used throughout the application.
package model

import "strconv"

// Status summarizes a customer's account history.
type Status string

// Account history status constants, in classification priority order.
const (
	StatusFraudHistory       Status = "FRAUD_HISTORY"
	StatusGoodHistory        Status = "GOOD_HISTORY"
	StatusUnconfirmedHistory Status = "UNCONFIRMED_HISTORY"
	StatusNoHistory          Status = "NO_HISTORY"
)

// Statuses lists every status in classification priority order.
var Statuses = []Status{
	StatusFraudHistory,
	StatusGoodHistory,
	StatusUnconfirmedHistory,
	StatusNoHistory,
}

// Classification is a status together with its detail count.
// Count is zero for StatusNoHistory and positive otherwise.
type Classification struct {
	Status Status
	Count  int
}

// String renders the classification as it appears in a report line,
// e.g. "NO_HISTORY" or "GOOD_HISTORY:4".
func (c Classification) String() string {
	if c.Status == StatusNoHistory || c.Status == "" {
		return string(StatusNoHistory)
	}
	return string(c.Status) + ":" + strconv.Itoa(c.Count)
}
