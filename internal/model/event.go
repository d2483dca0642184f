package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on input and output.
const DateLayout = "2006-01-02"

// EventType identifies what happened to a customer account.
type EventType string

const (
	// EventPurchase is a purchase made by the customer.
	EventPurchase EventType = "PURCHASE"
	// EventFraudReport is a fraud report filed against the customer.
	EventFraudReport EventType = "FRAUD_REPORT"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	return t == EventPurchase || t == EventFraudReport
}

// Event is a single dated account event.
type Event struct {
	Date       time.Time
	CustomerID string
	Type       EventType
}

// String renders the event in input format.
func (e Event) String() string {
	return fmt.Sprintf("%s,%s,%s", e.Date.Format(DateLayout), e.CustomerID, e.Type)
}
