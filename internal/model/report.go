package model

import "time"

// ReportLine is the account history emitted for a single purchase.
type ReportLine struct {
	Date           time.Time
	CustomerID     string
	Classification Classification
}

// String renders the line in output format.
func (r ReportLine) String() string {
	return r.Date.Format(DateLayout) + "," + r.CustomerID + "," + r.Classification.String()
}
