package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in queries, records and reports.
const DateLayout = "2006-01-02"

// RawResponse is the body returned for one request, or the failure that replaced it.
type RawResponse struct {
	Index int       // position of the originating descriptor in the batch
	Date  time.Time // requested departure date
	Body  []byte
	Err   error
}

// OK reports whether the response carries a body.
func (r RawResponse) OK() bool {
	return r.Err == nil
}

// FareRecord is one (flight, fare option) pair parsed from a response.
type FareRecord struct {
	Date       string
	Time       string
	Airline    string
	Cabin      string
	FareType   string
	Money      decimal.Decimal
	Miles      decimal.Decimal
	AirlineTax decimal.Decimal
}

// FareKey identifies a best-fare slot.
type FareKey struct {
	Date  string
	Cabin string
}

// BestFareEntry is the cheapest fare seen for a FareKey.
type BestFareEntry struct {
	Date     string          `json:"date"`
	Cabin    string          `json:"cabin"`
	FareType string          `json:"fare_type"`
	Total    decimal.Decimal `json:"total_value"`
	Airline  string          `json:"airline"`
}

// RunSummary counts what happened to each request of a run.
type RunSummary struct {
	Requested         int  `json:"requested"`
	TransportFailures int  `json:"transport_failures"`
	Malformed         int  `json:"malformed"`
	Records           int  `json:"records"`
	PersistFailed     bool `json:"persist_failed,omitempty"`
}

// FareTable is the sorted report handed to rendering sinks.
type FareTable struct {
	Entries     []BestFareEntry `json:"entries"`
	Summary     RunSummary      `json:"summary"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Row is a display-ready table line.
type Row struct {
	Date       string `json:"date"`
	Cabin      string `json:"cabin"`
	FareType   string `json:"fare_type"`
	TotalValue string `json:"total_value"`
	Airline    string `json:"airline"`
}

// Rows renders the entries with totals fixed to two decimals.
func (t *FareTable) Rows() []Row {
	rows := make([]Row, 0, len(t.Entries))
	for _, e := range t.Entries {
		rows = append(rows, Row{
			Date:       e.Date,
			Cabin:      e.Cabin,
			FareType:   e.FareType,
			TotalValue: e.Total.StringFixed(2),
			Airline:    e.Airline,
		})
	}
	return rows
}

// Empty reports whether no fare was found.
func (t *FareTable) Empty() bool {
	return len(t.Entries) == 0
}
