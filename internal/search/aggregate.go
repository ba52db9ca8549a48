package search

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// DefaultMileValue is the assumed worth of one mile in the fare currency.
var DefaultMileValue = decimal.RequireFromString("0.0175")

// CostModel normalizes mixed cash and mileage pricing into one comparable total.
type CostModel struct {
	MileValue decimal.Decimal
}

// Total returns money + miles*MileValue + airlineTax.
func (m CostModel) Total(r types.FareRecord) decimal.Decimal {
	return r.Money.Add(r.Miles.Mul(m.MileValue)).Add(r.AirlineTax)
}

// BestFares holds the cheapest entry per (date, cabin) and the order keys were first seen.
type BestFares struct {
	model   CostModel
	entries map[types.FareKey]types.BestFareEntry
	order   []types.FareKey
}

// NewBestFares creates an empty BestFares priced with model.
func NewBestFares(model CostModel) *BestFares {
	return &BestFares{
		model:   model,
		entries: make(map[types.FareKey]types.BestFareEntry),
	}
}

// Offer prices the record and keeps it if it is strictly cheaper than the current entry
// for its key. Equal totals keep the earlier record. Reports whether the entry changed.
func (b *BestFares) Offer(r types.FareRecord) bool {
	key := types.FareKey{Date: r.Date, Cabin: r.Cabin}
	total := b.model.Total(r)

	current, ok := b.entries[key]
	if ok && !total.LessThan(current.Total) {
		return false
	}
	if !ok {
		b.order = append(b.order, key)
	}

	b.entries[key] = types.BestFareEntry{
		Date:     r.Date,
		Cabin:    r.Cabin,
		FareType: r.FareType,
		Total:    total,
		Airline:  r.Airline,
	}
	return true
}

// Get returns the entry for key.
func (b *BestFares) Get(key types.FareKey) (types.BestFareEntry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Len returns the number of keys seen.
func (b *BestFares) Len() int {
	return len(b.entries)
}

// Entries returns the entries in the order their keys were first seen.
func (b *BestFares) Entries() []types.BestFareEntry {
	out := make([]types.BestFareEntry, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.entries[k])
	}
	return out
}

// Aggregate reduces records to the cheapest fare per (date, cabin) in a single pass.
func Aggregate(records iter.Seq[types.FareRecord], model CostModel) *BestFares {
	best := NewBestFares(model)
	for r := range records {
		best.Offer(r)
	}
	return best
}
