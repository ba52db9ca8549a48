package search_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alex-user-go/farescan/internal/search"
	"github.com/alex-user-go/farescan/internal/search/types"
)

func TestExtract_NoFlights(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no segment list", body: `{}`},
		{name: "null segment list", body: `{"requestedFlightSegmentList":null}`},
		{name: "empty segment list", body: `{"requestedFlightSegmentList":[]}`},
		{name: "segment without flight list", body: `{"requestedFlightSegmentList":[{"type":"SEGMENT_1"}]}`},
		{name: "null flight list", body: `{"requestedFlightSegmentList":[{"flightList":null}]}`},
		{name: "empty flight list", body: `{"requestedFlightSegmentList":[{"flightList":[]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := search.Extract(types.RawResponse{Body: []byte(tt.body)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := slices.Collect(seq); len(got) != 0 {
				t.Errorf("got %d records, want 0", len(got))
			}
		})
	}
}

func TestExtract_OneRecordPerFlightAndFare(t *testing.T) {
	fares := []testFare{
		{Type: "SMILES", Money: 0, Miles: 10000, AirlineTax: 50},
		{Type: "SMILES_CLUB", Money: 0, Miles: 9000, AirlineTax: 50},
		{Type: "SMILES_MONEY", Money: 120.5, Miles: 5000, AirlineTax: 50},
	}
	body := responseBody(
		testFlight{DepartureDate: "2024-01-01T08:15:00", Airline: "G3", Cabin: "ECONOMY", Fares: fares},
		testFlight{DepartureDate: "2024-01-01T22:40:00", Airline: "AA", Cabin: "BUSINESS", Fares: fares},
	)

	seq, err := search.Extract(types.RawResponse{Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := slices.Collect(seq)

	if len(records) != 6 {
		t.Fatalf("got %d records, want 6", len(records))
	}

	first := records[0]
	if first.Date != "2024-01-01" || first.Time != "08:15:00" {
		t.Errorf("date/time = %s/%s, want 2024-01-01/08:15:00", first.Date, first.Time)
	}
	if first.Airline != "G3" || first.Cabin != "ECONOMY" || first.FareType != "SMILES" {
		t.Errorf("unexpected attribution: %+v", first)
	}
	if !first.Miles.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("miles = %s, want 10000", first.Miles)
	}

	third := records[2]
	if !third.Money.Equal(decimal.RequireFromString("120.5")) {
		t.Errorf("money = %s, want 120.5", third.Money)
	}

	last := records[5]
	if last.Time != "22:40:00" || last.Airline != "AA" || last.Cabin != "BUSINESS" || last.FareType != "SMILES_MONEY" {
		t.Errorf("unexpected last record: %+v", last)
	}
}

func TestExtract_StopsWhenConsumerStops(t *testing.T) {
	body := responseBody(testFlight{
		DepartureDate: "2024-01-01T08:15:00", Airline: "G3", Cabin: "ECONOMY",
		Fares: []testFare{{Type: "A"}, {Type: "B"}, {Type: "C"}},
	})

	seq, err := search.Extract(types.RawResponse{Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestExtract_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>502 Bad Gateway</html>`},
		{name: "wrong segment type", body: `{"requestedFlightSegmentList":{"flightList":[]}}`},
		{
			name: "missing departure",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"airline":{"code":"G3"},"cabin":"ECONOMY","fareList":[]}]}]}`,
		},
		{
			name: "date without time",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01"},"airline":{"code":"G3"},"cabin":"ECONOMY","fareList":[]}]}]}`,
		},
		{
			name: "unparsable date",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"Jan 1T10:00"},"airline":{"code":"G3"},"cabin":"ECONOMY","fareList":[]}]}]}`,
		},
		{
			name: "missing airline",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01T10:00:00"},"cabin":"ECONOMY","fareList":[]}]}]}`,
		},
		{
			name: "missing cabin",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01T10:00:00"},"airline":{"code":"G3"},"fareList":[]}]}]}`,
		},
		{
			name: "missing fare list",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01T10:00:00"},"airline":{"code":"G3"},"cabin":"ECONOMY"}]}]}`,
		},
		{
			name: "fare missing miles",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01T10:00:00"},"airline":{"code":"G3"},"cabin":"ECONOMY","fareList":[{"type":"SMILES","money":0,"airlineTax":10}]}]}]}`,
		},
		{
			name: "fare with text cost",
			body: `{"requestedFlightSegmentList":[{"flightList":[{"departure":{"date":"2024-01-01T10:00:00"},"airline":{"code":"G3"},"cabin":"ECONOMY","fareList":[{"type":"SMILES","money":"free","miles":1,"airlineTax":10}]}]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := search.Extract(types.RawResponse{Body: []byte(tt.body)})
			if !errors.Is(err, search.ErrMalformedResponse) {
				t.Fatalf("error = %v, want ErrMalformedResponse", err)
			}
			if seq != nil {
				t.Error("expected nil sequence on error")
			}
		})
	}
}

func TestExtract_FailureMarkerPassesThrough(t *testing.T) {
	marker := errors.Join(search.ErrTransportFailure, errors.New("timeout"))

	_, err := search.Extract(types.RawResponse{Err: marker})
	if !errors.Is(err, search.ErrTransportFailure) {
		t.Errorf("error = %v, want ErrTransportFailure", err)
	}
	if errors.Is(err, search.ErrMalformedResponse) {
		t.Error("transport failure must not be reported as malformed")
	}
}
