package search

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// searchResponse mirrors the parts of the flight-search payload that carry fares.
// Required leaves are pointers so a missing field can be told apart from a zero value.
type searchResponse struct {
	RequestedFlightSegmentList []struct {
		FlightList []flight `json:"flightList"`
	} `json:"requestedFlightSegmentList"`
}

type flight struct {
	Departure *struct {
		Date *string `json:"date"`
	} `json:"departure"`
	Airline *struct {
		Code *string `json:"code"`
	} `json:"airline"`
	Cabin    *string `json:"cabin"`
	FareList *[]fare `json:"fareList"`
}

type fare struct {
	Type       *string          `json:"type"`
	Money      *decimal.Decimal `json:"money"`
	Miles      *decimal.Decimal `json:"miles"`
	AirlineTax *decimal.Decimal `json:"airlineTax"`
}

// Extract parses a response into fare records, one per (flight, fare option).
// The body is validated up front; the returned sequence builds records lazily.
// A response without flights yields an empty sequence and no error.
func Extract(raw types.RawResponse) (iter.Seq[types.FareRecord], error) {
	if raw.Err != nil {
		return nil, raw.Err
	}

	var resp searchResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: response %d: %w", ErrMalformedResponse, raw.Index, err)
	}

	if len(resp.RequestedFlightSegmentList) == 0 || len(resp.RequestedFlightSegmentList[0].FlightList) == 0 {
		return func(func(types.FareRecord) bool) {}, nil
	}

	flights := resp.RequestedFlightSegmentList[0].FlightList
	for i := range flights {
		if err := flights[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: response %d, flight %d: %w", ErrMalformedResponse, raw.Index, i, err)
		}
	}

	return func(yield func(types.FareRecord) bool) {
		for _, f := range flights {
			date, clock, _ := strings.Cut(*f.Departure.Date, "T")
			for _, fr := range *f.FareList {
				rec := types.FareRecord{
					Date:       date,
					Time:       clock,
					Airline:    *f.Airline.Code,
					Cabin:      *f.Cabin,
					FareType:   *fr.Type,
					Money:      *fr.Money,
					Miles:      *fr.Miles,
					AirlineTax: *fr.AirlineTax,
				}
				if !yield(rec) {
					return
				}
			}
		}
	}, nil
}

func (f *flight) validate() error {
	switch {
	case f.Departure == nil || f.Departure.Date == nil:
		return fmt.Errorf("missing departure.date")
	case f.Airline == nil || f.Airline.Code == nil:
		return fmt.Errorf("missing airline.code")
	case f.Cabin == nil:
		return fmt.Errorf("missing cabin")
	case f.FareList == nil:
		return fmt.Errorf("missing fareList")
	}

	date, _, ok := strings.Cut(*f.Departure.Date, "T")
	if !ok {
		return fmt.Errorf("departure.date %q has no time part", *f.Departure.Date)
	}
	if _, err := time.Parse(types.DateLayout, date); err != nil {
		return fmt.Errorf("departure.date %q: %w", *f.Departure.Date, err)
	}

	for j, fr := range *f.FareList {
		switch {
		case fr.Type == nil:
			return fmt.Errorf("fare %d: missing type", j)
		case fr.Money == nil:
			return fmt.Errorf("fare %d: missing money", j)
		case fr.Miles == nil:
			return fmt.Errorf("fare %d: missing miles", j)
		case fr.AirlineTax == nil:
			return fmt.Errorf("fare %d: missing airlineTax", j)
		}
	}
	return nil
}
