package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// SearchWindow is the route and date range of one run.
type SearchWindow struct {
	Origin      string
	Destination string
	Start       string // YYYY-MM-DD
	Days        int
}

// Validate checks airport codes and the date range.
func (w SearchWindow) Validate() error {
	if !validAirport(w.Origin) {
		return fmt.Errorf("%w: origin %q is not a 3-letter airport code", ErrInvalidWindow, w.Origin)
	}
	if !validAirport(w.Destination) {
		return fmt.Errorf("%w: destination %q is not a 3-letter airport code", ErrInvalidWindow, w.Destination)
	}
	_, err := ExpandDates(w.Start, w.Days)
	return err
}

// Dates expands the window into its calendar dates.
func (w SearchWindow) Dates() ([]time.Time, error) {
	return ExpandDates(w.Start, w.Days)
}

// ExpandDates returns days consecutive dates beginning at start.
func ExpandDates(start string, days int) ([]time.Time, error) {
	first, err := time.Parse(types.DateLayout, strings.TrimSpace(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDateFormat, start)
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be at least 1, got %d", ErrInvalidWindow, days)
	}

	dates := make([]time.Time, days)
	for i := range dates {
		// AddDate keeps calendar arithmetic exact across month and year ends.
		dates[i] = first.AddDate(0, 0, i)
	}
	return dates, nil
}

func validAirport(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
