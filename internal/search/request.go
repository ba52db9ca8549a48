package search

import (
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alex-user-go/farescan/internal/search/types"
)

// Query parameter names understood by the flight-search API.
const (
	ParamOrigin        = "originAirportCode"
	ParamDestination   = "destinationAirportCode"
	ParamAdults        = "adults"
	ParamDepartureDate = "departureDate"
)

// Descriptor is the immutable set of query parameters for one date.
type Descriptor struct {
	Index  int
	Date   time.Time
	params map[string]string
}

// Params returns a copy of the query parameters.
func (d Descriptor) Params() map[string]string {
	return maps.Clone(d.params)
}

// Get returns a single parameter value.
func (d Descriptor) Get(key string) string {
	return d.params[key]
}

// Query encodes the parameters as url.Values.
func (d Descriptor) Query() url.Values {
	q := make(url.Values, len(d.params))
	for k, v := range d.params {
		q.Set(k, v)
	}
	return q
}

// BuildRequests overlays the window onto the base parameter template, one descriptor per date.
// The template is never written to.
func BuildRequests(base map[string]string, window SearchWindow, adults int) ([]Descriptor, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if adults < 1 {
		adults = 1
	}
	dates, err := window.Dates()
	if err != nil {
		return nil, err
	}

	descriptors := make([]Descriptor, 0, len(dates))
	for i, date := range dates {
		params := make(map[string]string, len(base)+4)
		maps.Copy(params, base)
		params[ParamOrigin] = strings.ToUpper(window.Origin)
		params[ParamDestination] = strings.ToUpper(window.Destination)
		params[ParamAdults] = strconv.Itoa(adults)
		params[ParamDepartureDate] = date.Format(types.DateLayout)

		descriptors = append(descriptors, Descriptor{
			Index:  i,
			Date:   date,
			params: params,
		})
	}
	return descriptors, nil
}
