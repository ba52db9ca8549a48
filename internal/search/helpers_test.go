package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/search"
)

type testFare struct {
	Type       string  `json:"type"`
	Money      float64 `json:"money"`
	Miles      int     `json:"miles"`
	AirlineTax float64 `json:"airlineTax"`
}

type testFlight struct {
	DepartureDate string
	Airline       string
	Cabin         string
	Fares         []testFare
}

// responseBody renders flights in the shape of the flight-search API.
func responseBody(flights ...testFlight) []byte {
	list := make([]map[string]any, 0, len(flights))
	for _, f := range flights {
		list = append(list, map[string]any{
			"departure": map[string]any{"date": f.DepartureDate},
			"airline":   map[string]any{"code": f.Airline},
			"cabin":     f.Cabin,
			"fareList":  f.Fares,
		})
	}
	body, err := json.Marshal(map[string]any{
		"requestedFlightSegmentList": []map[string]any{{"flightList": list}},
	})
	if err != nil {
		panic(err)
	}
	return body
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testMetrics() *obs.Metrics {
	return obs.NewMetrics(testLogger())
}

// mockTransport answers by departure date.
type mockTransport struct {
	bodies map[string][]byte
	errs   map[string]error
	delay  time.Duration
	// hang lists dates that never answer before ctx is done.
	hang map[string]bool

	mu    sync.Mutex
	calls []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (m *mockTransport) Send(ctx context.Context, d search.Descriptor) ([]byte, error) {
	date := d.Get(search.ParamDepartureDate)

	m.mu.Lock()
	m.calls = append(m.calls, date)
	m.mu.Unlock()

	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if m.hang[date] {
		<-ctx.Done()
		return nil, context.Cause(ctx)
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}

	if err, ok := m.errs[date]; ok {
		return nil, err
	}
	if body, ok := m.bodies[date]; ok {
		return body, nil
	}
	return nil, errors.New("no mock body for " + date)
}

type countingProgress struct {
	n atomic.Int32
}

func (p *countingProgress) Add(n int) error {
	p.n.Add(int32(n))
	return nil
}
