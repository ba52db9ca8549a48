package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var errAPIUnavailable = errors.New("flight search unavailable")

var (
	airlines  = []string{"G3", "AA", "AF", "KL", "LA"}
	cabins    = []string{"ECONOMY", "PREMIUM_ECONOMY", "BUSINESS"}
	fareTypes = []string{"SMILES_CLUB", "SMILES", "SMILES_MONEY_CLUB"}
)

type fare struct {
	Type       string  `json:"type"`
	Money      float64 `json:"money"`
	Miles      int     `json:"miles"`
	AirlineTax float64 `json:"airlineTax"`
}

type flight struct {
	UID       string `json:"uid"`
	Departure struct {
		Date    string `json:"date"`
		Airport struct {
			Code string `json:"code"`
		} `json:"airport"`
	} `json:"departure"`
	Arrival struct {
		Airport struct {
			Code string `json:"code"`
		} `json:"airport"`
	} `json:"arrival"`
	Airline struct {
		Code string `json:"code"`
	} `json:"airline"`
	Cabin    string `json:"cabin"`
	Stops    int    `json:"stops"`
	FareList []fare `json:"fareList"`
}

type segment struct {
	FlightList []flight `json:"flightList"`
}

type searchResponse struct {
	RequestedFlightSegmentList []segment `json:"requestedFlightSegmentList"`
}

// FlightAPI imitates the award search endpoint with random latency, failures and malformed bodies.
type FlightAPI struct {
	failureRate   float64
	malformedRate float64
	maxLatency    time.Duration
	logger        *slog.Logger
}

// NewFlightAPI creates a new FlightAPI.
func NewFlightAPI(failureRate, malformedRate float64, maxLatency time.Duration, logger *slog.Logger) *FlightAPI {
	return &FlightAPI{
		failureRate:   failureRate,
		malformedRate: malformedRate,
		maxLatency:    maxLatency,
		logger:        logger,
	}
}

// search simulates one date's search.
func (a *FlightAPI) search(ctx context.Context, origin, destination string, date time.Time, adults int) (*searchResponse, error) {
	latency := time.Duration(rand.Int64N(int64(a.maxLatency) + 1))

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}

	if rand.Float64() < a.failureRate {
		return nil, errAPIUnavailable
	}

	return &searchResponse{
		RequestedFlightSegmentList: []segment{{FlightList: a.generateFlights(origin, destination, date, adults)}},
	}, nil
}

func (a *FlightAPI) generateFlights(origin, destination string, date time.Time, adults int) []flight {
	n := rand.IntN(5)
	flights := make([]flight, 0, n)
	for i := range n {
		var f flight
		f.UID = fmt.Sprintf("%s%s%s-%d", origin, destination, date.Format("20060102"), i)
		departure := date.Add(time.Duration(5+rand.IntN(18))*time.Hour + time.Duration(rand.IntN(4)*15)*time.Minute)
		f.Departure.Date = departure.Format("2006-01-02T15:04:05")
		f.Departure.Airport.Code = origin
		f.Arrival.Airport.Code = destination
		f.Airline.Code = airlines[rand.IntN(len(airlines))]
		f.Cabin = cabins[rand.IntN(len(cabins))]
		f.Stops = rand.IntN(3)
		f.FareList = generateFares(f.Cabin, adults)
		flights = append(flights, f)
	}
	return flights
}

func generateFares(cabin string, adults int) []fare {
	multiplier := 1.0
	switch cabin {
	case "PREMIUM_ECONOMY":
		multiplier = 1.8
	case "BUSINESS":
		multiplier = 3.5
	}

	fares := make([]fare, 0, len(fareTypes))
	for _, t := range fareTypes {
		miles := int(float64(10000+rand.IntN(60000))*multiplier) * adults
		var money float64
		if t == "SMILES_MONEY_CLUB" {
			// Part cash, part miles.
			money = roundCents(float64(200+rand.IntN(800)) * multiplier * float64(adults))
			miles /= 2
		}
		fares = append(fares, fare{
			Type:       t,
			Money:      money,
			Miles:      miles,
			AirlineTax: roundCents((50 + rand.Float64()*150) * float64(adults)),
		})
	}
	return fares
}

func roundCents(v float64) float64 {
	return float64(int(v*100)) / 100
}

// ServeHTTP handles HTTP requests for the mock API.
func (a *FlightAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := strings.ToUpper(strings.TrimSpace(q.Get("originAirportCode")))
	destination := strings.ToUpper(strings.TrimSpace(q.Get("destinationAirportCode")))
	dateStr := strings.TrimSpace(q.Get("departureDate"))

	if origin == "" || destination == "" || dateStr == "" {
		http.Error(w, "missing required parameters", http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		http.Error(w, "invalid departureDate", http.StatusBadRequest)
		return
	}

	adults := 1
	if v := q.Get("adults"); v != "" {
		adults, err = strconv.Atoi(v)
		if err != nil || adults <= 0 {
			http.Error(w, "invalid adults", http.StatusBadRequest)
			return
		}
	}

	resp, err := a.search(r.Context(), origin, destination, date, adults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if rand.Float64() < a.malformedRate {
		_, _ = w.Write([]byte(`{"requestedFlightSegmentList":[{"flightList":[{"cabin":`))
		return
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}
