package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alex-user-go/farescan/internal/middleware"
	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/report"
	"github.com/alex-user-go/farescan/internal/search"
	"github.com/alex-user-go/farescan/internal/search/cache"
	"github.com/alex-user-go/farescan/internal/search/ratelimit"
	"github.com/alex-user-go/farescan/internal/search/types"
)

// MaxDays caps how many departure dates one request may fan out to.
const MaxDays = 31

// Defaults fill in optional query parameters.
type Defaults struct {
	Days      int
	Adults    int
	MileValue decimal.Decimal
}

// Handler handles HTTP requests.
type Handler struct {
	pipeline    *search.Pipeline
	cache       *cache.Cache
	rateLimiter *ratelimit.Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
	defaults    Defaults
}

// New creates a new Handler.
func New(
	pipeline *search.Pipeline,
	fareCache *cache.Cache,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
	defaults Defaults,
) *Handler {
	if defaults.Days < 1 {
		defaults.Days = 1
	}
	if defaults.Adults < 1 {
		defaults.Adults = 1
	}
	return &Handler{
		pipeline:    pipeline,
		cache:       fareCache,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
		defaults:    defaults,
	}
}

// FaresResponse represents the complete API response.
type FaresResponse struct {
	Search SearchInfo  `json:"search"`
	Stats  SearchStats `json:"stats"`
	Fares  []types.Row `json:"fares"`
}

// SearchInfo echoes the search parameters.
type SearchInfo struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Start       string `json:"start"`
	Days        int    `json:"days"`
	Adults      int    `json:"adults"`
	MileValue   string `json:"mile_value"`
}

// SearchStats reports how the run went.
type SearchStats struct {
	Requested         int    `json:"requested"`
	TransportFailures int    `json:"transport_failures"`
	Malformed         int    `json:"malformed"`
	Records           int    `json:"records"`
	Cache             string `json:"cache"`
	DurationMs        int64  `json:"duration_ms"`
}

// FaresHandler handles /fares requests.
func (h *Handler) FaresHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())

	ip := ExtractIP(r)
	if ok, wait := h.rateLimiter.Allow(ip); !ok {
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	params, err := ParseFareParams(r, h.defaults)
	if err != nil {
		h.logger.Debug("invalid request parameters", "request_id", requestID, "error", err, "ip", ip)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := params.Query()
	key := h.cache.Key(query)
	if strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
		h.cache.Invalidate(key)
	}

	table, cacheHit, err := h.cache.GetOrFetch(r.Context(), key, func() (*types.FareTable, error) {
		return h.pipeline.Run(r.Context(), query)
	})
	if err != nil && r.Context().Err() != nil {
		h.logger.Warn("client went away during fare search", "request_id", requestID, "error", err, "ip", ip)
		writeError(w, http.StatusServiceUnavailable, "search cancelled")
		return
	}
	if err != nil {
		h.logger.Error("fare search failed",
			"request_id", requestID,
			"error", err,
			"origin", params.Origin,
			"destination", params.Destination,
			"start", params.Start,
			"ip", ip,
		)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if table.Summary.Requested > 0 && table.Summary.TransportFailures == table.Summary.Requested {
		writeError(w, http.StatusBadGateway, "flight search api unavailable")
		return
	}

	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.IncCacheHits()
	}

	if params.Format == report.FormatHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.WriteHTML(w, table); err != nil {
			h.logger.Error("failed to render html report", "request_id", requestID, "error", err)
		}
		return
	}

	response := FaresResponse{
		Search: SearchInfo{
			Origin:      params.Origin,
			Destination: params.Destination,
			Start:       params.Start,
			Days:        params.Days,
			Adults:      params.Adults,
			MileValue:   params.MileValue.String(),
		},
		Stats: SearchStats{
			Requested:         table.Summary.Requested,
			TransportFailures: table.Summary.TransportFailures,
			Malformed:         table.Summary.Malformed,
			Records:           table.Summary.Records,
			Cache:             cacheStatus,
			DurationMs:        time.Since(startTime).Milliseconds(),
		},
		Fares: table.Rows(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Can't change status after WriteHeader, just log
		h.logger.Error("failed to encode response", "error", err)
	}
}

// FareParams holds validated /fares parameters.
type FareParams struct {
	Origin      string
	Destination string
	Start       string
	Days        int
	Adults      int
	MileValue   decimal.Decimal
	Format      string
}

// Query converts the parameters into a pipeline query.
func (p *FareParams) Query() search.Query {
	return search.Query{
		Window: search.SearchWindow{
			Origin:      p.Origin,
			Destination: p.Destination,
			Start:       p.Start,
			Days:        p.Days,
		},
		Adults: p.Adults,
		Cost:   search.CostModel{MileValue: p.MileValue},
	}
}

// ParseFareParams parses and validates /fares parameters from the request.
func ParseFareParams(r *http.Request, defaults Defaults) (*FareParams, error) {
	query := r.URL.Query()

	origin, err := airportParam(query.Get("origin"), "origin")
	if err != nil {
		return nil, err
	}
	destination, err := airportParam(query.Get("destination"), "destination")
	if err != nil {
		return nil, err
	}

	start := strings.TrimSpace(query.Get("start"))
	if start == "" {
		return nil, fmt.Errorf("start is required")
	}
	if _, err := time.Parse(types.DateLayout, start); err != nil {
		return nil, fmt.Errorf("start must be in YYYY-MM-DD format")
	}

	days := max(defaults.Days, 1)
	if v := query.Get("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("days must be a positive integer")
		}
		if days > MaxDays {
			return nil, fmt.Errorf("days must be at most %d", MaxDays)
		}
	}

	adults := max(defaults.Adults, 1)
	if v := query.Get("adults"); v != "" {
		adults, err = strconv.Atoi(v)
		if err != nil || adults <= 0 {
			return nil, fmt.Errorf("adults must be a positive integer")
		}
	}

	mileValue := defaults.MileValue
	if v := query.Get("mile_value"); v != "" {
		mileValue, err = decimal.NewFromString(v)
		if err != nil || mileValue.IsNegative() {
			return nil, fmt.Errorf("mile_value must be a non-negative number")
		}
	}

	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	switch format {
	case "", report.FormatJSON:
		format = report.FormatJSON
	case report.FormatHTML:
	default:
		return nil, fmt.Errorf("format must be json or html")
	}

	return &FareParams{
		Origin:      origin,
		Destination: destination,
		Start:       start,
		Days:        days,
		Adults:      adults,
		MileValue:   mileValue,
		Format:      format,
	}, nil
}

func airportParam(v, name string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(v))
	if code == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
		return "", fmt.Errorf("%s must be a 3-letter airport code", name)
	}
	return code, nil
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
