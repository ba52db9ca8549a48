package search

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/search/types"
)

// ResponseStore persists successful response bodies so a run can be re-parsed offline.
type ResponseStore interface {
	Save(ctx context.Context, bodies []string) error
	Load(ctx context.Context) ([]string, error)
}

// Query is everything one run needs besides the wiring.
type Query struct {
	Window SearchWindow
	Adults int
	Cost   CostModel
}

// Pipeline runs dates -> requests -> responses -> records -> best fares -> table.
type Pipeline struct {
	base       map[string]string
	dispatcher *Dispatcher
	store      ResponseStore
	metrics    *obs.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline creates a new Pipeline. store may be nil to skip persistence.
func NewPipeline(base map[string]string, dispatcher *Dispatcher, store ResponseStore, metrics *obs.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		base:       maps.Clone(base),
		dispatcher: dispatcher,
		store:      store,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// WithProgress returns a copy of the pipeline whose dispatcher reports to pr.
func (p *Pipeline) WithProgress(pr Progress) *Pipeline {
	c := *p
	c.dispatcher = p.dispatcher.WithProgress(pr)
	return &c
}

// Run queries every date of the window and builds the fare table.
// Invalid input and cancellation of ctx are fatal; failed requests and
// unparsable bodies are counted in the summary.
func (p *Pipeline) Run(ctx context.Context, q Query) (*types.FareTable, error) {
	descriptors, err := BuildRequests(p.base, q.Window, q.Adults)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	p.metrics.IncRuns()

	start := time.Now()
	logger.Info("dispatching fare search",
		"origin", q.Window.Origin,
		"destination", q.Window.Destination,
		"start", q.Window.Start,
		"days", q.Window.Days)

	responses := p.dispatcher.Dispatch(ctx, descriptors)

	// A cancelled run has holes where dates were never asked; it is neither
	// a report nor a capture worth keeping.
	if ctx.Err() != nil {
		err := context.Cause(ctx)
		logger.Warn("fare search cancelled", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	summary := types.RunSummary{Requested: len(responses)}
	bodies := make([]string, 0, len(responses))
	for _, r := range responses {
		if !r.OK() {
			summary.TransportFailures++
			continue
		}
		bodies = append(bodies, string(r.Body))
	}

	switch {
	case p.store == nil:
	case len(bodies) == 0:
		// Keep the previous capture instead of replacing it with nothing.
		logger.Warn("no responses to persist")
	default:
		if err := p.store.Save(ctx, bodies); err != nil {
			summary.PersistFailed = true
			logger.Error("failed to persist responses", "error", err)
		}
	}

	table := p.reduce(logger, responses, q.Cost, summary)

	logger.Info("fare search completed",
		"requested", summary.Requested,
		"transport_failures", table.Summary.TransportFailures,
		"malformed", table.Summary.Malformed,
		"records", table.Summary.Records,
		"entries", len(table.Entries),
		"duration_ms", time.Since(start).Milliseconds())

	return table, nil
}

// Replay rebuilds the fare table from persisted bodies without dispatching.
func (p *Pipeline) Replay(ctx context.Context, store ResponseStore, model CostModel) (*types.FareTable, error) {
	bodies, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]types.RawResponse, len(bodies))
	for i, b := range bodies {
		responses[i] = types.RawResponse{Index: i, Body: []byte(b)}
	}

	return p.reduce(p.logger, responses, model, types.RunSummary{Requested: len(bodies)}), nil
}

func (p *Pipeline) reduce(logger *slog.Logger, responses []types.RawResponse, model CostModel, summary types.RunSummary) *types.FareTable {
	seqs := make([]iter.Seq[types.FareRecord], 0, len(responses))
	for _, r := range responses {
		if !r.OK() {
			continue
		}
		seq, err := Extract(r)
		if err != nil {
			summary.Malformed++
			p.metrics.IncMalformed()
			logger.Warn("skipping malformed response", "index", r.Index, "error", err)
			continue
		}
		seqs = append(seqs, seq)
	}

	records := func(yield func(types.FareRecord) bool) {
		for _, seq := range seqs {
			for rec := range seq {
				summary.Records++
				if !yield(rec) {
					return
				}
			}
		}
	}

	best := Aggregate(records, model)
	if best.Len() == 0 {
		logger.Info("no fares found")
	}
	return BuildTable(best, summary, p.now())
}
