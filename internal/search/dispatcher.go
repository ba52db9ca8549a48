package search

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alex-user-go/farescan/internal/obs"
	"github.com/alex-user-go/farescan/internal/search/types"
)

// DefaultConcurrency bounds in-flight requests when no limit is configured.
const DefaultConcurrency = 10

// Transport sends one request and returns its body.
type Transport interface {
	Send(ctx context.Context, d Descriptor) ([]byte, error)
}

// Progress is advanced once per finished request.
type Progress interface {
	Add(n int) error
}

// Dispatcher issues descriptors concurrently against a Transport.
type Dispatcher struct {
	transport Transport
	limit     int
	progress  Progress
	metrics   *obs.Metrics
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher. A limit below 1 uses DefaultConcurrency.
func NewDispatcher(transport Transport, limit int, metrics *obs.Metrics, logger *slog.Logger) *Dispatcher {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	return &Dispatcher{
		transport: transport,
		limit:     limit,
		metrics:   metrics,
		logger:    logger,
	}
}

// WithProgress returns a copy of the dispatcher reporting to p.
func (d *Dispatcher) WithProgress(p Progress) *Dispatcher {
	c := *d
	c.progress = p
	return &c
}

// Dispatch sends every descriptor and waits for all of them.
// results[i] always belongs to descriptors[i]; a failed send yields a marker instead of a body.
func (d *Dispatcher) Dispatch(ctx context.Context, descriptors []Descriptor) []types.RawResponse {
	results := make([]types.RawResponse, len(descriptors))

	var g errgroup.Group
	g.SetLimit(d.limit)

	for i, desc := range descriptors {
		g.Go(func() error {
			// Each task owns results[i]; no locking needed.
			results[i] = d.send(ctx, desc)
			if d.progress != nil {
				_ = d.progress.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, desc Descriptor) types.RawResponse {
	resp := types.RawResponse{Index: desc.Index, Date: desc.Date}

	if err := ctx.Err(); err != nil {
		resp.Err = fmt.Errorf("%w: %s: %w", ErrTransportFailure, desc.Get(ParamDepartureDate), context.Cause(ctx))
	} else if body, err := d.transport.Send(ctx, desc); err != nil {
		resp.Err = fmt.Errorf("%w: %s: %w", ErrTransportFailure, desc.Get(ParamDepartureDate), err)
	} else if len(body) == 0 {
		resp.Err = fmt.Errorf("%w: %s: empty body", ErrTransportFailure, desc.Get(ParamDepartureDate))
	} else {
		resp.Body = body
		return resp
	}

	d.metrics.IncTransportErrors()
	d.logger.Warn("request failed",
		"departure_date", desc.Get(ParamDepartureDate),
		"origin", desc.Get(ParamOrigin),
		"destination", desc.Get(ParamDestination),
		"error", resp.Err)
	return resp
}
