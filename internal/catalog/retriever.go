package catalog

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

// QueryRequest selects the files valid for one assimilation window.
// Empty filter strings match any value.
type QueryRequest struct {
	WindowBegin  time.Time
	WindowEnd    time.Time
	Instrument   string
	Satellite    string
	ObsType      string
	CheckReceipt domain.ReceiptMode
}

// Predicate translates the request into a store filter, including the
// receipt cutoff for realtime emulation.
func (q QueryRequest) Predicate() domain.Predicate {
	p := domain.Predicate{
		Begin:      q.WindowBegin,
		End:        q.WindowEnd,
		Instrument: q.Instrument,
		Satellite:  q.Satellite,
		ObsType:    q.ObsType,
	}
	if cutoff, ok := q.CheckReceipt.Cutoff(q.WindowEnd); ok {
		p.ReceiptCutoff = &cutoff
	}
	return p
}

// Retriever answers windowed queries against one store.
type Retriever struct {
	provider string
	store    Querier
	metrics  *observability.Metrics
	clock    clockwork.Clock
}

// NewRetriever creates a Retriever. metrics may be nil.
func NewRetriever(provider string, store Querier, metrics *observability.Metrics, clock clockwork.Clock) *Retriever {
	return &Retriever{provider: provider, store: store, metrics: metrics, clock: clock}
}

// Files returns the cataloged filenames with obs_time in
// [WindowBegin, WindowEnd] that pass every supplied filter. With a gdas or
// gfs receipt mode, files received after WindowEnd minus the run's latency
// allowance are excluded; files without a receipt time are always kept.
// An inverted window yields an empty result without consulting the store.
func (r *Retriever) Files(ctx context.Context, req QueryRequest) ([]string, error) {
	mode, err := domain.ParseReceiptMode(string(req.CheckReceipt))
	if err != nil {
		return nil, err
	}
	req.CheckReceipt = mode

	if req.WindowBegin.After(req.WindowEnd) {
		return []string{}, nil
	}

	start := r.clock.Now()
	files, err := r.store.Query(ctx, req.Predicate())
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}

	if r.metrics != nil {
		r.metrics.QueryDuration.WithLabelValues(r.provider).Observe(r.clock.Since(start).Seconds())
		r.metrics.QueryResults.WithLabelValues(r.provider).Observe(float64(len(files)))
	}
	return files, nil
}
