package datasource

import (
	"context"

	"github.com/google/uuid"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/conceptnet"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// executeQuery writes the results of the query to sink.
func (d *Datasource) executeQuery(ctx context.Context, query *store.Query, sink store.Sink) {
	logger := d.logger.With("query_id", newQueryID())

	pattern := d.encoder.EncodePattern(query)
	logger.Debug("executing pattern query",
		"url", d.client.QueryURL(pattern, query.Offset, query.Limit))

	edges, found, err := d.client.Edges(ctx, pattern, query.Offset, query.Limit)
	if err != nil {
		logger.Warn("edge request failed", "error", err)
		d.metrics.QueriesTotal.WithLabelValues("error").Inc()
		sink.Error(d.endpointError(err))
		sink.Close()
		return
	}

	if !found {
		logger.Debug("response carried no edges")
		d.metrics.QueriesTotal.WithLabelValues("empty").Inc()
		sink.Close()
		sink.SetMetadata(store.Metadata{TotalCount: 0, HasExactCount: true})
		return
	}

	pushed := 0
	for i := range edges {
		binding := d.mapper.MapEdge(&edges[i])
		if binding == nil {
			d.metrics.EdgesFiltered.Inc()
			continue
		}
		sink.Push(binding.Quad(query))
		pushed++
	}
	sink.Close()
	d.metrics.QuadsEmitted.Add(float64(pushed))
	d.metrics.QueriesTotal.WithLabelValues("ok").Inc()
	logger.Debug("pushed quads", "edges", len(edges), "quads", pushed)

	// Determine the total number of matching triples
	meta, err := d.estimator.Estimate(ctx, pattern)
	if err != nil {
		logger.Warn("count estimation failed", "error", err)
		sink.Error(d.endpointError(err))
		return
	}
	sink.SetMetadata(meta)
}

func (d *Datasource) endpointError(err error) error {
	return &conceptnet.EndpointError{Endpoint: d.client.Endpoint(), Err: err}
}

func newQueryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
