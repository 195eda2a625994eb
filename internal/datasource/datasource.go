// Package datasource answers quad pattern queries from a ConceptNet
// endpoint. Quads are streamed to a store.Sink as soon as the edge page has
// been fetched; the total-count metadata is attached afterwards.
package datasource

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/conceptnet"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/countcache"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/encoding"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/estimator"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

const DefaultBaseURI = "http://conceptnet.io"

var ErrUnsupportedQuery = errors.New("the datasource does not support the given query")

var supportedFeatures = map[store.Feature]bool{
	store.FeatureQuadPattern:   true,
	store.FeatureTriplePattern: true,
	store.FeatureLimit:         true,
	store.FeatureOffset:        true,
	store.FeatureTotalCount:    true,
}

// Options configures a Datasource.
type Options struct {
	// Endpoint is the ConceptNet query URL; any query string or fragment
	// is dropped.
	Endpoint string
	// Mapping is carried through unchanged for callers that need it.
	Mapping string
	// BaseURI relativizes outgoing and absolutizes incoming identifiers.
	BaseURI string
	// Languages restricts results to edges whose tagged endpoints use one
	// of these languages. Empty disables filtering.
	Languages []string

	CountTimeout        time.Duration
	CountCacheSize      int
	CountCacheTTL       time.Duration
	CountCacheThreshold int64
	CountStore          *store.CountStore

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Datasource is safe for concurrent use. Its count cache is shared by all
// queries it runs.
type Datasource struct {
	client    *conceptnet.Client
	encoder   *encoding.TermEncoder
	mapper    *conceptnet.Mapper
	cache     *countcache.Cache
	estimator *estimator.Estimator
	mapping   string
	baseURI   string
	languages []string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a datasource from opts.
func New(opts Options) *Datasource {
	if opts.BaseURI == "" {
		opts.BaseURI = DefaultBaseURI
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	client := conceptnet.NewClient(opts.Endpoint, opts.HTTPClient, opts.Metrics)
	cache := countcache.New(opts.CountCacheSize, opts.CountCacheTTL, opts.Metrics)
	logger := opts.Logger.With("component", "conceptnet-datasource", "endpoint", client.Endpoint())

	return &Datasource{
		client:  client,
		encoder: encoding.NewTermEncoder(opts.BaseURI),
		mapper:  conceptnet.NewMapper(opts.BaseURI, opts.Languages),
		cache:   cache,
		estimator: estimator.New(client, cache, estimator.Options{
			Endpoint:       client.Endpoint(),
			Timeout:        opts.CountTimeout,
			CacheThreshold: opts.CountCacheThreshold,
			Store:          opts.CountStore,
			Logger:         logger,
			Metrics:        opts.Metrics,
		}),
		mapping:   opts.Mapping,
		baseURI:   opts.BaseURI,
		languages: opts.Languages,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Endpoint returns the normalized endpoint URL.
func (d *Datasource) Endpoint() string {
	return d.client.Endpoint()
}

// Mapping returns the configured mapping option.
func (d *Datasource) Mapping() string {
	return d.mapping
}

// BaseURI returns the base URI used for identifier translation.
func (d *Datasource) BaseURI() string {
	return d.baseURI
}

// Languages returns the language allow-list.
func (d *Datasource) Languages() []string {
	return d.languages
}

// CountCache exposes the shared count cache, e.g. for periodic cleanup.
func (d *Datasource) CountCache() *countcache.Cache {
	return d.cache
}

// SupportedFeatures returns the features this datasource implements.
func (d *Datasource) SupportedFeatures() map[store.Feature]bool {
	features := make(map[store.Feature]bool, len(supportedFeatures))
	for f, ok := range supportedFeatures {
		features[f] = ok
	}
	return features
}

// SupportsQuery reports whether every feature the query requires is
// supported.
func (d *Datasource) SupportsQuery(query *store.Query) bool {
	for f, required := range query.Features {
		if required && !supportedFeatures[f] {
			return false
		}
	}
	return true
}

// Select starts answering query into sink and returns immediately. The
// sink receives the quads, then Close, then either SetMetadata or Error.
// An unsupported query is rejected without touching the sink.
func (d *Datasource) Select(ctx context.Context, query *store.Query, sink store.Sink) error {
	if !d.SupportsQuery(query) {
		d.metrics.QueriesTotal.WithLabelValues("unsupported").Inc()
		return ErrUnsupportedQuery
	}

	go d.executeQuery(ctx, query, sink)
	return nil
}

// Query is Select into a new QuadStream.
func (d *Datasource) Query(ctx context.Context, query *store.Query) (*store.QuadStream, error) {
	stream := store.NewQuadStream(64)
	if err := d.Select(ctx, query, stream); err != nil {
		return nil, err
	}
	return stream, nil
}
