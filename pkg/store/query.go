package store

import (
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
)

// Feature names a query capability a datasource may support.
type Feature string

const (
	FeatureQuadPattern   Feature = "quadPattern"
	FeatureTriplePattern Feature = "triplePattern"
	FeatureLimit         Feature = "limit"
	FeatureOffset        Feature = "offset"
	FeatureTotalCount    Feature = "totalCount"
)

// Query is a quad pattern query. Nil terms are unbound. Offset and Limit
// distinguish "unset" (nil) from an explicit zero.
type Query struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term

	Offset *int
	Limit  *int

	// Features lists the capabilities the caller requires; a feature
	// mapped to false is not required.
	Features map[Feature]bool
}

// Int returns a pointer to n, for filling Query.Offset and Query.Limit.
func Int(n int) *int {
	return &n
}

// Pattern is a quad pattern in the remote API's encoding. An empty field
// is unbound.
type Pattern struct {
	Subject   string
	Predicate string
	Object    string
	Graph     string
}

// Metadata describes the size of a pattern's full result set.
type Metadata struct {
	TotalCount    int64
	HasExactCount bool
}

// DefaultCountEstimate is returned when no exact count is available in time.
var DefaultCountEstimate = Metadata{TotalCount: 1e9, HasExactCount: false}
