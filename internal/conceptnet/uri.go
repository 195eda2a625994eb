package conceptnet

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// BuildQuery renders the query-string for a pattern: start, rel, end and
// dataset for the bound positions in that order, then offset and limit
// when set. The result starts with "?" or is empty.
//
// Values are query-escaped except for "/", so ConceptNet identifiers stay
// readable while literals with spaces or quotes remain valid.
func BuildQuery(pattern store.Pattern, offset, limit *int) string {
	var params []string

	if pattern.Subject != "" {
		params = append(params, "start="+escapeValue(pattern.Subject))
	}
	if pattern.Predicate != "" {
		params = append(params, "rel="+escapeValue(pattern.Predicate))
	}
	if pattern.Object != "" {
		params = append(params, "end="+escapeValue(pattern.Object))
	}
	if pattern.Graph != "" {
		params = append(params, "dataset="+escapeValue(pattern.Graph))
	}
	if offset != nil {
		params = append(params, "offset="+strconv.Itoa(*offset))
	}
	if limit != nil {
		params = append(params, "limit="+strconv.Itoa(*limit))
	}

	if len(params) == 0 {
		return ""
	}
	return "?" + strings.Join(params, "&")
}

func escapeValue(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "%2F", "/")
}

// NormalizeEndpoint strips any query string or fragment from an endpoint.
func NormalizeEndpoint(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
