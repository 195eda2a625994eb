package conceptnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		pattern  store.Pattern
		offset   *int
		limit    *int
		expected string
	}{
		{
			name:     "empty pattern without paging",
			expected: "",
		},
		{
			name:     "subject only",
			pattern:  store.Pattern{Subject: "/c/en/dog"},
			expected: "?start=/c/en/dog",
		},
		{
			name:     "all positions in fixed order",
			pattern:  store.Pattern{Graph: "/d/wordnet", Object: "/c/en/animal", Predicate: "/r/IsA", Subject: "/c/en/dog"},
			expected: "?start=/c/en/dog&rel=/r/IsA&end=/c/en/animal&dataset=/d/wordnet",
		},
		{
			name:     "skips unbound positions",
			pattern:  store.Pattern{Predicate: "/r/IsA", Graph: "/d/wordnet"},
			expected: "?rel=/r/IsA&dataset=/d/wordnet",
		},
		{
			name:     "offset then limit",
			pattern:  store.Pattern{Object: "/c/en/animal"},
			offset:   store.Int(20),
			limit:    store.Int(10),
			expected: "?end=/c/en/animal&offset=20&limit=10",
		},
		{
			name:     "literal with space and quote is escaped",
			pattern:  store.Pattern{Predicate: "/r/HasContext", Object: `"""say \"hi\" now"""@en`},
			expected: "?rel=/r/HasContext&end=%22%22%22say+%5C%22hi%5C%22+now%22%22%22%40en",
		},
		{
			name:     "absolute IRI keeps its slashes",
			pattern:  store.Pattern{Subject: "http://example.org/a b"},
			expected: "?start=http%3A//example.org/a+b",
		},
		{
			name:     "paging without pattern",
			limit:    store.Int(5),
			expected: "?limit=5",
		},
		{
			name:     "explicit zero is sent",
			offset:   store.Int(0),
			limit:    store.Int(0),
			expected: "?offset=0&limit=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildQuery(tt.pattern, tt.offset, tt.limit))
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "http://api.conceptnet.io/query", NormalizeEndpoint("http://api.conceptnet.io/query"))
	assert.Equal(t, "http://api.conceptnet.io/query", NormalizeEndpoint("http://api.conceptnet.io/query?start=/c/en/dog"))
	assert.Equal(t, "http://api.conceptnet.io/query", NormalizeEndpoint("http://api.conceptnet.io/query#top"))
	assert.Equal(t, "", NormalizeEndpoint(""))
}
