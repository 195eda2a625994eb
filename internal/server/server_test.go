package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/datasource"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/metrics"
)

const dogEdges = `{"edges":[
	{"start":{"@id":"/c/en/dog","language":"en"},"rel":{"@id":"/r/IsA"},"end":{"@id":"/c/en/animal","language":"en"}},
	{"start":"/c/en/dog","rel":"/r/RelatedTo","end":"/c/en/pet","dataset":"/d/conceptnet/4/en"}
]}`

type fakeConceptNet struct {
	edgesBody string
	countBody string

	mu      sync.Mutex
	queries []string
}

func (f *fakeConceptNet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/count") {
		_, _ = w.Write([]byte(f.countBody))
		return
	}
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.RawQuery)
	f.mu.Unlock()
	_, _ = w.Write([]byte(f.edgesBody))
}

func (f *fakeConceptNet) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// newTestServer wires a fragment server to a datasource backed by fake.
func newTestServer(t *testing.T, fake *fakeConceptNet) (*httptest.Server, *datasource.Datasource) {
	t.Helper()
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)

	registry := prometheus.NewRegistry()
	m := metrics.New()
	require.NoError(t, m.Register(registry))

	ds := datasource.New(datasource.Options{
		Endpoint:   upstream.URL + "/query",
		HTTPClient: upstream.Client(),
		Metrics:    m,
	})

	srv := httptest.NewServer(NewServer(ds, "", nil, registry).Handler())
	t.Cleanup(srv.Close)
	return srv, ds
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestFragmentGolden(t *testing.T) {
	fake := &fakeConceptNet{edgesBody: dogEdges, countBody: `{"numberOfEdges": 2}`}
	srv, _ := newTestServer(t, fake)

	resp, body := get(t, srv, "/fragments?subject="+url.QueryEscape("<http://conceptnet.io/c/en/dog>"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, nquadsContentType, resp.Header.Get("Content-Type"))
	assert.Equal(t, "2", resp.Trailer.Get(TrailerTotalCount))
	assert.Equal(t, "true", resp.Trailer.Get(TrailerExactCount))
	assert.Equal(t, []string{"start=/c/en/dog"}, fake.recorded())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dog_fragment", body)
}

func TestFragmentParameters(t *testing.T) {
	fake := &fakeConceptNet{edgesBody: `{"edges":[]}`, countBody: `{"numberOfEdges": 0}`}
	srv, _ := newTestServer(t, fake)

	params := url.Values{}
	params.Set("subject", "?s")
	params.Set("predicate", "http://conceptnet.io/r/IsA")
	params.Set("object", "<http://conceptnet.io/c/en/animal>")
	params.Set("offset", "0")
	params.Set("limit", "20")

	resp, body := get(t, srv, "/fragments?"+params.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, "0", resp.Trailer.Get(TrailerTotalCount))
	assert.Equal(t, []string{"rel=/r/IsA&end=/c/en/animal&offset=0&limit=20"}, fake.recorded())
}

func TestFragmentUpstreamFailure(t *testing.T) {
	fake := &fakeConceptNet{edgesBody: `not json`}
	srv, ds := newTestServer(t, fake)

	resp, body := get(t, srv, "/fragments")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, http.StatusBadGateway, payload.Error.Code)
	assert.Contains(t, payload.Error.Message, "error accessing ConceptNet endpoint "+ds.Endpoint())
}

func TestFragmentCountFailureUsesTrailer(t *testing.T) {
	fake := &fakeConceptNet{edgesBody: dogEdges, countBody: `<<garbage>>`}
	srv, _ := newTestServer(t, fake)

	resp, body := get(t, srv, "/fragments")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(string(body), "\n"))
	assert.Empty(t, resp.Trailer.Get(TrailerTotalCount))
	assert.Contains(t, resp.Trailer.Get(TrailerError), "invalid JSON response")
}

func TestFragmentBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, &fakeConceptNet{})

	for _, path := range []string{
		"/fragments?offset=-1",
		"/fragments?limit=ten",
		"/fragments?subject=" + url.QueryEscape("<http://conceptnet.io/c/en/dog"),
	} {
		resp, _ := get(t, srv, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}

	resp, err := srv.Client().Post(srv.URL+"/fragments", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsAndRoot(t *testing.T) {
	fake := &fakeConceptNet{edgesBody: dogEdges, countBody: `{"numberOfEdges": 2}`}
	srv, _ := newTestServer(t, fake)

	_, _ = get(t, srv, "/fragments")

	resp, body := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "conceptnet_ldf_queries_total")
	assert.Contains(t, string(body), "conceptnet_ldf_queries_quads_emitted_total 2")

	resp, body = get(t, srv, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/fragments")

	resp, _ = get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
