package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/datasource"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

const nquadsContentType = "application/n-quads; charset=utf-8"

// Trailers carrying the fragment metadata. The count is only known after
// the quads have been written.
const (
	TrailerTotalCount = "X-Total-Count"
	TrailerExactCount = "X-Exact-Count"
	TrailerError      = "X-Error"
)

// handleFragments streams the quads matching a pattern as N-Quads.
//
// A failure that happens before the first quad is reported as a 502 with a
// JSON body. Once the body has started, the outcome travels in trailers.
func (s *Server) handleFragments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use GET")
		return
	}

	query, err := parseFragmentQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := s.source.Query(r.Context(), query)
	if err != nil {
		if errors.Is(err, datasource.ErrUnsupportedQuery) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer stream.Abandon()

	started := false
	start := func() {
		h := w.Header()
		h.Set("Content-Type", nquadsContentType)
		h.Set("Trailer", TrailerTotalCount+", "+TrailerExactCount+", "+TrailerError)
		w.WriteHeader(http.StatusOK)
		started = true
	}

	written := 0
	for quad := range stream.Quads() {
		if !started {
			start()
		}
		if _, err := io.WriteString(w, quad.String()+"\n"); err != nil {
			s.logger.Debug("client went away", "error", err)
			return
		}
		written++
	}

	meta, err := stream.Wait(r.Context())
	if r.Context().Err() != nil {
		return
	}
	if err != nil && !started {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !started {
		start()
	}
	if err != nil {
		s.logger.Warn("fragment metadata failed", "error", err, "quads", written)
		w.Header().Set(TrailerError, err.Error())
		return
	}

	w.Header().Set(TrailerTotalCount, strconv.FormatInt(meta.TotalCount, 10))
	w.Header().Set(TrailerExactCount, strconv.FormatBool(meta.HasExactCount))
	s.logger.Debug("served fragment", "quads", written, "total", meta.TotalCount, "exact", meta.HasExactCount)
}

// parseFragmentQuery reads a pattern from query parameters. Variables are
// treated as unbound positions.
func parseFragmentQuery(values url.Values) (*store.Query, error) {
	query := &store.Query{}

	positions := []struct {
		name string
		dst  *rdf.Term
	}{
		{"subject", &query.Subject},
		{"predicate", &query.Predicate},
		{"object", &query.Object},
		{"graph", &query.Graph},
	}
	for _, pos := range positions {
		term, err := rdf.ParseTerm(values.Get(pos.name))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", pos.name, err)
		}
		if term != nil && term.Type() != rdf.TermTypeVariable {
			*pos.dst = term
		}
	}

	var err error
	if query.Offset, err = parseCount(values, "offset"); err != nil {
		return nil, err
	}
	if query.Limit, err = parseCount(values, "limit"); err != nil {
		return nil, err
	}
	return query, nil
}

func parseCount(values url.Values, name string) (*int, error) {
	raw := values.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid %s: %q is not a non-negative integer", name, raw)
	}
	return store.Int(n), nil
}
