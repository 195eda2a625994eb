package conceptnet

import (
	"slices"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/encoding"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// BindingValue is one position of a SPARQL JSON style binding.
type BindingValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Binding holds the subject, predicate and object bound by one edge.
type Binding struct {
	S *BindingValue `json:"s,omitempty"`
	P *BindingValue `json:"p,omitempty"`
	O *BindingValue `json:"o,omitempty"`
}

// Quad converts the binding, falling back to the query's term for every
// position the binding leaves open. The graph always comes from the query
// and defaults to the default graph.
func (b *Binding) Quad(query *store.Query) *rdf.Quad {
	graph := query.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}
	return rdf.NewQuad(
		bindingTerm(b.S, query.Subject),
		bindingTerm(b.P, query.Predicate),
		bindingTerm(b.O, query.Object),
		graph,
	)
}

func bindingTerm(v *BindingValue, fallback rdf.Term) rdf.Term {
	if v == nil || v.Value == "" {
		return fallback
	}
	switch v.Type {
	case "uri":
		return rdf.NewNamedNode(v.Value)
	case "bnode":
		return rdf.NewBlankNode(v.Value)
	default:
		return rdf.NewLiteral(v.Value)
	}
}

// Mapper converts edges into bindings, applying the language allow-list.
type Mapper struct {
	decoder   *encoding.TermDecoder
	languages []string
}

// NewMapper creates a mapper. An empty languages list disables filtering.
func NewMapper(baseURI string, languages []string) *Mapper {
	return &Mapper{
		decoder:   encoding.NewTermDecoder(baseURI),
		languages: languages,
	}
}

// Keep reports whether an edge passes the language filter. Endpoints
// without a language member never cause an edge to be dropped; a null
// language matches no allowed language.
func (m *Mapper) Keep(edge *Edge) bool {
	if len(m.languages) == 0 {
		return true
	}
	return m.allowed(edge.Start) && m.allowed(edge.End)
}

func (m *Mapper) allowed(ref NodeRef) bool {
	if !ref.HasLanguage {
		return true
	}
	return ref.Language != nil && slices.Contains(m.languages, *ref.Language)
}

// MapEdge returns the binding for an edge, or nil when the edge is
// filtered out.
func (m *Mapper) MapEdge(edge *Edge) *Binding {
	if !m.Keep(edge) {
		return nil
	}
	return &Binding{
		S: m.uri(edge.Start),
		P: m.uri(edge.Rel),
		O: m.uri(edge.End),
	}
}

func (m *Mapper) uri(ref NodeRef) *BindingValue {
	return &BindingValue{Type: "uri", Value: m.decoder.DecodeEdgeTerm(ref.ID)}
}
