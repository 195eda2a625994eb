package conceptnet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

const baseURI = "http://conceptnet.io"

func TestNodeRefUnmarshal(t *testing.T) {
	var edge Edge
	data := `{
		"start": {"@id": "/c/fr/chien", "label": "chien", "language": "fr"},
		"rel": "/r/Synonym",
		"end": {"@id": "/c/en/dog"},
		"dataset": "/d/wiktionary/fr"
	}`
	require.NoError(t, json.Unmarshal([]byte(data), &edge))

	assert.Equal(t, "/c/fr/chien", edge.Start.ID)
	assert.True(t, edge.Start.Wrapped)
	require.NotNil(t, edge.Start.Language)
	assert.Equal(t, "fr", *edge.Start.Language)

	assert.Equal(t, PlainID("/r/Synonym"), edge.Rel)

	assert.Equal(t, "/c/en/dog", edge.End.ID)
	assert.False(t, edge.End.HasLanguage)
	assert.Nil(t, edge.End.Language)

	require.NotNil(t, edge.Dataset)
	assert.Equal(t, "/d/wiktionary/fr", edge.Dataset.ID)
}

func TestNodeRefNullLanguage(t *testing.T) {
	var ref NodeRef
	require.NoError(t, json.Unmarshal([]byte(`{"@id": "/c/xx/thing", "language": null}`), &ref))
	assert.True(t, ref.HasLanguage)
	assert.Nil(t, ref.Language)

	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@id": "/c/xx/thing", "language": null}`, string(data))
}

func TestNodeRefUnmarshalRejectsNumbers(t *testing.T) {
	var ref NodeRef
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestMapEdge(t *testing.T) {
	m := NewMapper(baseURI, nil)

	binding := m.MapEdge(&Edge{
		Start: PlainID("/c/en/dog"),
		Rel:   WrappedID("/r/IsA"),
		End:   PlainID("http://example.org/animal"),
	})
	require.NotNil(t, binding)

	assert.Equal(t, &BindingValue{Type: "uri", Value: "http://conceptnet.io/c/en/dog"}, binding.S)
	assert.Equal(t, &BindingValue{Type: "uri", Value: "http://conceptnet.io/r/IsA"}, binding.P)
	assert.Equal(t, &BindingValue{Type: "uri", Value: "http://example.org/animal"}, binding.O)
}

func TestLanguageFilter(t *testing.T) {
	m := NewMapper(baseURI, []string{"en"})

	english := &Edge{
		Start: WrappedID("/c/en/dog").WithLanguage("en"),
		Rel:   PlainID("/r/IsA"),
		End:   WrappedID("/c/en/animal").WithLanguage("en"),
	}
	french := &Edge{
		Start: WrappedID("/c/en/dog").WithLanguage("en"),
		Rel:   PlainID("/r/Synonym"),
		End:   WrappedID("/c/fr/chien").WithLanguage("fr"),
	}
	untagged := &Edge{
		Start: PlainID("/c/fr/chien"),
		Rel:   PlainID("/r/Synonym"),
		End:   PlainID("/c/de/hund"),
	}

	var nullLanguage Edge
	require.NoError(t, json.Unmarshal([]byte(`{
		"start": {"@id": "/c/en/dog", "language": "en"},
		"rel": "/r/RelatedTo",
		"end": {"@id": "/c/xx/thing", "language": null}
	}`), &nullLanguage))

	assert.NotNil(t, m.MapEdge(english))
	assert.Nil(t, m.MapEdge(french))
	assert.NotNil(t, m.MapEdge(untagged))
	assert.Nil(t, m.MapEdge(&nullLanguage))
	assert.NotNil(t, NewMapper(baseURI, nil).MapEdge(&nullLanguage))

	// no configured languages: nothing is filtered
	assert.NotNil(t, NewMapper(baseURI, nil).MapEdge(french))
}

func TestBindingQuadFallsBackToQuery(t *testing.T) {
	query := &store.Query{
		Subject:   rdf.NewNamedNode("http://conceptnet.io/c/en/dog"),
		Predicate: rdf.NewVariable("p"),
		Graph:     rdf.NewNamedNode("http://conceptnet.io/d/wordnet"),
	}

	binding := &Binding{
		P: &BindingValue{Type: "uri", Value: "http://conceptnet.io/r/IsA"},
		O: &BindingValue{Type: "uri", Value: "http://conceptnet.io/c/en/animal"},
	}
	quad := binding.Quad(query)

	assert.True(t, quad.Subject.Equals(query.Subject))
	assert.True(t, quad.Predicate.Equals(rdf.NewNamedNode("http://conceptnet.io/r/IsA")))
	assert.True(t, quad.Object.Equals(rdf.NewNamedNode("http://conceptnet.io/c/en/animal")))
	assert.True(t, quad.Graph.Equals(query.Graph))

	quad = binding.Quad(&store.Query{})
	assert.Nil(t, quad.Subject)
	assert.True(t, quad.Graph.Equals(rdf.NewDefaultGraph()))
}
