package encoding

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
	"github.com/zeebo/xxh3"
)

// TermEncoder converts RDF terms into the compact identifiers used in
// ConceptNet query parameters.
type TermEncoder struct {
	baseURI string
}

func NewTermEncoder(baseURI string) *TermEncoder {
	return &TermEncoder{baseURI: baseURI}
}

// EncodeTerm encodes a term. Named nodes lose the base URI prefix, so
// http://conceptnet.io/c/en/dog becomes /c/en/dog. A nil term encodes to
// the empty string, which means "unbound".
func (e *TermEncoder) EncodeTerm(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return strings.TrimPrefix(t.IRI, e.baseURI)
	case *rdf.BlankNode:
		return "_:" + t.ID
	case *rdf.Variable:
		return "?" + t.Name
	case *rdf.DefaultGraph:
		return ""
	case *rdf.Literal:
		return e.encodeLiteral(t)
	default:
		return ""
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) string {
	var value string
	if strings.ContainsAny(lit.Value, `"\`) {
		value = `"""` + literalEscaper.Replace(lit.Value) + `"""`
	} else {
		value = `"` + lit.Value + `"`
	}

	// Language-tagged string
	if lit.Language != "" {
		return value + "@" + lit.Language
	}

	if lit.Datatype != nil && lit.Datatype.IRI != rdf.XSDString.IRI {
		return value + "^^" + e.EncodeTerm(lit.Datatype)
	}
	return value
}

// EncodePattern encodes the bound positions of a query.
func (e *TermEncoder) EncodePattern(query *store.Query) store.Pattern {
	return store.Pattern{
		Subject:   e.EncodeTerm(query.Subject),
		Predicate: e.EncodeTerm(query.Predicate),
		Object:    e.EncodeTerm(query.Object),
		Graph:     e.EncodeTerm(query.Graph),
	}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func Hash128(s string) [16]byte {
	hash := xxh3.Hash128([]byte(s))
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// PatternKey returns a deterministic key for a pattern issued against
// endpoint. Each field is length-prefixed so that distinct patterns never
// share a preimage.
func PatternKey(endpoint string, pattern store.Pattern) string {
	var b strings.Builder
	for _, part := range []string{endpoint, pattern.Subject, pattern.Predicate, pattern.Object, pattern.Graph} {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(part))) // #nosec G115 - lengths fit in 32 bits
		b.Write(n[:])
		b.WriteString(part)
	}
	hash := Hash128(b.String())
	return hex.EncodeToString(hash[:])
}
