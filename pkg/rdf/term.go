package rdf

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph
	TermTypeVariable
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "NamedNode"
	case TermTypeBlankNode:
		return "BlankNode"
	case TermTypeLiteral:
		return "Literal"
	case TermTypeDefaultGraph:
		return "DefaultGraph"
	case TermTypeVariable:
		return "Variable"
	default:
		return "Unknown"
	}
}

// Term represents an RDF term (IRI, blank node, literal, variable or the default graph)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Variable is an unbound position in a pattern
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Type() TermType {
	return TermTypeVariable
}

func (v *Variable) String() string {
	return "?" + v.Name
}

func (v *Variable) Equals(other Term) bool {
	if ov, ok := other.(*Variable); ok {
		return v.Name == ov.Name
	}
	return false
}

// Literal represents an RDF literal
type Literal struct {
	Value    string
	Language string     // for language-tagged strings
	Datatype *NamedNode // for typed literals
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

// String renders the literal in N-Triples syntax.
func (l *Literal) String() string {
	result := `"` + literalEscaper.Replace(l.Value) + `"`
	if l.Language != "" {
		result += "@" + l.Language
	} else if l.Datatype != nil && l.Datatype.IRI != XSDString.IRI {
		result += "^^" + l.Datatype.String()
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	if ol, ok := other.(*Literal); ok {
		if l.Value != ol.Value {
			return false
		}
		if l.Language != ol.Language {
			return false
		}
		if l.Datatype == nil && ol.Datatype == nil {
			return true
		}
		if l.Datatype != nil && ol.Datatype != nil {
			return l.Datatype.Equals(ol.Datatype)
		}
		return false
	}
	return false
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() *DefaultGraph {
	return &DefaultGraph{}
}

func (d *DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d *DefaultGraph) String() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Equals(other Term) bool {
	_, ok := other.(*DefaultGraph)
	return ok
}

// Quad represents an RDF quad (subject, predicate, object, graph)
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) *Quad {
	return &Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

// String renders the quad as one N-Quads statement. The graph label is
// omitted for the default graph.
func (q *Quad) String() string {
	if q.Graph == nil || q.Graph.Type() == TermTypeDefaultGraph {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Helper functions for common XSD datatypes
var (
	XSDString  = NewNamedNode("http://www.w3.org/2001/XMLSchema#string")
	XSDInteger = NewNamedNode("http://www.w3.org/2001/XMLSchema#integer")
)

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(fmt.Sprintf("%d", value), XSDInteger)
}

// Utility functions for encoding numeric values
func EncodeInt64BigEndian(value int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	return buf
}

func DecodeInt64BigEndian(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}
