package rdf

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTerm = errors.New("invalid term")

// ParseTerm reads a single term written in N-Triples style. Bare strings that
// are not wrapped in angle brackets are read as IRIs, which keeps command-line
// and query-string input short. An empty input yields a nil term.
func ParseTerm(input string) (Term, error) {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return nil, nil
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") || len(s) < 2 {
			return nil, fmt.Errorf("%w: unterminated IRI %q", ErrInvalidTerm, input)
		}
		return NewNamedNode(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return nil, fmt.Errorf("%w: empty blank node label", ErrInvalidTerm)
		}
		return NewBlankNode(s[2:]), nil
	case strings.HasPrefix(s, "?"):
		if len(s) == 1 {
			return nil, fmt.Errorf("%w: empty variable name", ErrInvalidTerm)
		}
		return NewVariable(s[1:]), nil
	case strings.HasPrefix(s, `"`):
		return parseLiteral(s)
	default:
		return NewNamedNode(s), nil
	}
}

func parseLiteral(s string) (Term, error) {
	var value strings.Builder
	i := 1
	closed := false
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				value.WriteByte('\n')
			case 'r':
				value.WriteByte('\r')
			case 't':
				value.WriteByte('\t')
			default:
				value.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			closed = true
			i++
			break
		}
		value.WriteByte(c)
		i++
	}
	if !closed {
		return nil, fmt.Errorf("%w: unterminated literal %q", ErrInvalidTerm, s)
	}

	rest := s[i:]
	switch {
	case rest == "":
		return NewLiteral(value.String()), nil
	case strings.HasPrefix(rest, "@"):
		if len(rest) == 1 {
			return nil, fmt.Errorf("%w: empty language tag", ErrInvalidTerm)
		}
		return NewLiteralWithLanguage(value.String(), rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := ParseTerm(rest[2:])
		if err != nil {
			return nil, err
		}
		iri, ok := dt.(*NamedNode)
		if !ok {
			return nil, fmt.Errorf("%w: datatype must be an IRI", ErrInvalidTerm)
		}
		return NewLiteralWithDatatype(value.String(), iri), nil
	default:
		return nil, fmt.Errorf("%w: unexpected %q after literal", ErrInvalidTerm, rest)
	}
}
