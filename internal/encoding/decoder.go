package encoding

import (
	"net/url"
)

// TermDecoder turns ConceptNet identifiers back into absolute IRIs
type TermDecoder struct {
	baseURI string
}

// NewTermDecoder creates a new term decoder
func NewTermDecoder(baseURI string) *TermDecoder {
	return &TermDecoder{baseURI: baseURI}
}

// DecodeEdgeTerm returns raw unchanged when it is an absolute URL and
// prefixes it with the base URI otherwise. Unparsable input is treated as
// relative.
func (d *TermDecoder) DecodeEdgeTerm(raw string) string {
	if isAbsoluteURL(raw) {
		return raw
	}
	return d.baseURI + raw
}

func isAbsoluteURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.IsAbs()
}
