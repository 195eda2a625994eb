package conceptnet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeRef is a ConceptNet node or relation reference. The API sends either
// a bare identifier string or an object carrying "@id"; both are resolved
// here once. HasLanguage records whether the object form carried a
// "language" member at all; Language is nil when that member was null.
type NodeRef struct {
	ID          string
	Wrapped     bool
	HasLanguage bool
	Language    *string
}

// PlainID builds the bare-string form of a reference.
func PlainID(id string) NodeRef {
	return NodeRef{ID: id}
}

// WrappedID builds the object form of a reference.
func WrappedID(id string) NodeRef {
	return NodeRef{ID: id, Wrapped: true}
}

// WithLanguage returns a copy of r carrying a language tag.
func (r NodeRef) WithLanguage(lang string) NodeRef {
	r.HasLanguage = true
	r.Language = &lang
	return r
}

func (r *NodeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = NodeRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = PlainID(id)
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		return fmt.Errorf("node reference must be a string or an object: %s", data)
	}

	ref := NodeRef{Wrapped: true}
	if id, ok := members["@id"]; ok {
		if err := json.Unmarshal(id, &ref.ID); err != nil {
			return fmt.Errorf("invalid @id: %w", err)
		}
	}
	if lang, ok := members["language"]; ok {
		ref.HasLanguage = true
		if err := json.Unmarshal(lang, &ref.Language); err != nil {
			return fmt.Errorf("invalid language: %w", err)
		}
	}
	*r = ref
	return nil
}

func (r NodeRef) MarshalJSON() ([]byte, error) {
	if !r.Wrapped {
		return json.Marshal(r.ID)
	}
	members := map[string]any{"@id": r.ID}
	if r.HasLanguage {
		members["language"] = r.Language
	}
	return json.Marshal(members)
}

// Edge is one labeled relationship returned by the API.
type Edge struct {
	Start   NodeRef  `json:"start"`
	Rel     NodeRef  `json:"rel"`
	End     NodeRef  `json:"end"`
	Dataset *NodeRef `json:"dataset,omitempty"`
}

// edgesResponse is the body of a query request. Edges is nil when the
// response carries no edge collection at all.
type edgesResponse struct {
	Edges []Edge `json:"edges"`
}

// countResponse is the body of a count request.
type countResponse struct {
	NumberOfEdges *int64 `json:"numberOfEdges"`
}
