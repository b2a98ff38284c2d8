// Package mergepatch decodes JSON Merge Patch (RFC 7386) bodies while keeping
// track of which members the caller actually sent. A member that is absent is
// left untouched by the update; a member that is present with a null value
// clears the target field.
package mergepatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when the body is valid JSON but not an object.
var ErrNotObject = errors.New("merge patch document must be a JSON object")

// Document holds the top-level members of a merge-patch body.
type Document map[string]json.RawMessage

// FieldError describes a member whose value has the wrong type.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// Parse decodes a merge-patch body. An empty body yields an empty document.
func Parse(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Document{}, nil
	}
	if data[0] != '{' {
		if !json.Valid(data) {
			return nil, fmt.Errorf("invalid JSON Merge Patch document")
		}
		return nil, ErrNotObject
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON Merge Patch document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Alias moves the member stored under alias to canonical when canonical is
// not present itself. The canonical name wins when both are sent.
func (d Document) Alias(canonical, alias string) Document {
	if v, ok := d[alias]; ok {
		if _, has := d[canonical]; !has {
			d[canonical] = v
		}
		delete(d, alias)
	}
	return d
}

// Pick returns the subset of d restricted to the given names. Members the
// caller sent that are not in names are dropped.
func (d Document) Pick(names ...string) Document {
	out := make(Document, len(names))
	for _, n := range names {
		if v, ok := d[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Has reports whether the caller sent the member.
func (d Document) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// IsNull reports whether the member was sent with an explicit null.
func (d Document) IsNull(name string) bool {
	v, ok := d[name]
	return ok && isNull(v)
}

// String decodes a string member. present is false when the member is
// absent; value is nil when the member is an explicit null.
func (d Document) String(name string) (value *string, present bool, err error) {
	raw, ok := d[name]
	if !ok {
		return nil, false, nil
	}
	if isNull(raw) {
		return nil, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, &FieldError{Field: name, Msg: "deve ser uma string"}
	}
	return &s, true, nil
}

// Names returns the member names present in d.
func (d Document) Names() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	return names
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
