// Package schema provides an in-memory, structural description of shapes:
// their kind, members, and traits, plus operation input/output/error wiring.
// It is the runtime counterpart of an IDL compiler's output — this package
// never parses an IDL; it only holds the shapes a code generator (or a hand
// assembled client) produced.
package schema

import (
	"fmt"
	"strings"
)

// ID identifies a shape absolutely: a dot-separated namespace plus a name,
// rendered as "namespace#Name" (spec.md §6 "Schema identifiers").
type ID struct {
	Namespace string
	Name      string
}

// NewID builds an ID from its parts.
func NewID(namespace, name string) ID {
	return ID{Namespace: namespace, Name: name}
}

// String renders the absolute shape id form "namespace#Name".
func (id ID) String() string {
	return id.Namespace + "#" + id.Name
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.Namespace == "" && id.Name == ""
}

// ParseID parses the absolute form "namespace#Name". Relative names (no '#')
// are accepted with an empty namespace; callers that need to promote a
// relative name into a service namespace should use WithNamespace.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("schema: empty shape id")
	}
	parts := strings.SplitN(s, "#", 2)
	if len(parts) == 1 {
		return ID{Name: parts[0]}, nil
	}
	if parts[0] == "" || parts[1] == "" {
		return ID{}, fmt.Errorf("schema: malformed shape id %q", s)
	}
	return ID{Namespace: parts[0], Name: parts[1]}, nil
}

// WithNamespace returns id promoted into namespace when id has none of its
// own. This implements the error-header resolver's "promote a relative name
// to the service namespace" rule (spec.md §4.2 error response step 1).
func (id ID) WithNamespace(namespace string) ID {
	if id.Namespace != "" {
		return id
	}
	return ID{Namespace: namespace, Name: id.Name}
}
