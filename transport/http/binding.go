package http

import (
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/value"
)

const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// OperationTrait is the concrete value stored under schema.TraitHTTP on an
// operation shape: method, path pattern, and default success status code
// (spec.md §3 "Operation... additionally exposes..."; spec.md §4.2
// "binding... HTTP trait defines a path pattern").
type OperationTrait struct {
	Method      string
	Path        string
	SuccessCode int
}

// binding identifies which transport location a structure member is
// projected onto (spec.md §4.2 "Binding classification").
type binding int

const (
	bindingBody binding = iota
	bindingLabel
	bindingQuery
	bindingHeader
	bindingPayload
	bindingStatus
)

// classify returns the binding for member m. allowLabelQuery is true for
// request (input) members only; outputs never bind to label or query
// (spec.md §4.2: "for outputs the same minus label/query").
func classify(m *schema.Member, allowLabelQuery bool) binding {
	t := m.Traits()
	if allowLabelQuery && t.Has(schema.TraitHTTPLabel) {
		return bindingLabel
	}
	if allowLabelQuery && t.Has(schema.TraitHTTPQuery) {
		return bindingQuery
	}
	if t.Has(schema.TraitHTTPHeader) {
		return bindingHeader
	}
	if t.Has(schema.TraitHTTPStatus) {
		return bindingStatus
	}
	if t.Has(schema.TraitHTTPPayload) {
		return bindingPayload
	}
	return bindingBody
}

// isStreaming reports whether m's target is tagged as a streaming shape
// (spec.md §4.2 "If the payload targets a streaming type...").
func isStreaming(m *schema.Member) bool {
	target := m.Target()
	return target != nil && target.Traits().Bool(schema.TraitStreaming)
}

// bodySchema synthesizes a structure schema over exactly the members of s
// classified as body members, so the payload codec can serialize/deserialize
// "all body members... together as a structure" (spec.md §4.2) without the
// codec needing to know about label/query/header/payload/status bindings.
func bodySchema(s *schema.Schema, allowLabelQuery bool) (*schema.Schema, error) {
	b := schema.NewBuilder(s.ID(), schema.KindStructure)
	for _, m := range s.Members() {
		if classify(m, allowLabelQuery) != bindingBody {
			continue
		}
		target := m.Target()
		if target == nil {
			continue
		}
		b = b.AddResolvedMember(m.Name(), target, m.Traits())
	}
	return b.Build()
}

// schemaView presents an existing value.Value under a different (narrower)
// schema, so a codec iterating the narrower schema's members still reads
// and writes through to the same underlying storage — Get/Set on
// *value.Record key by member name, not by member pointer identity, so a
// synthetic member with the same name resolves to the same slot.
type schemaView struct {
	value.Value
	schema *schema.Schema
}

func (v schemaView) Schema() *schema.Schema { return v.schema }
