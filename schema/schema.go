package schema

import "fmt"

// Kind identifies the shape of a Schema. It mirrors the small, closed set of
// shape kinds spec.md §3 requires: structure, union, list, map, enum,
// scalar, blob, operation, service, member.
type Kind int

const (
	// KindStructure is an ordered set of named members.
	KindStructure Kind = iota
	// KindUnion is a tagged choice among named members, exactly one set.
	KindUnion
	// KindList is a homogeneous, ordered sequence.
	KindList
	// KindMap is a string-keyed homogeneous map.
	KindMap
	// KindEnum is a closed set of string values.
	KindEnum
	// KindString is a scalar UTF-8 string.
	KindString
	// KindBoolean is a scalar true/false.
	KindBoolean
	// KindInteger is a scalar signed integer (host-width; binding traits may
	// further constrain precision).
	KindInteger
	// KindLong is a scalar 64-bit signed integer.
	KindLong
	// KindDouble is a scalar double-precision float.
	KindDouble
	// KindBigDecimal is a scalar arbitrary-precision decimal.
	KindBigDecimal
	// KindBlob is raw bytes.
	KindBlob
	// KindTimestamp is a point in time.
	KindTimestamp
	// KindDocument is a dynamically typed value tree (see package document).
	KindDocument
	// KindOperation pairs an input shape, an output shape, and error shapes.
	KindOperation
	// KindService groups operations under one namespace.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindStructure:
		return "structure"
	case KindUnion:
		return "union"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindBigDecimal:
		return "bigDecimal"
	case KindBlob:
		return "blob"
	case KindTimestamp:
		return "timestamp"
	case KindDocument:
		return "document"
	case KindOperation:
		return "operation"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Member is a named field of a structure or union shape. Its target is
// resolved lazily against the owning Registry so cyclic shape graphs never
// require building an infinite struct graph up front (spec.md §3, §9).
type Member struct {
	name     string
	targetID ID
	target   *Schema
	registry *Registry
	traits   Traits
}

// Name returns the member's name, unique within its owning structure.
func (m *Member) Name() string { return m.name }

// Traits returns the member's trait set.
func (m *Member) Traits() Traits { return m.traits }

// Target resolves and returns the member's target shape. Resolution is
// memoized after the first successful lookup.
func (m *Member) Target() *Schema {
	if m.target != nil {
		return m.target
	}
	if m.registry != nil {
		if s, ok := m.registry.Lookup(m.targetID); ok {
			m.target = s
		}
	}
	return m.target
}

// TargetID returns the unresolved target shape id, useful for diagnostics
// when Target() returns nil (unregistered reference).
func (m *Member) TargetID() ID { return m.targetID }

// Schema describes one shape: its identity, kind, traits, and — for
// aggregate kinds — its members or element/key/value targets.
type Schema struct {
	id     ID
	kind   Kind
	traits Traits

	// structure/union
	members     []*Member
	memberIndex map[string]int

	// list
	element *Member

	// map
	key   *Member
	value *Member

	// operation
	input         *Member
	output        *Member
	errors        []*Member
	authSchemes   []string
	errorBuilders map[ID]func() ErrorBuilder
}

// ErrorBuilder constructs a fresh, addressable value for a registered error
// shape so the HTTP binding engine can deserialize a modeled error into it
// (spec.md §4.2 "Error response").
type ErrorBuilder interface {
	Schema() *Schema
}

// ID returns the shape's absolute identifier.
func (s *Schema) ID() ID { return s.id }

// Kind returns the shape's kind.
func (s *Schema) Kind() Kind { return s.kind }

// Traits returns the shape's trait set.
func (s *Schema) Traits() Traits { return s.traits }

// Members returns the ordered member list for structure/union/operation-error
// shapes. Returns nil for other kinds.
func (s *Schema) Members() []*Member { return s.members }

// Member looks up a member by name. ok is false when no such member exists.
func (s *Schema) Member(name string) (*Member, bool) {
	i, ok := s.memberIndex[name]
	if !ok {
		return nil, false
	}
	return s.members[i], true
}

// Element returns the list element member (KindList only).
func (s *Schema) Element() *Member { return s.element }

// Key returns the map key member (KindMap only).
func (s *Schema) Key() *Member { return s.key }

// Value returns the map value member (KindMap only).
func (s *Schema) Value() *Member { return s.value }

// Input returns the operation's input member (KindOperation only).
func (s *Schema) Input() *Member { return s.input }

// Output returns the operation's output member (KindOperation only).
func (s *Schema) Output() *Member { return s.output }

// Errors returns the operation's registered error members in declaration
// order (KindOperation only).
func (s *Schema) Errors() []*Member { return s.errors }

// AuthSchemes returns the operation's acceptable auth scheme identifiers, in
// priority order (spec.md §3 "Operation").
func (s *Schema) AuthSchemes() []string { return s.authSchemes }

// ErrorBuilderFor returns a factory for the registered error shape matching
// id, if any (spec.md §3 "Operation": "a registry of error builders keyed by
// error identifier").
func (s *Schema) ErrorBuilderFor(id ID) (func() ErrorBuilder, bool) {
	b, ok := s.errorBuilders[id]
	return b, ok
}

// Builder incrementally constructs a Schema. Member names must be unique
// within a structure/union (spec.md §3 invariant); Build returns an error
// otherwise.
type Builder struct {
	s   *Schema
	err error
}

// NewBuilder starts building a shape with the given id and kind.
func NewBuilder(id ID, kind Kind) *Builder {
	return &Builder{s: &Schema{id: id, kind: kind, traits: Traits{}, memberIndex: map[string]int{}}}
}

// Traits sets the shape-level traits.
func (b *Builder) Traits(t Traits) *Builder {
	if b.err != nil {
		return b
	}
	b.s.traits = t
	return b
}

// AddMember appends a member with the given name, lazily-resolved target id,
// and traits. reg is the registry the target will be resolved against.
func (b *Builder) AddMember(reg *Registry, name string, target ID, traits Traits) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.s.memberIndex[name]; exists {
		b.err = fmt.Errorf("schema: duplicate member %q on %s", name, b.s.id)
		return b
	}
	m := &Member{name: name, targetID: target, registry: reg, traits: traits}
	b.s.memberIndex[name] = len(b.s.members)
	b.s.members = append(b.s.members, m)
	return b
}

// AddResolvedMember appends a member whose target shape is already known,
// bypassing lazy registry resolution. Used by callers that synthesize a
// scoped structure schema from shapes they already hold (for example, the
// HTTP binding engine's "body members" sub-view over an operation's full
// input structure).
func (b *Builder) AddResolvedMember(name string, target *Schema, traits Traits) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.s.memberIndex[name]; exists {
		b.err = fmt.Errorf("schema: duplicate member %q on %s", name, b.s.id)
		return b
	}
	m := &Member{name: name, target: target, targetID: target.ID(), traits: traits}
	b.s.memberIndex[name] = len(b.s.members)
	b.s.members = append(b.s.members, m)
	return b
}

// Element sets the list element target (KindList).
func (b *Builder) Element(reg *Registry, target ID, traits Traits) *Builder {
	if b.err != nil {
		return b
	}
	b.s.element = &Member{name: "member", targetID: target, registry: reg, traits: traits}
	return b
}

// MapOf sets the map key/value targets (KindMap). Map keys are always
// strings per spec.md §3's Document model; value is the lazily-resolved
// target.
func (b *Builder) MapOf(reg *Registry, keyTarget, valueTarget ID) *Builder {
	if b.err != nil {
		return b
	}
	b.s.key = &Member{name: "key", targetID: keyTarget, registry: reg, traits: Traits{}}
	b.s.value = &Member{name: "value", targetID: valueTarget, registry: reg, traits: Traits{}}
	return b
}

// Operation wires input/output/error targets plus the auth scheme priority
// list (KindOperation).
func (b *Builder) Operation(reg *Registry, input, output ID, errs []ID, authSchemes []string) *Builder {
	if b.err != nil {
		return b
	}
	b.s.input = &Member{name: "input", targetID: input, registry: reg, traits: Traits{}}
	b.s.output = &Member{name: "output", targetID: output, registry: reg, traits: Traits{}}
	for _, e := range errs {
		b.s.errors = append(b.s.errors, &Member{name: e.Name, targetID: e, registry: reg, traits: Traits{}})
	}
	b.s.authSchemes = authSchemes
	return b
}

// RegisterErrorBuilder records a factory for a modeled error shape so the
// HTTP binding engine can construct addressable error values by id.
func (b *Builder) RegisterErrorBuilder(id ID, factory func() ErrorBuilder) *Builder {
	if b.err != nil {
		return b
	}
	if b.s.errorBuilders == nil {
		b.s.errorBuilders = map[ID]func() ErrorBuilder{}
	}
	b.s.errorBuilders[id] = factory
	return b
}

// Build finalizes the shape. It returns the first error encountered by any
// prior builder call, if any.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.s, nil
}
