package schema

// TraitID is a stable identifier for a trait. Traits are addressed by this
// identifier, never by Go type, per spec.md §3's invariant.
type TraitID string

// Well-known trait identifiers used by the HTTP binding engine and codec
// layer. Generators (or hand-built schemas) are free to define additional
// traits; these are the ones this module's own components read.
const (
	TraitHTTP        TraitID = "http"          // on an operation: method + path pattern + status
	TraitHTTPLabel   TraitID = "http.label"    // on a member: bound to a path label
	TraitHTTPQuery   TraitID = "http.query"    // on a member: bound to a query key
	TraitHTTPHeader  TraitID = "http.header"   // on a member: bound to a header name
	TraitHTTPPayload TraitID = "http.payload"  // on a member: the sole body member
	TraitHTTPStatus  TraitID = "http.status"   // on a member: bound to the response status code
	TraitHTTPError   TraitID = "http.error"    // on an error structure: default status code
	TraitJSONName    TraitID = "json.name"     // on a member: wire name override
	TraitXMLName     TraitID = "xml.name"      // on a member: wire name override
	TraitStreaming   TraitID = "streaming"     // on a shape: targets a DataStream
	TraitTimestamp   TraitID = "timestampFmt"  // on a member: "http-date" | "epoch-seconds" | "date-time"
	TraitHeaderPack  TraitID = "http.headerCsv" // on a member: comma-pack list header values
	TraitRetryable   TraitID = "retryable"     // on an error shape: bool
	TraitThrottling  TraitID = "throttling"    // on an error shape: bool
	TraitIdempotent  TraitID = "idempotent"    // on an operation: bool
	TraitReadonly    TraitID = "readonly"      // on an operation: bool
	TraitMediaType   TraitID = "mediaType"     // on a payload member: content-type override
)

// Traits is a set of trait values attached to a shape or member.
type Traits map[TraitID]any

// Has reports whether the trait is present.
func (t Traits) Has(id TraitID) bool {
	_, ok := t[id]
	return ok
}

// Get returns the raw trait value.
func (t Traits) Get(id TraitID) (any, bool) {
	v, ok := t[id]
	return v, ok
}

// String returns the trait value as a string, if present and of that type.
func (t Traits) String(id TraitID) (string, bool) {
	v, ok := t[id]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the trait value as a bool. A missing trait is false.
func (t Traits) Bool(id TraitID) bool {
	v, ok := t[id]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Int returns the trait value as an int, if present and of that type.
func (t Traits) Int(id TraitID) (int, bool) {
	v, ok := t[id]
	if !ok {
		return 0, false
	}
	i, ok := v.(int)
	return i, ok
}

// With returns a copy of t with id set to value. The receiver is not mutated,
// so callers can build trait sets incrementally without aliasing bugs.
func (t Traits) With(id TraitID, value any) Traits {
	out := make(Traits, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[id] = value
	return out
}
