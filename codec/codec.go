// Package codec defines PayloadCodec, the pluggable reader/writer that
// serializes a schema-bound value to bytes (spec.md §3 "Payload codec":
// "serializes a structure value to bytes given its schema (JSON/CBOR/XML
// variants)"). The HTTP binding engine (package transport/http) uses a
// PayloadCodec to produce and consume the request/response body; this
// package carries only the contract, concrete codecs live in their own
// sub-packages (codec/json, ...).
package codec

import "goa.design/schemarpc/value"

// PayloadCodec serializes and deserializes a schema-bound value to/from a
// byte payload. Implementations are stateless and safe for concurrent use.
type PayloadCodec interface {
	// ContentType returns the media type this codec produces, used to set
	// the wire Content-Type header when no member override applies.
	ContentType() string

	// Marshal renders v (whose Schema() must be a structure or union shape)
	// to bytes.
	Marshal(v value.Value) ([]byte, error)

	// Unmarshal populates v (whose Schema() must be a structure or union
	// shape) from data. Members absent from data are left unset; members
	// present in data but not in the schema are ignored (spec.md §4.2
	// "Unknown members on the wire are ignored").
	Unmarshal(data []byte, v value.Value) error
}
