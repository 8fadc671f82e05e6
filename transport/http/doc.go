// Package http implements the HTTP-binding protocol engine (spec.md §4.2):
// projecting a schema-bound input value onto a request's path labels, query
// parameters, headers, and body, and reconstructing an output or modeled
// error from a response. Percent-encoding follows RFC 3986's unreserved set,
// matching the rule smithy-go's own encoding/httpbinding package applies to
// generated AWS SDK clients, one of this module's teacher dependencies.
package http
