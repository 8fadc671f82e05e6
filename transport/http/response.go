package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"goa.design/schemarpc/codec"
	"goa.design/schemarpc/document"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/stream"
	"goa.design/schemarpc/value"
)

// Fault classifies an unmodeled error by HTTP status (spec.md §4.2 "Error
// response": "classified as Client (4xx), Server (5xx), or Unknown").
type Fault int

const (
	FaultUnknown Fault = iota
	FaultClient
	FaultServer
)

func (f Fault) String() string {
	switch f {
	case FaultClient:
		return "client"
	case FaultServer:
		return "server"
	default:
		return "unknown"
	}
}

// ModeledError is a registered error shape materialized from the wire
// (spec.md §4.1 failure model "Modeled(error_shape)").
type ModeledError struct {
	ShapeID schema.ID
	Value   value.Value
	Status  int
}

func (e *ModeledError) Error() string {
	return fmt.Sprintf("transport/http: modeled error %s (status %d)", e.ShapeID, e.Status)
}

// UnmodeledError is the fallback produced when neither a header extractor
// nor a body discriminator identifies a known error shape (spec.md §4.1
// failure model "Unmodeled(fault, message, raw_response)").
type UnmodeledError struct {
	Status  int
	Fault   Fault
	Message string
	Header  http.Header
	Body    []byte
}

func (e *UnmodeledError) Error() string { return e.Message }

// BuildOutput reconstructs an operation's output value from an HTTP
// response (spec.md §4.2 "Response output"). op's output member must
// resolve to a structure schema. Callers own resp.Body until BuildOutput
// returns; for a streaming payload member, resp.Body is handed to the
// resulting DataStream instead of being read here.
func BuildOutput(op *schema.Schema, resp *http.Response, pc codec.PayloadCodec) (value.Value, error) {
	outMember := op.Output()
	if outMember == nil {
		return nil, fmt.Errorf("transport/http: operation %s has no output", op.ID())
	}
	outputSchema := outMember.Target()
	if outputSchema == nil {
		return nil, fmt.Errorf("transport/http: operation %s output target %s is unresolved", op.ID(), outMember.TargetID())
	}
	return buildStructureOutput(outputSchema, resp, pc, false)
}

func buildStructureOutput(outputSchema *schema.Schema, resp *http.Response, pc codec.PayloadCodec, closeBody bool) (value.Value, error) {
	out := value.New(outputSchema)
	var payloadMember *schema.Member
	for _, m := range outputSchema.Members() {
		switch classify(m, false) {
		case bindingHeader:
			if err := setHeaderMember(out, m, resp.Header); err != nil {
				return nil, fmt.Errorf("transport/http: deserialization: %w", err)
			}
		case bindingStatus:
			out.Set(m, int64(resp.StatusCode))
		case bindingPayload:
			payloadMember = m
		}
	}

	if payloadMember != nil && isStreaming(payloadMember) {
		ct := resp.Header.Get("Content-Type")
		ds := stream.FromReader(resp.Body, ct, resp.ContentLength)
		out.Set(payloadMember, ds)
		return out, nil
	}

	body, err := io.ReadAll(resp.Body)
	if closeBody {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("transport/http: read response body: %w", err)
	}

	if payloadMember != nil {
		target := payloadMember.Target()
		nested := value.New(target)
		if len(body) > 0 {
			if err := pc.Unmarshal(body, nested); err != nil {
				return nil, fmt.Errorf("transport/http: deserialization: %w", err)
			}
		}
		out.Set(payloadMember, nested)
		return out, nil
	}

	bs, err := bodySchema(outputSchema, false)
	if err != nil {
		return nil, fmt.Errorf("transport/http: deserialization: %w", err)
	}
	if len(bs.Members()) > 0 && len(body) > 0 {
		if err := pc.Unmarshal(body, schemaView{Value: out, schema: bs}); err != nil {
			return nil, fmt.Errorf("transport/http: deserialization: %w", err)
		}
	}
	return out, nil
}

func setHeaderMember(out value.Value, m *schema.Member, header http.Header) error {
	name, _ := m.Traits().String(schema.TraitHTTPHeader)
	if name == "" {
		name = m.Name()
	}
	target := m.Target()
	if target != nil && target.Kind() == schema.KindList {
		var values []string
		if m.Traits().Bool(schema.TraitHeaderPack) {
			raw := header.Get(name)
			if raw == "" {
				return nil
			}
			for _, part := range strings.Split(raw, ",") {
				values = append(values, strings.TrimSpace(part))
			}
		} else {
			values = header.Values(name)
		}
		if len(values) == 0 {
			return nil
		}
		items := make([]any, 0, len(values))
		for _, v := range values {
			item, err := scalarFromString(target.Element(), v)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		out.Set(m, items)
		return nil
	}
	v := header.Get(name)
	if v == "" {
		return nil
	}
	parsed, err := scalarFromString(m, v)
	if err != nil {
		return err
	}
	out.Set(m, parsed)
	return nil
}

// ErrorOptions configures BuildError's header-extractor precedence and
// relative-name promotion (spec.md §4.2 "Error response").
type ErrorOptions struct {
	// HeaderExtractor is the header name consulted first (e.g.
	// "x-amzn-errortype"). Empty disables the header step.
	HeaderExtractor string
	// ServiceNamespace promotes a relative discriminator to an absolute
	// shape id when the relative form is not itself registered.
	ServiceNamespace string
	// UnknownMessage, if set, overrides the default Unmodeled message.
	UnknownMessage string
}

// BuildError implements the ordered error-response strategy (spec.md §4.2
// "Error response"): header extractor, then JSON discriminator, then a
// known-shape match, else an Unmodeled fallback classified by status.
func BuildError(op *schema.Schema, resp *http.Response, body []byte, pc codec.PayloadCodec, opts ErrorOptions) error {
	shapeIDStr := ""
	if opts.HeaderExtractor != "" {
		if v := resp.Header.Get(opts.HeaderExtractor); v != "" {
			shapeIDStr, _, _ = strings.Cut(v, ":")
		}
	}
	if shapeIDStr == "" && len(body) > 0 {
		if doc, err := document.UnmarshalJSON(body); err == nil {
			if m, err := document.AsMap(doc); err == nil {
				if v, ok := m.Get("__type"); ok {
					shapeIDStr, _ = document.AsString(v)
				}
				if shapeIDStr == "" {
					if v, ok := m.Get("code"); ok {
						shapeIDStr, _ = document.AsString(v)
					}
				}
			}
		}
	}

	if shapeIDStr != "" {
		if me := resolveModeledError(op, shapeIDStr, opts.ServiceNamespace, resp.StatusCode, body, pc); me != nil {
			return me
		}
	}

	fault := FaultUnknown
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		fault = FaultClient
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		fault = FaultServer
	}
	msg := opts.UnknownMessage
	if msg == "" {
		msg = fmt.Sprintf("transport/http: unmodeled error: %s %d for operation %s", resp.Proto, resp.StatusCode, op.ID())
	}
	return &UnmodeledError{Status: resp.StatusCode, Fault: fault, Message: msg, Header: resp.Header, Body: body}
}

func resolveModeledError(op *schema.Schema, shapeIDStr, serviceNamespace string, status int, body []byte, pc codec.PayloadCodec) *ModeledError {
	id, err := schema.ParseID(shapeIDStr)
	if err != nil {
		return nil
	}
	for _, candidate := range []schema.ID{id, id.WithNamespace(serviceNamespace)} {
		for _, em := range op.Errors() {
			target := em.Target()
			if target == nil || target.ID() != candidate {
				continue
			}
			nested := value.New(target)
			if err := pc.Unmarshal(body, nested); err != nil {
				return nil
			}
			return &ModeledError{ShapeID: candidate, Value: nested, Status: status}
		}
		if id.Namespace != "" {
			break
		}
	}
	return nil
}
