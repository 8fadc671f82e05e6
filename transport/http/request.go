package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"goa.design/schemarpc/codec"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/stream"
	"goa.design/schemarpc/value"
)

type queryPair struct{ key, value string }

// BuildRequest constructs an HTTP request for op given input, binding
// members to path labels, query parameters, headers, and the body per
// spec.md §4.2. op must carry a schema.TraitHTTP trait of type
// OperationTrait; input's schema supplies the member bindings.
func BuildRequest(ctx context.Context, op *schema.Schema, input value.Value, pc codec.PayloadCodec, ep Endpoint) (*http.Request, error) {
	if op.Kind() != schema.KindOperation {
		return nil, fmt.Errorf("transport/http: BuildRequest requires an operation schema, got %s", op.Kind())
	}
	opTrait, err := operationTrait(op)
	if err != nil {
		return nil, err
	}
	pattern, err := ParsePattern(opTrait.Path)
	if err != nil {
		return nil, err
	}

	inputSchema := input.Schema()
	labelValues := map[string]string{}
	var queryPairs []queryPair
	header := http.Header{}
	var payloadMember *schema.Member
	var payloadRaw any

	for _, m := range inputSchema.Members() {
		raw, ok := input.Get(m)
		if !ok {
			continue
		}
		switch classify(m, true) {
		case bindingLabel:
			s, err := scalarToString(m, raw)
			if err != nil {
				return nil, fmt.Errorf("transport/http: serialization: %w", err)
			}
			labelValues[m.Name()] = s
		case bindingQuery:
			if err := bindQuery(m, raw, &queryPairs); err != nil {
				return nil, fmt.Errorf("transport/http: serialization: %w", err)
			}
		case bindingHeader:
			if err := bindHeader(m, raw, header); err != nil {
				return nil, fmt.Errorf("transport/http: serialization: %w", err)
			}
		case bindingPayload:
			payloadMember = m
			payloadRaw = raw
		}
	}

	path, err := pattern.Render(labelValues)
	if err != nil {
		return nil, fmt.Errorf("transport/http: serialization: %w", err)
	}

	epBase, epQuery, _ := strings.Cut(ep.URI, "?")
	full := MergeURI(epBase, path)
	query := joinQuery(epQuery, queryPairs)
	if query != "" {
		full += "?" + query
	}

	var bodyBytes []byte
	var bodyStream *stream.DataStream
	contentType := ""

	switch {
	case payloadMember != nil && isStreaming(payloadMember):
		ds, ok := payloadRaw.(*stream.DataStream)
		if !ok {
			return nil, fmt.Errorf("transport/http: member %q: expected *stream.DataStream, got %T", payloadMember.Name(), payloadRaw)
		}
		bodyStream = ds
		contentType = ds.ContentType()
		if ct, ok := payloadMember.Traits().String(schema.TraitMediaType); ok && ct != "" {
			contentType = ct
		}
	case payloadMember != nil:
		nested, ok := payloadRaw.(value.Value)
		if !ok {
			return nil, fmt.Errorf("transport/http: member %q: expected value.Value, got %T", payloadMember.Name(), payloadRaw)
		}
		b, err := pc.Marshal(nested)
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
		bodyBytes = b
		contentType = pc.ContentType()
	default:
		bs, err := bodySchema(inputSchema, true)
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
		if len(bs.Members()) > 0 {
			b, err := pc.Marshal(schemaView{Value: input, schema: bs})
			if err != nil {
				return nil, fmt.Errorf("transport/http: serialization: %w", err)
			}
			bodyBytes = b
			contentType = pc.ContentType()
		}
	}

	var req *http.Request
	switch {
	case bodyStream != nil:
		r, err := bodyStream.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, opTrait.Method, full, r)
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
		if bodyStream.HasKnownLength() {
			req.ContentLength = bodyStream.ContentLength()
		}
		// net/http only auto-populates GetBody for *bytes.Buffer,
		// *bytes.Reader, and *strings.Reader; a stream's io.ReadCloser never
		// matches, so a replayable stream would otherwise look one-shot to
		// the retry pipeline's request cloning.
		if bodyStream.Replayable() {
			ds := bodyStream
			req.GetBody = func() (io.ReadCloser, error) {
				return ds.Open(ctx)
			}
		}
	case bodyBytes != nil:
		req, err = http.NewRequestWithContext(ctx, opTrait.Method, full, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
		req.ContentLength = int64(len(bodyBytes))
	default:
		req, err = http.NewRequestWithContext(ctx, opTrait.Method, full, nil)
		if err != nil {
			return nil, fmt.Errorf("transport/http: serialization: %w", err)
		}
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range ep.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func operationTrait(op *schema.Schema) (OperationTrait, error) {
	raw, ok := op.Traits().Get(schema.TraitHTTP)
	if !ok {
		return OperationTrait{}, fmt.Errorf("transport/http: operation %s has no http trait", op.ID())
	}
	t, ok := raw.(OperationTrait)
	if !ok {
		return OperationTrait{}, fmt.Errorf("transport/http: operation %s http trait has unexpected type %T", op.ID(), raw)
	}
	return t, nil
}

func bindQuery(m *schema.Member, raw any, pairs *[]queryPair) error {
	key, _ := m.Traits().String(schema.TraitHTTPQuery)
	if key == "" {
		key = m.Name()
	}
	target := m.Target()
	if target != nil && target.Kind() == schema.KindList {
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("member %q: expected []any, got %T", m.Name(), raw)
		}
		for _, item := range items {
			s, err := scalarToString(target.Element(), item)
			if err != nil {
				return err
			}
			*pairs = append(*pairs, queryPair{key, s})
		}
		return nil
	}
	s, err := scalarToString(m, raw)
	if err != nil {
		return err
	}
	*pairs = append(*pairs, queryPair{key, s})
	return nil
}

func bindHeader(m *schema.Member, raw any, header http.Header) error {
	name, _ := m.Traits().String(schema.TraitHTTPHeader)
	if name == "" {
		name = m.Name()
	}
	target := m.Target()
	if target != nil && target.Kind() == schema.KindList {
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("member %q: expected []any, got %T", m.Name(), raw)
		}
		if m.Traits().Bool(schema.TraitHeaderPack) {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				s, err := scalarToString(target.Element(), item)
				if err != nil {
					return err
				}
				parts = append(parts, s)
			}
			header.Set(name, strings.Join(parts, ", "))
			return nil
		}
		for _, item := range items {
			s, err := scalarToString(target.Element(), item)
			if err != nil {
				return err
			}
			header.Add(name, s)
		}
		return nil
	}
	s, err := scalarToString(m, raw)
	if err != nil {
		return err
	}
	header.Set(name, s)
	return nil
}

// joinQuery appends freshly rendered query pairs to any query string already
// present on an override URI, preserving the existing pairs and re-encoding
// ours with the unreserved-plus-'/' rule (spec.md §4.2 "Query").
func joinQuery(existing string, pairs []queryPair) string {
	var parts []string
	if existing != "" {
		parts = append(parts, existing)
	}
	for _, p := range pairs {
		parts = append(parts, escapeQuery(p.key)+"="+escapeQuery(p.value))
	}
	return strings.Join(parts, "&")
}
