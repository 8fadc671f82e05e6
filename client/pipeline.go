package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"goa.design/schemarpc/auth"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/interceptor"
	"goa.design/schemarpc/retry"
	"goa.design/schemarpc/schema"
	schemahttp "goa.design/schemarpc/transport/http"
	"goa.design/schemarpc/value"
)

// Invoke drives op through the full execution pipeline (spec.md §4.1):
// build and serialize the request, acquire a retry token, then loop
// attempts until one succeeds, is classified as not retry-safe, or the
// retry strategy is exhausted. override applies call-scoped Options on top
// of cfg before the call starts (spec.md §3 "per-call override produces a
// new snapshot by structural copy-on-write").
//
// I and O are constrained to value.Value rather than free type parameters:
// this module ships no generated per-operation Go structs, so every input
// and output is addressed by schema member through the Value interface.
// O is recovered from the protocol's deserialized result with a type
// assertion; a caller invoking Invoke with a concrete O must supply an
// operation/codec pair that actually produces that concrete type.
func Invoke[I value.Value, O value.Value](ctx context.Context, cfg Config, op *schema.Schema, input I, override ...Option) (O, error) {
	var zero O

	if len(override) > 0 {
		overridden, err := cfg.Override(override...)
		if err != nil {
			return zero, newError(KindSerialization, opID(op), err)
		}
		cfg = overridden
	}

	operation := opID(op)
	ctx = WithOperation(ctx, operation)
	chain := cfg.Interceptors

	pio := interceptor.IO{Operation: operation, Input: input}

	pio, err := dispatch(ctx, chain, interceptor.ReadBeforeExecution, pio)
	if err != nil {
		return zero, newError(KindUnmodeled, operation, err)
	}

	pio, err = modify(ctx, chain, interceptor.ModifyBeforeSerialization, pio)
	if err != nil {
		return zero, newError(KindSerialization, operation, err)
	}
	if _, err := dispatch(ctx, chain, interceptor.ReadBeforeSerialization, pio); err != nil {
		return zero, newError(KindSerialization, operation, err)
	}

	epParams := endpoint.Params{Operation: operation, Region: RegionFromContext(ctx)}
	resolved, err := cfg.EndpointResolver.ResolveEndpoint(ctx, epParams)
	if err != nil {
		return zero, newError(KindSerialization, operation, err)
	}
	base := endpoint.ResolveBase(resolved, EndpointOverrideFromContext(ctx))

	inputValue, _ := pio.Input.(value.Value)
	req, err := cfg.Protocol.CreateRequest(ctx, op, inputValue, base)
	if err != nil {
		return zero, newError(KindSerialization, operation, err)
	}
	pio.Request = req

	if _, err := dispatch(ctx, chain, interceptor.ReadAfterSerialization, pio); err != nil {
		return zero, newError(KindSerialization, operation, err)
	}

	pio, err = modify(ctx, chain, interceptor.ModifyBeforeRetryLoop, pio)
	if err != nil {
		return zero, newError(KindSerialization, operation, err)
	}

	scope := RetryScopeFromContext(ctx)
	if scope == "" {
		scope = cfg.RetryScope
	}
	if scope == "" {
		scope = operation
	}
	token, delay, err := cfg.RetryStrategy.AcquireInitialToken(ctx, scope)
	if err != nil {
		return zero, newError(KindRetryExhausted, operation, err)
	}
	if err := wait(ctx, delay); err != nil {
		return zero, classifyCancellation(operation, err)
	}

	var finalErr error
	var output value.Value

	for {
		pio.Attempt = token.Attempt()
		attemptCtx, span := cfg.Tracer.Start(ctx, operation+"#attempt")

		pio, err = dispatch(attemptCtx, chain, interceptor.ReadBeforeAttempt, pio)
		if err != nil {
			finalErr = newError(KindUnmodeled, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}

		attemptReq, cloneErr := cloneAttemptRequest(attemptCtx, req, pio.Attempt)
		if cloneErr != nil {
			finalErr = newError(KindSerialization, operation, cloneErr)
			span.RecordError(finalErr)
			span.End()
			break
		}
		pio.Request = attemptReq

		pio, err = modify(attemptCtx, chain, interceptor.ModifyBeforeSigning, pio)
		if err != nil {
			finalErr = newError(KindSerialization, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}
		if _, err := dispatch(attemptCtx, chain, interceptor.ReadBeforeSigning, pio); err != nil {
			finalErr = newError(KindSerialization, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}

		signedReq, _ := pio.Request.(*http.Request)
		attemptCtx, signErr := signRequest(attemptCtx, cfg, operation, signedReq)
		if signErr != nil {
			finalErr = newError(KindUnmodeled, operation, signErr)
			span.RecordError(finalErr)
			span.End()
			break
		}
		pio.Request = signedReq

		if _, err := dispatch(attemptCtx, chain, interceptor.ReadAfterSigning, pio); err != nil {
			finalErr = newError(KindSerialization, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}

		pio, err = modify(attemptCtx, chain, interceptor.ModifyBeforeTransmit, pio)
		if err != nil {
			finalErr = newError(KindSerialization, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}
		if _, err := dispatch(attemptCtx, chain, interceptor.ReadBeforeTransmit, pio); err != nil {
			finalErr = newError(KindSerialization, operation, err)
			span.RecordError(finalErr)
			span.End()
			break
		}

		transmitReq, _ := pio.Request.(*http.Request)
		resp, sendErr := cfg.Transport.Send(attemptCtx, transmitReq)

		var attemptErr error
		var decision retry.Decision
		idempotent := IdempotencyTokenFromContext(attemptCtx) != "" ||
			op.Traits().Bool(schema.TraitIdempotent) || op.Traits().Bool(schema.TraitReadonly)
		now := ClockFromContext(attemptCtx)()
		if sendErr != nil {
			fault := classifyNetworkFault(sendErr)
			attemptErr = newError(KindTransport, operation, sendErr).withNetworkFault(fault)
			decision = retry.Classify(retry.Input{NetworkFault: fault, Idempotent: idempotent, Now: now})
		}

		pio.Response = resp
		pio.Err = attemptErr

		if _, err := dispatch(attemptCtx, chain, interceptor.ReadAfterTransmit, pio); err != nil {
			pio.Err = err
		}

		if pio.Err == nil {
			pio, err = modify(attemptCtx, chain, interceptor.ModifyBeforeDeserialization, pio)
			if err != nil {
				pio.Err = newError(KindDeserialization, operation, err)
			}
		}

		if pio.Err == nil {
			if _, err := dispatch(attemptCtx, chain, interceptor.ReadBeforeDeserialization, pio); err != nil {
				pio.Err = newError(KindDeserialization, operation, err)
			}
		}

		if pio.Err == nil {
			body, derr := readAndRestoreBody(resp)
			if derr != nil {
				pio.Err = newError(KindDeserialization, operation, derr)
			} else if resp.StatusCode >= 300 {
				werr := cfg.Protocol.DeserializeError(op, resp, body)
				pio.Err = classifyProtocolError(operation, werr)
				decision = classifyDecision(pio.Err, idempotent, now, resp.Header.Get("Retry-After"))
			} else {
				out, oerr := cfg.Protocol.DeserializeResponse(op, resp)
				if oerr != nil {
					pio.Err = newError(KindDeserialization, operation, oerr)
				} else {
					output = out
					pio.Output = out
				}
			}
		}

		if _, err := dispatch(attemptCtx, chain, interceptor.ReadAfterDeserialization, pio); err != nil {
			pio.Err = err
		}

		pio, err = modify(attemptCtx, chain, interceptor.ModifyBeforeAttemptCompletion, pio)
		if err != nil {
			pio.Err = newError(KindSerialization, operation, err)
		}

		if lastErr := dispatch1(attemptCtx, chain, interceptor.ReadAfterAttempt, pio); lastErr != nil {
			pio.Err = lastErr
		}

		if pio.Err != nil {
			span.RecordError(pio.Err)
		}

		if pio.Err == nil {
			if recErr := cfg.RetryStrategy.RecordSuccess(attemptCtx, token); recErr != nil {
				finalErr = newError(KindUnmodeled, operation, recErr)
				span.RecordError(finalErr)
				span.End()
				break
			}
			finalErr = nil
			span.End()
			break
		}

		if decision.Safety != retry.SafetyYes {
			// The classifier itself ruled this error not retry-safe: the
			// original error propagates as-is, it is not a retry-budget
			// exhaustion (spec.md §4.4 "Denial" is about budget/attempt
			// limits, not about an error simply being unsafe to retry).
			finalErr = pio.Err
			span.End()
			break
		}

		nextToken, nextDelay, rerr := cfg.RetryStrategy.RefreshRetryToken(attemptCtx, token, decision, decision.RetryAfter)
		if rerr != nil {
			finalErr = wrapExhausted(operation, pio.Err, rerr)
			span.RecordError(finalErr)
			span.End()
			break
		}
		span.End()
		if err := wait(attemptCtx, nextDelay); err != nil {
			finalErr = classifyCancellation(operation, err)
			break
		}
		token = nextToken
		finalErr = pio.Err
	}

	pio, cerr := modify(ctx, chain, interceptor.ModifyBeforeCompletion, pio)
	if cerr != nil && finalErr == nil {
		finalErr = newError(KindSerialization, operation, cerr)
	}
	if lastErr := dispatch1(ctx, chain, interceptor.ReadAfterExecution, pio); lastErr != nil {
		finalErr = lastErr
	}

	if finalErr != nil {
		return zero, finalErr
	}
	result, ok := output.(O)
	if !ok {
		return zero, newError(KindDeserialization, operation,
			fmt.Errorf("client: deserialized output does not satisfy requested output type"))
	}
	return result, nil
}

// signRequest resolves the call's auth scheme options, picks the winning
// scheme/identity via auth.Resolve, and signs req in place (spec.md §4.1
// "sign request"; §4.3). The returned context carries the non-sensitive
// AuthView for later hooks/logging.
func signRequest(ctx context.Context, cfg Config, operation string, req *http.Request) (context.Context, error) {
	options, err := cfg.AuthResolver.ResolveAuthSchemes(ctx, auth.Params{Operation: operation})
	if err != nil {
		return ctx, err
	}
	scheme, identity, props, err := auth.Resolve(ctx, options, cfg.AuthCatalog)
	if err != nil {
		return ctx, err
	}
	if req != nil && req.GetBody != nil {
		if hash, herr := hashRequestBody(req); herr == nil {
			props = withPayloadHash(props, hash)
		}
	}
	if err := scheme.Signer.SignRequest(ctx, req, identity, props); err != nil {
		return ctx, err
	}
	return WithAuthIdentity(ctx, scheme.ID, identity), nil
}

// hashRequestBody computes the SigV4 payload hash for a replayable request
// body by reopening it through GetBody, leaving req.Body itself untouched
// for the actual send (spec.md §4.3 "SigV4 signer" step 1: a buffered body
// is signed with its SHA-256 digest, not UNSIGNED-PAYLOAD).
func hashRequestBody(req *http.Request) (string, error) {
	body, err := req.GetBody()
	if err != nil {
		return "", err
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return auth.HashPayload(b), nil
}

// withPayloadHash returns props with "payloadHash" set to hash, unless the
// scheme already published one (an explicit scheme override wins). The
// original map is never mutated since it may be shared across calls.
func withPayloadHash(props auth.Properties, hash string) auth.Properties {
	if _, ok := props["payloadHash"]; ok {
		return props
	}
	cp := make(auth.Properties, len(props)+1)
	for k, v := range props {
		cp[k] = v
	}
	cp["payloadHash"] = hash
	return cp
}

// cloneAttemptRequest builds the request to send for attempt, refusing to
// retry a request whose body has already been consumed and cannot be
// reopened (spec.md §5 "a one-shot request body MUST NOT be retried once
// the transport has begun consuming it and cannot restart it"). The first
// attempt always clones cleanly; later attempts require req.GetBody, which
// net/http populates for recognized in-memory bodies and which
// transport/http leaves nil for a non-replayable stream.DataStream.
func cloneAttemptRequest(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(ctx)
	if attempt <= 1 || req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("client: request body is one-shot and cannot be replayed for attempt %d", attempt)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("client: reopening request body for attempt %d: %w", attempt, err)
	}
	clone.Body = body
	return clone, nil
}

func opID(op *schema.Schema) string {
	if op == nil {
		return ""
	}
	return op.ID().String()
}

func dispatch(ctx context.Context, chain *interceptor.Chain, phase interceptor.Phase, pio interceptor.IO) (interceptor.IO, error) {
	if chain == nil {
		return pio, nil
	}
	return chain.Dispatch(ctx, phase, pio)
}

func dispatch1(ctx context.Context, chain *interceptor.Chain, phase interceptor.Phase, pio interceptor.IO) error {
	if chain == nil {
		return nil
	}
	return chain.Read(ctx, phase, pio)
}

func modify(ctx context.Context, chain *interceptor.Chain, phase interceptor.Phase, pio interceptor.IO) (interceptor.IO, error) {
	if chain == nil {
		return pio, nil
	}
	return chain.Modify(ctx, phase, pio)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classifyCancellation(operation string, err error) *Error {
	if err == context.DeadlineExceeded {
		return newError(KindTimeout, operation, err)
	}
	return newError(KindCancelled, operation, err)
}

func classifyNetworkFault(err error) retry.NetworkFault {
	if err == context.DeadlineExceeded {
		return retry.FaultConnectTimeout
	}
	return retry.FaultTransportSocket
}

func classifyProtocolError(operation string, werr error) *Error {
	switch e := werr.(type) {
	case *schemahttp.ModeledError:
		return newError(KindModeled, operation, e).
			withHTTPStatus(e.Status).
			withErrorShapeID(e.ShapeID.String())
	case *schemahttp.UnmodeledError:
		ce := newError(KindUnmodeled, operation, e).
			withHTTPStatus(e.Status).
			withMessage(e.Message)
		if e.Status == 429 || e.Status == 503 {
			ce = ce.withThrottle(true)
		}
		return ce
	default:
		return newError(KindUnmodeled, operation, werr)
	}
}

// classifyDecision re-derives a retry.Decision from a classified *Error,
// marking the error retry-safe in place when the classifier agrees
// (spec.md §7 "all errors expose is_retry_safe"). retryAfterHeader is the raw
// Retry-After response header, if any, so the classifier can honor the
// retry-after hint (spec.md §4.4) instead of only its own backoff.
func classifyDecision(err error, idempotent bool, now time.Time, retryAfterHeader string) retry.Decision {
	ce, ok := AsError(err)
	if !ok {
		return retry.Decision{Safety: retry.SafetyNo}
	}
	in := retry.Input{
		HTTPStatus:       ce.HTTPStatus(),
		Idempotent:       idempotent,
		Now:              now,
		RetryAfterHeader: retryAfterHeader,
	}
	if ce.IsThrottle() {
		t := true
		in.ModelThrottling = &t
	}
	d := retry.Classify(in)
	if d.Safety == retry.SafetyYes {
		ce.withRetrySafe(true)
	}
	if d.RetryAfter > 0 {
		ce.withRetryAfter(d.RetryAfter)
	}
	return d
}

func wrapExhausted(operation string, attemptErr error, rerr error) *Error {
	ce := newError(KindRetryExhausted, operation, rerr)
	if inner, ok := AsError(attemptErr); ok {
		ce = ce.withHTTPStatus(inner.HTTPStatus()).withErrorShapeID(inner.ErrorShapeID())
	}
	return ce
}

func readAndRestoreBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
