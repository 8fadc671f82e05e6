package client

import (
	"context"
	"net/http"
	"os"

	"goa.design/schemarpc/auth"
	"goa.design/schemarpc/interceptor"
)

// attemptHeaderInterceptor writes the amz-sdk-request attempt header and
// applies recursion detection at modify_before_signing, so the header
// survives a transport swap instead of being hardcoded into the pipeline
// or into any one Transport implementation (SPEC_FULL.md §5.1).
type attemptHeaderInterceptor struct {
	maxAttempts func() int
	traceEnv    string
}

func newAttemptHeaderInterceptor(maxAttempts func() int) *attemptHeaderInterceptor {
	return &attemptHeaderInterceptor{maxAttempts: maxAttempts, traceEnv: os.Getenv("_X_AMZN_TRACE_ID")}
}

// Handle implements interceptor.Interceptor.
func (a *attemptHeaderInterceptor) Handle(_ context.Context, phase interceptor.Phase, io interceptor.IO) (interceptor.IO, error) {
	if phase != interceptor.ModifyBeforeSigning {
		return io, nil
	}
	req, ok := io.Request.(*http.Request)
	if !ok || req == nil {
		return io, nil
	}
	auth.SetAttemptHeader(req, io.Attempt, a.maxAttempts())
	auth.ApplyRecursionDetection(req, a.traceEnv)
	return io, nil
}

var _ interceptor.Interceptor = (*attemptHeaderInterceptor)(nil)
