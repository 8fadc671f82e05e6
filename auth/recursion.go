package auth

import (
	"fmt"
	"net/http"
)

// TraceHeader is the recursion-detection header name (spec.md §6).
const TraceHeader = "x-amzn-trace-id"

// ApplyRecursionDetection sets TraceHeader to traceEnv if the request does
// not already carry one, leaving any existing value untouched (spec.md §4.3
// "Recursion-detection plugin"; §8 property 7). A blank traceEnv is a no-op.
func ApplyRecursionDetection(req *http.Request, traceEnv string) {
	if traceEnv == "" {
		return
	}
	if req.Header.Get(TraceHeader) != "" {
		return
	}
	req.Header.Set(TraceHeader, traceEnv)
}

// AttemptHeader is the per-attempt retry counter header name.
const AttemptHeader = "amz-sdk-request"

// SetAttemptHeader sets "amz-sdk-request: attempt=<n>; max=<m>" for the
// n-th (1-based) attempt of an execution with an m-attempt ceiling (spec.md
// §4.3 "Attempt headers"; §8 property 6).
func SetAttemptHeader(req *http.Request, attempt, maxAttempts int) {
	req.Header.Set(AttemptHeader, fmt.Sprintf("attempt=%d; max=%d", attempt, maxAttempts))
}
