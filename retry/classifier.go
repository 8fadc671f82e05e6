package retry

import (
	"strconv"
	"time"
)

const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// NetworkFault identifies a transport-layer failure kind (spec.md §4.1
// failure model "Transport(cause) subtree").
type NetworkFault int

const (
	// FaultNone means the error being classified did not originate below
	// the application layer.
	FaultNone NetworkFault = iota
	FaultConnectTimeout
	FaultConnectionClosed
	FaultTLS
	FaultTransportProtocol
	FaultTransportSocket
	FaultTransportSocketTimeout
)

// Safety is the classifier's retry-safety verdict. Per the Open Question
// decision recorded in DESIGN.md, the spec's three-valued RetrySafety::MAYBE
// is collapsed to SafetyNo unless an idempotency signal upgrades it.
type Safety int

const (
	SafetyNo Safety = iota
	SafetyYes
)

// Input carries everything the classifier needs to decide one error
// (spec.md §4.4 "Classifier"). Zero-value fields mean "not applicable": a
// NetworkFault of FaultNone and an HTTPStatus of 0 together mean the error
// carries no network or HTTP signal at all.
type Input struct {
	NetworkFault NetworkFault
	HTTPStatus   int

	// RetryAfterHeader is the raw retry-after header value (seconds or an
	// RFC 1123-ish HTTP date), if any.
	RetryAfterHeader string

	// Idempotent is true when the request carries an idempotency token or
	// the operation is modeled readonly/idempotent (spec.md §4.4: "5xx with
	// idempotency_token set or operation marked readonly/idempotent").
	Idempotent bool

	// ModelRetryable and ModelThrottling mirror the error shape's
	// `retryable`/`throttling` traits, when the error is modeled.
	ModelRetryable  *bool
	ModelThrottling *bool

	// Now is the classifier's clock, for retry-after-to-Duration conversion.
	Now time.Time
}

// Decision is the classifier's verdict for one error.
type Decision struct {
	Safety     Safety
	Throttle   bool
	RetryAfter time.Duration
}

// Classify implements spec.md §4.4's classifier rules.
func Classify(in Input) Decision {
	d := Decision{Safety: SafetyNo}

	switch in.NetworkFault {
	case FaultConnectTimeout:
		d.Safety = SafetyYes
	case FaultConnectionClosed, FaultTLS, FaultTransportProtocol, FaultTransportSocket, FaultTransportSocketTimeout:
		d.Safety = SafetyNo
	}

	if in.HTTPStatus != 0 {
		switch {
		case in.HTTPStatus == 429 || in.HTTPStatus == 503:
			d.Safety = SafetyYes
			d.Throttle = true
		case in.HTTPStatus >= 500 && in.HTTPStatus < 600:
			if in.Idempotent {
				d.Safety = SafetyYes
			} else {
				d.Safety = SafetyNo
			}
		case in.HTTPStatus >= 400 && in.HTTPStatus < 500:
			d.Safety = SafetyNo
		}
	}

	if in.ModelThrottling != nil && *in.ModelThrottling {
		d.Throttle = true
	}
	if in.ModelRetryable != nil {
		if *in.ModelRetryable {
			d.Safety = SafetyYes
		} else {
			d.Safety = SafetyNo
		}
	}

	if in.RetryAfterHeader != "" {
		if delay, ok := parseRetryAfter(in.RetryAfterHeader, in.Now); ok {
			d.RetryAfter = delay
		}
	}
	return d
}

func parseRetryAfter(s string, now time.Time) (time.Duration, bool) {
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := time.Parse(httpDateLayout, s)
	if err != nil {
		return 0, false
	}
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
