package retry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strategy is the token-bucket retry strategy contract (spec.md §4.4 "Token
// lifecycle").
type Strategy interface {
	// AcquireInitialToken starts tracking one execution under scope,
	// returning the first token and a delay to wait before the first
	// attempt (normally zero).
	AcquireInitialToken(ctx context.Context, scope string) (*Token, time.Duration, error)

	// RefreshRetryToken consumes token and, if the bucket and attempt count
	// allow another try, returns a new token and a delay to wait before the
	// next attempt. suggestedDelay is a lower bound the decision's own
	// RetryAfter may extend.
	RefreshRetryToken(ctx context.Context, token *Token, decision Decision, suggestedDelay time.Duration) (*Token, time.Duration, error)

	// RecordSuccess consumes token to end its lifecycle on a successful
	// attempt.
	RecordSuccess(ctx context.Context, token *Token) error

	// MaxAttempts returns the configured attempt ceiling (>= 1).
	MaxAttempts() int
}

// TokenBucketStrategy is the default in-process Strategy: each scope owns an
// independent golang.org/x/time/rate.Limiter whose capacity refills over
// time, debited by a retry's or throttle's cost (SPEC_FULL.md §5.4).
type TokenBucketStrategy struct {
	maxAttempts     int
	capacity        int
	refillPerSecond float64
	costPerRetry    int
	costPerThrottle int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewTokenBucketStrategy builds a Strategy with maxAttempts total attempts
// per execution (1 means no retry) and a per-scope bucket of capacity
// tokens refilling at refillPerSecond tokens/second.
func NewTokenBucketStrategy(maxAttempts, capacity int, refillPerSecond float64, costPerRetry, costPerThrottle int) *TokenBucketStrategy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TokenBucketStrategy{
		maxAttempts:     maxAttempts,
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
		costPerRetry:    costPerRetry,
		costPerThrottle: costPerThrottle,
		buckets:         map[string]*rate.Limiter{},
	}
}

// MaxAttempts implements Strategy.
func (s *TokenBucketStrategy) MaxAttempts() int { return s.maxAttempts }

// AcquireInitialToken implements Strategy.
func (s *TokenBucketStrategy) AcquireInitialToken(_ context.Context, scope string) (*Token, time.Duration, error) {
	return &Token{scope: scope, attempt: 1}, 0, nil
}

// RefreshRetryToken implements Strategy.
func (s *TokenBucketStrategy) RefreshRetryToken(_ context.Context, token *Token, decision Decision, suggestedDelay time.Duration) (*Token, time.Duration, error) {
	if err := token.consume(); err != nil {
		return nil, 0, err
	}
	if decision.Safety != SafetyYes {
		return nil, 0, &ExhaustedError{Scope: token.scope, Attempt: token.attempt, Reason: "error classified as not retry-safe"}
	}
	nextAttempt := token.attempt + 1
	if nextAttempt > s.maxAttempts {
		return nil, 0, &ExhaustedError{Scope: token.scope, Attempt: token.attempt, Reason: "max attempts reached"}
	}
	cost := s.costPerRetry
	if decision.Throttle {
		cost = s.costPerThrottle
	}
	if !s.limiterFor(token.scope).AllowN(time.Now(), cost) {
		return nil, 0, &ExhaustedError{Scope: token.scope, Attempt: token.attempt, Reason: "retry bucket empty"}
	}
	delay := suggestedDelay
	if decision.RetryAfter > delay {
		delay = decision.RetryAfter
	}
	return &Token{scope: token.scope, attempt: nextAttempt}, delay, nil
}

// RecordSuccess implements Strategy.
func (s *TokenBucketStrategy) RecordSuccess(_ context.Context, token *Token) error {
	return token.consume()
}

func (s *TokenBucketStrategy) limiterFor(scope string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.buckets[scope]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.refillPerSecond), s.capacity)
		s.buckets[scope] = l
	}
	return l
}
