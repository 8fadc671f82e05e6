package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SharedMap is the minimal cluster-shared map contract a distributed retry
// bucket needs. It mirrors `registry/store/replicated.Map` from the pack's
// Redis-backed registry store and is satisfied by `*rmap.Map` from
// `goa.design/pulse/rmap`; it is declared here (rather than imported)
// so the bucket is unit-testable without Redis, same reasoning as that
// store's own Map interface.
type SharedMap interface {
	Delete(ctx context.Context, key string) (string, error)
	Get(key string) (string, bool)
	Keys() []string
	Set(ctx context.Context, key, value string) (string, error)
}

// DistributedStrategy is a cluster-shared token-bucket Strategy, for
// multi-instance clients that must share one scope's retry budget
// (SPEC_FULL.md §5.4, generalizing spec.md §5's "process-wide... MUST be
// thread-safe" to "process-or-cluster-wide").
type DistributedStrategy struct {
	maxAttempts     int
	capacity        float64
	refillPerSecond float64
	costPerRetry    float64
	costPerThrottle float64
	keyPrefix       string
	m               SharedMap
}

// NewDistributedStrategy builds a DistributedStrategy backed by m.
func NewDistributedStrategy(m SharedMap, maxAttempts int, capacity, refillPerSecond, costPerRetry, costPerThrottle float64) *DistributedStrategy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DistributedStrategy{
		maxAttempts:     maxAttempts,
		capacity:        capacity,
		refillPerSecond: refillPerSecond,
		costPerRetry:    costPerRetry,
		costPerThrottle: costPerThrottle,
		keyPrefix:       "schemarpc:retry:",
		m:               m,
	}
}

// MaxAttempts implements Strategy.
func (s *DistributedStrategy) MaxAttempts() int { return s.maxAttempts }

// AcquireInitialToken implements Strategy.
func (s *DistributedStrategy) AcquireInitialToken(_ context.Context, scope string) (*Token, time.Duration, error) {
	return &Token{scope: scope, attempt: 1}, 0, nil
}

// RefreshRetryToken implements Strategy.
func (s *DistributedStrategy) RefreshRetryToken(ctx context.Context, token *Token, decision Decision, suggestedDelay time.Duration) (*Token, time.Duration, error) {
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
	ok, err := s.take(ctx, token.scope, cost)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, &ExhaustedError{Scope: token.scope, Attempt: token.attempt, Reason: "retry bucket empty"}
	}
	delay := suggestedDelay
	if decision.RetryAfter > delay {
		delay = decision.RetryAfter
	}
	return &Token{scope: token.scope, attempt: nextAttempt}, delay, nil
}

// RecordSuccess implements Strategy.
func (s *DistributedStrategy) RecordSuccess(_ context.Context, token *Token) error {
	return token.consume()
}

type bucketState struct {
	Tokens    float64 `json:"tokens"`
	UpdatedAt int64   `json:"updatedAt"`
}

// take debits cost from scope's shared bucket, refilling first for the
// elapsed time since the last update. Read-modify-write against SharedMap is
// not atomic across nodes; a true CAS would need a map primitive this
// interface does not expose, so concurrent refreshes on the same scope from
// different nodes can over-admit briefly.
func (s *DistributedStrategy) take(ctx context.Context, scope string, cost float64) (bool, error) {
	key := s.keyPrefix + scope
	now := time.Now()
	st := bucketState{Tokens: s.capacity, UpdatedAt: now.UnixNano()}
	if raw, ok := s.m.Get(key); ok {
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return false, fmt.Errorf("retry: decode shared bucket state for scope %q: %w", scope, err)
		}
		elapsed := now.Sub(time.Unix(0, st.UpdatedAt)).Seconds()
		if elapsed > 0 {
			st.Tokens += elapsed * s.refillPerSecond
		}
		if st.Tokens > s.capacity {
			st.Tokens = s.capacity
		}
	}
	if st.Tokens < cost {
		return false, nil
	}
	st.Tokens -= cost
	st.UpdatedAt = now.UnixNano()
	b, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("retry: encode shared bucket state for scope %q: %w", scope, err)
	}
	if _, err := s.m.Set(ctx, key, string(b)); err != nil {
		return false, fmt.Errorf("retry: store shared bucket state for scope %q: %w", scope, err)
	}
	return true, nil
}
