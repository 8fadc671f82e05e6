package interceptor

import "context"

// IO is the mutable pipeline state passed to a hook. Fields are typed `any`
// because the pipeline is transport- and protocol-agnostic (spec.md §1
// Non-goals: "does not specify the backing HTTP library"); the execution
// pipeline package knows the concrete types it stuffs in and reads back out.
type IO struct {
	// Operation identifies the call for interceptors that log or tag by
	// operation id; it is never mutated by a hook.
	Operation string

	Input    any
	Request  any
	Response any
	Output   any
	Err      error

	// Attempt is the 1-based attempt number current at read_before_attempt
	// and later hooks; zero before the retry loop starts.
	Attempt int
}

// Interceptor observes or transforms IO at a Phase. Implementations switch
// on phase and act only on the phases they care about, returning io
// unchanged (and a nil error) for every other phase. This single-method
// shape is deliberate: a fixed list of 19 hook methods per interceptor would
// force every interceptor to implement (or embed a no-op base for) hooks it
// does not use.
type Interceptor interface {
	Handle(ctx context.Context, phase Phase, io IO) (IO, error)
}

// Func adapts a plain function to Interceptor, mirroring http.HandlerFunc.
type Func func(ctx context.Context, phase Phase, io IO) (IO, error)

// Handle implements Interceptor.
func (f Func) Handle(ctx context.Context, phase Phase, io IO) (IO, error) {
	return f(ctx, phase, io)
}

// Chain holds interceptors in registration (insertion) order and dispatches
// a phase to all of them, applying read-hook or modify-hook semantics
// (spec.md §4.5).
type Chain struct {
	interceptors []Interceptor
}

// NewChain builds a Chain over interceptors, preserving their order.
func NewChain(interceptors ...Interceptor) *Chain {
	cp := make([]Interceptor, len(interceptors))
	copy(cp, interceptors)
	return &Chain{interceptors: cp}
}

// Len returns the number of registered interceptors.
func (c *Chain) Len() int { return len(c.interceptors) }

// Interceptors returns a copy of the chain's interceptors in registration
// order, for callers building a new Chain that extends this one.
func (c *Chain) Interceptors() []Interceptor {
	cp := make([]Interceptor, len(c.interceptors))
	copy(cp, c.interceptors)
	return cp
}

// Read invokes phase on every interceptor in registration order. Every
// interceptor is always invoked, even after one returns an error; if k
// interceptors return an error, Read returns the k-th (last) one, so an
// error observed later in the chain supersedes one observed earlier
// (spec.md §4.1 "Ordering", §8 property 2). Any IO value an interceptor
// returns is discarded: read hooks observe, they do not transform.
func (c *Chain) Read(ctx context.Context, phase Phase, io IO) error {
	var last error
	for _, ic := range c.interceptors {
		if _, err := ic.Handle(ctx, phase, io); err != nil {
			last = err
		}
	}
	return last
}

// Modify threads io through every interceptor in registration order,
// replacing io with each interceptor's returned value before calling the
// next. The first error aborts the phase immediately: remaining
// interceptors are not invoked and the last successfully-produced io is
// returned alongside the error (spec.md §4.1 "Ordering", §8 property 3).
func (c *Chain) Modify(ctx context.Context, phase Phase, io IO) (IO, error) {
	for _, ic := range c.interceptors {
		next, err := ic.Handle(ctx, phase, io)
		if err != nil {
			return io, err
		}
		io = next
	}
	return io, nil
}

// Dispatch calls Modify if phase is a modify hook, otherwise Read wrapped to
// return io unchanged. This lets pipeline code call one function per phase
// without branching on phase.IsModify() at every call site.
func (c *Chain) Dispatch(ctx context.Context, phase Phase, io IO) (IO, error) {
	if phase.IsModify() {
		return c.Modify(ctx, phase, io)
	}
	err := c.Read(ctx, phase, io)
	return io, err
}
