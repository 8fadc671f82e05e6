// Package interceptor implements the ordered hook chain the execution
// pipeline drives a request through (spec.md §4.5). Interceptors observe
// ("read") or transform ("modify") pipeline state at a fixed set of named
// phases; a single Phase enum and one dispatch function per kind of hook
// (Chain.Read, Chain.Modify) replaces per-hook virtual dispatch across N
// interceptors, per spec.md §9's design note on interceptor hook count.
package interceptor

// Phase names one point in the execution pipeline's lifecycle (spec.md
// §4.1). The ordering of these constants is the canonical order; it is
// never reordered once a pipeline has shipped against it.
type Phase int

const (
	ReadBeforeExecution Phase = iota
	ModifyBeforeSerialization
	ReadBeforeSerialization
	ReadAfterSerialization
	ModifyBeforeRetryLoop
	ReadBeforeAttempt
	ModifyBeforeSigning
	ReadBeforeSigning
	ReadAfterSigning
	ModifyBeforeTransmit
	ReadBeforeTransmit
	ReadAfterTransmit
	ModifyBeforeDeserialization
	ReadBeforeDeserialization
	ReadAfterDeserialization
	ModifyBeforeAttemptCompletion
	ReadAfterAttempt
	ModifyBeforeCompletion
	ReadAfterExecution
)

var phaseNames = [...]string{
	"read_before_execution",
	"modify_before_serialization",
	"read_before_serialization",
	"read_after_serialization",
	"modify_before_retry_loop",
	"read_before_attempt",
	"modify_before_signing",
	"read_before_signing",
	"read_after_signing",
	"modify_before_transmit",
	"read_before_transmit",
	"read_after_transmit",
	"modify_before_deserialization",
	"read_before_deserialization",
	"read_after_deserialization",
	"modify_before_attempt_completion",
	"read_after_attempt",
	"modify_before_completion",
	"read_after_execution",
}

// String returns the hook's spec name (e.g. "read_before_execution").
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown_phase"
	}
	return phaseNames[p]
}

// IsModify reports whether phase threads a transformed value left-to-right
// through the chain (a "modify_*" hook) rather than merely observing it.
func (p Phase) IsModify() bool {
	switch p {
	case ModifyBeforeSerialization, ModifyBeforeRetryLoop, ModifyBeforeSigning,
		ModifyBeforeTransmit, ModifyBeforeDeserialization, ModifyBeforeAttemptCompletion,
		ModifyBeforeCompletion:
		return true
	default:
		return false
	}
}
