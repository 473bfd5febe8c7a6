package job

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ExecutionContext is what an executor receives for one invocation: the job's
// identity, its tenant, and the payload with tenant context already injected.
// Each executor owns its own payload schema and is responsible for decoding
// its slice; the orchestrator stays schema-agnostic.
type ExecutionContext struct {
	JobID          uuid.UUID
	OrganizationID uuid.UUID
	Payload        json.RawMessage
}

// Yield is an executor's voluntary suspension. Exactly one of NextPayload
// (full replacement) or PayloadPatch (merged into the current payload) should
// be set. Message is an observability signal only and never affects control
// flow.
type Yield struct {
	Message      string
	NextPayload  map[string]any
	PayloadPatch map[string]any
}

// Outcome is the result of one executor invocation. A nil Yield means the job
// finished and Result holds its terminal output; a non-nil Yield means the
// job should be re-queued with an updated payload.
type Outcome struct {
	Result json.RawMessage
	Yield  *Yield
}

// Done builds a terminal Outcome carrying the given result document.
func Done(result json.RawMessage) Outcome {
	return Outcome{Result: result}
}

// Suspend builds a yielding Outcome with a payload patch.
func Suspend(message string, patch map[string]any) Outcome {
	return Outcome{Yield: &Yield{Message: message, PayloadPatch: patch}}
}

// Executor is the capability the orchestrator dispatches to. Anything
// implementing Execute qualifies; one implementation per job type is
// registered at startup. A returned error is terminal for the attempt and is
// persisted verbatim.
type Executor interface {
	Execute(ctx context.Context, ec ExecutionContext) (Outcome, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, ec ExecutionContext) (Outcome, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, ec ExecutionContext) (Outcome, error) {
	return f(ctx, ec)
}
