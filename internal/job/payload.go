package job

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Reserved payload keys maintained by the orchestrator. Executors must treat
// these as read-only.
const (
	// KeyOrganizationID carries the tenant into the executor's payload view.
	// It is injected from the job row on every claim and stripped again
	// before any payload is persisted, so the row column stays the single
	// source of truth and a caller-supplied payload can never confuse
	// tenants.
	KeyOrganizationID = "organization_id"

	// KeyYieldCount tracks how many times the job has yielded. It is read
	// from the stored payload and rewritten on every yield, so an executor
	// that drops it from a replacement payload cannot reset its budget.
	KeyYieldCount = "yield_count"
)

// InjectContext returns a copy of the payload with the tenant context merged
// in under the reserved keys. The stored payload is never modified.
func InjectContext(payload json.RawMessage, organizationID uuid.UUID) (json.RawMessage, error) {
	doc, err := decodeObject(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	doc[KeyOrganizationID] = organizationID.String()

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return merged, nil
}

// YieldCount reads the orchestrator-maintained yield counter from a payload.
// A missing or malformed counter reads as zero.
func YieldCount(payload json.RawMessage) int {
	doc, err := decodeObject(payload)
	if err != nil {
		return 0
	}

	// JSON numbers decode as float64.
	if n, ok := doc[KeyYieldCount].(float64); ok && n > 0 {
		return int(n)
	}
	return 0
}

// NextPayload computes the payload a yielded job is re-queued with.
//
// The next document is either the yield's full replacement or the current
// payload with the patch merged in (patch keys win). Tenant context is
// stripped so it is not duplicated into stored state, and the yield counter
// is incremented from the *stored* payload's value. Returns
// ErrYieldBudgetExceeded once the counter passes maxYields, and
// ErrPayloadTooLarge when the encoded document exceeds maxBytes. Both are
// fatal to the job.
func NextPayload(current json.RawMessage, y *Yield, maxYields, maxBytes int) (json.RawMessage, error) {
	if y == nil || (y.NextPayload == nil && y.PayloadPatch == nil) {
		return nil, fmt.Errorf("%w: yield carries neither nextPayload nor payloadPatch", ErrInvalidYield)
	}

	var next map[string]any
	if y.NextPayload != nil {
		next = make(map[string]any, len(y.NextPayload))
		for k, v := range y.NextPayload {
			next[k] = v
		}
	} else {
		doc, err := decodeObject(current)
		if err != nil {
			return nil, fmt.Errorf("%w: current payload is not an object: %v", ErrInvalidYield, err)
		}
		next = doc
		for k, v := range y.PayloadPatch {
			next[k] = v
		}
	}

	delete(next, KeyOrganizationID)

	count := YieldCount(current) + 1
	if maxYields > 0 && count > maxYields {
		return nil, fmt.Errorf("%w: job yielded %d times (cap %d)", ErrYieldBudgetExceeded, count, maxYields)
	}
	next[KeyYieldCount] = count

	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode next payload: %w", err)
	}

	if maxBytes > 0 && len(encoded) > maxBytes {
		return nil, fmt.Errorf("%w: next payload is %d bytes (cap %d)", ErrPayloadTooLarge, len(encoded), maxBytes)
	}

	return encoded, nil
}

// decodeObject decodes a payload into a mutable map. An empty payload decodes
// to an empty object.
func decodeObject(payload json.RawMessage) (map[string]any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
