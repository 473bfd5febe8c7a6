// Package events defines the best-effort progress event stream the
// orchestrator emits about job lifecycles. Emission is fire-and-forget by
// construction and never participates in control flow.
package events
