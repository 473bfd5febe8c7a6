// Package api contains the HTTP layer: the producer-facing job endpoints and
// the scheduler-facing trigger endpoints for the worker and reconciler.
// Handlers translate between HTTP and the application services; they never
// expose internal errors or claim state to clients.
package api
