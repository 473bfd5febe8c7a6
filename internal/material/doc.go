// Package material defines the content artifacts jobs produce and the
// persistence contract for them. Materials double as ground truth for
// reconciliation: because they are written before a job's terminal status,
// their presence proves work finished even when the worker died.
package material
