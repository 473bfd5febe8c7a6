// Package postgres provides PostgreSQL implementations of the store
// interfaces defined by the job and material packages.
//
// Every status transition is a conditional UPDATE guarded by the row's
// expected current status; the claim query additionally uses FOR UPDATE
// SKIP LOCKED so concurrent workers never block on each other. The
// stores operate on store.DBTX, so they work identically inside and
// outside a transaction.
package postgres
