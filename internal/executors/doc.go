// Package executors contains the job executors for the content generation
// job types, plus the artifact checker that lets the reconciler prove a
// job's work finished from the materials it persisted.
package executors
