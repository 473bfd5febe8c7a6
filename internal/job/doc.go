// Package job defines the core entities and contracts of the asynchronous
// job orchestration engine: the Job entity and its state machine, the payload
// envelope with its reserved keys, the Executor capability, the type registry,
// and the persistence contract (Store).
package job
