package job

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps job-type strings to executor implementations. Executors are
// registered once at startup; resolution is read-only afterwards, so the
// registry is safe for concurrent use by many worker invocations.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
	}
}

// Register binds an executor to a job type. Registering the same type twice
// is a programming error and fails with ErrDuplicateJobType.
func (r *Registry) Register(jobType string, executor Executor) error {
	if jobType == "" {
		return ErrEmptyJobType
	}
	if executor == nil {
		return fmt.Errorf("executor for type %q cannot be nil", jobType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[jobType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJobType, jobType)
	}

	r.executors[jobType] = executor
	return nil
}

// Resolve returns the executor registered for the given job type, or
// ErrUnknownJobType when none is registered.
func (r *Registry) Resolve(jobType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executor, ok := r.executors[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	return executor, nil
}

// Types returns the sorted list of registered job types. The claim query
// filters on this list so a job of an unregistered type is never claimed.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
