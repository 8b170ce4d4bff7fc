package executor

import (
	"context"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

// Registry dispatches a task to the first registered Executor whose
// Handles(task.Type) returns true, the way the teacher's runtime.Registry
// dispatches job_run.job_type to a runtime.Handler
// (internal/jobs/runtime/registry.go) — generalized from a 1:1 map lookup
// to an ordered list, since spec.md §4.2 defines dispatch as "first
// capability whose handles() returns true", not a unique key lookup.
type Registry struct {
	executors []Executor
}

// NewRegistry builds an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends e to the dispatch list. Order matters: the first match
// wins.
func (r *Registry) Register(e Executor) {
	if e == nil {
		return
	}
	r.executors = append(r.executors, e)
}

// Dispatch returns the first registered Executor that handles taskType, or
// (nil, false) if none does.
func (r *Registry) Dispatch(taskType string) (Executor, bool) {
	for _, e := range r.executors {
		if e.Handles(taskType) {
			return e, true
		}
	}
	return nil, false
}

// Execute is a convenience wrapper combining Dispatch and Execute for
// callers that don't need to distinguish "no executor" from other shapes
// of failure themselves (the Execution Coordinator does distinguish, and
// calls Dispatch directly instead).
func (r *Registry) Execute(ctx context.Context, task *domain.Task) (ExecutionResult, bool) {
	e, ok := r.Dispatch(task.Type)
	if !ok {
		return ExecutionResult{}, false
	}
	return e.Execute(ctx, task), true
}
