// Package executor is the dispatch layer from spec.md §4.2: a capability
// set {handles(type), execute(task)}, generalized from the teacher's
// runtime.Handler/runtime.Registry (internal/jobs/runtime/registry.go) —
// there, one handler per job_type driven through a mutable runtime.Context;
// here, one Executor per task type returning an immutable ExecutionResult,
// since the spec's executor contract is a pure function of a Task, not a
// stateful pipeline.
package executor

import (
	"context"
	"fmt"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

// ExecutionResult is the outcome of one executor invocation.
//
// Invariant: a failed result must carry a non-empty Error (spec.md §4.2).
type ExecutionResult struct {
	Success  bool
	Output   string
	Error    string
	Metadata map[string]any
}

// Succeed builds a successful ExecutionResult. output may be empty.
func Succeed(output string, metadata map[string]any) ExecutionResult {
	return ExecutionResult{Success: true, Output: output, Metadata: metadata}
}

// Fail builds a failed, recoverable-looking ExecutionResult: the Retry
// Policy decides whether it is retried (spec.md §4.2, §4.4).
func Fail(msg string, metadata map[string]any) ExecutionResult {
	return ExecutionResult{Success: false, Error: msg, Metadata: metadata}
}

// UnrecoverableError is raised by an executor (via panic, caught by the
// Execution Coordinator) to skip retry entirely — the task is malformed or
// unsupported at a level the Retry Policy should never see (spec.md §4.2).
type UnrecoverableError struct {
	Msg string
}

func (e *UnrecoverableError) Error() string { return e.Msg }

// Executor is the capability contract: it declares which task types it
// handles, and executes a task of one of those types.
type Executor interface {
	// Handles reports whether this executor is responsible for taskType.
	Handles(taskType string) bool
	// Execute runs task to completion or failure. It must not panic except
	// via UnrecoverableError to signal a non-retryable rejection.
	Execute(ctx context.Context, task *domain.Task) ExecutionResult
}

// ErrNoExecutor is wrapped into the failure message the Execution
// Coordinator synthesises when no registered Executor handles a task's
// type (spec.md §4.2).
func ErrNoExecutor(taskType string) string {
	return fmt.Sprintf("no executor for type %s", taskType)
}
