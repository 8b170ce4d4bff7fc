// Package coordinator implements the Execution Coordinator from spec.md
// §4.4: the four-step flow of recording an in-flight attempt, dispatching
// to an executor, and reconciling the outcome back into durable state.
// Grounded on the teacher's jobs.Orchestrator
// (internal/jobs/orchestrator.go), which wraps a runtime.Handler call with
// a before/after persistence boundary and a recover() guard against a
// handler panic — generalized here to the spec's explicit
// UnrecoverableError signal instead of the teacher's blanket recover.
package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/executor"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/retry"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// Outcome reports what happened to a task after one coordinated execution,
// for the Worker Loop to log and act on.
type Outcome struct {
	TaskID    string
	Succeeded bool
	Retried   bool
	Finalized bool
}

// Coordinator executes one claimed task end to end: record attempt start,
// dispatch to the registry, record attempt finish, and apply the Retry
// Policy's decision on failure.
type Coordinator struct {
	store    store.Store
	registry *executor.Registry
	policy   retry.Policy
	log      *logger.Logger
}

func New(s store.Store, reg *executor.Registry, policy retry.Policy, log *logger.Logger) *Coordinator {
	return &Coordinator{store: s, registry: reg, policy: policy, log: log}
}

// Run executes task, which must already be RUNNING and assigned to
// workerID. It never returns an error for executor failures — those are
// reconciled into task state; only a failure to persist state propagates.
func (c *Coordinator) Run(ctx context.Context, task *domain.Task, workerID string) (Outcome, error) {
	dbc := dbctx.Context{Ctx: ctx}
	now := time.Now().UTC()

	attempt, err := c.store.RecordAttemptStart(dbc, task.ID, workerID)
	if err != nil {
		return Outcome{}, err
	}

	result, unrecoverable := c.dispatch(ctx, task)

	metaBytes, _ := json.Marshal(result.Metadata)
	var errMsgPtr *string
	if !result.Success {
		errMsgPtr = &result.Error
	}
	outputPtr := &result.Output

	finishErr := c.store.RecordAttemptFinish(dbc, attempt.ID, result.Success, outputPtr, errMsgPtr, metaBytes, now)
	if finishErr != nil {
		return Outcome{}, finishErr
	}

	if result.Success {
		if _, err := c.store.CompleteTask(dbc, task.ID, domain.StatusSuccess, now, outputPtr, metaBytes, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{TaskID: task.ID.String(), Succeeded: true}, nil
	}

	// No registered executor and an executor's own UnrecoverableError both
	// terminate the task immediately — the Retry Policy is never consulted
	// for either (spec.md §4.2, §4.4).
	if unrecoverable {
		ok, err := c.store.CompleteTask(dbc, task.ID, domain.StatusFailed, now, outputPtr, metaBytes, now)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{TaskID: task.ID.String(), Finalized: ok}, nil
	}

	return c.reconcileFailure(dbc, task, now)
}

// dispatch invokes the registry, translating a no-executor-found or an
// executor panic with UnrecoverableError into a non-retryable failure
// result without ever propagating the panic past this call. Any other
// panic becomes an ordinary, retryable failure result. The second
// return value reports whether the Retry Policy must be bypassed
// entirely for this result.
func (c *Coordinator) dispatch(ctx context.Context, task *domain.Task) (result executor.ExecutionResult, unrecoverable bool) {
	e, ok := c.registry.Dispatch(task.Type)
	if !ok {
		return executor.Fail(executor.ErrNoExecutor(task.Type), nil), true
	}

	defer func() {
		if r := recover(); r != nil {
			if ue, ok := r.(*executor.UnrecoverableError); ok {
				result = executor.Fail(ue.Error(), map[string]any{"unrecoverable": true})
				unrecoverable = true
				return
			}
			if c.log != nil {
				c.log.Error("executor panic", "task_id", task.ID, "panic", r)
			}
			result = executor.Fail("executor panicked", nil)
			unrecoverable = false
		}
	}()

	return e.Execute(ctx, task), false
}

func (c *Coordinator) reconcileFailure(dbc dbctx.Context, task *domain.Task, now time.Time) (Outcome, error) {
	decision := c.policy.Decide(task, now)
	if decision.Retry {
		ok, err := c.store.IncrementRetryAndReschedule(dbc, task.ID, domain.StatusPending, decision.NewScheduleAt, now)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{TaskID: task.ID.String(), Retried: ok}, nil
	}

	ok, err := c.store.UpdateStatus(dbc, task.ID, domain.StatusRunning, domain.StatusFailed, now)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{TaskID: task.ID.String(), Finalized: ok}, nil
}
