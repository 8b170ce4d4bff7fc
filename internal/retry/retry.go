// Package retry is the Retry Policy from spec.md §4.3: a pure backoff
// decision plus a transactional sweep that finalises tasks which have
// exhausted their retry budget. Grounded on the teacher's
// internal/jobs/runtime backoff helpers, generalized from the teacher's
// fixed-schedule backoff to the spec's configurable base/max delay.
package retry

import (
	"context"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// Policy computes backoff delays and decides whether a failed task is
// retried or finalized as FAILED.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func NewPolicy(baseDelay, maxDelay time.Duration) Policy {
	return Policy{BaseDelay: baseDelay, MaxDelay: maxDelay}
}

// Delay computes the backoff for the attempt number about to be made
// (1-indexed: attempt 1 is the first retry after the initial failure).
// delay(n) = min(base * 2^(n-1), max).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Decision is the outcome of evaluating a failed task against its retry
// budget.
type Decision struct {
	Retry         bool
	NewScheduleAt time.Time
}

// Decide reports whether task should be retried, and if so, when. A task
// whose RetryCount has already reached MaxRetries is never retried again —
// the caller finalizes it as FAILED (spec.md §4.3, terminal-failure rule).
func (p Policy) Decide(task *domain.Task, now time.Time) Decision {
	if task.RetryCount >= task.MaxRetries {
		return Decision{Retry: false}
	}
	delay := p.Delay(task.RetryCount + 1)
	return Decision{Retry: true, NewScheduleAt: now.Add(delay)}
}

// Sweeper finalizes any PENDING task that has exceeded its
// retry budget but was never transitioned to FAILED — a safety net for
// tasks left behind by a crash between "increment retry count" and "decide
// next state" (spec.md §4.3).
type Sweeper struct {
	store        store.Store
	log          *logger.Logger
	tickInterval time.Duration
}

func NewSweeper(s store.Store, log *logger.Logger, tickInterval time.Duration) *Sweeper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Sweeper{store: s, log: log.With("component", "retry_sweeper"), tickInterval: tickInterval}
}

// Run blocks, ticking every tickInterval until ctx is cancelled, sweeping
// on each tick — the same periodic-loop shape as the Scheduler and Failure
// Detector.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx, time.Now().UTC())
			if err != nil {
				s.log.Error("sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("finalized tasks exceeding retry limit", "count", n)
			}
		}
	}
}

// Sweep finalizes every task whose retry_count >= max_retries and which is
// still PENDING, marking it FAILED. Returns the number finalized.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	tasks, err := s.store.FindTasksExceedingRetryLimit(dbc, domain.StatusPending)
	if err != nil {
		return 0, err
	}
	finalized := 0
	for _, t := range tasks {
		ok, err := s.store.UpdateStatus(dbc, t.ID, domain.StatusPending, domain.StatusFailed, now)
		if err != nil {
			if s.log != nil {
				s.log.Error("retry sweep: finalize failed", "task_id", t.ID, "error", err)
			}
			continue
		}
		if ok {
			finalized++
		}
	}
	return finalized, nil
}
