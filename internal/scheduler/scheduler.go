// Package scheduler implements the Scheduler Loop from spec.md §4.5: a
// periodic tick that finds due PENDING tasks and claims each for exactly
// one worker identity via the store's compare-and-swap Claim primitive.
// Grounded on the teacher's poller goroutines (internal/app/app.go's
// periodic ticker-driven background loops) generalized to the spec's
// find-then-claim dispatch loop and its resolution of the "who gets a
// claimed task" Open Question (spec.md §9): sample a currently active
// worker via Store.FindActiveWorkers, falling back to a synthesized
// identity when none is registered yet.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

// Scheduler periodically claims due tasks and assigns them to a live
// worker.
type Scheduler struct {
	store           store.Store
	log             *logger.Logger
	pollingInterval time.Duration
	heartbeatWindow time.Duration
}

func New(s store.Store, log *logger.Logger, pollingInterval, heartbeatWindow time.Duration) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{store: s, log: log.With("component", "scheduler"), pollingInterval: pollingInterval, heartbeatWindow: heartbeatWindow}
}

// Run blocks, ticking every pollingInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	dbc := dbctx.Context{Ctx: ctx}

	due, err := s.store.FindDueTasks(dbc, now)
	if err != nil {
		s.log.Error("find due tasks failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, task := range due {
		workerID, err := s.pickWorker(dbc, now)
		if err != nil {
			s.log.Error("pick worker failed", "error", err)
			continue
		}
		ok, err := s.store.Claim(dbc, task.ID, domain.StatusPending, domain.StatusRunning, workerID, now)
		if err != nil {
			s.log.Error("claim failed", "task_id", task.ID, "error", err)
			continue
		}
		if ok {
			s.log.Debug("claimed task", "task_id", task.ID, "worker_id", workerID)
		}
	}
}

// pickWorker samples one currently active worker (most recent heartbeat),
// falling back to a synthesized one-off identity when no worker has
// registered a heartbeat within the window — a task should never sit
// PENDING indefinitely just because no worker has checked in yet.
func (s *Scheduler) pickWorker(dbc dbctx.Context, now time.Time) (string, error) {
	cutoff := now.Add(-s.heartbeatWindow)
	active, err := s.store.FindActiveWorkers(dbc, cutoff)
	if err != nil {
		return "", err
	}
	if len(active) > 0 {
		latest := active[0]
		for _, wh := range active[1:] {
			if wh.LastHeartbeat.After(latest.LastHeartbeat) {
				latest = wh
			}
		}
		return latest.WorkerID, nil
	}
	return fmt.Sprintf("scheduler-fallback-%s", uuid.NewString()), nil
}
