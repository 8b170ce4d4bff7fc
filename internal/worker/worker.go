// Package worker implements the Worker Loop from spec.md §4.6: a process
// that advertises liveness via periodic heartbeats and processes whatever
// tasks the Scheduler has assigned to its worker id. Grounded on the
// teacher's internal/app background-goroutine pattern (multiple named
// periodic loops coordinated by one errgroup and a shared shutdown
// context), generalized to the spec's two independent subtasks
// (heartbeat, processing) sharing one worker identity.
package worker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/coordinator"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/dbctx"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/platform/logger"
	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/store"
)

const processingInterval = 1 * time.Second

// Worker owns one worker identity: it heartbeats on a fixed cadence and
// sequentially processes whatever tasks are assigned to it.
type Worker struct {
	id                string
	store             store.Store
	coordinator       *coordinator.Coordinator
	log               *logger.Logger
	heartbeatInterval time.Duration
}

// New derives a worker identity from the host name and a random suffix —
// unique per process, stable for the process's lifetime — and builds a
// Worker around it.
func New(s store.Store, coord *coordinator.Coordinator, log *logger.Logger, heartbeatInterval time.Duration) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	id := fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	return &Worker{
		id:                id,
		store:             s,
		coordinator:       coord,
		log:               log.With("component", "worker", "worker_id", id),
		heartbeatInterval: heartbeatInterval,
	}
}

// ID returns this worker's identity, as registered in worker_heartbeats.
func (w *Worker) ID() string { return w.id }

// Run registers the worker's first heartbeat, then blocks running the
// heartbeat and processing subtasks concurrently until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	now := time.Now().UTC()
	if err := w.store.UpsertHeartbeat(dbctx.Context{Ctx: ctx}, w.id, now, nil); err != nil {
		return fmt.Errorf("initial heartbeat: %w", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- w.runHeartbeat(ctx) }()
	go func() { errCh <- w.runProcessing(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (w *Worker) runHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now().UTC()
			dbc := dbctx.Context{Ctx: ctx}
			rows, err := w.store.TouchHeartbeat(dbc, w.id, now)
			if err != nil {
				w.log.Error("heartbeat touch failed", "error", err)
				continue
			}
			if rows == 0 {
				// Our heartbeat row was cleaned up as stale (spec.md §4.7) while
				// this worker was still alive; re-register rather than go dark.
				if err := w.store.UpsertHeartbeat(dbc, w.id, now, nil); err != nil {
					w.log.Error("heartbeat re-register failed", "error", err)
				}
			}
		}
	}
}

func (w *Worker) runProcessing(ctx context.Context) error {
	ticker := time.NewTicker(processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.processAssigned(ctx)
		}
	}
}

func (w *Worker) processAssigned(ctx context.Context) {
	dbc := dbctx.Context{Ctx: ctx}
	tasks, err := w.store.FindByWorkerAndStatus(dbc, w.id, domain.StatusRunning)
	if err != nil {
		w.log.Error("find assigned tasks failed", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	sort.Slice(tasks, func(i, j int) bool {
		ai, aj := tasks[i].AssignedAt, tasks[j].AssignedAt
		if ai == nil || aj == nil {
			return false
		}
		return ai.Before(*aj)
	})

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := w.coordinator.Run(ctx, task, w.id); err != nil {
			w.log.Error("coordinator run failed", "task_id", task.ID, "error", err)
		}
	}
}
