package executor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

// DummyExecutor simulates work by sleeping and logging a message. It exists
// to exercise the full claim/execute/retry lifecycle without any external
// side effects — the happy-path scenario in spec.md §8.1 is built on it.
type DummyExecutor struct{}

type dummyPayload struct {
	SleepDurationMs int    `json:"sleepDurationMs"`
	LogMessage      string `json:"logMessage"`
	FailTimes       int    `json:"failTimes"`
}

func (DummyExecutor) Handles(taskType string) bool {
	return taskType == string(domain.TaskTypeDummy)
}

func (DummyExecutor) Execute(ctx context.Context, task *domain.Task) ExecutionResult {
	var p dummyPayload
	if task.Payload != "" {
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return Fail("invalid DUMMY payload: "+err.Error(), nil)
		}
	}

	if p.SleepDurationMs > 0 {
		select {
		case <-time.After(time.Duration(p.SleepDurationMs) * time.Millisecond):
		case <-ctx.Done():
			return Fail(ctx.Err().Error(), nil)
		}
	}

	// FailTimes stubs a DUMMY task to fail a fixed number of attempts before
	// succeeding (spec.md §8 scenario 2). task.RetryCount is bumped by the
	// Retry Policy every time this task is rescheduled after a failure, so
	// it doubles as "how many prior attempts already failed" without any
	// extra bookkeeping.
	if task.RetryCount < p.FailTimes {
		return Fail("stubbed failure", map[string]any{"attempt": task.RetryCount + 1})
	}

	return Succeed(p.LogMessage, map[string]any{"slept_ms": p.SleepDurationMs})
}
