package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

type stubExecutor struct {
	handlesType string
	result      ExecutionResult
}

func (s stubExecutor) Handles(taskType string) bool { return taskType == s.handlesType }
func (s stubExecutor) Execute(ctx context.Context, task *domain.Task) ExecutionResult {
	return s.result
}

func TestRegistryFirstMatchWins(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExecutor{handlesType: "DUMMY", result: Succeed("first", nil)})
	r.Register(stubExecutor{handlesType: "DUMMY", result: Succeed("second", nil)})

	result, ok := r.Execute(context.Background(), &domain.Task{Type: "DUMMY"})

	assert.True(t, ok)
	assert.Equal(t, "first", result.Output)
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExecutor{handlesType: "DUMMY"})

	_, ok := r.Execute(context.Background(), &domain.Task{Type: "HTTP"})

	assert.False(t, ok)
}

func TestRegistryNilExecutorIgnored(t *testing.T) {
	r := NewRegistry()
	r.Register(nil)

	_, ok := r.Dispatch("DUMMY")
	assert.False(t, ok)
}
