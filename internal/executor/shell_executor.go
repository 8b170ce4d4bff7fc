package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

// ShellExecutor runs a command described by a task's payload and reports
// combined stdout/stderr as output. A non-zero exit is a recoverable Fail:
// whether a shell task is worth retrying is the Retry Policy's call, not
// this executor's (spec.md §4.3).
type ShellExecutor struct{}

type shellPayload struct {
	Command   string   `json:"command"`
	Args      []string `json:"args"`
	TimeoutMs int      `json:"timeoutMs"`
}

func (ShellExecutor) Handles(taskType string) bool {
	return taskType == string(domain.TaskTypeShell)
}

func (ShellExecutor) Execute(ctx context.Context, task *domain.Task) ExecutionResult {
	var p shellPayload
	if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
		panic(&UnrecoverableError{Msg: "invalid SHELL payload: " + err.Error()})
	}
	if p.Command == "" {
		panic(&UnrecoverableError{Msg: "SHELL payload missing command"})
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if p.TimeoutMs > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(p.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, p.Command, p.Args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	meta := map[string]any{"exit_code": cmd.ProcessState.ExitCode()}
	if err != nil {
		return Fail(fmt.Sprintf("command failed: %s: %s", err.Error(), out.String()), meta)
	}
	return Succeed(out.String(), meta)
}
