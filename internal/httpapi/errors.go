package httpapi

import "fmt"

var (
	errTaskNotFound        = fmt.Errorf("task not found")
	errTaskNotCancellable  = fmt.Errorf("task is no longer pending and cannot be cancelled")
	errNegativeMaxRetries  = fmt.Errorf("max_retries must not be negative")
)

func errInvalidTaskType(t string) error {
	return fmt.Errorf("unsupported task type %q", t)
}
