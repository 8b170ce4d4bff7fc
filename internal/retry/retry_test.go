package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shubhanginisharma627/distributedtaskscheduler/internal/domain"
)

func TestPolicyDelay(t *testing.T) {
	p := NewPolicy(1*time.Second, 30*time.Second)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 1 * time.Second},
		{attempt: 1, want: 1 * time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 5, want: 16 * time.Second},
		{attempt: 6, want: 30 * time.Second}, // capped
		{attempt: 20, want: 30 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Delay(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestPolicyDecideRetriesUnderBudget(t *testing.T) {
	p := NewPolicy(1*time.Second, time.Minute)
	now := time.Now().UTC()
	task := &domain.Task{RetryCount: 1, MaxRetries: 3}

	d := p.Decide(task, now)

	assert.True(t, d.Retry)
	assert.True(t, d.NewScheduleAt.After(now))
}

func TestPolicyDecideFinalizesAtBudget(t *testing.T) {
	p := NewPolicy(1*time.Second, time.Minute)
	now := time.Now().UTC()
	task := &domain.Task{RetryCount: 3, MaxRetries: 3}

	d := p.Decide(task, now)

	assert.False(t, d.Retry)
}
