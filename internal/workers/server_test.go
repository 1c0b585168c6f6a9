package workers_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"github.com/ammerola/minimarket-pos/internal/workers"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestRetryDelay(t *testing.T) {
	task := asynq.NewTask(workers.TypeSaleCommitted, nil)
	cause := errors.New("archive unavailable")

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first_retry", attempt: 0, expected: time.Second},
		{name: "doubles", attempt: 3, expected: 8 * time.Second},
		{name: "below_cap", attempt: 9, expected: 512 * time.Second},
		{name: "capped", attempt: 10, expected: 10 * time.Minute},
		{name: "far_past_cap", attempt: 64, expected: 10 * time.Minute},
		{name: "negative_treated_as_first", attempt: -1, expected: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, workers.RetryDelay(tt.attempt, cause, task))
		})
	}
}

func TestNewServeMux_RoutesSaleCommitted(t *testing.T) {
	processor := workers.NewSaleProcessor(nil, nil, nil, helpers.TestLogger())
	mux := workers.NewServeMux(processor)

	_, pattern := mux.Handler(asynq.NewTask(workers.TypeSaleCommitted, nil))
	assert.Equal(t, workers.TypeSaleCommitted, pattern)

	_, pattern = mux.Handler(asynq.NewTask("sale:unknown", nil))
	assert.Empty(t, pattern)
}
