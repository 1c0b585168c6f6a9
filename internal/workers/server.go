// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// ServerConfig tunes the asynq server that drains sale events
type ServerConfig struct {
	Concurrency     int
	Queues          map[string]int
	StrictPriority  bool
	ShutdownTimeout time.Duration
}

const (
	retryBase = time.Second
	retryCap  = 10 * time.Minute
)

// RetryDelay doubles the wait after every failed attempt up to ten minutes
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= 10 {
		return retryCap
	}
	return min(retryBase<<uint(n), retryCap)
}

// NewServer builds an asynq server that logs through logger
func NewServer(redisOpt asynq.RedisConnOpt, cfg ServerConfig, logger *slog.Logger) *asynq.Server {
	logger = logger.With(slog.String("component", "asynq"))

	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          cfg.Queues,
		StrictPriority:  cfg.StrictPriority,
		ShutdownTimeout: cfg.ShutdownTimeout,
		RetryDelayFunc:  RetryDelay,
		Logger:          asynqLogger{logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.ErrorContext(ctx, "task failed",
				slog.String("type", task.Type()),
				slog.Int("retried", retried),
				slog.Int("max_retry", maxRetry),
				slog.String("error", err.Error()))
		}),
		HealthCheckFunc: func(err error) {
			if err != nil {
				logger.Error("redis health check failed", slog.String("error", err.Error()))
			}
		},
	})
}

// NewServeMux routes sale tasks to processor
func NewServeMux(processor *SaleProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSaleCommitted, processor.ProcessSaleCommitted)
	return mux
}

// asynqLogger adapts slog to asynq.Logger. Fatal is downgraded to error so
// the process decides when to exit.
type asynqLogger struct {
	l *slog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Error(fmt.Sprint(args...)) }
