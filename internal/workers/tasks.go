// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

const (
	TypeSaleCommitted = "sale:committed"

	QueueDefault = "default"
)

// Enqueuer is the subset of *asynq.Client used to publish tasks
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SalePublisher enqueues sale:committed tasks
type SalePublisher struct {
	client   Enqueuer
	maxRetry int
	logger   *slog.Logger
}

// Statically assert that *SalePublisher implements the SaleEventPublisher interface.
var _ ports.SaleEventPublisher = (*SalePublisher)(nil)

// NewSalePublisher creates a publisher on top of an asynq client
func NewSalePublisher(client Enqueuer, maxRetry int, logger *slog.Logger) *SalePublisher {
	return &SalePublisher{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "sale_publisher")),
	}
}

// NewSaleCommittedTask encodes event as an asynq task. The task id is derived
// from the sale id so a sale is only enqueued once.
func NewSaleCommittedTask(event ports.SaleCommittedEvent) (*asynq.Task, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSaleCommitted, b, asynq.TaskID(saleTaskID(event))), nil
}

func saleTaskID(event ports.SaleCommittedEvent) string {
	return TypeSaleCommitted + ":" + event.SaleID.String()
}

// PublishSaleCommitted enqueues the event on the default queue
func (p *SalePublisher) PublishSaleCommitted(ctx context.Context, event ports.SaleCommittedEvent) error {
	task, err := NewSaleCommittedTask(event)
	if err != nil {
		return err
	}

	info, err := p.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(p.maxRetry))
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			p.logger.DebugContext(ctx, "sale committed task already enqueued",
				slog.String("sale_id", event.SaleID.String()))
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", TypeSaleCommitted, err)
	}

	p.logger.DebugContext(ctx, "sale committed task enqueued",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("sale_id", event.SaleID.String()))

	return nil
}
