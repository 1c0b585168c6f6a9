package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/workers"
	"github.com/ammerola/minimarket-pos/test/helpers"
	"github.com/ammerola/minimarket-pos/test/mocks"
)

func saleTask(t *testing.T, event ports.SaleCommittedEvent) *asynq.Task {
	t.Helper()
	task, err := workers.NewSaleCommittedTask(event)
	require.NoError(t, err)
	return task
}

func TestSaleProcessor_ProcessSaleCommitted(t *testing.T) {
	productA, productB := uuid.New(), uuid.New()
	saleID := uuid.New()
	event := ports.SaleCommittedEvent{
		SaleID:       saleID,
		TicketNumber: 17,
		SellerID:     "seller-1",
		ProductIDs:   []uuid.UUID{productA, productB},
		LotIDs:       []uuid.UUID{uuid.New()},
	}
	sale := &domain.Sale{ID: saleID, TicketNumber: 17}

	tests := []struct {
		name          string
		withCache     bool
		withArchive   bool
		setupMocks    func(*mocks.MockSaleRepository, *mocks.MockCacheRepository, *mocks.MockLedgerArchive)
		expectedError bool
		skipRetry     bool
	}{
		{
			name:        "invalidates_listings_and_archives",
			withCache:   true,
			withArchive: true,
			setupMocks: func(sales *mocks.MockSaleRepository, cache *mocks.MockCacheRepository, archive *mocks.MockLedgerArchive) {
				cache.EXPECT().
					Delete(gomock.Any(), services.LotListingCacheKey(productA), services.LotListingCacheKey(productB)).
					Return(nil)
				sales.EXPECT().FindByID(gomock.Any(), saleID).Return(sale, nil)
				archive.EXPECT().ArchiveSale(gomock.Any(), sale).Return("s3://ledger/sales/x.json", nil)
			},
		},
		{
			name:      "cache_only",
			withCache: true,
			setupMocks: func(sales *mocks.MockSaleRepository, cache *mocks.MockCacheRepository, archive *mocks.MockLedgerArchive) {
				cache.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "cache_failure_is_retried",
			withCache: true,
			setupMocks: func(sales *mocks.MockSaleRepository, cache *mocks.MockCacheRepository, archive *mocks.MockLedgerArchive) {
				cache.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			expectedError: true,
		},
		{
			name:        "archive_failure_is_retried",
			withArchive: true,
			setupMocks: func(sales *mocks.MockSaleRepository, cache *mocks.MockCacheRepository, archive *mocks.MockLedgerArchive) {
				sales.EXPECT().FindByID(gomock.Any(), saleID).Return(sale, nil)
				archive.EXPECT().ArchiveSale(gomock.Any(), sale).Return("", errors.New("throttled"))
			},
			expectedError: true,
		},
		{
			name:        "missing_sale_skips_retry",
			withArchive: true,
			setupMocks: func(sales *mocks.MockSaleRepository, cache *mocks.MockCacheRepository, archive *mocks.MockLedgerArchive) {
				sales.EXPECT().FindByID(gomock.Any(), saleID).Return(nil, domain.ErrSaleNotFound)
			},
			expectedError: true,
			skipRetry:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			sales := mocks.NewMockSaleRepository(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			archive := mocks.NewMockLedgerArchive(ctrl)
			tt.setupMocks(sales, cache, archive)

			var (
				cacheRepo   ports.CacheRepository
				ledgerStore ports.LedgerArchive
			)
			if tt.withCache {
				cacheRepo = cache
			}
			if tt.withArchive {
				ledgerStore = archive
			}

			processor := workers.NewSaleProcessor(sales, cacheRepo, ledgerStore, helpers.TestLogger())
			err := processor.ProcessSaleCommitted(context.Background(), saleTask(t, event))

			if !tt.expectedError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestSaleProcessor_InvalidPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := workers.NewSaleProcessor(mocks.NewMockSaleRepository(ctrl), nil, nil, helpers.TestLogger())

	err := processor.ProcessSaleCommitted(context.Background(), asynq.NewTask(workers.TypeSaleCommitted, []byte("{not json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

// recordingEnqueuer captures tasks instead of writing them to Redis
type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: workers.QueueDefault, Type: task.Type()}, nil
}

func TestSalePublisher_PublishSaleCommitted(t *testing.T) {
	event := ports.SaleCommittedEvent{
		SaleID:       uuid.New(),
		TicketNumber: 3,
		ProductIDs:   []uuid.UUID{uuid.New()},
	}

	t.Run("enqueues_task", func(t *testing.T) {
		client := &recordingEnqueuer{}
		publisher := workers.NewSalePublisher(client, 5, helpers.TestLogger())

		require.NoError(t, publisher.PublishSaleCommitted(context.Background(), event))
		require.Len(t, client.tasks, 1)
		assert.Equal(t, workers.TypeSaleCommitted, client.tasks[0].Type())

		var decoded ports.SaleCommittedEvent
		require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &decoded))
		assert.Equal(t, event.SaleID, decoded.SaleID)
		assert.Equal(t, event.ProductIDs, decoded.ProductIDs)
		assert.Len(t, client.opts[0], 2)
	})

	t.Run("duplicate_task_is_not_an_error", func(t *testing.T) {
		client := &recordingEnqueuer{err: asynq.ErrTaskIDConflict}
		publisher := workers.NewSalePublisher(client, 5, helpers.TestLogger())

		assert.NoError(t, publisher.PublishSaleCommitted(context.Background(), event))
	})

	t.Run("enqueue_failure", func(t *testing.T) {
		client := &recordingEnqueuer{err: errors.New("redis down")}
		publisher := workers.NewSalePublisher(client, 5, helpers.TestLogger())

		err := publisher.PublishSaleCommitted(context.Background(), event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), workers.TypeSaleCommitted)
	})
}
