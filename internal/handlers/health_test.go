package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/minimarket-pos/internal/handlers"
	"github.com/ammerola/minimarket-pos/test/helpers"
	"github.com/ammerola/minimarket-pos/test/mocks"
)

func TestHealthHandler_Health(t *testing.T) {
	cfg := helpers.LoadTestConfig()

	t.Run("memory_store_with_redis", func(t *testing.T) {
		testRedis := helpers.SetupTestRedis(t)
		handler := handlers.NewHealthHandler(nil, testRedis.Client, nil, cfg, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp handlers.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "memory", resp.StorageDriver)
		assert.Equal(t, "disabled", resp.Services["database"].Status)
		assert.Equal(t, "healthy", resp.Services["redis"].Status)
		assert.Equal(t, "disabled", resp.Services["asynq"].Status)
	})

	t.Run("database_down_degrades", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := mocks.NewMockDatabase(ctrl)
		database.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

		handler := handlers.NewHealthHandler(database, nil, nil, cfg, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp handlers.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Services["database"].Status)
	})

	t.Run("database_pool_stats", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := mocks.NewMockDatabase(ctrl)
		database.EXPECT().Ping(gomock.Any()).Return(nil)
		database.EXPECT().Health(gomock.Any()).Return(map[string]interface{}{"total_conns": 4})

		handler := handlers.NewHealthHandler(database, nil, nil, cfg, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp handlers.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(4), resp.Services["database"].Details["total_conns"])
	})
}

func TestHealthHandler_Readiness(t *testing.T) {
	cfg := helpers.LoadTestConfig()

	t.Run("redis_down_is_still_ready", func(t *testing.T) {
		testRedis := helpers.SetupTestRedis(t)
		testRedis.Server.Close()

		handler := handlers.NewHealthHandler(nil, testRedis.Client, nil, cfg, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"not ready"`)
	})

	t.Run("database_down_is_not_ready", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		database := mocks.NewMockDatabase(ctrl)
		database.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
			return errors.New("timeout")
		})

		handler := handlers.NewHealthHandler(database, nil, nil, cfg, helpers.TestLogger())

		w := httptest.NewRecorder()
		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"ready":false`)
	})
}
