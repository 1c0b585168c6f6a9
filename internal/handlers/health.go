// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
	statusDisabled  = "disabled"
)

// HealthHandler reports the state of the register backend and its
// dependencies. db, redis and inspector are optional; a nil dependency is
// reported as disabled instead of failing the check.
type HealthHandler struct {
	db        ports.Database
	redis     *redis.Client
	inspector *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database ports.Database,
	redisClient *redis.Client,
	inspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		inspector: inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Environment   string                 `json:"environment"`
	StorageDriver string                 `json:"storage_driver"`
	Uptime        string                 `json:"uptime"`
	Timestamp     time.Time              `json:"timestamp"`
	Services      map[string]ServiceInfo `json:"services"`
	System        SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:        statusHealthy,
		Version:       h.config.App.Version,
		Environment:   h.config.App.Environment,
		StorageDriver: h.config.App.StorageDriver,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:     time.Now(),
		Services:      make(map[string]ServiceInfo),
		System:        h.getSystemInfo(),
	}

	checks := map[string]ServiceInfo{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
		"asynq":    h.checkAsynq(ctx),
	}
	for name, info := range checks {
		health.Services[name] = info
		if info.Status == statusUnhealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status == statusDegraded {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, health)
}

// Readiness handles GET /ready. Only the stores a sale needs to commit are
// consulted; the cache and the queue degrade gracefully.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	switch {
	case h.db == nil:
		details["database"] = statusDisabled
	case h.db.Ping(ctx) != nil:
		ready = false
		details["database"] = "not ready"
	default:
		details["database"] = "ready"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			details["redis"] = "not ready"
		} else {
			details["redis"] = "ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

// probe runs check and stamps its duration. A nil check means the
// dependency is not configured for this process.
func (h *HealthHandler) probe(ctx context.Context, name string, check func(details map[string]interface{}) error) ServiceInfo {
	if check == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	details := make(map[string]interface{})
	if err := check(details); err != nil {
		h.logger.ErrorContext(ctx, "dependency check failed",
			slog.String("dependency", name),
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error(), Details: details}
	}

	info := ServiceInfo{
		Status:       statusHealthy,
		ResponseTime: time.Since(start).String(),
		Details:      details,
	}
	if details["status"] == statusUnhealthy {
		info.Status = statusUnhealthy
	}
	return info
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	if h.db == nil {
		return ServiceInfo{Status: statusDisabled, Message: "in-memory store"}
	}
	return h.probe(ctx, "database", func(details map[string]interface{}) error {
		if err := h.db.Ping(ctx); err != nil {
			return err
		}
		for k, v := range h.db.Health(ctx) {
			details[k] = v
		}
		return nil
	})
}

func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	if h.redis == nil {
		return h.probe(ctx, "redis", nil)
	}
	return h.probe(ctx, "redis", func(details map[string]interface{}) error {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			return err
		}
		stats := h.redis.PoolStats()
		details["total_conns"] = stats.TotalConns
		details["idle_conns"] = stats.IdleConns
		details["timeouts"] = stats.Timeouts
		return nil
	})
}

// checkAsynq reports the backlog of sale events waiting for the worker
func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	if h.inspector == nil {
		return h.probe(ctx, "asynq", nil)
	}
	return h.probe(ctx, "asynq", func(details map[string]interface{}) error {
		queues, err := h.inspector.Queues()
		if err != nil {
			return err
		}

		backlog := make(map[string]interface{}, len(queues))
		for _, queue := range queues {
			q, err := h.inspector.GetQueueInfo(queue)
			if err != nil {
				continue
			}
			backlog[queue] = map[string]int{
				"pending":  q.Pending,
				"active":   q.Active,
				"retry":    q.Retry,
				"archived": q.Archived,
			}
		}
		details["queues"] = backlog

		if servers, err := h.inspector.Servers(); err == nil {
			details["workers"] = len(servers)
		}
		return nil
	})
}

func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
