package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/scheduler"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// healthCheckTimeout bounds the database ping of the health endpoint
const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// OverdueSweeper exposes the overdue scheduler to the system endpoints
type OverdueSweeper interface {
	IsRunning() bool
	Stats() scheduler.OverdueRunStats
	TriggerNow() error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	db        Pinger
	sweeper   OverdueSweeper
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		db:        db,
	}
}

// SetOverdueSweeper attaches the overdue scheduler. Without one the
// scheduler endpoints report it as disabled.
func (h *SystemHandler) SetOverdueSweeper(sweeper OverdueSweeper) {
	h.sweeper = sweeper
}

// HealthResponse is the body of the health endpoint
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Time     string `json:"time" example:"2026-01-23T12:00:00Z"`
	Database string `json:"database" example:"ok"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports whether the service and its database are reachable
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Time:     time.Now().Format(time.RFC3339),
		Database: "ok",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Database = "error"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// SystemInfoResponse reports the running build
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name          string `json:"name" example:"Invoicer API"`
	Version       string `json:"version" example:"1.0.0"`
	GoVersion     string `json:"go_version" example:"go1.25.5"`
	StartedAt     string `json:"started_at" example:"2026-01-23T10:29:15Z"`
	Uptime        string `json:"uptime" example:"1h30m45s"`
	UptimeSeconds int64  `json:"uptime_seconds" example:"5445"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	up := time.Since(h.startTime).Round(time.Second)
	h.Success(c, SystemInfoResponse{
		Name:          "Invoicer API",
		Version:       h.version,
		GoVersion:     runtime.Version(),
		StartedAt:     h.startTime.UTC().Format(time.RFC3339),
		Uptime:        up.String(),
		UptimeSeconds: int64(up / time.Second),
	})
}

// PingResponse echoes the server clock, for latency and skew checks
// @name HandlerPingResponse
type PingResponse struct {
	Message    string    `json:"message" example:"pong"`
	ServerTime time.Time `json:"server_time" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{Message: "pong", ServerTime: time.Now().UTC()})
}

// SchedulerStatusResponse describes the overdue scheduler
// @name HandlerSchedulerStatusResponse
type SchedulerStatusResponse struct {
	Enabled     bool       `json:"enabled"`
	Running     bool       `json:"running"`
	Runs        int64      `json:"runs"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	LastMarked  int        `json:"last_marked"`
	TotalMarked int64      `json:"total_marked"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerStatus godoc
// @ID           getSchedulerStatus
// @Summary      Overdue scheduler status
// @Description  Returns the state and run statistics of the overdue sweep
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SchedulerStatusResponse]
// @Router       /system/scheduler [get]
func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	if h.sweeper == nil {
		h.Success(c, SchedulerStatusResponse{})
		return
	}

	stats := h.sweeper.Stats()
	resp := SchedulerStatusResponse{
		Enabled:     true,
		Running:     h.sweeper.IsRunning(),
		Runs:        stats.Runs,
		LastMarked:  stats.LastMarked,
		TotalMarked: stats.TotalMarked,
	}
	if !stats.LastRunAt.IsZero() {
		lastRun := stats.LastRunAt
		resp.LastRunAt = &lastRun
	}
	if stats.LastError != nil {
		resp.LastError = stats.LastError.Error()
	}

	h.Success(c, resp)
}

// TriggerScheduler godoc
// @ID           triggerSchedulerRun
// @Summary      Run the overdue sweep now
// @Description  Requests an immediate overdue sweep. Requests made while one is pending are coalesced.
// @Tags         system
// @Produce      json
// @Success      202 {object} APIResponse[SchedulerStatusResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /system/scheduler/trigger [post]
func (h *SystemHandler) TriggerScheduler(c *gin.Context) {
	if h.sweeper == nil {
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Overdue scheduler is disabled")
		return
	}

	if err := h.sweeper.TriggerNow(); err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Overdue scheduler is not running")
			return
		}
		h.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(SchedulerStatusResponse{
		Enabled: true,
		Running: true,
	}))
}
