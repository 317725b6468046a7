package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"myai/internal/coordinator"
	"myai/internal/logger"
	"myai/internal/scheduler"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the local HTTP control surface the CLI talks to.
type Server struct {
	echo   *echo.Echo
	coord  *coordinator.Coordinator
	sched  *scheduler.Scheduler
	port   int
	stopCh chan struct{}
}

func NewServer(coord *coordinator.Coordinator, sched *scheduler.Scheduler, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		coord:  coord,
		sched:  sched,
		port:   port,
		stopCh: make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/events", s.handleEvents)
	s.echo.POST("/stop", s.handleStop)

	s.echo.POST("/enable", s.handleEnable)
	s.echo.POST("/disable", s.handleDisable)

	sync := s.echo.Group("/sync")
	sync.POST("", s.handleSync)
	sync.POST("/config", s.handleConfigSync)
	sync.POST("/agents", s.handleAgentSync)

	jobs := s.echo.Group("/jobs")
	jobs.GET("", s.handleQueueStatus)
	jobs.GET("/:id", s.handleJobStatus)
	jobs.DELETE("/:id", s.handleCancelJob)
	jobs.POST("/cleanup", s.handleCleanup)

	s.echo.POST("/watch", s.handleAddWatch)
	s.echo.DELETE("/watch", s.handleRemoveWatch)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.coord.GetStatus())
}

func (s *Server) handleEvents(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	return c.JSON(http.StatusOK, s.coord.GetRecentEvents(n))
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleEnable(c echo.Context) error {
	s.coord.Enable()
	return c.JSON(http.StatusOK, map[string]string{"status": "enabled"})
}

func (s *Server) handleDisable(c echo.Context) error {
	s.coord.Disable()
	return c.JSON(http.StatusOK, map[string]string{"status": "disabled"})
}

type syncRequest struct {
	Priority int `json:"priority"`
}

func (s *Server) handleSync(c echo.Context) error {
	return s.handleTrigger(c, s.coord.TriggerManualSync)
}

func (s *Server) handleConfigSync(c echo.Context) error {
	return s.handleTrigger(c, s.coord.TriggerConfigSync)
}

func (s *Server) handleAgentSync(c echo.Context) error {
	return s.handleTrigger(c, s.coord.TriggerAgentSync)
}

func (s *Server) handleTrigger(c echo.Context, trigger func(int) (string, error)) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	id, err := trigger(req.Priority)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) handleQueueStatus(c echo.Context) error {
	status, err := s.sched.GetQueueStatus()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	failures, err := s.sched.RecentFailures(10)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"queue":           status,
		"recent_failures": failures,
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	job, err := s.sched.GetJobStatus(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleCancelJob(c echo.Context) error {
	cancelled, err := s.sched.CancelJob(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	if !cancelled {
		return c.JSON(http.StatusConflict, map[string]string{"error": "job not cancellable"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

type cleanupRequest struct {
	KeepCompleted int `json:"keep_completed"`
	KeepFailed    int `json:"keep_failed"`
}

func (s *Server) handleCleanup(c echo.Context) error {
	var req cleanupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	removed, err := s.sched.CleanupOldJobs(req.KeepCompleted, req.KeepFailed)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

type watchRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleAddWatch(c echo.Context) error {
	var req watchRequest
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path required"})
	}

	if err := s.coord.AddWatchPath(req.Path); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]string{"status": "watching", "path": req.Path})
}

func (s *Server) handleRemoveWatch(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "path required"})
	}

	if err := s.coord.RemoveWatchPath(path); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "removed", "path": path})
}
