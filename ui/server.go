package ui

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"godna/adapters/excel"
	"godna/app"
	"godna/domain/core"
	"godna/domain/event"
	"godna/domain/forecast"
	"godna/internal"
	"godna/internal/config"
	"godna/internal/metrics"
	"godna/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server is the analyst-facing JSON API over the forecasting services.
// One working strategy lives per process: the event log being edited
// plus the last computed projection, guarded by a mutex.
type Server struct {
	router    *gin.Engine
	forecasts *app.ForecastService
	lab       *app.LabService
	goals     *app.GoalService
	reports   *excel.ReportWriter
	logger    *internal.Logger
	metrics   *metrics.Metrics
	docsHTML  []byte

	mu         sync.Mutex
	workingLog event.Log
	lastResult *app.ForecastResult
	lastLog    event.Log
}

// NewServer wires the analyst API over the application services.
func NewServer(cfg *config.Config, forecasts *app.ForecastService, lab *app.LabService, goals *app.GoalService, logger *internal.Logger, m *metrics.Metrics) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:    gin.Default(),
		forecasts: forecasts,
		lab:       lab,
		goals:     goals,
		reports:   excel.NewReportWriter(),
		logger:    logger.Named("ui"),
		metrics:   m,
		docsHTML:  renderMethodology(),
	}
	s.router.Use(s.countRequests())
	s.setupRoutes(cfg.Auth)
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes(auth config.AuthConfig) {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/docs", s.handleDocs)

	api := s.router.Group("/api", gin.BasicAuth(gin.Accounts{auth.Username: auth.Password}))

	api.POST("/projection", s.handleProjection)
	api.POST("/weights", s.handleWeights)

	api.GET("/events", s.handleListEvents)
	api.POST("/events", s.handleAppendEvent)
	api.DELETE("/events/:index", s.handleRemoveEvent)
	api.POST("/events/:index/shift", s.handleShiftEvent)

	api.POST("/signatures/extract", s.handleExtractSignature)
	api.GET("/signatures", s.handleListSignatures)
	api.POST("/signatures/:name/reapply", s.handleReapplySignature)

	api.POST("/audit", s.handleAudit)
	api.POST("/goal", s.handleGoal)
	api.GET("/export", s.handleExport)

	api.GET("/settings/defaults", s.handleGetDefaults)
	api.PUT("/settings/defaults", s.handleSetDefaults)
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting analyst API on http://%s", addr)
	return s.router.Run(addr)
}

// countRequests tracks request totals per route and status.
func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestsByRoute.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleDocs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.docsHTML)
}

// handleProjection runs the full pipeline and caches the result for the
// export endpoint.
func (s *Server) handleProjection(c *gin.Context) {
	var req models.ProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	fr, err := s.forecastRequest(req)
	if err != nil {
		s.renderError(c, err)
		return
	}

	result, err := s.forecasts.ComputeProjection(c.Request.Context(), fr)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.mu.Lock()
	s.lastResult = result
	s.lastLog = fr.Log
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"year":       result.Year,
		"entities":   result.Entities,
		"constants":  result.Constants,
		"weights":    models.NewWeightRows(result.Weights),
		"rows":       models.NewProjectionRows(result.Projection),
		"aggregates": result.Aggregates,
		"layers":     result.Layers,
		"events":     models.NewEventRows(fr.Log),
		"runtime_ms": result.RuntimeMs,
	})
}

// handleWeights scores the historical years without projecting.
func (s *Server) handleWeights(c *gin.Context) {
	var req models.ProjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	fr, err := s.forecastRequest(req)
	if err != nil {
		s.renderError(c, err)
		return
	}

	weights, err := s.forecasts.Weights(c.Request.Context(), fr)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"weights": models.NewWeightRows(weights)})
}

func (s *Server) handleListEvents(c *gin.Context) {
	s.mu.Lock()
	rows := models.NewEventRows(s.workingLog)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// handleAppendEvent adds one event to the working log.
func (s *Server) handleAppendEvent(c *gin.Context) {
	var payload models.EventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ev, err := payload.ToEvent()
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.mu.Lock()
	s.workingLog = s.workingLog.Append(ev)
	rows := models.NewEventRows(s.workingLog)
	s.mu.Unlock()

	s.logger.Info("Event appended: %s", ev.Label())
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

func (s *Server) handleRemoveEvent(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event index"})
		return
	}

	s.mu.Lock()
	log, err := s.workingLog.RemoveAt(idx)
	if err == nil {
		s.workingLog = log
	}
	rows := models.NewEventRows(s.workingLog)
	s.mu.Unlock()

	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// handleShiftEvent moves a campaign event to a new start date.
func (s *Server) handleShiftEvent(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event index"})
		return
	}
	var req models.ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	newStart, err := shiftedStart(s.workingLog, idx, req)
	if err == nil {
		var log event.Log
		log, err = s.workingLog.ShiftStart(idx, newStart)
		if err == nil {
			s.workingLog = log
		}
	}
	rows := models.NewEventRows(s.workingLog)
	s.mu.Unlock()

	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// shiftedStart resolves the target start date: an explicit date wins,
// otherwise the event's current start moved by the signed day count.
func shiftedStart(log event.Log, idx int, req models.ShiftRequest) (core.Day, error) {
	if req.Start != "" {
		day, err := core.ParseDay(req.Start)
		if err != nil {
			return core.Day{}, core.NewValidationError("start", err.Error())
		}
		return day, nil
	}
	if idx < 0 || idx >= len(log) {
		return core.Day{}, core.ErrEventNotFound
	}
	switch ev := log[idx].(type) {
	case event.Shock:
		return ev.Window.Start.AddDays(req.Days), nil
	case event.ReappliedShock:
		return ev.Start.AddDays(req.Days), nil
	default:
		return core.Day{}, core.ErrInvalidEvent
	}
}

func (s *Server) handleExtractSignature(c *gin.Context) {
	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	window, err := req.ToWindow()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sig, err := s.lab.ExtractSignature(c.Request.Context(), req.Name, req.Entities, window)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": models.NewSignaturePayload(*sig)})
}

func (s *Server) handleListSignatures(c *gin.Context) {
	sigs, err := s.lab.Signatures(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signatures": models.NewSignaturePayloads(sigs)})
}

// handleReapplySignature turns a stored signature into a working-log
// event starting at the requested date.
func (s *Server) handleReapplySignature(c *gin.Context) {
	var req models.ReapplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	mode, err := event.ParseInjectionMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := core.ParseDay(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := s.lab.ReapplySignature(c.Request.Context(), c.Param("name"), mode, start)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.mu.Lock()
	s.workingLog = s.workingLog.Append(ev)
	rows := models.NewEventRows(s.workingLog)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"applied": ev.Label(), "events": rows})
}

// handleAudit attributes the goal gap across the scenario's events.
func (s *Server) handleAudit(c *gin.Context) {
	var req models.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	target, err := req.ToTarget()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	goal, err := forecast.ParseGoalMetric(req.Goal)
	if err != nil {
		s.renderError(c, err)
		return
	}

	fr, err := s.forecastRequest(req.ProjectionRequest)
	if err != nil {
		s.renderError(c, err)
		return
	}
	scn, err := s.forecasts.Scenario(c.Request.Context(), fr)
	if err != nil {
		s.renderError(c, err)
		return
	}

	result, err := s.lab.Audit(c.Request.Context(), scn, target, goal, req.GoalValue)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewAuditResponse(result))
}

// handleGoal projects the scenario and translates the target into
// needed volumes.
func (s *Server) handleGoal(c *gin.Context) {
	var req models.GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	spec, err := req.ToSpec()
	if err != nil {
		s.renderError(c, err)
		return
	}

	fr, err := s.forecastRequest(req.ProjectionRequest)
	if err != nil {
		s.renderError(c, err)
		return
	}
	result, err := s.forecasts.ComputeProjection(c.Request.Context(), fr)
	if err != nil {
		s.renderError(c, err)
		return
	}

	plan, err := s.goals.Translate(c.Request.Context(), result.Projection, spec)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewGoalResponse(plan))
}

// handleExport streams the last computed projection as a workbook.
func (s *Server) handleExport(c *gin.Context) {
	s.mu.Lock()
	result := s.lastResult
	log := s.lastLog
	s.mu.Unlock()

	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No projection computed yet"})
		return
	}

	data, err := s.reports.Build(excel.StrategyReport{
		Projection: result.Projection,
		Weights:    result.Weights,
		Events:     log,
	})
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="strategy_report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleGetDefaults(c *gin.Context) {
	defaults, err := s.forecasts.CampaignDefaults(c.Request.Context(), c.Query("entity"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defaults": defaults})
}

func (s *Server) handleSetDefaults(c *gin.Context) {
	var payload models.CampaignDefaultPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	shape, err := event.ParseShape(payload.Shape)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.forecasts.SetCampaignDefault(c.Request.Context(), payload.Entity, shape, payload.LiftPct); err != nil {
		s.renderError(c, err)
		return
	}

	defaults, err := s.forecasts.CampaignDefaults(c.Request.Context(), payload.Entity)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defaults": defaults})
}

// forecastRequest assembles the service request from a payload. Payload
// events win; otherwise the working log rides along.
func (s *Server) forecastRequest(req models.ProjectionRequest) (app.ForecastRequest, error) {
	trial, err := req.Trial.ToObservation()
	if err != nil {
		return app.ForecastRequest{}, core.NewValidationError("trial", err.Error())
	}
	g, err := req.ToGranularity()
	if err != nil {
		return app.ForecastRequest{}, err
	}
	log, err := req.ToLog()
	if err != nil {
		return app.ForecastRequest{}, err
	}
	if log == nil {
		s.mu.Lock()
		log = s.workingLog
		s.mu.Unlock()
	}
	return app.ForecastRequest{Entities: req.Entities, Trial: trial, Log: log, Granularity: g}, nil
}

// renderError maps domain errors onto HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case core.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case core.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case core.IsRecoverable(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}