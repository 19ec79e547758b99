// Package api exposes the triage engine over HTTP: diagnosis turns, lab
// interpretation, history lookups, and doctor annotations.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/symptom-triage-server/internal/domain"
	"github.com/symptom-triage-server/internal/history"
	"github.com/symptom-triage-server/internal/middleware"
	"github.com/symptom-triage-server/internal/repository"
	"github.com/symptom-triage-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	triage        *service.TriageService
	labRules      domain.LabInterpreter
	store         history.Store
	annotations   *repository.AnnotationRepository
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance. annotations may be nil in
// standalone mode; the annotation routes then return 503.
func NewServer(
	configManager domain.ConfigManager,
	logger *logrus.Logger,
	triage *service.TriageService,
	labRules domain.LabInterpreter,
	store history.Store,
	annotations *repository.AnnotationRepository,
) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.RequestTimeout(cfg.Server.WriteTimeout))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		triage:        triage,
		labRules:      labRules,
		store:         store,
		annotations:   annotations,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/diagnose", s.handleDiagnose)
		v1.POST("/lab/interpret", s.handleLabInterpret)
		v1.GET("/history/:patient_id", s.handleHistory)
		v1.POST("/annotations", s.handleCreateAnnotation)
		v1.GET("/annotations/:patient_id", s.handleListAnnotations)
	}
}

// errorResponse writes a standardized error envelope.
func (s *Server) errorResponse(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{
		"error": domain.NewTriageError(code, message, details, c.GetString("correlation_id")),
	})
}
