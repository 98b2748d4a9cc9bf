// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowchain/approval-engine/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the HTTP layer exposes.
type Services struct {
	Versions    service.VersionManager
	Transitions service.TransitionEngine
	Resolver    service.GraphResolver
	Progress    service.ProgressService
	Roles       service.RoleService
	Batch       service.BatchService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		workflows := api.Group("/workflows")
		{
			workflows.POST("", handlers.CreateWorkflow)
			workflows.GET("", handlers.ListWorkflows)
			workflows.GET("/:id", handlers.GetWorkflow)
			workflows.DELETE("/:id", handlers.DeleteWorkflow)

			workflows.GET("/:id/versions", handlers.ListVersions)
			workflows.POST("/:id/versions", handlers.CreateVersion)
			workflows.POST("/:id/activate", handlers.ActivateWorkflow)
			workflows.POST("/:id/draft", handlers.SetWorkflowDraft)
			workflows.POST("/:id/archive", handlers.ArchiveWorkflow)
			workflows.POST("/:id/unarchive", handlers.UnarchiveWorkflow)
			workflows.POST("/:id/restore", handlers.RestoreVersion)

			workflows.GET("/:id/available-targets", handlers.ListAvailableTargets)
			workflows.GET("/:id/chain", handlers.GetChain)
		}

		transitions := api.Group("/transitions")
		{
			transitions.POST("", handlers.CreateTransition)
			transitions.PUT("/:id", handlers.UpdateTransition)
			transitions.DELETE("/:id", handlers.DeleteTransition)
		}

		requests := api.Group("/requests")
		{
			requests.GET("/:id", handlers.GetRequest)
			requests.GET("/:id/progress", handlers.GetProgress)
			requests.POST("/:id/outcome", handlers.EvaluateOutcome)
		}

		roles := api.Group("/roles")
		{
			roles.POST("", handlers.CreateRole)
			roles.GET("", handlers.ListRoles)
			roles.GET("/:id", handlers.GetRole)
			roles.DELETE("/:id", handlers.DeleteRole)
		}

		api.POST("/batch", handlers.ApplyBatch)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
