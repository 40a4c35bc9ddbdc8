// Package api exposes the workflow engine over HTTP for a browser UI.
//
// Every endpoint answers with the models.APIResponse envelope. Guard
// rejections map to 409 Conflict and leave state unchanged.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/BTreeMap/ThoughtWeaver/internal/catalog"
	"github.com/BTreeMap/ThoughtWeaver/internal/flow"
	"github.com/BTreeMap/ThoughtWeaver/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Server timeouts.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server serves the engine's HTTP API.
type Server struct {
	orch      *flow.Orchestrator
	catalog   *catalog.Catalog
	templates store.TemplateStore
	echo      *echo.Echo
	addr      string
}

// NewServer wires the routes. A nil catalog uses catalog.Default.
func NewServer(orch *flow.Orchestrator, templates store.TemplateStore, cat *catalog.Catalog, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cat == nil {
		cat = catalog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("Server: request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s := &Server{orch: orch, catalog: cat, templates: templates, echo: e, addr: cfg.Addr}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)

	v1 := s.echo.Group("/api/v1")

	v1.GET("/roles", s.listRoles)
	v1.GET("/roles/:id", s.getRole)
	v1.GET("/assistants", s.listAssistants)
	v1.GET("/assistants/:id", s.getAssistant)
	v1.GET("/models", s.listModels)

	v1.GET("/selection", s.getSelection)
	v1.PUT("/selection/workflow", s.setSelectedWorkflow)
	v1.PUT("/selection/assistants", s.setSelectedAssistants)
	v1.POST("/selection/assistants/:id/toggle", s.toggleSelectedAssistant)
	v1.PUT("/selection/model", s.setSelectedModel)
	v1.POST("/selection/reset", s.resetSelection)

	v1.GET("/conversations", s.listConversations)
	v1.POST("/conversations", s.createConversation)
	v1.GET("/conversations/:id", s.getConversation)
	v1.PATCH("/conversations/:id", s.renameConversation)
	v1.DELETE("/conversations/:id", s.deleteConversation)
	v1.POST("/conversations/:id/open", s.openConversation)

	v1.GET("/session", s.getSnapshot)
	v1.DELETE("/session", s.closeSession)
	v1.POST("/session/messages", s.sendMessage)
	v1.POST("/session/suggestion/accept", s.acceptSuggestion)
	v1.POST("/session/suggestion/decline", s.declineSuggestion)
	v1.POST("/session/workflow", s.saveWorkflow)
	v1.PUT("/session/assistant", s.setActiveAssistant)
	v1.PUT("/session/model", s.setModel)
	v1.GET("/session/timers", s.listTimers)

	v1.GET("/templates", s.listTemplates)
	v1.GET("/templates/:id", s.getTemplate)

	v1.GET("/projects", s.listProjects)
	v1.POST("/projects", s.createProject)
	v1.GET("/projects/:id", s.getProject)
	v1.DELETE("/projects/:id", s.deleteProject)
	v1.POST("/projects/:id/conversations", s.assignConversation)
	v1.POST("/projects/:id/conversations/new", s.createConversationInProject)
	v1.DELETE("/projects/:id/conversations/:conversationID", s.unassignConversation)

	v1.GET("/navigation", s.getNavigation)
	v1.POST("/navigation", s.navigate)
	v1.POST("/navigation/back", s.navigateBack)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.echo,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server.Run: server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server.Run: shutdown error", "error", err)
			return server.Close()
		}
		slog.Info("Server.Run: stopped gracefully")
		return nil
	}
}
