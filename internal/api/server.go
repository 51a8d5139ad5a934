// Package api exposes the bot's small HTTP surface: a health check and a
// one-shot scan trigger.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/privlink/internal/scan"
)

// Server represents the API server
type Server struct {
	echo       *echo.Echo
	port       int
	controller *scan.Controller
}

// NewServer creates a new API server
func NewServer(port int, controller *scan.Controller) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		echo:       e,
		port:       port,
		controller: controller,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// One-shot scan trigger. A cycle already in flight is reported, not
	// queued.
	s.echo.POST("/trigger", s.trigger)
}

func (s *Server) trigger(c echo.Context) error {
	result, err := s.controller.RunCycle(c.Request().Context())
	if errors.Is(err, scan.ErrCycleInFlight) {
		return c.JSON(http.StatusConflict, map[string]string{
			"status": "skipped",
			"reason": "cycle already in flight",
		})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"status": "failed",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"candidates": result.Candidates,
		"replied":    result.Replied,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	})
}

// Start begins the API server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully. onShutdown runs before the listener closes so the
// scheduler can be stopped first.
func (s *Server) Start(onShutdown func()) error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if onShutdown != nil {
		onShutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
