// Package server exposes the task list as a local web app: rendered
// fragments, mutation endpoints, blob URLs, and a live event socket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwolter/daylist/internal/app"
	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/events"
	"github.com/mwolter/daylist/internal/server/ws"
	"github.com/mwolter/daylist/internal/view"
)

// Server is the daylist web server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	ctrl       *app.Controller
	renderer   *view.Renderer
	urls       *view.URLIssuer
	blobs      blob.Store
}

// NewServer creates a new web server over the controller and renderer.
func NewServer(ctrl *app.Controller, renderer *view.Renderer, urls *view.URLIssuer, blobs blob.Store, bus *events.Bus, host string, port int) *Server {
	hub := ws.NewHub(bus)

	s := &Server{
		hub:      hub,
		bus:      bus,
		ctrl:     ctrl,
		renderer: renderer,
		urls:     urls,
		blobs:    blobs,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/", s.handleIndex)
	r.Get("/fragment", s.handleFragment)
	r.Post("/tasks", s.handleAddTask)
	r.Post("/tasks/{id}/toggle", s.handleToggle)
	r.Post("/tasks/{id}/delete", s.handleDelete)
	r.Post("/tasks/{id}/edit", s.handleEdit)
	r.Get("/tasks/{id}/open", s.handleOpen)
	r.Get("/blobs/{token}", s.handleBlob)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/ws", hub.ServeWS)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("daylist listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
