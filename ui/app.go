package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"godna/app"
	"godna/domain/core"
	"godna/internal"
)

// App is the ops surface: health, metrics and admin maintenance
// endpoints, served separately from the analyst API.
type App struct {
	router   *chi.Mux
	profiles *app.ProfileService
	logger   *internal.Logger
	server   *http.Server
}

// NewApp creates the ops application.
func NewApp(profiles *app.ProfileService, logger *internal.Logger) *App {
	a := &App{
		router:   chi.NewRouter(),
		profiles: profiles,
		logger:   logger.Named("ops"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)
	a.router.Handle("/metrics", promhttp.Handler())
	a.router.Post("/admin/profiles/rebuild", a.handleRebuildProfiles)
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler { return a.router }

// Start serves until the context is cancelled, then drains in-flight
// requests.
func (a *App) Start(ctx context.Context, addr string) error {
	a.server = &http.Server{Addr: addr, Handler: a.router}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting ops server on http://%s", addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("Shutting down ops server")
	return a.server.Shutdown(shutdownCtx)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleRebuildProfiles recomputes every profile from the transaction
// store.
func (a *App) handleRebuildProfiles(w http.ResponseWriter, r *http.Request) {
	count, err := a.profiles.Rebuild(r.Context())
	if err != nil {
		a.logger.Error("Profile rebuild failed: %v", err)
		status := http.StatusInternalServerError
		if core.IsNotFoundError(err) {
			status = http.StatusNotFound
		}
		http.Error(w, "Profile rebuild failed", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"profiles":%d}`, count)
}