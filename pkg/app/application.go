package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"slotboard/pkg/config"
	"slotboard/pkg/contracts"
	"slotboard/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Application assembles the HTTP server from three handler surfaces: health
// probes behind minimal middleware, public endpoints behind the shared
// protection stack, and the authenticated API behind token verification.
type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	onShutdown       []func()
}

func NewApplication() *Application {
	return &Application{}
}

// Routes groups handlers by the middleware surface they are served behind.
type Routes struct {
	Health    contracts.Handler
	Public    []contracts.Handler
	Protected []contracts.Handler
}

func (a *Application) SetApp(cfg *config.Config, routes Routes, verifier middleware.TokenVerifier) {
	a.cfg = cfg

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewClientRateLimiter(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		cfg.Log,
	)

	health := a.healthHandler(routes.Health)
	public := a.publicHandler(routes.Public)
	protected := a.protectedHandler(routes.Protected, verifier)

	mux := http.NewServeMux()
	mux.Handle("/health", health)
	mux.Handle("/ready", health)
	// Subtree match: registration, login and the timezone catalog stay
	// reachable without a token.
	mux.Handle("/api/v1/auth/", public)
	mux.Handle("/api/v1/timezones", public)
	mux.Handle("/", protected)

	a.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	cfg.Log.Info("HTTP server configured", "port", cfg.Port)
}

// OnShutdown registers a hook run during graceful shutdown, after the
// middleware workers are stopped.
func (a *Application) OnShutdown(hook func()) {
	a.onShutdown = append(a.onShutdown, hook)
}

// Handler exposes the assembled handler so tests can serve the full
// middleware stack in process.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) healthHandler(h contracts.Handler) http.Handler {
	router := httprouter.New()
	h.RegisterRoutes(router)

	var handler http.Handler = router
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
	return handler
}

func (a *Application) publicHandler(handlers []contracts.Handler) http.Handler {
	router := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}
	a.cfg.Log.Info("Public endpoints configured", "handlers", len(handlers))
	return a.protectionStack(router)
}

// protectedHandler adds token verification and idempotency replay on top of
// the shared stack. Authentication runs before idempotency so a cached
// response is never served to an unauthenticated caller.
func (a *Application) protectedHandler(handlers []contracts.Handler, verifier middleware.TokenVerifier) http.Handler {
	router := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	var handler http.Handler = router
	handler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(handler)
	handler = middleware.Authentication(verifier, a.cfg.Log)(handler)
	a.cfg.Log.Info("Protected endpoints configured with full middleware stack", "handlers", len(handlers))
	return a.protectionStack(handler)
}

// protectionStack wraps a handler with the middleware shared by every
// non-health surface, outermost last.
func (a *Application) protectionStack(h http.Handler) http.Handler {
	handler := h
	handler = middleware.RequestTimeout(a.cfg.RequestTimeout)(handler)
	handler = middleware.RateLimit(a.rateLimiter)(handler)
	handler = middleware.ContentTypeValidation(a.cfg.Log)(handler)
	handler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(handler)
	handler = middleware.RequestLogging(a.cfg.Log)(handler)
	handler = middleware.Recovery(a.cfg.Log)(handler)
	return handler
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, hook := range a.onShutdown {
		hook()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
