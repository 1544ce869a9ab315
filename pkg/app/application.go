package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"mybad/internal/courts/handler"
	"mybad/pkg/config"
	"mybad/pkg/contracts"
	"mybad/pkg/middleware"
)

type closer struct {
	name string
	fn   func() error
}

type Application struct {
	cfg           *config.Config
	server        *http.Server
	rateLimiter   *middleware.ClientRateLimiter
	healthHandler http.Handler
	apiHandler    http.Handler
	closers       []closer
}

func NewApplication() *Application {
	return &Application{}
}

// SetApp assembles the routers, middleware stacks and HTTP server from the
// given route providers. Call before Run.
func (a *Application) SetApp(cfg *config.Config, handlers ...contracts.Handler) {
	a.cfg = cfg
	a.setHealthHandler()
	a.setAPIHandler(handlers)
	a.setServer()
}

// AddCloser registers a resource to close during graceful shutdown, in
// registration order.
func (a *Application) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := handler.NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAPIHandler(handlers []contracts.Handler) {
	apiRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(apiRouter)
	}

	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.RemoteAddrExtractor,
		a.cfg.Log,
	)

	// Middleware order: Recovery → Logging → MaxSize → ContentType → RateLimit → Timeout → Router
	var apiHTTPHandler http.Handler = apiRouter
	apiHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(apiHTTPHandler)
	apiHTTPHandler = middleware.ClientRateLimit(a.rateLimiter)(apiHTTPHandler)
	apiHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(apiHTTPHandler)
	apiHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(apiHTTPHandler)
	apiHTTPHandler = middleware.RequestLogging(a.cfg.Log)(apiHTTPHandler)
	apiHTTPHandler = middleware.Recovery(a.cfg.Log)(apiHTTPHandler)
	a.apiHandler = apiHTTPHandler
	a.cfg.Log.Info("API endpoints configured with full middleware stack")
}

func (a *Application) setServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.apiHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
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

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.rateLimiter.Stop()
	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.cfg.Log.Error("Failed to close resource", "resource", c.name, "error", err)
		}
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
