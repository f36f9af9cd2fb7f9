package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/transport/middleware"
	"github.com/heartmarshall/vocab-harvester/internal/transport/rest"
)

// Handler returns the REST API with the middleware stack applied.
// stop releases the rate limiter and must be called once the handler is
// no longer served.
func (a *App) Handler() (h http.Handler, stop func()) {
	pending := rest.NewPendingHandler(a.Harvest, a.Promotion, a.Log)
	vocab := rest.NewVocabularyHandler(a.Vocabulary, a.Log)
	health := rest.NewHealthHandler(a.store, a.translation, BuildVersion())
	mux := rest.NewRouter(pending, vocab, health)

	limiter := middleware.NewRateLimiter(time.Minute)
	limited := http.NewServeMux()
	limited.Handle("POST /api/process", limiter.Limit(a.Config.Server.ProcessPerMinute)(mux))
	limited.Handle("/", mux)

	chain := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(a.Log),
		middleware.Logger(a.Log),
		middleware.CORS(a.Config.Server.AllowedOrigins),
	)
	return chain(limited), limiter.Stop
}

// Serve runs the HTTP server until ctx is done, then shuts it down within
// the configured timeout.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config.Server
	handler, stop := a.Handler()
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
