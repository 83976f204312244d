package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/edconsult-leads/internal/infra/http/handlers"
	"github.com/xavierca1/edconsult-leads/internal/infra/http/middleware"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead capture API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := zap.L()
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}

		limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst)
		go limiter.RunCleanup(time.Minute, ctx.Done())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(a, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server",
				zap.Int("port", port),
				zap.String("store", cfg.Store.Driver),
				zap.String("conversion_mode", cfg.Conversion.Mode),
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- eris.Wrap(err, "server listen")
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				a.Close(context.Background())
				return err
			}
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		a.Close(shutdownCtx)
		return nil
	},
}

func newRouter(a *app, limiter *middleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if a.cfg.Server.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", handlers.NewHealthHandler(a.cfg.App.Version, a.healthChecks()).Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.With(limiter.Middleware).Post("/api/leads", handlers.NewLeadHandler(a.captureLead).CaptureLead)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(a.cfg.Admin.Username, a.cfg.Admin.PasswordHash))
		r.Patch("/leads/{id}/status", handlers.NewLeadStatusHandler(a.updateStatus).UpdateStatus)
	})
	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
