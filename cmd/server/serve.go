package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"safedesk/internal/platform/config"
	"safedesk/internal/platform/httpserver"
	"safedesk/internal/platform/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the evidence and audit workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UsesDevSigningKey() {
		log.WarnContext(ctx, "JWT_SIGNING_KEY not set, using the development signing key")
	}
	if cfg.Server.AdminToken == "" {
		log.InfoContext(ctx, "ADMIN_API_TOKEN not set, /metrics is disabled")
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Server.Addr, a.handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "safedesk listening", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.pipeline.Run(gctx)
	})
	g.Go(func() error {
		return a.auditWorker.Run(gctx)
	})
	if a.buckets != nil {
		g.Go(func() error {
			sweepBuckets(gctx, a, log)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// sweepBuckets drops idle rate limit windows so memory stays bounded.
func sweepBuckets(ctx context.Context, a *app, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := a.buckets.Sweep(now); n > 0 {
				log.DebugContext(ctx, "swept idle rate limit windows", "count", n)
			}
		}
	}
}
