package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/obs-catalog-service/internal/adapter/fs"
	httpadapter "github.com/couchcryptid/obs-catalog-service/internal/adapter/http"
	"github.com/couchcryptid/obs-catalog-service/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog service: scheduled ingestion, directory watch and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	env, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer env.close()
	logger := env.logger

	var (
		sched   *scheduler.Scheduler
		srvOpts []httpadapter.Option
	)
	if env.cfg.IngestSchedule != "" {
		sched, err = scheduler.New(env.cfg.IngestSchedule, env.registry, logger, env.metrics)
		if err != nil {
			return err
		}
		for _, provider := range env.registry.Providers() {
			if err := sched.AddProvider(provider); err != nil {
				return err
			}
		}
		srvOpts = append(srvOpts, httpadapter.WithJobs(sched))
	}

	srv := httpadapter.NewServer(env.cfg.HTTPAddr, env.registry, logger, srvOpts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Catch up on files that arrived while the service was down.
	env.registry.TriggerAll(ctx)

	if sched != nil {
		sched.Start()
	}

	var wg sync.WaitGroup
	if env.cfg.WatchEnabled {
		for _, provider := range env.registry.Providers() {
			c, _ := env.registry.Get(provider)
			cc := c.Config()
			w := fs.NewWatcher(cc.BaseDirs, cc.FilePatterns(),
				func(ctx context.Context) { env.registry.Trigger(ctx, provider) },
				fs.WithWatcherLogger(logger.With("provider", provider)),
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Run(ctx); err != nil {
					logger.Error("watcher error", "provider", provider, "error", err)
				}
			}()
		}
		logger.Info("directory watch enabled", "providers", len(env.registry.Providers()))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			logger.Error("scheduler shutdown error", "error", err)
		}
	}
	wg.Wait()

	logger.Info("shutdown complete")
	return nil
}
