// Command obscatalog catalogs satellite observation files from a dcom tree
// and answers windowed queries for assimilation cycles.
//
// Configuration comes from environment variables (see internal/config);
// flags only select what to run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/obs-catalog-service/internal/adapter/kafka"
	"github.com/couchcryptid/obs-catalog-service/internal/adapter/store"
	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/config"
	"github.com/couchcryptid/obs-catalog-service/internal/observability"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "obscatalog",
		Short:         "Observation file catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newQueryCmd(),
		newProvidersCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("obscatalog failed", "error", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// environment is the state shared by every subcommand.
type environment struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	registry *catalog.Registry
	notifier *kafkaadapter.Notifier
}

// setup loads configuration and opens one catalog per configured provider.
// The Kafka notifier is attached only when notify is set and KAFKA_ENABLED.
func setup(ctx context.Context, notify bool) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env := &environment{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
	}

	ccs, stores, err := store.OpenAll(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	opts := []catalog.Option{
		catalog.WithLogger(env.logger),
		catalog.WithMetrics(env.metrics),
		catalog.WithClock(clock),
	}
	if notify && cfg.KafkaEnabled {
		env.notifier = kafkaadapter.NewNotifier(cfg, env.logger, clock)
		opts = append(opts, catalog.WithNotifier(env.notifier))
		env.logger.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	catalogs := make([]*catalog.Catalog, 0, len(ccs))
	for i, cc := range ccs {
		c, err := catalog.New(ctx, cc, stores[i], opts...)
		if err != nil {
			for _, s := range stores {
				_ = s.Close()
			}
			return nil, err
		}
		catalogs = append(catalogs, c)
	}

	env.registry, err = catalog.NewRegistry(env.logger, catalogs...)
	if err != nil {
		return nil, err
	}
	return env, nil
}

func (e *environment) close() {
	if err := e.registry.Close(); err != nil {
		e.logger.Error("close catalogs", "error", err)
	}
	if e.notifier != nil {
		if err := e.notifier.Close(); err != nil {
			e.logger.Error("kafka notifier close error", "error", err)
		}
	}
}
