package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DCOMRoot   string
	CatalogDir string
	Providers  []ProviderConfig

	StoreBackend string
	DatabaseURL  string

	IngestSchedule string
	WatchEnabled   bool

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	watchEnabled, err := parseBool("WATCH_ENABLED", false)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DCOMRoot:        sharedcfg.EnvOrDefault("DCOM_ROOT", "/lfs/h1/ops/prod/dcom"),
		CatalogDir:      sharedcfg.EnvOrDefault("CATALOG_DIR", "./data"),
		StoreBackend:    strings.ToLower(sharedcfg.EnvOrDefault("STORE_BACKEND", BackendSQLite)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		IngestSchedule:  sharedcfg.EnvOrDefault("INGEST_SCHEDULE", "*/10 * * * *"),
		WatchEnabled:    watchEnabled,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "cataloged-observation-files"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	cfg.Providers, err = loadProviders(os.Getenv("PROVIDERS_FILE"), os.Getenv("PROVIDERS"))
	if err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (want sqlite or postgres)", cfg.StoreBackend)
	}

	if err := ValidateSchedule(cfg.IngestSchedule); err != nil {
		return nil, fmt.Errorf("invalid INGEST_SCHEDULE: %w", err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED=true")
		}
	}

	return cfg, nil
}

// ValidateSchedule checks a 5- or 6-field cron expression. An empty
// expression disables scheduled ingestion.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	return gocron.NewDefaultCron(true).IsValid(expr, time.UTC, time.Now())
}

// CatalogConfigs resolves every configured provider against the dcom root.
// For the sqlite backend the store location is <CatalogDir>/<provider>.db
// unless the provider file overrides it.
func (c *Config) CatalogConfigs() ([]domain.CatalogConfig, error) {
	out := make([]domain.CatalogConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		location := p.Store
		if location == "" && c.StoreBackend == BackendSQLite {
			location = filepath.Join(c.CatalogDir, p.Name+".db")
		}
		cc, err := domain.NewCatalogConfig(p.Name, c.DCOMRoot, p.ObsDirs, location)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}
