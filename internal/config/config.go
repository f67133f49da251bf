package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/climogram-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Dataset catalog configuration.
	CatalogURL        string
	CatalogToken      string
	CatalogTimeout    time.Duration
	CatalogMaxRetries int
	CatalogCacheSize  int

	JoinPolicy     domain.JoinPolicy
	ResultCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	catalogTimeout, err := parsePositiveDuration("CATALOG_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	resultCacheTTL, err := parsePositiveDuration("RESULT_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parseNonNegativeInt("CATALOG_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	joinPolicy, err := domain.ParseJoinPolicy(sharedcfg.EnvOrDefault("JOIN_POLICY", string(domain.JoinDrop)))
	if err != nil {
		return nil, fmt.Errorf("invalid JOIN_POLICY: %w", err)
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "climogram-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "climograms"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "climogram-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		CatalogURL:        sharedcfg.EnvOrDefault("CATALOG_URL", "http://localhost:8090"),
		CatalogToken:      os.Getenv("CATALOG_TOKEN"),
		CatalogTimeout:    catalogTimeout,
		CatalogMaxRetries: maxRetries,
		CatalogCacheSize:  parseCatalogCacheSize(),

		JoinPolicy:     joinPolicy,
		ResultCacheTTL: resultCacheTTL,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.CatalogURL == "" {
		return nil, errors.New("CATALOG_URL is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseCatalogCacheSize() int {
	if s := os.Getenv("CATALOG_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 512
}
