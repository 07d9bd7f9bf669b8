package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from
// environment variables.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	// StorageMode selects "mongo" or "memory" repositories.
	StorageMode string
	MongoURI    string
	MongoDB     string

	// FeedFetchTimeout bounds a single external feed download.
	FeedFetchTimeout time.Duration
	// SyncCron enables the periodic re-sync runner when non-empty.
	SyncCron string

	// ExportMode selects "s3" or "local" feed publishing.
	ExportMode       string
	ExportDir        string
	ExportBaseURL    string
	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3Prefix         string
	S3UseSSL         bool

	KafkaBrokers     []string
	KafkaTopicPrefix string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StorageMode:      strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "staycal"),
		SyncCron:         getEnv("SYNC_CRON", ""),
		ExportMode:       strings.ToLower(getEnv("EXPORT_MODE", "local")),
		ExportDir:        getEnv("EXPORT_DIR", "exports"),
		ExportBaseURL:    getEnv("EXPORT_BASE_URL", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "staycal-exports"),
		S3Prefix:         getEnv("S3_PREFIX", "calendars"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
	}

	fetchTimeout, err := parseDurationEnv("FEED_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedFetchTimeout = fetchTimeout

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	switch cfg.StorageMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	switch cfg.ExportMode {
	case "local", "s3":
	default:
		return Config{}, fmt.Errorf("invalid EXPORT_MODE %q", cfg.ExportMode)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
