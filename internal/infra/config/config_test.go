package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StorageMode)
	assert.Equal(t, "local", cfg.ExportMode)
	assert.Equal(t, 15*time.Second, cfg.FeedFetchTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.SyncCron)
}

func TestLoadMongoRequiresURI(t *testing.T) {
	t.Setenv("STORAGE_MODE", "mongo")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.StorageMode)
	assert.Equal(t, "staycal", cfg.MongoDB)
}

func TestLoadRejectsUnknownModes(t *testing.T) {
	t.Setenv("STORAGE_MODE", "postgres")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownExportMode(t *testing.T) {
	t.Setenv("EXPORT_MODE", "ftp")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadParsesBrokersAndTimeout(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FEED_FETCH_TIMEOUT", "30s")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.FeedFetchTimeout)
	assert.True(t, cfg.S3UseSSL)
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("FEED_FETCH_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestPublicEndpointFallsBackToEndpoint(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000", cfg.S3PublicEndpoint)
}
