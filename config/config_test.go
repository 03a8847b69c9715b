package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMemoryEnv(t *testing.T) {
	t.Setenv("DATASTORE", DatastoreMemory)
	t.Setenv("JWT_SECRET_KEY", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setMemoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DatastoreMemory, cfg.Datastore)
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 600, cfg.TrackRatePerMinute)
	assert.Equal(t, 60, cfg.TrackBurst)
	assert.Equal(t, 3, cfg.MetricLimit)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendOrigin)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("REPORT_CACHE_TTL", "2m")
	t.Setenv("TRACK_RATE_PER_MINUTE", "0")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 0, cfg.TrackRatePerMinute)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("DATASTORE", DatastoreMemory)
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestLoad_PostgresRequiresClickHouse(t *testing.T) {
	t.Setenv("DATASTORE", DatastorePostgres)
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("CLICKHOUSE_HOST", "")

	_, err := Load()
	assert.ErrorContains(t, err, "CLICKHOUSE_HOST")
}

func TestLoad_ClickHouse(t *testing.T) {
	t.Setenv("DATASTORE", DatastorePostgres)
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("CLICKHOUSE_HOST", "localhost")
	t.Setenv("CLICKHOUSE_NATIVE_PORT", "9000")
	t.Setenv("CLICKHOUSE_DB_NAME", "pulse")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ClickHouse.NativePort)
	assert.Equal(t, "pulse", cfg.ClickHouse.Database)
}

func TestLoad_InvalidValues(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("TRACK_BURST", "lots")

	_, err := Load()
	assert.ErrorContains(t, err, "failed to read environment")
}

func TestLoad_RejectsNegativeLimits(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("TRACK_BURST", "-1")

	_, err := Load()
	assert.ErrorContains(t, err, "TRACK_BURST")
}

func TestLoad_InvalidDatastore(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DATASTORE", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid DATASTORE")
}

func TestLoad_DurationsFromEnv(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("JWT_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
}
