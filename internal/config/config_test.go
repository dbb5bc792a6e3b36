package config

import (
	"testing"
	"time"

	"bonofacil-backend/internal/finance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.ScheduleCacheTTL)
	assert.Equal(t, finance.DefaultPrecision(), cfg.Precision)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_DatabaseURLByEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL_DEV", "postgres://dev")
	t.Setenv("DATABASE_URL_TEST", "sqlite::memory:")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite::memory:", cfg.DatabaseURL)

	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_PROD", "postgres://prod")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Precision(t *testing.T) {
	t.Setenv("DECIMAL_SCALE", "12")
	t.Setenv("METRIC_SCALE", "2")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(12), cfg.Precision.Scale)
	assert.Equal(t, int32(2), cfg.Precision.MetricScale)
	assert.Equal(t, int32(8), cfg.Precision.RateScale)

	t.Setenv("DECIMAL_SCALE", "6")
	_, err = Load()
	assert.ErrorIs(t, err, finance.ErrInvalidArgument)
}
