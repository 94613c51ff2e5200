package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "autoscaler", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, "info", cfg.App.LogLevel)

	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "mock", cfg.Provider.Type)
	assert.Equal(t, "simulator", cfg.Scaler.Type)

	assert.Equal(t, 60*time.Second, cfg.Engine.MonitorInterval)
	assert.Equal(t, 300*time.Second, cfg.Engine.PredictInterval)
	assert.Equal(t, time.Hour, cfg.Engine.CostInterval)
	assert.Equal(t, 10*time.Minute, cfg.Engine.CooldownPeriod)
	assert.Equal(t, 30*time.Minute, cfg.Engine.CostCooldownPeriod)
	assert.Equal(t, 1000, cfg.Engine.HistoryCapacity)

	assert.Equal(t, 30*time.Minute, cfg.Forecast.Horizon)
	assert.Equal(t, 5*time.Minute, cfg.Forecast.Step)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.Prometheus.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  mode: production
  log_level: debug
engine:
  monitor_interval: 30s
  cooldown_period: 5m
api:
  port: 9090
  jwt_secret: strong-production-secret
cost:
  default_price: 0.10
  prices:
    vm: 0.09
    container: 0.01
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Mode)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Engine.MonitorInterval)
	assert.Equal(t, 5*time.Minute, cfg.Engine.CooldownPeriod)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.InDelta(t, 0.10, cfg.Cost.DefaultPrice, 1e-9)
	assert.InDelta(t, 0.09, cfg.Cost.Prices["vm"], 1e-9)

	// Untouched sections keep their defaults.
	assert.Equal(t, "autoscaler", cfg.App.Name)
	assert.Equal(t, 300*time.Second, cfg.Engine.PredictInterval)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_Failures(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{
			name:    "bad mode",
			mutate:  func(c *config.Config) { c.App.Mode = "staging" },
			wantMsg: "app.mode",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.App.LogLevel = "trace" },
			wantMsg: "app.log_level",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *config.Config) { c.Provider.Type = "cloudwatch" },
			wantMsg: "provider.type",
		},
		{
			name: "http provider without endpoint",
			mutate: func(c *config.Config) {
				c.Provider.Type = "http"
				c.Provider.Endpoint = ""
			},
			wantMsg: "provider.endpoint",
		},
		{
			name: "fetch timeout above monitor interval",
			mutate: func(c *config.Config) {
				c.Engine.FetchTimeout = 2 * time.Minute
			},
			wantMsg: "engine.fetch_timeout",
		},
		{
			name: "cost cooldown below scaling cooldown",
			mutate: func(c *config.Config) {
				c.Engine.CostCooldownPeriod = time.Minute
			},
			wantMsg: "engine.cost_cooldown_period",
		},
		{
			name: "idle thresholds inverted",
			mutate: func(c *config.Config) {
				c.Engine.IdleAvgThreshold = 50
			},
			wantMsg: "engine.idle_avg_threshold",
		},
		{
			name: "forecast horizon below step",
			mutate: func(c *config.Config) {
				c.Forecast.Horizon = time.Minute
			},
			wantMsg: "forecast.horizon",
		},
		{
			name:    "negative price",
			mutate:  func(c *config.Config) { c.Cost.Prices = map[string]float64{"vm": -1} },
			wantMsg: "cost.prices.vm",
		},
		{
			name:    "bad api port",
			mutate:  func(c *config.Config) { c.API.Port = 0 },
			wantMsg: "api.port",
		},
		{
			name:    "default jwt secret in production",
			mutate:  func(c *config.Config) { c.App.Mode = "production" },
			wantMsg: "api.jwt_secret",
		},
		{
			name: "database enabled without name",
			mutate: func(c *config.Config) {
				c.Database.Enabled = true
				c.Database.Name = ""
			},
			wantMsg: "database.name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "autoscaler",
		User:     "admin",
		Password: "secret",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=admin password=secret dbname=autoscaler sslmode=disable",
		db.DSN(),
	)
}
