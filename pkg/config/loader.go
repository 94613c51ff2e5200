package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/autoscaler")
	}

	v.SetEnvPrefix("AUTOSCALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "autoscaler")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "autoscaler")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.ping_timeout", "5s")

	// Provider defaults
	v.SetDefault("provider.type", "mock")
	v.SetDefault("provider.endpoint", "http://localhost:9000")
	v.SetDefault("provider.timeout", "5s")
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.retry_delay", "1s")
	v.SetDefault("provider.circuit_breaker.max_failures", 5)
	v.SetDefault("provider.circuit_breaker.timeout", "30s")

	// Engine defaults
	v.SetDefault("engine.monitor_interval", "60s")
	v.SetDefault("engine.predict_interval", "300s")
	v.SetDefault("engine.cost_interval", "3600s")
	v.SetDefault("engine.fetch_timeout", "5s")
	v.SetDefault("engine.apply_timeout", "30s")
	v.SetDefault("engine.history_capacity", 1000)
	v.SetDefault("engine.cooldown_period", "10m")
	v.SetDefault("engine.cost_cooldown_period", "30m")
	v.SetDefault("engine.idle_window", "2h")
	v.SetDefault("engine.idle_avg_threshold", 20.0)
	v.SetDefault("engine.idle_peak_threshold", 40.0)
	v.SetDefault("engine.min_monthly_savings", 10.0)

	// Forecast defaults
	v.SetDefault("forecast.lookback", "2h")
	v.SetDefault("forecast.sample_period", "1m")
	v.SetDefault("forecast.horizon", "30m")
	v.SetDefault("forecast.step", "5m")

	// Scaler defaults
	v.SetDefault("scaler.type", "simulator")
	v.SetDefault("scaler.apply_delay", "100ms")

	// Cost defaults
	v.SetDefault("cost.default_price", 0.05)

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "autoscaler")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.max_body_bytes", 1048576)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.client_buffer", 64)

	// Prometheus defaults
	v.SetDefault("prometheus.enabled", true)

	// Events defaults
	v.SetDefault("events.buffer_size", 256)
}
