package config

import (
	"fmt"
	"time"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Scaler     ScalerConfig     `mapstructure:"scaler"`
	Cost       CostConfig       `mapstructure:"cost"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type ProviderConfig struct {
	Type           string               `mapstructure:"type"`
	Endpoint       string               `mapstructure:"endpoint"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type EngineConfig struct {
	MonitorInterval    time.Duration `mapstructure:"monitor_interval"`
	PredictInterval    time.Duration `mapstructure:"predict_interval"`
	CostInterval       time.Duration `mapstructure:"cost_interval"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	ApplyTimeout       time.Duration `mapstructure:"apply_timeout"`
	HistoryCapacity    int           `mapstructure:"history_capacity"`
	CooldownPeriod     time.Duration `mapstructure:"cooldown_period"`
	CostCooldownPeriod time.Duration `mapstructure:"cost_cooldown_period"`
	IdleWindow         time.Duration `mapstructure:"idle_window"`
	IdleAvgThreshold   float64       `mapstructure:"idle_avg_threshold"`
	IdlePeakThreshold  float64       `mapstructure:"idle_peak_threshold"`
	MinMonthlySavings  float64       `mapstructure:"min_monthly_savings"`
}

type ForecastConfig struct {
	Lookback     time.Duration `mapstructure:"lookback"`
	SamplePeriod time.Duration `mapstructure:"sample_period"`
	Horizon      time.Duration `mapstructure:"horizon"`
	Step         time.Duration `mapstructure:"step"`
}

type ScalerConfig struct {
	Type       string        `mapstructure:"type"`
	ApplyDelay time.Duration `mapstructure:"apply_delay"`
}

type CostConfig struct {
	// Prices maps a resource type to its hourly price per unit.
	Prices       map[string]float64 `mapstructure:"prices"`
	DefaultPrice float64            `mapstructure:"default_price"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	RateLimit    int           `mapstructure:"rate_limit"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	// Users maps a username to its bcrypt password hash.
	Users map[string]string `mapstructure:"users"`
	CORS  CORSConfig        `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
