package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// Provider validation
	validProviders := map[string]bool{"mock": true, "http": true}
	if !validProviders[c.Provider.Type] {
		errs = append(errs, errors.New("provider.type must be one of: mock, http"))
	}
	if c.Provider.Type == "http" && c.Provider.Endpoint == "" {
		errs = append(errs, errors.New("provider.endpoint is required for the http provider"))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider.timeout must be positive"))
	}

	// Engine validation
	if c.Engine.MonitorInterval <= 0 {
		errs = append(errs, errors.New("engine.monitor_interval must be positive"))
	}
	if c.Engine.FetchTimeout >= c.Engine.MonitorInterval {
		errs = append(errs, errors.New("engine.fetch_timeout must be less than engine.monitor_interval"))
	}
	if c.Engine.CooldownPeriod <= 0 {
		errs = append(errs, errors.New("engine.cooldown_period must be positive"))
	}
	if c.Engine.CostCooldownPeriod < c.Engine.CooldownPeriod {
		errs = append(errs, errors.New("engine.cost_cooldown_period must be >= engine.cooldown_period"))
	}
	if c.Engine.IdleAvgThreshold >= c.Engine.IdlePeakThreshold {
		errs = append(errs, errors.New("engine.idle_avg_threshold must be less than idle_peak_threshold"))
	}

	// Forecast validation
	if c.Forecast.SamplePeriod <= 0 {
		errs = append(errs, errors.New("forecast.sample_period must be positive"))
	}
	if c.Forecast.Step < c.Forecast.SamplePeriod {
		errs = append(errs, errors.New("forecast.step must be >= forecast.sample_period"))
	}
	if c.Forecast.Horizon < c.Forecast.Step {
		errs = append(errs, errors.New("forecast.horizon must be >= forecast.step"))
	}

	// Scaler validation
	validScalers := map[string]bool{"simulator": true}
	if !validScalers[c.Scaler.Type] {
		errs = append(errs, errors.New("scaler.type must be: simulator"))
	}

	// Cost validation
	if c.Cost.DefaultPrice < 0 {
		errs = append(errs, errors.New("cost.default_price must not be negative"))
	}
	for resource, price := range c.Cost.Prices {
		if price < 0 {
			errs = append(errs, fmt.Errorf("cost.prices.%s must not be negative", resource))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
