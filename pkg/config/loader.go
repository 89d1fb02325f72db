package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/coordinator")
	}

	// Environment variable settings
	v.SetEnvPrefix("COORDINATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "scale-coordinator")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "coordinator")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	// Coordinator defaults
	v.SetDefault("coordinator.tick_interval", "30s")
	v.SetDefault("coordinator.apply_timeout", "10s")

	// Prediction defaults
	v.SetDefault("prediction.default_load", 0.5)
	v.SetDefault("prediction.lead_time", "5m")
	v.SetDefault("prediction.min_confidence_samples", 10)

	// Effectiveness defaults
	v.SetDefault("effectiveness.effective_threshold", 0.05)
	v.SetDefault("effectiveness.min_samples", 1)

	// Event log defaults
	v.SetDefault("events.max_per_service", 100)
	v.SetDefault("events.buffer_size", 100)

	// Applier defaults
	v.SetDefault("applier.type", "simulator")
	v.SetDefault("applier.namespace", "default")
	v.SetDefault("applier.default_utilization", 0.5)
	v.SetDefault("applier.breaker_max_failures", 5)
	v.SetDefault("applier.breaker_open_timeout", "2m")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.admin_user", "admin")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.broadcast_buffer", 256)
	v.SetDefault("websocket.client_buffer", 256)
}
