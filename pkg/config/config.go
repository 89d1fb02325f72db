package config

import (
	"time"
)

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Coordinator   CoordinatorConfig   `mapstructure:"coordinator"`
	Prediction    PredictionConfig    `mapstructure:"prediction"`
	Effectiveness EffectivenessConfig `mapstructure:"effectiveness"`
	Events        EventsConfig        `mapstructure:"events"`
	Applier       ApplierConfig       `mapstructure:"applier"`
	API           APIConfig           `mapstructure:"api"`
	WebSocket     WebSocketConfig     `mapstructure:"websocket"`
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
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type CoordinatorConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	ApplyTimeout time.Duration `mapstructure:"apply_timeout"`
}

type PredictionConfig struct {
	DefaultLoad          float64       `mapstructure:"default_load"`
	LeadTime             time.Duration `mapstructure:"lead_time"`
	MinConfidenceSamples int           `mapstructure:"min_confidence_samples"`
}

type EffectivenessConfig struct {
	EffectiveThreshold float64 `mapstructure:"effective_threshold"`
	MinSamples         int     `mapstructure:"min_samples"`
}

type EventsConfig struct {
	MaxPerService int `mapstructure:"max_per_service"`
	BufferSize    int `mapstructure:"buffer_size"`
}

type ApplierConfig struct {
	Type               string             `mapstructure:"type"` // simulator | kubernetes
	Kubeconfig         string             `mapstructure:"kubeconfig"`
	Namespace          string             `mapstructure:"namespace"`
	DefaultUtilization float64            `mapstructure:"default_utilization"`
	UtilizationTargets map[string]float64 `mapstructure:"utilization_targets"`
	BreakerMaxFailures int                `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration      `mapstructure:"breaker_open_timeout"`
}

type APIConfig struct {
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	RateLimit     int           `mapstructure:"rate_limit"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTDuration   time.Duration `mapstructure:"jwt_duration"`
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPassword string        `mapstructure:"admin_password"` // bcrypt hash
	DefaultLimit  int           `mapstructure:"default_limit"`
	MaxLimit      int           `mapstructure:"max_limit"`
}

type WebSocketConfig struct {
	BroadcastBuffer int `mapstructure:"broadcast_buffer"`
	ClientBuffer    int `mapstructure:"client_buffer"`
}
