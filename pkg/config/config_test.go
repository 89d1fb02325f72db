package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg, _ := Load("")
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "scale-coordinator", cfg.App.Name)
	assert.Equal(t, 30*time.Second, cfg.Coordinator.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Coordinator.ApplyTimeout)
	assert.Equal(t, 0.5, cfg.Prediction.DefaultLoad)
	assert.Equal(t, 5*time.Minute, cfg.Prediction.LeadTime)
	assert.Equal(t, "simulator", cfg.Applier.Type)
	assert.Equal(t, 100, cfg.Events.MaxPerService)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, 50, cfg.API.DefaultLimit)
	assert.Equal(t, 500, cfg.API.MaxLimit)
	assert.False(t, cfg.Database.Enabled)
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick interval", func(c *Config) { c.Coordinator.TickInterval = 0 }},
		{"apply timeout above tick interval", func(c *Config) {
			c.Coordinator.ApplyTimeout = c.Coordinator.TickInterval + time.Second
		}},
		{"default load above one", func(c *Config) { c.Prediction.DefaultLoad = 1.5 }},
		{"zero default utilization", func(c *Config) { c.Applier.DefaultUtilization = 0 }},
		{"bad per-service target", func(c *Config) {
			c.Applier.UtilizationTargets = map[string]float64{"api": 2.0}
		}},
		{"unknown applier type", func(c *Config) { c.Applier.Type = "teleport" }},
		{"invalid port", func(c *Config) { c.API.Port = 70000 }},
		{"max limit below default limit", func(c *Config) { c.API.MaxLimit = 10 }},
		{"negative effectiveness threshold", func(c *Config) {
			c.Effectiveness.EffectiveThreshold = -0.1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "coordinator",
		User:     "svc",
		Password: "secret",
	}.ToDBConfig().DSN()

	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=disable", "ssl mode defaults to disable")
}
