package config

import "fmt"

// Validate rejects configurations the coordinator cannot run with.
func (c *Config) Validate() error {
	if c.Coordinator.TickInterval <= 0 {
		return fmt.Errorf("coordinator.tick_interval must be positive")
	}
	if c.Coordinator.ApplyTimeout > c.Coordinator.TickInterval {
		return fmt.Errorf("coordinator.apply_timeout must not exceed the tick interval")
	}
	if c.Prediction.DefaultLoad <= 0 || c.Prediction.DefaultLoad > 1 {
		return fmt.Errorf("prediction.default_load must be within (0,1]")
	}
	if c.Applier.DefaultUtilization <= 0 || c.Applier.DefaultUtilization > 1 {
		return fmt.Errorf("applier.default_utilization must be within (0,1]")
	}
	for service, t := range c.Applier.UtilizationTargets {
		if t <= 0 || t > 1 {
			return fmt.Errorf("applier.utilization_targets[%s] must be within (0,1]", service)
		}
	}
	switch c.Applier.Type {
	case "simulator", "kubernetes":
	default:
		return fmt.Errorf("applier.type must be simulator or kubernetes, got %q", c.Applier.Type)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be a valid port number")
	}
	if c.API.DefaultLimit <= 0 || c.API.MaxLimit < c.API.DefaultLimit {
		return fmt.Errorf("api.max_limit must be >= api.default_limit, both positive")
	}
	if c.Effectiveness.EffectiveThreshold < 0 {
		return fmt.Errorf("effectiveness.effective_threshold must not be negative")
	}
	return nil
}
