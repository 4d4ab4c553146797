package depth

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero screen width", func(c *Config) { c.ScreenWidth = 0 }},
		{"negative screen height", func(c *Config) { c.ScreenHeight = -1 }},
		{"vanishing point x above 1", func(c *Config) { c.VanishingPointX = 1.2 }},
		{"vanishing point y below 0", func(c *Config) { c.VanishingPointY = -0.1 }},
		{"perspective x above 1", func(c *Config) { c.PerspectiveX = 1.5 }},
		{"zero depth factor", func(c *Config) { c.DepthFactor = 0 }},
		{"negative depth factor", func(c *Config) { c.DepthFactor = -0.002 }},
		{"zero max depth", func(c *Config) { c.MaxDepth = 0 }},
		{"negative depth epsilon", func(c *Config) { c.DepthEpsilon = -0.5 }},
		{"one scale bucket", func(c *Config) { c.ScaleBuckets = 1 }},
		{"min scale at rejection floor", func(c *Config) { c.MinScale = 0.01 }},
		{"inverted scale range", func(c *Config) { c.MinScale = 0.9; c.MaxScale = 0.5 }},
		{"negative min render scale", func(c *Config) { c.MinRenderScale = -0.1 }},
		{"inverted lod thresholds", func(c *Config) { c.LODHighScale = 0.3; c.LODMediumScale = 0.5 }},
		{"update rate above 1", func(c *Config) { c.UpdateRateHigh = 1.5 }},
		{"zero low update rate", func(c *Config) { c.UpdateRateLow = 0 }},
		{"non-monotonic update rates", func(c *Config) { c.UpdateRateMedium = 0.1; c.UpdateRateLow = 0.25 }},
		{"zero fog start scale", func(c *Config) { c.FogStartScale = 0 }},
		{"fog intensity above 1", func(c *Config) { c.FogMaxIntensity = 1.1 }},
		{"zero cache capacity", func(c *Config) { c.CacheCapacity = 0 }},
		{"negative frame budget", func(c *Config) { c.FrameBudget = -1 }},
		{"zero budget window", func(c *Config) { c.BudgetWindow = 0 }},
		{"negative sort interval", func(c *Config) { c.SortInterval = -time.Millisecond }},
		{"warning below critical fps", func(c *Config) { c.FPSWarning = 20; c.FPSCritical = 25 }},
		{"miss rate warning above 1", func(c *Config) { c.MissRateWarning = 2 }},
		{"cull rate warning below 0", func(c *Config) { c.CullRateWarning = -0.5 }},
		{"negative memory warning", func(c *Config) { c.MemoryWarning = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateSkipsFogFieldsWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FogEnabled = false
	cfg.FogStartScale = 0 // would fail with fog enabled
	cfg.FogMaxIntensity = 5
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with fog disabled = %v, want nil", err)
	}
}

func TestValidateAllowsZeroFrameBudget(t *testing.T) {
	// A zero budget is a legal way to freeze generation entirely.
	cfg := DefaultConfig()
	cfg.FrameBudget = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with zero budget = %v, want nil", err)
	}
}
