package config

import "sort"

// presets modify DefaultConfig
var presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"highway": func(c *Config) {
		c.Vehicle.V = 30.0
		c.Dt = 0.02
		c.Steps = 1000
		c.Discretization = ZOH
		c.Limits = LimitsConfig{DeltaMin: -0.1, DeltaMax: 0.1}
	},
	"urban": func(c *Config) {
		c.Vehicle.V = 5.0
		c.InitState = InitStateConfig{Ey: 2.0, Epsi: 0.0}
		c.Cost.Q = []float64{5.0, 1.0}
	},
	"gusty": func(c *Config) {
		c.Disturbance = DisturbanceConfig{
			Cov:  []float64{1e-4, 1e-5},
			Seed: 1,
		}
	},
}

// GetPreset returns preset configuration or nil if it does not exist.
func GetPreset(name string) *Config {
	apply, ok := presets[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	apply(cfg)

	return cfg
}

// ListPresets returns sorted preset names.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
