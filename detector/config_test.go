package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no windows", func(c *Config) { c.Windows = nil }, "windows"},
		{"negative window", func(c *Config) { c.Windows = []time.Duration{-time.Second} }, "windows"},
		{"min trades below 3", func(c *Config) { c.MinTrades = 2 }, "min_trades"},
		{"victim ratio zero", func(c *Config) { c.MaxVictimRatio = 0 }, "max_victim_ratio"},
		{"victim ratio above 1", func(c *Config) { c.MaxVictimRatio = 1.2 }, "max_victim_ratio"},
		{"margin zero", func(c *Config) { c.DecisionMargin = 0 }, "decision_margin"},
		{"margin at 1", func(c *Config) { c.DecisionMargin = 1 }, "decision_margin"},
		{"negative tolerance", func(c *Config) { c.CycleTolerance = -1e-6 }, "cycle_tolerance"},
		{"negative weight", func(c *Config) { c.Weights.WrappedVictim = -0.1 }, "score_weights"},
		{"fat weights overflow", func(c *Config) { c.Weights.WrappedVictim = 0.9 }, "score_weights"},
		{"multi weights overflow", func(c *Config) { c.Weights.CycleRouting = 0.9 }, "score_weights"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestConfig_VictimRatioOfOneAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxVictimRatio = 1
	require.NoError(t, cfg.Validate())
}
