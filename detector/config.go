package detector

import (
	"mevscan/config"
	"mevscan/types"
	"time"
)

// Weights are the per-signal weights of the two competing scores. Each
// signal is normalized to [0,1] before weighting, so a score stays in [0,1]
// as long as its weights sum to at most 1.
type Weights struct {
	// Fat-sandwich side
	WrappedVictim      float64
	TokenConcentration float64
	LowPoolDiversity   float64
	ExternalSignal     float64

	// Multi-hop side
	CycleRouting      float64
	ManyTokenPairs    float64
	HighPoolDiversity float64
	ZeroVictims       float64
}

// DefaultWeights returns the reference weight set.
func DefaultWeights() Weights {
	return Weights{
		WrappedVictim:      config.WEIGHT_WRAPPED_VICTIM,
		TokenConcentration: config.WEIGHT_TOKEN_CONCENTRATION,
		LowPoolDiversity:   config.WEIGHT_LOW_POOL_DIVERSITY,
		ExternalSignal:     config.WEIGHT_EXTERNAL_SIGNAL,
		CycleRouting:       config.WEIGHT_CYCLE_ROUTING,
		ManyTokenPairs:     config.WEIGHT_MANY_TOKEN_PAIRS,
		HighPoolDiversity:  config.WEIGHT_HIGH_POOL_DIVERSITY,
		ZeroVictims:        config.WEIGHT_ZERO_VICTIMS,
	}
}

// ExternalSignalFunc supplies the optional external evidence term of the
// fat-sandwich score (e.g. known MEV-bundle membership of the attacker).
// The result is clamped to [0,1]. A nil func contributes 0.
type ExternalSignalFunc func(*types.CandidateCluster) float64

// Config holds every tunable of the scanner and classifier.
type Config struct {
	// Window Scanner
	Windows        []time.Duration
	MinTrades      int
	MaxVictimRatio float64

	// Classifier
	Weights        Weights
	DecisionMargin float64
	CycleTolerance float64

	// StrictWrappedVictim switches the wrapped-victim signal from the
	// graduated 0/0.5/1.0 policy to the strict variant where a single
	// victim scores 0.
	StrictWrappedVictim bool

	ExternalSignal ExternalSignalFunc
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Windows:        config.DefaultWindows(),
		MinTrades:      config.DETECT_MIN_TRADES,
		MaxVictimRatio: config.DETECT_MAX_VICTIM_RATIO,
		Weights:        DefaultWeights(),
		DecisionMargin: config.DETECT_DECISION_MARGIN,
		CycleTolerance: config.DETECT_CYCLE_TOLERANCE,
	}
}

// Validate rejects unusable tunables before any scanning begins.
func (c Config) Validate() error {
	if len(c.Windows) == 0 {
		return &ConfigurationError{Field: "windows", Reason: "at least one window duration is required"}
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return &ConfigurationError{Field: "windows", Reason: "window durations must be positive"}
		}
	}
	if c.MinTrades < 3 {
		return &ConfigurationError{Field: "min_trades", Reason: "a cluster needs at least 3 trades (front, victim, back)"}
	}
	if !(c.MaxVictimRatio > 0 && c.MaxVictimRatio <= 1) {
		return &ConfigurationError{Field: "max_victim_ratio", Reason: "must be in (0, 1]"}
	}
	if !(c.DecisionMargin > 0 && c.DecisionMargin < 1) {
		return &ConfigurationError{Field: "decision_margin", Reason: "must be in (0, 1)"}
	}
	if c.CycleTolerance < 0 {
		return &ConfigurationError{Field: "cycle_tolerance", Reason: "must be non-negative"}
	}

	w := c.Weights
	for _, v := range []float64{
		w.WrappedVictim, w.TokenConcentration, w.LowPoolDiversity, w.ExternalSignal,
		w.CycleRouting, w.ManyTokenPairs, w.HighPoolDiversity, w.ZeroVictims,
	} {
		if v < 0 {
			return &ConfigurationError{Field: "score_weights", Reason: "weights must be non-negative"}
		}
	}
	// Keep both scores bounded by 1 so the decision margin stays usable.
	if fat := w.WrappedVictim + w.TokenConcentration + w.LowPoolDiversity + w.ExternalSignal; fat > 1+1e-9 {
		return &ConfigurationError{Field: "score_weights", Reason: "fat-sandwich weights must sum to at most 1"}
	}
	if multi := w.CycleRouting + w.ManyTokenPairs + w.HighPoolDiversity + w.ZeroVictims; multi > 1+1e-9 {
		return &ConfigurationError{Field: "score_weights", Reason: "multi-hop weights must sum to at most 1"}
	}
	return nil
}
