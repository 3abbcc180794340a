package detector

import (
	"math"
	"mevscan/types"
	"mevscan/utils"
)

// Classifier labels a candidate cluster as a fat sandwich (value-extraction
// sandwich), a multi-hop arbitrage (benign closed routing, no victims) or
// ambiguous, by combining independent structural signals into two competing
// scores. It is a pure function of the cluster and the fixed configuration,
// safe to invoke concurrently across clusters.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Signals are the normalized [0,1] inputs of the two scores.
type Signals struct {
	WrappedVictim      float64
	TokenConcentration float64
	ManyTokenPairs     float64
	LowPoolDiversity   float64
	HighPoolDiversity  float64
	CycleRouting       float64
	ZeroVictims        float64
	External           float64
}

// Classify produces the immutable attack record for one cluster.
func (cl *Classifier) Classify(c *types.CandidateCluster) (*types.ClassifiedAttack, error) {
	if err := checkCluster(c); err != nil {
		return nil, err
	}

	sig := cl.computeSignals(c)
	w := cl.cfg.Weights

	fat := w.WrappedVictim*sig.WrappedVictim +
		w.TokenConcentration*sig.TokenConcentration +
		w.LowPoolDiversity*sig.LowPoolDiversity +
		w.ExternalSignal*sig.External
	multi := w.CycleRouting*sig.CycleRouting +
		w.ManyTokenPairs*sig.ManyTokenPairs +
		w.HighPoolDiversity*sig.HighPoolDiversity +
		w.ZeroVictims*sig.ZeroVictims

	label, confidence := decide(fat, multi, cl.cfg.DecisionMargin)

	return &types.ClassifiedAttack{
		Cluster:          c,
		AttackType:       label,
		Confidence:       confidence,
		FatSandwichScore: fat,
		MultiHopScore:    multi,
		VictimCount:      c.VictimCount(),
		UniqueTokenPairs: c.Trades.UniquePairs().Cardinality(),
		UniquePools:      c.Trades.UniquePools().Cardinality(),
		ActualTimeSpanMs: c.Trades.SpanMs(),
	}, nil
}

// ClassifyAll applies the classifier independently to every cluster,
// sequentially and in input order so results are reproducible. A degenerate
// cluster is reported and skipped; it never aborts the rest of the batch.
func (cl *Classifier) ClassifyAll(clusters []*types.CandidateCluster) ([]*types.ClassifiedAttack, *BatchErrors) {
	attacks := make([]*types.ClassifiedAttack, 0, len(clusters))
	batchErrs := &BatchErrors{}
	for _, c := range clusters {
		attack, err := cl.Classify(c)
		if err != nil {
			batchErrs.Add(err)
			continue
		}
		attacks = append(attacks, attack)
	}
	return attacks, batchErrs
}

// checkCluster guards the ratio computations against clusters that violate
// the scanner's contract. Failing loudly beats a silently wrong score.
func checkCluster(c *types.CandidateCluster) error {
	if c == nil || len(c.Trades) == 0 {
		return &DegenerateClusterError{Reason: "empty cluster"}
	}
	if len(c.Trades) < 3 {
		return &DegenerateClusterError{Reason: "fewer than 3 trades"}
	}
	if c.First().Signer != c.AttackerSigner || c.Last().Signer != c.AttackerSigner {
		return &DegenerateClusterError{Reason: "first/last signer does not match attacker"}
	}
	return nil
}

func (cl *Classifier) computeSignals(c *types.CandidateCluster) Signals {
	var sig Signals

	// Wrapped victims: >=2 is a strong signal of a deliberate sandwich.
	// Under the graduated policy a single victim earns partial credit.
	switch victims := c.VictimCount(); {
	case victims >= 2:
		sig.WrappedVictim = 1.0
	case victims == 1 && !cl.cfg.StrictWrappedVictim:
		sig.WrappedVictim = 0.5
	}
	if c.VictimCount() == 0 {
		sig.ZeroVictims = 1.0
	}

	// Fat sandwiches hammer one pair; arbitrage routes touch 3+ pairs.
	pairs := c.Trades.UniquePairs().Cardinality()
	sig.TokenConcentration = 1.0 / float64(pairs)
	sig.ManyTokenPairs = utils.Clamp01(float64(pairs-1) / 2.0)

	pools := c.Trades.UniquePools().Cardinality()
	if pools <= 2 {
		sig.LowPoolDiversity = 1.0
	}
	switch {
	case pools >= 3:
		sig.HighPoolDiversity = 1.0
	case pools == 2:
		sig.HighPoolDiversity = 0.5
	}

	sig.CycleRouting = cl.cycleRoutingConfidence(c)

	if cl.cfg.ExternalSignal != nil {
		sig.External = utils.Clamp01(cl.cfg.ExternalSignal(c))
	}

	return sig
}

// cycleRoutingConfidence is the definitive economic test between the two
// attack types. It nets the attacker's balance change per token across the
// cluster; a route whose every non-starting token closes to ~zero is an
// arbitrage cycle, while a residual balance kept in a non-starting token
// means value was extracted.
func (cl *Classifier) cycleRoutingConfidence(c *types.CandidateCluster) float64 {
	net := make(map[string]float64)
	order := make([]string, 0, 4)
	for _, t := range c.Trades {
		if t.Signer != c.AttackerSigner {
			continue
		}
		for _, token := range []string{t.TokenIn, t.TokenOut} {
			if _, ok := net[token]; !ok {
				net[token] = 0
				order = append(order, token)
			}
		}
		net[t.TokenIn] -= t.AmountIn
		net[t.TokenOut] += t.AmountOut
	}

	startToken := c.First().TokenIn
	closed, total := 0, 0
	for _, token := range order {
		if token == startToken {
			continue
		}
		total++
		if math.Abs(net[token]) <= cl.cfg.CycleTolerance {
			closed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(closed) / float64(total)
}

// decide applies the margin rule. Scores closer than the margin stay
// ambiguous rather than being rounded to the nearer label.
func decide(fat, multi, margin float64) (types.AttackType, float64) {
	switch {
	case fat > multi+margin:
		return types.AttackFatSandwich, fat
	case multi > fat+margin:
		return types.AttackMultiHop, multi
	default:
		return types.AttackAmbiguous, math.Max(fat, multi)
	}
}
