package detector

import (
	"mevscan/types"
	"time"
)

// WindowScanner slides fixed-size time windows over one pool's sorted trade
// sequence and emits every sub-sequence with the attacker-victim(s)-attacker
// (A-B-A) shape.
//
// Suppose a sandwich consists of front-run A->B, victim(s), and back-run
// B->A. The front trade and back trade must share the signer (the attacker)
// and round-trip the same token pair; interior trades by other signers are
// the victims. Interior trades by the attacker are tolerated but do not
// count as victims.
type WindowScanner struct {
	Pool   string
	Trades types.TradeEvents // one pool, sorted by timestamp ascending
	Config Config

	Clusters []*types.CandidateCluster
}

// Find scans all configured window durations. For fixed input ordering and
// configuration the output is deterministic. Unsorted input fails fast with
// DataOrderingError; silent misordering would corrupt all downstream scoring.
func (s *WindowScanner) Find() error {
	s.Clusters = make([]*types.CandidateCluster, 0)

	if ok, idx := s.Trades.Sorted(); !ok {
		return &DataOrderingError{Pool: s.Pool, Index: idx}
	}

	for _, w := range s.Config.Windows {
		s.findWindows(w)
	}
	return nil
}

// findWindows runs one two-pointer pass for a single window duration. The
// right boundary only ever advances, so one pass is O(N) rather than a
// nested rescan per start index.
func (s *WindowScanner) findWindows(w time.Duration) {
	n := len(s.Trades)
	right := 0
	for left := 0; left < n; left++ {
		limit := s.Trades[left].Timestamp.Add(w)
		if right < left {
			right = left
		}
		for right+1 < n && !s.Trades[right+1].Timestamp.After(limit) {
			right++
		}

		window := s.Trades[left : right+1]
		if len(window) < s.Config.MinTrades {
			continue
		}
		if cluster := s.evaluate(window, w); cluster != nil {
			s.Clusters = append(s.Clusters, cluster)
		}
	}
}

// evaluate applies the structural gates to one window and builds the
// candidate cluster if all of them pass.
func (s *WindowScanner) evaluate(window types.TradeEvents, w time.Duration) *types.CandidateCluster {
	front := window[0]
	back := window[len(window)-1]

	// A-B-A shape: first and last trade must share the attacker signer
	if front.Signer != back.Signer {
		return nil
	}
	attacker := front.Signer

	// Token-pair reversal: the attacker starts and ends holding a
	// round-trip position in the same pair. Coincidental repeats in the
	// same direction do not round-trip.
	if !(front.TokenIn == back.TokenOut && front.TokenOut == back.TokenIn) {
		return nil
	}

	victims := collectVictims(window, attacker)
	if len(victims) == 0 {
		return nil
	}

	// A window dominated by victims is likely batched/aggregator traffic
	// rather than a targeted attack.
	victimRatio := float64(len(victims)) / float64(len(window))
	if victimRatio > s.Config.MaxVictimRatio {
		return nil
	}

	return &types.CandidateCluster{
		Trades:         window,
		AttackerSigner: attacker,
		VictimTrades:   victims,
		WindowSeconds:  w,
	}
}

// collectVictims returns the interior trades not signed by the attacker.
func collectVictims(window types.TradeEvents, attacker string) types.TradeEvents {
	victims := make(types.TradeEvents, 0)
	for _, t := range window[1 : len(window)-1] {
		if t.Signer != attacker {
			victims = append(victims, t)
		}
	}
	return victims
}
