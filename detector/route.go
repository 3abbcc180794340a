package detector

import (
	"mevscan/types"
	"time"
)

// RouteScanner is the sibling of WindowScanner for closed routing patterns.
// It slides the same window durations over the combined cross-pool sequence
// and emits windows where the attacker's own trades chain token-to-token
// back to the starting token (X->Y->...->X), possibly across several pools.
//
// Multi-pool arbitrage cycles never pass the pair-reversal gate of the
// per-pool scanner, so this is the path by which they reach the classifier.
// Unlike a sandwich window, a route window may contain zero victims.
type RouteScanner struct {
	Trades types.TradeEvents // combined sequence, sorted by timestamp ascending
	Config Config

	Clusters []*types.CandidateCluster
}

func (s *RouteScanner) Find() error {
	s.Clusters = make([]*types.CandidateCluster, 0)

	if ok, idx := s.Trades.Sorted(); !ok {
		return &DataOrderingError{Pool: "combined", Index: idx}
	}

	for _, w := range s.Config.Windows {
		s.findWindows(w)
	}
	return nil
}

func (s *RouteScanner) findWindows(w time.Duration) {
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

func (s *RouteScanner) evaluate(window types.TradeEvents, w time.Duration) *types.CandidateCluster {
	front := window[0]
	back := window[len(window)-1]

	if front.Signer != back.Signer {
		return nil
	}
	attacker := front.Signer

	// Round trip on the starting token instead of strict pair reversal.
	if front.TokenIn != back.TokenOut {
		return nil
	}

	// The attacker's legs must chain token-to-token.
	if !legsChain(window, attacker) {
		return nil
	}

	victims := collectVictims(window, attacker)
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

// legsChain checks that each of the attacker's trades starts in the token
// the previous one produced.
func legsChain(window types.TradeEvents, attacker string) bool {
	var prev *types.TradeEvent
	for _, t := range window {
		if t.Signer != attacker {
			continue
		}
		if prev != nil && t.TokenIn != prev.TokenOut {
			return false
		}
		prev = t
	}
	return true
}
