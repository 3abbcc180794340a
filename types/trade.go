package types

import (
	"sort"
	"time"

	MapSet "github.com/deckarep/golang-set/v2"
)

// TradeEvent is one on-chain swap against an AMM pool.
// Timestamps have millisecond resolution; Slot is coarser and only used for
// tie-breaking and congestion proxies, never by the detector itself.
type TradeEvent struct {
	Signer    string    `ch:"signer" json:"signer"`
	Timestamp time.Time `ch:"timestamp" json:"timestamp"`
	Pool      string    `ch:"pool" json:"pool"`
	TokenIn   string    `ch:"tokenIn" json:"tokenIn"`
	TokenOut  string    `ch:"tokenOut" json:"tokenOut"`
	// AmountIn leaves the signer's wallet, AmountOut enters it.
	AmountIn  float64 `ch:"amountIn" json:"amountIn"`
	AmountOut float64 `ch:"amountOut" json:"amountOut"`
	Slot      uint64  `ch:"slot" json:"slot"`
}

type TradeEvents []*TradeEvent

// TokenPair is an unordered token pair. Both swap directions of the same
// pair map to the same key.
type TokenPair struct {
	A string
	B string
}

// Pair returns the unordered pair traded by this event.
func (t *TradeEvent) Pair() TokenPair {
	if t.TokenIn <= t.TokenOut {
		return TokenPair{A: t.TokenIn, B: t.TokenOut}
	}
	return TokenPair{A: t.TokenOut, B: t.TokenIn}
}

// SpanMs is the time span between the first and last trade in milliseconds.
func (ts TradeEvents) SpanMs() int64 {
	if len(ts) == 0 {
		return 0
	}
	return ts[len(ts)-1].Timestamp.Sub(ts[0].Timestamp).Milliseconds()
}

// Sorted reports whether timestamps are non-decreasing. On failure the index
// of the first out-of-order trade is returned.
func (ts TradeEvents) Sorted() (bool, int) {
	for i := 1; i < len(ts); i++ {
		if ts[i].Timestamp.Before(ts[i-1].Timestamp) {
			return false, i
		}
	}
	return true, 0
}

// SortByTime stably sorts the sequence by timestamp ascending. The relative
// order of equal timestamps is preserved, so per-pool subsequences that were
// already sorted stay sorted.
func (ts TradeEvents) SortByTime() {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Timestamp.Before(ts[j].Timestamp)
	})
}

// SplitByPool splits a combined sequence into per-pool sequences, preserving
// the original ingestion order inside each pool and returning pools in
// first-seen order so downstream processing stays deterministic.
func (ts TradeEvents) SplitByPool() ([]string, map[string]TradeEvents) {
	pools := make([]string, 0)
	byPool := make(map[string]TradeEvents)
	for _, t := range ts {
		if _, ok := byPool[t.Pool]; !ok {
			pools = append(pools, t.Pool)
		}
		byPool[t.Pool] = append(byPool[t.Pool], t)
	}
	return pools, byPool
}

// UniquePairs collects the distinct unordered token pairs touched by the
// sequence.
func (ts TradeEvents) UniquePairs() MapSet.Set[TokenPair] {
	pairs := MapSet.NewSet[TokenPair]()
	for _, t := range ts {
		pairs.Add(t.Pair())
	}
	return pairs
}

// UniquePools collects the distinct pools touched by the sequence.
func (ts TradeEvents) UniquePools() MapSet.Set[string] {
	pools := MapSet.NewSet[string]()
	for _, t := range ts {
		pools.Add(t.Pool)
	}
	return pools
}
