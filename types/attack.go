package types

import (
	"time"

	"mevscan/utils"
)

// AttackType labels a classified cluster.
type AttackType string

const (
	AttackFatSandwich AttackType = "fat_sandwich"
	AttackMultiHop    AttackType = "multi_hop_arbitrage"
	AttackAmbiguous   AttackType = "ambiguous"
)

// ClassifiedAttack is the immutable output record of the classifier: the
// candidate cluster plus its label, scores and derived scalar summaries.
type ClassifiedAttack struct {
	Cluster *CandidateCluster

	AttackType AttackType `ch:"attackType"`
	// Confidence is the winning score. The two scores are computed
	// independently and need not sum to 1.
	Confidence       float64 `ch:"confidence"`
	FatSandwichScore float64 `ch:"fatSandwichScore"`
	MultiHopScore    float64 `ch:"multiHopScore"`

	VictimCount      int   `ch:"victimCount"`
	UniqueTokenPairs int   `ch:"uniqueTokenPairs"`
	UniquePools      int   `ch:"uniquePools"`
	ActualTimeSpanMs int64 `ch:"actualTimeSpanMs"`
}

// AttackRow is the flattened attacks table row.
type AttackRow struct {
	AttackID         string    `ch:"attackId"`
	AttackType       string    `ch:"attackType"`
	AttackerSigner   string    `ch:"attackerSigner"`
	Slot             uint64    `ch:"slot"`
	Timestamp        time.Time `ch:"timestamp"`
	WindowSeconds    float64   `ch:"windowSeconds"`
	Confidence       float64   `ch:"confidence"`
	FatSandwichScore float64   `ch:"fatSandwichScore"`
	MultiHopScore    float64   `ch:"multiHopScore"`
	VictimCount      uint16    `ch:"victimCount"`
	UniqueTokenPairs uint16    `ch:"uniqueTokenPairs"`
	UniquePools      uint16    `ch:"uniquePools"`
	ActualTimeSpanMs int64     `ch:"actualTimeSpanMs"`
	TradeCount       uint16    `ch:"tradeCount"`
}

// AttackTradeRow is one member trade of a classified attack, typed as
// "front", "victim", "interior" or "back".
type AttackTradeRow struct {
	AttackID string `ch:"attackId"`
	Role     string `ch:"role"`
	TradeEvent
}

// Row flattens the attack for storage.
func (a *ClassifiedAttack) Row() *AttackRow {
	first := a.Cluster.First()
	return &AttackRow{
		AttackID:         a.Cluster.ID(),
		AttackType:       string(a.AttackType),
		AttackerSigner:   a.Cluster.AttackerSigner,
		Slot:             first.Slot,
		Timestamp:        first.Timestamp,
		WindowSeconds:    a.Cluster.WindowSeconds.Seconds(),
		Confidence:       utils.FloatRound(a.Confidence, 6),
		FatSandwichScore: utils.FloatRound(a.FatSandwichScore, 6),
		MultiHopScore:    utils.FloatRound(a.MultiHopScore, 6),
		VictimCount:      uint16(a.VictimCount),
		UniqueTokenPairs: uint16(a.UniqueTokenPairs),
		UniquePools:      uint16(a.UniquePools),
		ActualTimeSpanMs: a.ActualTimeSpanMs,
		TradeCount:       uint16(len(a.Cluster.Trades)),
	}
}

// TradeRows flattens the member trades for storage.
func (a *ClassifiedAttack) TradeRows() []*AttackTradeRow {
	id := a.Cluster.ID()
	rows := make([]*AttackTradeRow, 0, len(a.Cluster.Trades))
	for i, t := range a.Cluster.Trades {
		role := "interior"
		switch {
		case i == 0:
			role = "front"
		case i == len(a.Cluster.Trades)-1:
			role = "back"
		case t.Signer != a.Cluster.AttackerSigner:
			role = "victim"
		}
		rows = append(rows, &AttackTradeRow{AttackID: id, Role: role, TradeEvent: *t})
	}
	return rows
}
