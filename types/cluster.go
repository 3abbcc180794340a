package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CandidateCluster is a time-bounded sub-sequence of trades considered
// together as one candidate event: front trade, interior trade(s), back
// trade, where front and back share the attacker signer (A-B-A shape).
// Interior trades by the attacker are tolerated but do not count as victims.
type CandidateCluster struct {
	Trades         TradeEvents
	AttackerSigner string
	VictimTrades   TradeEvents

	// WindowSeconds is the duration of the scan window that produced this
	// cluster. Different window durations may emit duplicates of the same
	// physical attack; deduplication is the caller's concern.
	WindowSeconds time.Duration
}

// First returns the front trade of the cluster.
func (c *CandidateCluster) First() *TradeEvent { return c.Trades[0] }

// Last returns the back trade of the cluster.
func (c *CandidateCluster) Last() *TradeEvent { return c.Trades[len(c.Trades)-1] }

// VictimCount is the number of interior trades not signed by the attacker.
func (c *CandidateCluster) VictimCount() int { return len(c.VictimTrades) }

// Key identifies the physical attack independently of the window duration
// that detected it: (pools, attacker, first timestamp, last timestamp).
func (c *CandidateCluster) Key() string {
	pools := c.Trades.UniquePools().ToSlice()
	sort.Strings(pools)
	return fmt.Sprintf("%s|%s|%d|%d",
		strings.Join(pools, ","),
		c.AttackerSigner,
		c.First().Timestamp.UnixMilli(),
		c.Last().Timestamp.UnixMilli(),
	)
}

// ID is a stable hash of the cluster key, used as the row id in storage.
func (c *CandidateCluster) ID() string {
	h := sha256.Sum256([]byte(c.Key()))
	return hex.EncodeToString(h[:])
}
