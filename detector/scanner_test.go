package detector

import (
	"errors"
	"testing"
	"time"

	"mevscan/types"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Unix(1700000000, 0).UTC()

func mkTrade(signer string, offsetMs int64, pool, tokenIn, tokenOut string, amtIn, amtOut float64) *types.TradeEvent {
	return &types.TradeEvent{
		Signer:    signer,
		Timestamp: baseTime.Add(time.Duration(offsetMs) * time.Millisecond),
		Pool:      pool,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  amtIn,
		AmountOut: amtOut,
		Slot:      uint64(350000000 + offsetMs/400),
	}
}

// sandwichTrades is the minimal front/victim/back shape: A round-trips X<->Y
// with one victim in between, all in pool P.
func sandwichTrades() types.TradeEvents {
	return types.TradeEvents{
		mkTrade("attacker", 0, "P", "X", "Y", 100, 50),
		mkTrade("victim", 1000, "P", "Y", "Z", 10, 20),
		mkTrade("attacker", 1800, "P", "Y", "X", 40, 110),
	}
}

func scanOne(t *testing.T, trades types.TradeEvents, cfg Config) []*types.CandidateCluster {
	t.Helper()
	s := &WindowScanner{Pool: "P", Trades: trades, Config: cfg}
	require.NoError(t, s.Find())
	return s.Clusters
}

func TestWindowScanner_BasicSandwich(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second}

	clusters := scanOne(t, sandwichTrades(), cfg)
	require.Len(t, clusters, 1)

	c := clusters[0]
	require.Equal(t, "attacker", c.AttackerSigner)
	require.Equal(t, 1, c.VictimCount())
	require.Equal(t, "victim", c.VictimTrades[0].Signer)
	require.Equal(t, 2*time.Second, c.WindowSeconds)
}

// Structural invariants of every emitted cluster: A-B-A shape, window
// containment, victim ratio bound, token-pair reversal.
func TestWindowScanner_EmittedClusterInvariants(t *testing.T) {
	cfg := DefaultConfig()

	trades := types.TradeEvents{
		mkTrade("bot1", 0, "P", "X", "Y", 100, 50),
		mkTrade("u1", 300, "P", "X", "Y", 5, 2),
		mkTrade("u2", 700, "P", "Y", "X", 2, 5),
		mkTrade("bot1", 1200, "P", "Y", "X", 50, 104),
		mkTrade("u3", 4000, "P", "X", "Y", 7, 3),
		mkTrade("bot2", 6000, "P", "X", "Y", 80, 40),
		mkTrade("u4", 6500, "P", "X", "Y", 9, 4),
		mkTrade("bot2", 7400, "P", "Y", "X", 40, 83),
	}

	clusters := scanOne(t, trades, cfg)
	require.NotEmpty(t, clusters)

	for _, c := range clusters {
		first, last := c.First(), c.Last()
		require.Equal(t, c.AttackerSigner, first.Signer)
		require.Equal(t, c.AttackerSigner, last.Signer)

		require.LessOrEqual(t, last.Timestamp.Sub(first.Timestamp), c.WindowSeconds)

		ratio := float64(c.VictimCount()) / float64(len(c.Trades))
		require.LessOrEqual(t, ratio, cfg.MaxVictimRatio)

		require.Equal(t, first.TokenIn, last.TokenOut)
		require.Equal(t, first.TokenOut, last.TokenIn)

		for _, v := range c.VictimTrades {
			require.NotEqual(t, c.AttackerSigner, v.Signer)
		}
	}
}

func TestWindowScanner_InteriorAttackerTradesTolerated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{5 * time.Second}

	trades := types.TradeEvents{
		mkTrade("attacker", 0, "P", "X", "Y", 60, 30),
		mkTrade("attacker", 400, "P", "X", "Y", 40, 20),
		mkTrade("victim", 900, "P", "X", "Y", 5, 2),
		mkTrade("attacker", 1500, "P", "Y", "X", 50, 103),
	}

	clusters := scanOne(t, trades, cfg)
	require.NotEmpty(t, clusters)
	// The interior attacker trade is tolerated but is not a victim.
	require.Equal(t, 1, clusters[0].VictimCount())
	require.Len(t, clusters[0].Trades, 4)
}

func TestWindowScanner_NoVictimsNoCluster(t *testing.T) {
	cfg := DefaultConfig()

	trades := types.TradeEvents{
		mkTrade("attacker", 0, "P", "X", "Y", 60, 30),
		mkTrade("attacker", 400, "P", "X", "Y", 40, 20),
		mkTrade("attacker", 900, "P", "Y", "X", 50, 101),
	}

	require.Empty(t, scanOne(t, trades, cfg))
}

func TestWindowScanner_VictimRatioRejection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second}
	cfg.MaxVictimRatio = 0.3

	// 1 victim out of 3 trades = 0.333 > 0.3
	require.Empty(t, scanOne(t, sandwichTrades(), cfg))

	cfg.MaxVictimRatio = 0.34
	require.Len(t, scanOne(t, sandwichTrades(), cfg), 1)
}

func TestWindowScanner_TokenReversalRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second}

	// Same direction twice: a coincidental repeat, not a round trip.
	trades := types.TradeEvents{
		mkTrade("attacker", 0, "P", "X", "Y", 100, 50),
		mkTrade("victim", 1000, "P", "X", "Y", 10, 5),
		mkTrade("attacker", 1800, "P", "X", "Y", 90, 45),
	}
	require.Empty(t, scanOne(t, trades, cfg))
}

func TestWindowScanner_WindowContainment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{1 * time.Second}

	// Back trade at 1800ms is outside the 1s window of the front trade.
	require.Empty(t, scanOne(t, sandwichTrades(), cfg))
}

func TestWindowScanner_DuplicatesAcrossWindowDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

	// The same physical attack is re-detected once per window duration;
	// the scanner does not deduplicate, the caller does.
	clusters := scanOne(t, sandwichTrades(), cfg)
	require.Len(t, clusters, 3)

	deduped := DedupClusters(clusters)
	require.Len(t, deduped, 1)
	require.Equal(t, clusters[0].Key(), clusters[1].Key())
	require.Equal(t, clusters[0].Key(), clusters[2].Key())
}

func TestWindowScanner_UnsortedInputFailsFast(t *testing.T) {
	cfg := DefaultConfig()

	trades := sandwichTrades()
	trades[1], trades[2] = trades[2], trades[1]

	s := &WindowScanner{Pool: "P", Trades: trades, Config: cfg}
	err := s.Find()
	require.Error(t, err)

	var orderErr *DataOrderingError
	require.True(t, errors.As(err, &orderErr))
	require.Equal(t, "P", orderErr.Pool)
	require.Equal(t, 2, orderErr.Index)
	require.Empty(t, s.Clusters)
}

func TestWindowScanner_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	trades := sandwichTrades()

	first := scanOne(t, trades, cfg)
	second := scanOne(t, trades, cfg)
	require.Equal(t, first, second)
}

func TestRouteScanner_ArbitrageCycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second}

	trades := types.TradeEvents{
		mkTrade("arb", 0, "P1", "X", "Y", 100, 50),
		mkTrade("arb", 500, "P2", "Y", "Z", 50, 200),
		mkTrade("arb", 900, "P3", "Z", "X", 200, 101),
	}

	s := &RouteScanner{Trades: trades, Config: cfg}
	require.NoError(t, s.Find())
	require.Len(t, s.Clusters, 1)

	c := s.Clusters[0]
	require.Equal(t, "arb", c.AttackerSigner)
	require.Equal(t, 0, c.VictimCount())
	require.Equal(t, 3, c.Trades.UniquePools().Cardinality())
}

func TestRouteScanner_BrokenChainRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Windows = []time.Duration{2 * time.Second}

	// Second leg starts in W, not in the Y the first leg produced.
	trades := types.TradeEvents{
		mkTrade("arb", 0, "P1", "X", "Y", 100, 50),
		mkTrade("arb", 500, "P2", "W", "Z", 50, 200),
		mkTrade("arb", 900, "P3", "Z", "X", 200, 101),
	}

	s := &RouteScanner{Trades: trades, Config: cfg}
	require.NoError(t, s.Find())
	require.Empty(t, s.Clusters)
}
