package feed

import (
	"testing"
	"time"

	"mevscan/types"

	"github.com/stretchr/testify/require"
)

func feedTrade(offsetMs int64) *types.TradeEvent {
	base := time.Unix(1700000000, 0).UTC()
	return &types.TradeEvent{
		Signer:    "s",
		Timestamp: base.Add(time.Duration(offsetMs) * time.Millisecond),
		Pool:      "P",
		TokenIn:   "X",
		TokenOut:  "Y",
		AmountIn:  1,
		AmountOut: 1,
	}
}

func TestTailCache_FirstBatchPassesThrough(t *testing.T) {
	c := NewTailCache(5 * time.Second)

	batch := types.TradeEvents{feedTrade(0), feedTrade(1000)}
	combined := c.Extend(batch)
	require.Equal(t, batch, combined)
	require.Equal(t, batch, c.Tail())
}

func TestTailCache_PrependsRetainedTail(t *testing.T) {
	c := NewTailCache(5 * time.Second)

	first := types.TradeEvents{feedTrade(0), feedTrade(2000), feedTrade(4000)}
	c.Extend(first)

	second := types.TradeEvents{feedTrade(6000)}
	combined := c.Extend(second)

	// Everything in the first batch is within 5s of its end, so the whole
	// batch is still ahead of the second one.
	require.Len(t, combined, 4)
	require.Equal(t, first[0], combined[0])
	require.Equal(t, second[0], combined[3])
}

func TestTailCache_DropsTradesBeyondSpan(t *testing.T) {
	c := NewTailCache(5 * time.Second)

	c.Extend(types.TradeEvents{feedTrade(0), feedTrade(10000)})

	tail := c.Tail()
	require.Len(t, tail, 1)
	require.Equal(t, feedTrade(10000), tail[0])

	combined := c.Extend(types.TradeEvents{feedTrade(12000)})
	require.Len(t, combined, 2)
	require.Equal(t, feedTrade(10000), combined[0])
}

func TestTailCache_SpanBoundaryIsInclusive(t *testing.T) {
	c := NewTailCache(5 * time.Second)

	// 5000ms is exactly span behind the last trade and is retained.
	c.Extend(types.TradeEvents{feedTrade(5000), feedTrade(10000)})
	require.Len(t, c.Tail(), 2)
}

func TestTailCache_EmptyBatch(t *testing.T) {
	c := NewTailCache(5 * time.Second)

	require.Empty(t, c.Extend(nil))
	require.Empty(t, c.Tail())

	c.Extend(types.TradeEvents{feedTrade(0)})
	combined := c.Extend(nil)
	require.Len(t, combined, 1)
}
