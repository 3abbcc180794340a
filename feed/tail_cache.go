package feed

import (
	"sync"
	"time"

	"mevscan/types"
)

// TailCache retains the tail of the previous trade batch so that scan
// windows spanning a batch boundary are still seen by the scanner. The span
// must cover the largest configured window duration.
type TailCache struct {
	mu   sync.Mutex
	span time.Duration
	tail types.TradeEvents
}

func NewTailCache(span time.Duration) *TailCache {
	return &TailCache{span: span}
}

// Extend prepends the retained tail to the batch and remembers the new tail.
// The returned sequence is what the scanner should see.
func (c *TailCache) Extend(batch types.TradeEvents) types.TradeEvents {
	c.mu.Lock()
	defer c.mu.Unlock()

	combined := make(types.TradeEvents, 0, len(c.tail)+len(batch))
	combined = append(combined, c.tail...)
	combined = append(combined, batch...)

	c.tail = tailWithin(combined, c.span)
	return combined
}

// Tail returns a copy of the currently retained tail.
func (c *TailCache) Tail() types.TradeEvents {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(types.TradeEvents, len(c.tail))
	copy(out, c.tail)
	return out
}

func tailWithin(trades types.TradeEvents, span time.Duration) types.TradeEvents {
	if len(trades) == 0 {
		return nil
	}
	cutoff := trades[len(trades)-1].Timestamp.Add(-span)
	for i, t := range trades {
		if !t.Timestamp.Before(cutoff) {
			tail := make(types.TradeEvents, len(trades)-i)
			copy(tail, trades[i:])
			return tail
		}
	}
	return nil
}
