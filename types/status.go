package types

import "time"

// PoolScanStatus tracks ingestion and scan progress for one pool.
type PoolScanStatus struct {
	Pool           string    `ch:"pool"`
	TradesFetched  bool      `ch:"tradesFetched"`
	TradeCount     uint64    `ch:"tradeCount"`
	LastTradeTime  time.Time `ch:"lastTradeTime"`
	Scanned        bool      `ch:"scanned"`
	ClusterCount   uint64    `ch:"clusterCount"`
	AttackCount    uint64    `ch:"attackCount"`
	AmbiguousCount uint64    `ch:"ambiguousCount"`
}

type PoolScanStatuses []*PoolScanStatus
