package config

import "time"

// Path config
const (
	LogPath    = "./logs/"
	ConfigPath = "./"
)

// Network config
const (
	DefaultRetryTimes    = 3
	DefaultRetryInterval = 50 * time.Millisecond
	DefaultTimeout       = 20 * time.Second
)

// Fetch config
const (
	FEED_FETCH_BATCH_SIZE = 5000            // trade events per feed page
	FEED_FETCH_INTERVAL   = 5 * time.Second // polling interval of the ingest loop

	// The feed tail cache keeps the end of the previous batch so that scan
	// windows spanning a batch boundary are not lost. Must cover the
	// largest configured window duration.
	FEED_TAIL_CACHE_SPAN = 30 * time.Second

	BUNDLE_FETCH_LIMIT    = 1000
	BUNDLE_FETCH_INTERVAL = 10 * time.Second
)

// Detection config
const (
	SCAN_POOL_PARALLEL_NUM = 8 // pools scanned concurrently in one batch

	// Window Scanner defaults
	DETECT_MIN_TRADES       = 3
	DETECT_MAX_VICTIM_RATIO = 0.95 // reject windows dominated by aggregator-routed victims

	// Classifier defaults
	DETECT_DECISION_MARGIN = 0.15 // scores closer than this are labeled ambiguous
	DETECT_CYCLE_TOLERANCE = 1e-3 // max |net balance| for a token leg to count as closed

	// Fat-sandwich weights
	WEIGHT_WRAPPED_VICTIM      = 0.35
	WEIGHT_TOKEN_CONCENTRATION = 0.25
	WEIGHT_LOW_POOL_DIVERSITY  = 0.20
	WEIGHT_EXTERNAL_SIGNAL     = 0.20

	// Multi-hop weights
	WEIGHT_CYCLE_ROUTING       = 0.35
	WEIGHT_MANY_TOKEN_PAIRS    = 0.25
	WEIGHT_HIGH_POOL_DIVERSITY = 0.20
	WEIGHT_ZERO_VICTIMS        = 0.20

	// Dedup cache for cluster keys across batches
	CLUSTER_DEDUP_CACHE_CAPACITY = 100000
)

// DefaultWindows are the scan window durations tried for every pool.
func DefaultWindows() []time.Duration {
	return []time.Duration{
		1 * time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
	}
}
