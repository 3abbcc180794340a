package detector

import (
	"log/slog"
	"mevscan/config"
	"mevscan/types"
	"sync"
)

// Pipeline runs the two-stage detection over a combined batch of trade
// events: per-pool window scans, the cross-pool route scan, then batch
// classification. Pools share no mutable state, so their scans fan out to a
// bounded set of workers; results are merged back in first-seen pool order
// so the output is byte-identical across runs.
type Pipeline struct {
	cfg        Config
	classifier *Classifier
	parallel   int
	logger     *slog.Logger
}

// Result is the outcome of one batch. Per-pool and per-cluster failures are
// collected here instead of aborting the batch.
type Result struct {
	Attacks  []*types.ClassifiedAttack
	Clusters []*types.CandidateCluster

	PoolErrors    map[string]error
	ClusterErrors *BatchErrors
}

// Err surfaces the aggregate error summary of the batch, or nil if every
// unit succeeded.
func (r *Result) Err() error {
	agg := &BatchErrors{}
	for _, pool := range sortedKeys(r.PoolErrors) {
		agg.Add(r.PoolErrors[pool])
	}
	if !r.ClusterErrors.Empty() {
		agg.Errs = append(agg.Errs, r.ClusterErrors.Errs...)
	}
	if agg.Empty() {
		return nil
	}
	return agg
}

func NewPipeline(cfg Config, logger *slog.Logger) (*Pipeline, error) {
	classifier, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: classifier,
		parallel:   config.SCAN_POOL_PARALLEL_NUM,
		logger:     logger,
	}, nil
}

// Detect runs scan + classify over one batch of trades. The input must be
// sorted by timestamp within each pool; an unsorted pool fails alone.
func (p *Pipeline) Detect(trades types.TradeEvents) *Result {
	res := &Result{
		PoolErrors:    make(map[string]error),
		ClusterErrors: &BatchErrors{},
	}

	pools, byPool := trades.SplitByPool()

	type poolOutcome struct {
		clusters []*types.CandidateCluster
		err      error
	}
	outcomes := make(map[string]poolOutcome, len(pools))
	var mu sync.Mutex

	poolQueue := make(chan string, len(pools))
	for _, pool := range pools {
		poolQueue <- pool
	}
	close(poolQueue)

	var wg sync.WaitGroup
	workers := p.parallel
	if workers > len(pools) {
		workers = len(pools)
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for pool := range poolQueue {
				scanner := &WindowScanner{Pool: pool, Trades: byPool[pool], Config: p.cfg}
				err := scanner.Find()
				mu.Lock()
				outcomes[pool] = poolOutcome{clusters: scanner.Clusters, err: err}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Merge in first-seen pool order, not map order.
	for _, pool := range pools {
		out := outcomes[pool]
		if out.err != nil {
			p.logger.Error("Pool scan failed", "pool", pool, "err", out.err)
			res.PoolErrors[pool] = out.err
			continue
		}
		res.Clusters = append(res.Clusters, out.clusters...)
	}

	// Cross-pool route scan over the combined sequence. The combined batch
	// may interleave pools out of timestamp order even when every pool is
	// sorted; that only disables the route stage, never the pool scans.
	route := &RouteScanner{Trades: trades, Config: p.cfg}
	if err := route.Find(); err != nil {
		p.logger.Warn("Route scan skipped", "err", err)
		res.PoolErrors["combined"] = err
	} else {
		res.Clusters = append(res.Clusters, route.Clusters...)
	}

	res.Attacks, res.ClusterErrors = p.classifier.ClassifyAll(res.Clusters)
	return res
}

// DedupClusters drops duplicate detections of the same physical attack
// (same pools, attacker and time bounds, found by different window
// durations), keeping the first. The scanners themselves never deduplicate;
// this is the caller-side pass.
func DedupClusters(clusters []*types.CandidateCluster) []*types.CandidateCluster {
	seen := make(map[string]struct{}, len(clusters))
	out := make([]*types.CandidateCluster, 0, len(clusters))
	for _, c := range clusters {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort, the map is tiny
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
