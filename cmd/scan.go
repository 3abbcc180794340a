package cmd

import (
	"time"

	"mevscan/config"
	"mevscan/db"
	"mevscan/detector"
	"mevscan/logger"
	"mevscan/signal"
	"mevscan/types"
	"mevscan/utils"

	"github.com/spf13/cobra"
)

var (
	scanHours   uint
	scanBundles bool
)

var scanCmd = cobra.Command{
	Use:   "scan",
	Short: "Scan stored trade events for sandwich and arbitrage clusters and store classified attacks",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("scan")

		if scanHours == 0 {
			logger.ScanLogger.Error("lookback must be at least 1 hour")
			return
		}

		logger.ScanLogger.Info("Running cmd scan", "lookback_hours", scanHours, "use_bundles", scanBundles)

		if err := runScan(); err != nil {
			logger.ScanLogger.Error("Error running scan command", "err", err)
		}
	},
}

func runScan() error {
	ch := db.NewClickhouse()
	defer ch.Close()

	cfg := detector.DefaultConfig()
	if scanBundles {
		bundles := signal.NewBundleSignal()
		if err := bundles.Refresh(); err != nil {
			// The external signal is optional evidence; scan without it.
			logger.ScanLogger.Warn("Bundle signal unavailable, scanning without it", "err", err)
		} else {
			cfg.ExternalSignal = bundles.Func()
		}
	}

	pipeline, err := detector.NewPipeline(cfg, logger.ScanLogger)
	if err != nil {
		return err
	}

	to := time.Now()
	from := to.Add(-time.Duration(scanHours) * time.Hour)
	trades, err := ch.QueryTradeEvents(from, to)
	if err != nil {
		return err
	}
	logger.ScanLogger.Info("Loaded trade events", "from", from, "to", to, "num_trades", len(trades))

	scanTimeBefore := time.Now()
	res := pipeline.Detect(trades)
	logger.ScanLogger.Info("Detection done",
		"num_clusters", len(res.Clusters),
		"num_attacks", len(res.Attacks),
		"scan_time", time.Since(scanTimeBefore).String())
	if err := res.Err(); err != nil {
		logger.ScanLogger.Warn("Some pools or clusters failed", "err", err)
	}

	// Different window durations re-detect the same physical attack;
	// dedup before insertion.
	dedup := utils.NewKeyCache(config.CLUSTER_DEDUP_CACHE_CAPACITY)
	attacks := make([]*types.ClassifiedAttack, 0, len(res.Attacks))
	for _, a := range res.Attacks {
		if dedup.Seen(a.Cluster.Key()) {
			continue
		}
		attacks = append(attacks, a)
	}
	logger.ScanLogger.Info("Deduplicated attacks", "before", len(res.Attacks), "after", len(attacks))

	if err := ch.InsertAttacks(attacks); err != nil {
		return err
	}
	if err := ch.InsertPoolStatuses(buildPoolStatuses(trades, res, attacks)); err != nil {
		return err
	}
	logger.ScanLogger.Info("Stored attacks", "num_attacks", len(attacks))
	return nil
}

func buildPoolStatuses(trades types.TradeEvents, res *detector.Result, attacks []*types.ClassifiedAttack) types.PoolScanStatuses {
	pools, byPool := trades.SplitByPool()

	statuses := make(types.PoolScanStatuses, 0, len(pools))
	byName := make(map[string]*types.PoolScanStatus, len(pools))
	for _, pool := range pools {
		seq := byPool[pool]
		s := &types.PoolScanStatus{
			Pool:          pool,
			TradesFetched: true,
			TradeCount:    uint64(len(seq)),
			LastTradeTime: seq[len(seq)-1].Timestamp,
			Scanned:       res.PoolErrors[pool] == nil,
		}
		statuses = append(statuses, s)
		byName[pool] = s
	}

	for _, c := range res.Clusters {
		if s, ok := byName[c.First().Pool]; ok {
			s.ClusterCount++
		}
	}
	for _, a := range attacks {
		s, ok := byName[a.Cluster.First().Pool]
		if !ok {
			continue
		}
		if a.AttackType == types.AttackAmbiguous {
			s.AmbiguousCount++
		} else {
			s.AttackCount++
		}
	}
	return statuses
}

func init() {
	scanCmd.Flags().UintVarP(&scanHours, "hours", "t", 24, "lookback window in hours")
	scanCmd.Flags().BoolVar(&scanBundles, "bundles", false, "use the MEV-bundle membership signal if configured")
	RootCmd.AddCommand(&scanCmd)
}
