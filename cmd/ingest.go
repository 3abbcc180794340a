package cmd

import (
	"time"

	"mevscan/config"
	"mevscan/db"
	"mevscan/detector"
	"mevscan/feed"
	"mevscan/logger"
	"mevscan/signal"
	"mevscan/types"
	"mevscan/utils"

	"github.com/spf13/cobra"
)

var (
	ingestDetect  bool
	ingestBundles bool
)

var ingestCmd = cobra.Command{
	Use:   "ingest",
	Short: "Poll the trade feed, store trade events, and optionally detect as batches arrive",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("ingest")

		logger.FeedLogger.Info("Running cmd ingest", "detect", ingestDetect, "use_bundles", ingestBundles)

		if err := runIngest(); err != nil {
			logger.FeedLogger.Error("Error running ingest command", "err", err)
		}
	},
}

func runIngest() error {
	ch := db.NewClickhouse()
	defer ch.Close()

	// Resume from the last stored trade
	lastTime, err := ch.QueryLastTradeTime()
	if err != nil {
		logger.FeedLogger.Warn("No previous trades found, starting fresh", "err", err)
	}
	cursor := lastTime.UnixMilli()
	logger.FeedLogger.Info("Resuming ingestion", "cursor", cursor)

	var pipeline *detector.Pipeline
	var tail *feed.TailCache
	var dedup *utils.KeyCache
	var bundles *signal.BundleSignal
	if ingestDetect {
		cfg := detector.DefaultConfig()
		if ingestBundles {
			bundles = signal.NewBundleSignal()
			cfg.ExternalSignal = bundles.Func()
			if err := bundles.Refresh(); err != nil {
				logger.FeedLogger.Warn("Bundle signal unavailable, will retry on interval", "err", err)
			}
		}
		pipeline, err = detector.NewPipeline(cfg, logger.ScanLogger)
		if err != nil {
			return err
		}
		tail = feed.NewTailCache(config.FEED_TAIL_CACHE_SPAN)
		dedup = utils.NewKeyCache(config.CLUSTER_DEDUP_CACHE_CAPACITY)
	}

	for {
		batch, hasMore, err := feed.FetchTradeEvents(cursor, config.FEED_FETCH_BATCH_SIZE)
		if err != nil {
			logger.FeedLogger.Error("Failed to fetch trade events", "err", err)
			time.Sleep(config.FEED_FETCH_INTERVAL)
			continue
		}
		if len(batch) == 0 {
			logger.FeedLogger.Info("No new trades, sleeping for "+config.FEED_FETCH_INTERVAL.String(), "cursor", cursor)
			time.Sleep(config.FEED_FETCH_INTERVAL)
			continue
		}

		if err := ch.InsertTradeEvents(batch); err != nil {
			logger.FeedLogger.Error("Failed to store trade events", "err", err)
			time.Sleep(config.FEED_FETCH_INTERVAL)
			continue
		}
		cursor = batch[len(batch)-1].Timestamp.UnixMilli()
		logger.FeedLogger.Info("Stored trade events", "num_trades", len(batch), "cursor", cursor)

		if ingestDetect {
			if bundles != nil {
				if err := bundles.RefreshIfStale(config.BUNDLE_FETCH_INTERVAL); err != nil {
					logger.FeedLogger.Warn("Bundle signal refresh failed", "err", err)
				}
			}
			detectBatch(ch, pipeline, tail, dedup, batch)
		}

		if !hasMore {
			time.Sleep(config.FEED_FETCH_INTERVAL)
		}
	}
}

// detectBatch scans one feed batch inline. The tail cache prepends the end
// of the previous batch so windows spanning the boundary are not lost; the
// dedup cache drops re-detections of attacks already stored.
func detectBatch(ch db.Database, pipeline *detector.Pipeline, tail *feed.TailCache, dedup *utils.KeyCache, batch types.TradeEvents) {
	combined := tail.Extend(batch)

	// Tail prepending and overlapping feed pages can leave the combined
	// sequence out of timestamp order; the route stage needs it sorted.
	combined.SortByTime()

	res := pipeline.Detect(combined)
	if err := res.Err(); err != nil {
		logger.ScanLogger.Warn("Some pools or clusters failed", "err", err)
	}

	attacks := make([]*types.ClassifiedAttack, 0, len(res.Attacks))
	for _, a := range res.Attacks {
		if dedup.Seen(a.Cluster.Key()) {
			continue
		}
		attacks = append(attacks, a)
	}
	if len(attacks) == 0 {
		return
	}

	if err := ch.InsertAttacks(attacks); err != nil {
		logger.ScanLogger.Error("Failed to store attacks", "err", err)
		return
	}
	logger.ScanLogger.Info("Stored attacks from batch", "num_attacks", len(attacks), "num_clusters", len(res.Clusters))
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDetect, "detect", false, "run detection inline as batches arrive")
	ingestCmd.Flags().BoolVar(&ingestBundles, "bundles", false, "use the MEV-bundle membership signal if configured")
	RootCmd.AddCommand(&ingestCmd)
}
