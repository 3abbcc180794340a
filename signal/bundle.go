package signal

import (
	"fmt"
	"sync"
	"time"

	"mevscan/config"
	"mevscan/detector"
	"mevscan/logger"
	"mevscan/types"
	"mevscan/utils"

	MapSet "github.com/deckarep/golang-set/v2"
	"github.com/spf13/viper"
)

// BundleSignal feeds the optional external term of the fat-sandwich score:
// an attacker whose signer recently landed trades through a known MEV-bundle
// relay is much more likely to be running a deliberate sandwich than a
// coincidental round-trip.
//
// Entirely optional; when no endpoint is configured the classifier simply
// receives 0 for every cluster.
type BundleSignal struct {
	mu          sync.RWMutex
	signers     MapSet.Set[string]
	seen        *utils.KeyCache // bundle ids already folded into signers
	lastRefresh time.Time
}

// bundleQuery is the relay request body.
type bundleQuery struct {
	Limit int `json:"limit"`
}

// bundleRecord is the wire shape of one relay bundle.
type bundleRecord struct {
	BundleID string   `json:"bundleId"`
	Signers  []string `json:"signers"`
}

func NewBundleSignal() *BundleSignal {
	return &BundleSignal{
		signers: MapSet.NewSet[string](),
		seen:    utils.NewKeyCache(config.CLUSTER_DEDUP_CACHE_CAPACITY),
	}
}

// Refresh pulls the most recent bundles from the configured relay endpoint
// and folds their signers into the membership set.
func (s *BundleSignal) Refresh() error {
	url := viper.GetString("bundles.api")
	if url == "" {
		return fmt.Errorf("bundles.api is not configured")
	}

	var bundles []bundleRecord
	query := bundleQuery{Limit: config.BUNDLE_FETCH_LIMIT}
	err := utils.PostUrlResponseWithRetry(url, query, &bundles, config.DefaultRetryTimes, logger.FeedLogger)
	if err != nil {
		return fmt.Errorf("bundle fetch failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := 0
	for _, b := range bundles {
		if s.seen.Seen(b.BundleID) {
			continue
		}
		fresh++
		for _, signer := range b.Signers {
			s.signers.Add(signer)
		}
	}
	s.lastRefresh = time.Now()
	logger.FeedLogger.Info("Refreshed bundle signal", "bundles", len(bundles), "fresh", fresh, "signers", s.signers.Cardinality())
	return nil
}

// RefreshIfStale re-pulls the relay when the last successful pull is older
// than maxAge. Long-running callers invoke this once per batch.
func (s *BundleSignal) RefreshIfStale(maxAge time.Duration) error {
	s.mu.RLock()
	fresh := time.Since(s.lastRefresh) < maxAge
	s.mu.RUnlock()
	if fresh {
		return nil
	}
	return s.Refresh()
}

// Score returns 1.0 if the cluster's attacker is a known bundle signer.
func (s *BundleSignal) Score(c *types.CandidateCluster) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signers.Contains(c.AttackerSigner) {
		return 1.0
	}
	return 0.0
}

// Func adapts the signal to the classifier's hook.
func (s *BundleSignal) Func() detector.ExternalSignalFunc {
	return s.Score
}
