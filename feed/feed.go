package feed

import (
	"fmt"
	"strconv"

	"mevscan/config"
	"mevscan/logger"
	"mevscan/types"
	"mevscan/utils"

	"github.com/spf13/viper"
)

// FeedURL overrides the configured endpoint, mainly for tests.
var FeedURL string

func getFeedURL() string {
	if FeedURL != "" {
		return FeedURL
	}
	return viper.GetString("feed.url")
}

// tradePage is the wire shape of one feed response page.
type tradePage struct {
	Trades  types.TradeEvents `json:"trades"`
	HasMore bool              `json:"hasMore"`
}

// FetchTradeEvents pulls up to limit trade events after the given unix-ms
// cursor. The feed returns trades sorted by timestamp ascending; ordering is
// re-checked by the scanner, never assumed.
func FetchTradeEvents(afterMs int64, limit int) (types.TradeEvents, bool, error) {
	url := getFeedURL()
	if url == "" {
		return nil, false, fmt.Errorf("feed.url is not configured")
	}

	params := map[string]string{
		"after": strconv.FormatInt(afterMs, 10),
		"limit": strconv.Itoa(limit),
	}

	var page tradePage
	err := utils.GetUrlResponseWithRetry(url, params, &page, config.DefaultRetryTimes, logger.FeedLogger)
	if err != nil {
		return nil, false, fmt.Errorf("trade feed fetch failed: %w", err)
	}

	return page.Trades, page.HasMore, nil
}
