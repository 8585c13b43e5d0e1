package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedUpdatesTotal tracks price updates received on the feed.
	FeedUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_oracle_feed_updates_total",
		Help: "Total number of price updates received from the oracle feed",
	})

	// FeedBadMessagesTotal tracks undecodable feed messages.
	FeedBadMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_oracle_feed_bad_messages_total",
		Help: "Total number of oracle feed messages that could not be decoded",
	})

	// FeedReconnectsTotal tracks feed reconnection attempts.
	FeedReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapgate_oracle_feed_reconnects_total",
		Help: "Total number of oracle feed reconnection attempts",
	})
)
