package oracle

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Feed is a websocket price-feed adapter. It maintains the latest quote from
// a streaming feed and reconnects with exponential backoff when the
// connection drops.
type Feed struct {
	url      string
	inverted bool
	logger   *zap.Logger

	dialTimeout  time.Duration
	initialDelay time.Duration
	maxDelay     time.Duration
	backoffMult  float64

	mu     sync.RWMutex
	latest Quote
	seen   bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// FeedConfig holds feed adapter configuration.
type FeedConfig struct {
	URL      string
	Inverted bool
	Logger   *zap.Logger

	DialTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
}

// feedMessage is the wire shape of one price update.
type feedMessage struct {
	Price     string `json:"price"`
	Decimals  int32  `json:"decimals"`
	UpdatedAt int64  `json:"updated_at"`
}

// NewFeed creates a websocket feed adapter.
func NewFeed(cfg FeedConfig) (*Feed, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed URL cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	feed := &Feed{
		url:          cfg.URL,
		inverted:     cfg.Inverted,
		logger:       cfg.Logger,
		dialTimeout:  cfg.DialTimeout,
		initialDelay: cfg.ReconnectInitialDelay,
		maxDelay:     cfg.ReconnectMaxDelay,
		backoffMult:  cfg.ReconnectBackoffMult,
	}

	if feed.dialTimeout <= 0 {
		feed.dialTimeout = 10 * time.Second
	}
	if feed.initialDelay <= 0 {
		feed.initialDelay = time.Second
	}
	if feed.maxDelay <= 0 {
		feed.maxDelay = 30 * time.Second
	}
	if feed.backoffMult < 1 {
		feed.backoffMult = 2.0
	}

	return feed, nil
}

// Start begins consuming the feed until the context is cancelled.
func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run(ctx)
}

// Close stops the feed and waits for the consumer loop to exit.
func (f *Feed) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	return nil
}

// LatestPrice returns the most recent quote seen on the feed.
func (f *Feed) LatestPrice(_ context.Context) (Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.seen {
		return Quote{}, fmt.Errorf("no price received yet")
	}
	return f.latest, nil
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	backoff := f.initialDelay
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("oracle-feed-stopping")
			return
		default:
		}

		err := f.consume(ctx)
		if err != nil && ctx.Err() == nil {
			f.logger.Warn("oracle-feed-disconnected", zap.Error(err))
			FeedReconnectsTotal.Inc()

			// Backoff with 20% jitter before redialing.
			jitter := time.Duration(rand.Int63n(int64(backoff)/5 + 1))
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				return
			}

			backoff = time.Duration(float64(backoff) * f.backoffMult)
			if backoff > f.maxDelay {
				backoff = f.maxDelay
			}
			continue
		}

		backoff = f.initialDelay
	}
}

// consume dials the feed and reads updates until the connection fails.
func (f *Feed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.dialTimeout}

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	f.logger.Info("oracle-feed-connected", zap.String("url", f.url))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.logger.Warn("oracle-feed-bad-message", zap.Error(err))
			FeedBadMessagesTotal.Inc()
			continue
		}

		price, ok := new(big.Int).SetString(msg.Price, 10)
		if !ok {
			f.logger.Warn("oracle-feed-bad-price", zap.String("price", msg.Price))
			FeedBadMessagesTotal.Inc()
			continue
		}

		f.mu.Lock()
		f.latest = Quote{
			Price:     price,
			Decimals:  msg.Decimals,
			UpdatedAt: time.Unix(msg.UpdatedAt, 0),
			Inverted:  f.inverted,
		}
		f.seen = true
		f.mu.Unlock()

		FeedUpdatesTotal.Inc()
	}
}
