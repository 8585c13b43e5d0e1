// Package app wires the swapgate components together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/bank"
	"github.com/mselser95/swapgate/internal/circuitbreaker"
	"github.com/mselser95/swapgate/internal/gate"
	"github.com/mselser95/swapgate/internal/oracle"
	"github.com/mselser95/swapgate/internal/prover"
	"github.com/mselser95/swapgate/internal/settlement"
	"github.com/mselser95/swapgate/internal/storage"
	"github.com/mselser95/swapgate/internal/venue"
	"github.com/mselser95/swapgate/pkg/cache"
	"github.com/mselser95/swapgate/pkg/config"
	"github.com/mselser95/swapgate/pkg/healthprobe"
	"github.com/mselser95/swapgate/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	thresholds    *admin.Store
	ledger        *bank.Bank
	market        *venue.SimVenue
	engine        *settlement.Engine
	oracleFeed    *oracle.Feed // nil in fixed mode
	store         storage.Storage
	verdictCache  cache.Cache
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	thresholds, err := setupThresholds(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup thresholds: %w", err)
	}

	verdictCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	priceOracle, feed, err := setupOracle(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup oracle: %w", err)
	}

	verifier := setupVerifier(cfg, logger, verdictCache)

	pipeline, err := gate.New(&gate.Config{
		Oracle:    priceOracle,
		Verifier:  verifier,
		CircuitID: cfg.Circuit(),
		Logger:    logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup pipeline: %w", err)
	}

	ledger := bank.New(logger)

	market, err := venue.NewSim(&venue.SimConfig{
		Identity:   cfg.Venue(),
		Pipeline:   pipeline,
		Thresholds: thresholds,
		Bank:       ledger,
		Logger:     logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup venue: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		FailureLimit: cfg.BreakerFailureLimit,
		Cooldown:     cfg.BreakerCooldown,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup breaker: %w", err)
	}

	engine, err := settlement.New(&settlement.Config{
		Account:  EngineAccount(cfg.Operator()),
		Operator: cfg.Operator(),
		Venue:    market,
		Bank:     ledger,
		Storage:  store,
		Breaker:  breaker,
		Logger:   logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup engine: %w", err)
	}

	market.Bind(engine, engine.Account())

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Engine:        engine,
		Thresholds:    thresholds,
		AdminToken:    cfg.AdminToken,
		AdminIdentity: cfg.AdminAddress,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		thresholds:    thresholds,
		ledger:        ledger,
		market:        market,
		engine:        engine,
		oracleFeed:    feed,
		store:         store,
		verdictCache:  verdictCache,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Engine exposes the settlement engine for one-shot commands.
func (a *App) Engine() *settlement.Engine { return a.engine }

// Venue exposes the simulated venue for one-shot commands.
func (a *App) Venue() *venue.SimVenue { return a.market }

// Bank exposes the asset ledger for one-shot commands.
func (a *App) Bank() *bank.Bank { return a.ledger }

// EngineAccount derives the engine's custody account from the operator
// identity. Distinct from every configured identity by construction.
func EngineAccount(operator common.Address) common.Address {
	digest := crypto.Keccak256([]byte("swapgate/engine"), operator.Bytes())
	return common.BytesToAddress(digest[12:])
}

func setupThresholds(cfg *config.Config, logger *zap.Logger) (*admin.Store, error) {
	days, err := config.ParseTradingDays(cfg.TradingDays)
	if err != nil {
		return nil, err
	}

	return admin.NewStore(cfg.Admin(), admin.Thresholds{
		StartHour:        cfg.TradingStartHour,
		EndHour:          cfg.TradingEndHour,
		TradingDays:      days,
		MaxImpactBps:     cfg.MaxImpactBps,
		MaxDeviationBps:  cfg.MaxDeviationBps,
		MaxVolatilityBps: cfg.MaxVolatilityBps,
		OracleStaleness:  cfg.OracleStaleness,
	}, logger)
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupOracle(cfg *config.Config, logger *zap.Logger) (oracle.PriceOracle, *oracle.Feed, error) {
	if cfg.OracleMode == "feed" {
		feed, err := oracle.NewFeed(oracle.FeedConfig{
			URL:      cfg.OracleFeedURL,
			Inverted: cfg.OracleInverted,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return feed, feed, nil
	}

	price, ok := new(big.Int).SetString(cfg.OracleFixedPrice, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid ORACLE_FIXED_PRICE %q", cfg.OracleFixedPrice)
	}

	fixed := oracle.NewFixed(oracle.Quote{
		Price:     price,
		Decimals:  int32(cfg.OracleFixedDecimals),
		UpdatedAt: time.Now(),
		Inverted:  cfg.OracleInverted,
	})

	return fixed, nil, nil
}

func setupVerifier(cfg *config.Config, logger *zap.Logger, verdictCache cache.Cache) prover.Verifier {
	client := prover.NewClient(cfg.ProverURL, cfg.ProverTimeout, logger)
	return prover.NewCached(client, verdictCache, 10*time.Minute)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}

	return storage.NewConsoleStorage(logger), nil
}
