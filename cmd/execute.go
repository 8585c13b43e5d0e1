package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/app"
	"github.com/mselser95/swapgate/internal/bank"
	"github.com/mselser95/swapgate/internal/gate"
	"github.com/mselser95/swapgate/internal/oracle"
	"github.com/mselser95/swapgate/internal/settlement"
	"github.com/mselser95/swapgate/internal/storage"
	"github.com/mselser95/swapgate/internal/venue"
	"github.com/mselser95/swapgate/pkg/codec"
	"github.com/mselser95/swapgate/pkg/config"
	"github.com/mselser95/swapgate/pkg/types"
	"github.com/spf13/cobra"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run a single paper trade through the gate and settlement path",
	Long: `Runs one trade against an in-memory venue with paper balances.

The command seeds a pool from the given sqrt price and liquidity, mints the
operator enough input funds, encodes the volatility attestation into the
trade payload, and prints the resulting execution record. Proof
verification is stubbed to accept; every other check runs for real.`,
	RunE: runExecute,
}

var (
	execInput      string
	execOutput     string
	execAmount     string
	execMaxInput   string
	execPriceLimit string
	execSqrtPrice  string
	execLiquidity  string
	execVolatility uint64
	execOraclePx   string
)

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().StringVar(&execInput, "input", "0x0000000000000000000000000000000000000a11", "Input asset address")
	executeCmd.Flags().StringVar(&execOutput, "output", "0x0000000000000000000000000000000000000b22", "Output asset address")
	executeCmd.Flags().StringVar(&execAmount, "amount", "1000000", "Signed amount: positive sells input, negative buys output")
	executeCmd.Flags().StringVar(&execMaxInput, "max-input", "0", "Input spend ceiling for exact-output trades")
	executeCmd.Flags().StringVar(&execPriceLimit, "price-limit", "0", "Worst acceptable output-per-input ratio, 1e18 scale (0 disables)")
	executeCmd.Flags().StringVar(&execSqrtPrice, "sqrt-price", "79228162514264337593543950336", "Pool sqrt price, Q64.96")
	executeCmd.Flags().StringVar(&execLiquidity, "liquidity", "1000000000", "Pool active liquidity")
	executeCmd.Flags().Uint64Var(&execVolatility, "volatility-bps", 500, "Attested volatility in basis points")
	executeCmd.Flags().StringVar(&execOraclePx, "oracle-price", "1000000000000000000", "Oracle price, 1e18 scale")
}

// acceptAllVerifier stands in for the remote prover in paper trading.
type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(_ context.Context, _ common.Hash, _, _ []byte) (bool, error) {
	return true, nil
}

func runExecute(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	amount, err := parseBig(execAmount, "amount")
	if err != nil {
		return err
	}
	maxInput, err := parseBig(execMaxInput, "max-input")
	if err != nil {
		return err
	}
	priceLimit, err := parseBig(execPriceLimit, "price-limit")
	if err != nil {
		return err
	}
	sqrtPrice, err := parseBig(execSqrtPrice, "sqrt-price")
	if err != nil {
		return err
	}
	liquidity, err := parseBig(execLiquidity, "liquidity")
	if err != nil {
		return err
	}
	oraclePrice, err := parseBig(execOraclePx, "oracle-price")
	if err != nil {
		return err
	}

	days, err := config.ParseTradingDays(cfg.TradingDays)
	if err != nil {
		return fmt.Errorf("parse trading days: %w", err)
	}

	thresholds, err := admin.NewStore(cfg.Admin(), admin.Thresholds{
		StartHour:        cfg.TradingStartHour,
		EndHour:          cfg.TradingEndHour,
		TradingDays:      days,
		MaxImpactBps:     cfg.MaxImpactBps,
		MaxDeviationBps:  cfg.MaxDeviationBps,
		MaxVolatilityBps: cfg.MaxVolatilityBps,
		OracleStaleness:  cfg.OracleStaleness,
	}, logger)
	if err != nil {
		return fmt.Errorf("build thresholds: %w", err)
	}

	fixed := oracle.NewFixed(oracle.Quote{
		Price:     oraclePrice,
		Decimals:  18,
		UpdatedAt: time.Now(),
	})

	pipeline, err := gate.New(&gate.Config{
		Oracle:    fixed,
		Verifier:  acceptAllVerifier{},
		CircuitID: cfg.Circuit(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
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
		return fmt.Errorf("build venue: %w", err)
	}

	engine, err := settlement.New(&settlement.Config{
		Account:  app.EngineAccount(cfg.Operator()),
		Operator: cfg.Operator(),
		Venue:    market,
		Bank:     ledger,
		Storage:  storage.NewConsoleStorage(logger),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	market.Bind(engine, engine.Account())

	facts, err := codec.EncodeAttestedFacts(types.AttestedFacts{
		VolatilityBps: execVolatility,
		ObservedAt:    uint64(time.Now().Unix()),
	})
	if err != nil {
		return fmt.Errorf("encode attested facts: %w", err)
	}
	payload, err := codec.EncodeAuxPayload([]byte{0x01}, facts)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &types.TradeRequest{
		InputAsset:     common.HexToAddress(execInput),
		OutputAsset:    common.HexToAddress(execOutput),
		Amount:         amount,
		MaxInput:       maxInput,
		PriceLimit1e18: priceLimit,
		FeeBps:         uint32(cfg.DefaultFeeBps),
		TickSpacing:    int32(cfg.DefaultTickSpacing),
		AuxPayload:     payload,
	}

	market.SetPool(req.MarketKeyOf(), types.PoolState{
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
	})

	// Fund the operator with enough input to cover either trade shape.
	budget := new(big.Int).Abs(amount)
	if maxInput.Sign() > 0 && maxInput.Cmp(budget) > 0 {
		budget = maxInput
	}
	funding := new(big.Int).Mul(budget, big.NewInt(2))
	err = ledger.Mint(cfg.Operator(), req.InputAsset, funding)
	if err != nil {
		return fmt.Errorf("mint paper funds: %w", err)
	}

	record, err := engine.Execute(cmd.Context(), cfg.Operator(), req)
	if err != nil {
		fmt.Printf("execution failed: %v\n", err)
	}
	if record != nil {
		fmt.Printf("\n=== Execution Record ===\n")
		fmt.Printf("ID:        %s\n", record.ID)
		fmt.Printf("Market:    %s\n", record.MarketKey.Hex())
		fmt.Printf("Outcome:   %s\n", record.Outcome)
		if record.Reason != "" {
			fmt.Printf("Reason:    %s\n", record.Reason)
		}
		if record.InputPaid != nil {
			fmt.Printf("Input:     -%s\n", record.InputPaid)
		}
		if record.OutputRecv != nil {
			fmt.Printf("Output:    +%s\n", record.OutputRecv)
		}
		fmt.Printf("Duration:  %s\n", record.FinishedAt.Sub(record.StartedAt))
	}

	fmt.Printf("\n=== Final Balances ===\n")
	fmt.Printf("Operator %s: %s\n", execInput, ledger.BalanceOf(cfg.Operator(), req.InputAsset))
	fmt.Printf("Operator %s: %s\n", execOutput, ledger.BalanceOf(cfg.Operator(), req.OutputAsset))

	return nil
}

func parseBig(s, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid --%s value %q", name, s)
	}
	return v, nil
}
