package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Identities
	OperatorAddress string
	VenueAddress    string
	AdminAddress    string
	AdminToken      string

	// Trading window thresholds
	TradingStartHour int
	TradingEndHour   int
	TradingDays      string // comma-separated ISO day names, e.g. "Mon,Tue,Wed,Thu,Fri"

	// Gate thresholds (basis points)
	MaxImpactBps     int64
	MaxDeviationBps  int64
	MaxVolatilityBps int64

	// Oracle
	OracleMode          string // "fixed" or "feed"
	OracleFeedURL       string
	OracleStaleness     time.Duration
	OracleInverted      bool
	OracleFixedPrice    string // decimal integer scaled by OracleFixedDecimals
	OracleFixedDecimals int

	// Prover
	ProverURL     string
	ProverTimeout time.Duration
	CircuitID     string

	// Venue defaults
	DefaultFeeBps      int64
	DefaultTickSpacing int64

	// Breaker
	BreakerFailureLimit int
	BreakerCooldown     time.Duration

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Identities
		OperatorAddress: os.Getenv("OPERATOR_ADDRESS"),
		VenueAddress:    os.Getenv("VENUE_ADDRESS"),
		AdminAddress:    os.Getenv("ADMIN_ADDRESS"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),

		// Trading window defaults: weekdays, 24h window
		TradingStartHour: getIntOrDefault("TRADING_START_HOUR", 0),
		TradingEndHour:   getIntOrDefault("TRADING_END_HOUR", 24),
		TradingDays:      getEnvOrDefault("TRADING_DAYS", "Mon,Tue,Wed,Thu,Fri"),

		// Gate threshold defaults
		MaxImpactBps:     getInt64OrDefault("MAX_IMPACT_BPS", 500),
		MaxDeviationBps:  getInt64OrDefault("MAX_DEVIATION_BPS", 200),
		MaxVolatilityBps: getInt64OrDefault("MAX_VOLATILITY_BPS", 1000),

		// Oracle defaults
		OracleMode:          getEnvOrDefault("ORACLE_MODE", "fixed"),
		OracleFeedURL:       os.Getenv("ORACLE_FEED_URL"),
		OracleStaleness:     getDurationOrDefault("ORACLE_STALENESS", time.Hour),
		OracleInverted:      getBoolOrDefault("ORACLE_INVERTED", false),
		OracleFixedPrice:    getEnvOrDefault("ORACLE_FIXED_PRICE", "1000000000000000000"),
		OracleFixedDecimals: getIntOrDefault("ORACLE_FIXED_DECIMALS", 18),

		// Prover defaults
		ProverURL:     getEnvOrDefault("PROVER_URL", "http://localhost:9090"),
		ProverTimeout: getDurationOrDefault("PROVER_TIMEOUT", 10*time.Second),
		CircuitID:     getEnvOrDefault("CIRCUIT_ID", "0x0000000000000000000000000000000000000000000000000000000000000001"),

		// Venue defaults
		DefaultFeeBps:      getInt64OrDefault("DEFAULT_FEE_BPS", 30),
		DefaultTickSpacing: getInt64OrDefault("DEFAULT_TICK_SPACING", 60),

		// Breaker defaults
		BreakerFailureLimit: getIntOrDefault("BREAKER_FAILURE_LIMIT", 3),
		BreakerCooldown:     getDurationOrDefault("BREAKER_COOLDOWN", 5*time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "swapgate"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "swapgate123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "swapgate"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.TradingStartHour < 0 || c.TradingStartHour > 23 {
		return fmt.Errorf("TRADING_START_HOUR must be in [0,23], got %d", c.TradingStartHour)
	}

	if c.TradingEndHour < 1 || c.TradingEndHour > 24 {
		return fmt.Errorf("TRADING_END_HOUR must be in [1,24], got %d", c.TradingEndHour)
	}

	if c.TradingStartHour >= c.TradingEndHour {
		return fmt.Errorf("TRADING_START_HOUR must be before TRADING_END_HOUR, got [%d,%d)", c.TradingStartHour, c.TradingEndHour)
	}

	if _, err := ParseTradingDays(c.TradingDays); err != nil {
		return fmt.Errorf("TRADING_DAYS: %w", err)
	}

	if c.MaxImpactBps < 0 || c.MaxDeviationBps < 0 || c.MaxVolatilityBps < 0 {
		return fmt.Errorf("basis-point thresholds cannot be negative")
	}

	if c.OracleMode != "fixed" && c.OracleMode != "feed" {
		return fmt.Errorf("ORACLE_MODE must be 'fixed' or 'feed', got %q", c.OracleMode)
	}

	if c.OracleMode == "feed" && c.OracleFeedURL == "" {
		return fmt.Errorf("ORACLE_FEED_URL cannot be empty in feed mode")
	}

	if c.OracleStaleness <= 0 {
		return fmt.Errorf("ORACLE_STALENESS must be positive")
	}

	if c.ProverURL == "" {
		return fmt.Errorf("PROVER_URL cannot be empty")
	}

	if !common.IsHexAddress(c.OperatorAddress) {
		return fmt.Errorf("OPERATOR_ADDRESS must be a hex address, got %q", c.OperatorAddress)
	}

	if !common.IsHexAddress(c.VenueAddress) {
		return fmt.Errorf("VENUE_ADDRESS must be a hex address, got %q", c.VenueAddress)
	}

	if !common.IsHexAddress(c.AdminAddress) {
		return fmt.Errorf("ADMIN_ADDRESS must be a hex address, got %q", c.AdminAddress)
	}

	if c.BreakerFailureLimit <= 0 {
		return fmt.Errorf("BREAKER_FAILURE_LIMIT must be positive, got %d", c.BreakerFailureLimit)
	}

	if c.BreakerCooldown <= 0 {
		return fmt.Errorf("BREAKER_COOLDOWN must be positive, got %s", c.BreakerCooldown)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

// Operator returns the operator identity.
func (c *Config) Operator() common.Address { return common.HexToAddress(c.OperatorAddress) }

// Venue returns the venue identity.
func (c *Config) Venue() common.Address { return common.HexToAddress(c.VenueAddress) }

// Admin returns the administrator identity.
func (c *Config) Admin() common.Address { return common.HexToAddress(c.AdminAddress) }

// Circuit returns the configured circuit identifier.
func (c *Config) Circuit() common.Hash { return common.HexToHash(c.CircuitID) }

// ParseTradingDays parses a comma-separated list of day names into weekday
// flags. Accepts three-letter abbreviations or full names, case-insensitive.
func ParseTradingDays(s string) (map[time.Weekday]bool, error) {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}

	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		day, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("unknown day %q", part)
		}
		days[day] = true
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("no trading days configured")
	}

	return days, nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
