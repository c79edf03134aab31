package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/ickb/orderbot/pkg/types"
)

// Supported chains.
const (
	ChainDevnet  = "devnet"
	ChainTestnet = "testnet"
	ChainMainnet = "mainnet"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain
	Chain      string
	RPCURL     string
	ClientType string // "full" or "light"
	EngineURL  string

	// Bot
	BotPrivateKey    string
	SleepInterval    time.Duration
	OrderStaleBlocks uint64
	FeeRateTarget    uint64
	ExecutionMode    string // "live" or "dry-run"

	// ConsolidateMinCells is the plain capacity cell count above which they
	// are merged into one. Zero disables consolidation.
	ConsolidateMinCells int

	// Scripts
	OrderLock types.Script
	TokenType types.Script

	// Sizing, in base units
	BaseSoftCap  uint256.Int
	QuoteSoftCap uint256.Int
	BaseReserve  uint256.Int
	QuoteReserve uint256.Int

	// Depletion
	MinOperatingCapital uint256.Int
	CapitalWarnRatio    float64

	// Output cache
	OutputCacheMaxEntries int64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

//nolint:gochecknoglobals // per-chain defaults
var (
	defaultRPCURLs = map[string]string{
		ChainDevnet:  "http://127.0.0.1:8114",
		ChainTestnet: "https://testnet.ckb.dev/rpc",
		ChainMainnet: "https://mainnet.ckb.dev/rpc",
	}

	defaultStaleBlocks = map[string]uint64{
		ChainDevnet:  100,
		ChainTestnet: 100,
		ChainMainnet: 10800,
	}
)

// LoadFromEnv loads configuration from environment variables with defaults.
// Malformed values are errors, not silently replaced by defaults.
func LoadFromEnv() (*Config, error) {
	chain := strings.ToLower(getEnvOrDefault("CHAIN", ChainTestnet))

	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain defaults
		Chain:      chain,
		RPCURL:     getEnvOrDefault("RPC_URL", defaultRPCURLs[chain]),
		ClientType: getEnvOrDefault("CLIENT_TYPE", "full"),
		EngineURL:  getEnvOrDefault("ENGINE_URL", "http://127.0.0.1:8200"),

		// Bot defaults
		BotPrivateKey: os.Getenv("BOT_PRIVATE_KEY"),
		ExecutionMode: getEnvOrDefault("EXECUTION_MODE", "live"),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "orderbot"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "orderbot"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "orderbot"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	p := &parser{}

	cfg.SleepInterval = time.Duration(p.uint("BOT_SLEEP_INTERVAL", 60)) * time.Second
	cfg.OrderStaleBlocks = p.uint("ORDER_STALE_BLOCKS", defaultStaleBlocks[chain])
	cfg.FeeRateTarget = p.uint("FEE_RATE_TARGET", 21)
	cfg.ConsolidateMinCells = int(p.uint("CONSOLIDATE_MIN_CELLS", 10))
	cfg.OutputCacheMaxEntries = int64(p.uint("OUTPUT_CACHE_MAX_ENTRIES", 10000))
	cfg.CapitalWarnRatio = p.float("CAPITAL_WARN_RATIO", 1.5)

	cfg.OrderLock = p.script("ORDER_LOCK", types.HashTypeData1)
	cfg.TokenType = p.script("TOKEN_TYPE", types.HashTypeData1)

	cfg.BaseSoftCap = p.amount("BASE_SOFT_CAP", "0")
	cfg.QuoteSoftCap = p.amount("QUOTE_SOFT_CAP", "100000")
	cfg.BaseReserve = p.amount("BASE_RESERVE", "1000")
	cfg.QuoteReserve = p.amount("QUOTE_RESERVE", "0")
	cfg.MinOperatingCapital = p.amount("MIN_OPERATING_CAPITAL", "2000")

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
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

	if _, ok := defaultStaleBlocks[c.Chain]; !ok {
		return fmt.Errorf("CHAIN must be 'devnet', 'testnet' or 'mainnet', got %q", c.Chain)
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL cannot be empty")
	}

	if c.ClientType != "full" && c.ClientType != "light" {
		return fmt.Errorf("CLIENT_TYPE must be 'full' or 'light', got %q", c.ClientType)
	}

	if c.EngineURL == "" {
		return fmt.Errorf("ENGINE_URL cannot be empty")
	}

	if c.BotPrivateKey == "" {
		return fmt.Errorf("BOT_PRIVATE_KEY cannot be empty")
	}

	if c.SleepInterval <= 0 {
		return fmt.Errorf("BOT_SLEEP_INTERVAL must be positive, got %s", c.SleepInterval)
	}

	if c.OrderStaleBlocks == 0 {
		return fmt.Errorf("ORDER_STALE_BLOCKS must be positive")
	}

	if c.ConsolidateMinCells < 0 {
		return fmt.Errorf("CONSOLIDATE_MIN_CELLS cannot be negative, got %d", c.ConsolidateMinCells)
	}

	if c.OrderLock.CodeHash == (common.Hash{}) {
		return fmt.Errorf("ORDER_LOCK_CODE_HASH cannot be empty")
	}

	if c.TokenType.CodeHash == (common.Hash{}) {
		return fmt.Errorf("TOKEN_TYPE_CODE_HASH cannot be empty")
	}

	if c.QuoteSoftCap.IsZero() {
		return fmt.Errorf("QUOTE_SOFT_CAP must be positive")
	}

	if c.CapitalWarnRatio < 1.0 {
		return fmt.Errorf("CAPITAL_WARN_RATIO must be >= 1.0, got %f", c.CapitalWarnRatio)
	}

	if c.OutputCacheMaxEntries <= 0 {
		return fmt.Errorf("OUTPUT_CACHE_MAX_ENTRIES must be positive, got %d", c.OutputCacheMaxEntries)
	}

	if c.ExecutionMode != "live" && c.ExecutionMode != "dry-run" {
		return fmt.Errorf("EXECUTION_MODE must be 'live' or 'dry-run', got %q", c.ExecutionMode)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parser reads typed values and collects every parse error.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) uint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (p *parser) float(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return f
}

func (p *parser) amount(key, defaultValue string) uint256.Int {
	value := getEnvOrDefault(key, defaultValue)

	amount, err := types.ParseAmount(value)
	if err != nil {
		p.fail(key, value, err)
	}
	return amount
}

// script reads <prefix>_CODE_HASH, <prefix>_HASH_TYPE and <prefix>_ARGS.
func (p *parser) script(prefix string, defaultHashType types.HashType) types.Script {
	var s types.Script

	if value := os.Getenv(prefix + "_CODE_HASH"); value != "" {
		b, err := hexutil.Decode(value)
		if err != nil || len(b) != common.HashLength {
			p.fail(prefix+"_CODE_HASH", value, errors.New("want 32 hex-encoded bytes"))
		} else {
			s.CodeHash = common.BytesToHash(b)
		}
	}

	s.HashType = types.HashType(getEnvOrDefault(prefix+"_HASH_TYPE", string(defaultHashType)))
	if !s.HashType.Valid() {
		p.fail(prefix+"_HASH_TYPE", string(s.HashType), errors.New("unknown hash type"))
	}

	if value := os.Getenv(prefix + "_ARGS"); value != "" {
		b, err := hexutil.Decode(value)
		if err != nil {
			p.fail(prefix+"_ARGS", value, err)
		}
		s.Args = b
	}

	return s
}
