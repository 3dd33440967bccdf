package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	Indexer   IndexerConfig   `json:"indexer"`
	Pricing   PricingConfig   `json:"pricing"`
	RPC       RPCConfig       `json:"rpc"`
	Cache     CacheConfig     `json:"cache"`
	Feed      FeedConfig      `json:"feed"`
	Mint      MintConfig      `json:"mint"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI                 string        `json:"uri"`
	Database            string        `json:"database"`
	APIKeyCollection    string        `json:"api_key_collection"`
	FeedCacheCollection string        `json:"feed_cache_collection"`
	ConnectTimeout      time.Duration `json:"connect_timeout"`
	MaxPoolSize         uint64        `json:"max_pool_size"`
}

// IndexerConfig holds configuration for the primary DAS indexing API
type IndexerConfig struct {
	Endpoint  string        `json:"endpoint"`
	APIKey    string        `json:"api_key"`
	Timeout   time.Duration `json:"timeout"`
	PageSize  int           `json:"page_size"`
	IPFSProxy string        `json:"ipfs_proxy"`
}

// PricingConfig holds configuration for the collection floor-price API
type PricingConfig struct {
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
}

// RPCConfig holds Solana RPC configuration used by the mint settler
type RPCConfig struct {
	Endpoint   string        `json:"endpoint"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"`
}

// CacheConfig holds feed cache configuration
type CacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// FeedConfig holds feed fetching and generation configuration
type FeedConfig struct {
	SyntheticCount   int           `json:"synthetic_count"`
	EnrichMetadata   bool          `json:"enrich_metadata"`
	MetadataRate     float64       `json:"metadata_rate"`
	MetadataTimeout  time.Duration `json:"metadata_timeout"`
	DefaultTab       string        `json:"default_tab"`
	DefaultChain     string        `json:"default_chain"`
	WatchedWallets   []string      `json:"watched_wallets"`
	DefaultGroupID   string        `json:"default_group_id"`
	PlaceholderImage string        `json:"placeholder_image"`
}

// MintConfig holds mint simulation configuration
type MintConfig struct {
	SettleDelay   time.Duration `json:"settle_delay"`
	Cluster       string        `json:"cluster"`
	ExplorerBase  string        `json:"explorer_base"`
	UploadedImage string        `json:"uploaded_image"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	WindowSize        time.Duration `json:"window_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// LoadConfig loads configuration from environment variables with defaults.
// A .env file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MongoDB: MongoDBConfig{
			URI:                 getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:            getEnv("MONGODB_DATABASE", "nft_marketplace"),
			APIKeyCollection:    getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			FeedCacheCollection: getEnv("MONGODB_FEED_CACHE_COLLECTION", "feed_cache"),
			ConnectTimeout:      getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:         getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		Indexer: IndexerConfig{
			Endpoint:  getEnv("INDEXER_ENDPOINT", "https://mainnet.helius-rpc.com/"),
			APIKey:    getEnv("INDEXER_API_KEY", ""),
			Timeout:   getDurationEnv("INDEXER_TIMEOUT", 5*time.Second),
			PageSize:  getIntEnv("INDEXER_PAGE_SIZE", 12),
			IPFSProxy: getEnv("INDEXER_IPFS_PROXY", "https://ipfs.io/ipfs/"),
		},
		Pricing: PricingConfig{
			Endpoint: getEnv("PRICING_ENDPOINT", "https://api-mainnet.magiceden.dev/v2"),
			Timeout:  getDurationEnv("PRICING_TIMEOUT", 5*time.Second),
		},
		RPC: RPCConfig{
			Endpoint:   getEnv("SOLANA_RPC_ENDPOINT", "https://api.devnet.solana.com"),
			Timeout:    getDurationEnv("SOLANA_RPC_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("SOLANA_RPC_MAX_RETRIES", 3),
			RetryDelay: getDurationEnv("SOLANA_RPC_RETRY_DELAY", 1*time.Second),
		},
		Cache: CacheConfig{
			TTL: getDurationEnv("FEED_CACHE_TTL", 30*time.Minute),
		},
		Feed: FeedConfig{
			SyntheticCount:   getIntEnv("FEED_SYNTHETIC_COUNT", 9),
			EnrichMetadata:   getBoolEnv("FEED_ENRICH_METADATA", false),
			MetadataRate:     getFloatEnv("FEED_METADATA_RATE", 2.0),
			MetadataTimeout:  getDurationEnv("FEED_METADATA_TIMEOUT", 5*time.Second),
			DefaultTab:       getEnv("FEED_DEFAULT_TAB", "trending"),
			DefaultChain:     getEnv("FEED_DEFAULT_CHAIN", "all"),
			WatchedWallets:   getStringSliceEnv("FEED_WATCHED_WALLETS", defaultWatchedWallets),
			DefaultGroupID:   getEnv("FEED_DEFAULT_GROUP_ID", "FamousFoxFederation11DyABN9bvtpGv9Q4jYjuFwQMZ3j1pXWCNxEHKiNW"),
			PlaceholderImage: getEnv("FEED_PLACEHOLDER_IMAGE", "https://picsum.photos/seed/%s/400/400"),
		},
		Mint: MintConfig{
			SettleDelay:   getDurationEnv("MINT_SETTLE_DELAY", 2*time.Second),
			Cluster:       getEnv("MINT_CLUSTER", "devnet"),
			ExplorerBase:  getEnv("MINT_EXPLORER_BASE", "https://explorer.solana.com"),
			UploadedImage: getEnv("MINT_UPLOADED_IMAGE", "https://arweave.net/yNxQnKJCo1q4Y4M0R7XIyf3XG3AP_bKKxZWP_MTn_Fc"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			WindowSize:        getDurationEnv("RATE_LIMIT_WINDOW_SIZE", time.Minute),
			CleanupInterval:   getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// defaultWatchedWallets are sample owners queried when a tab maps to an
// owner-scoped feed rather than a collection-scoped one.
var defaultWatchedWallets = []string{
	"4dgi5B8CSERZz46UhfFxm9oW1xZXYpzPjSwYxpTurbTR",
	"BAqk6CfTi1hM1F98CuVkZQ2JhRhR6rumaqWYU6SFyxoD",
	"LiKVLf53Y7Wpy6PV8snwBVDhA7YBEVxyjeHSLu7nGCn",
	"Gpzh6xTLUXdmEZyJQr3t9XrHF5WxAYsGQowzYM4wmgD",
	"AaYEE8sQpGkM366HibpVHuTj7BXzCxG4mMVyBMS6r6Vj",
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
