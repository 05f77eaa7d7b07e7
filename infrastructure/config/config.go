package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string
	Environment    string
	Version        string
	RequestTimeout time.Duration

	// AWS configuration
	AWSRegion      string
	StorageBackend string
	SnapshotTable  string
	EventBusName   string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Explore pages
	CategoriesFile   string
	RevalidateOnMiss bool
	PageCacheTTL     int // seconds
	PrerenderLockTTL time.Duration

	// Published contract registry
	ContractRegistryURL     string
	ContractRegistryTimeout time.Duration
	RegistryCacheTTL        int // seconds

	// Chain reads
	ChainRPCURLs     map[uint64]string
	ChainSlugs       map[uint64]string
	IPFSGateway      string
	MetadataTimeout  time.Duration
	PanelWaitTimeout time.Duration

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Rate limiting
	ChainReadsPerMinute int

	// CORS
	AllowedOrigins []string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")

	rpcURLs, err := parseChainMap(getEnv("CHAIN_RPC_URLS", "1=https://ethereum-rpc.publicnode.com,137=https://polygon-rpc.com"))
	if err != nil {
		return nil, fmt.Errorf("CHAIN_RPC_URLS: %w", err)
	}
	slugs, err := parseChainMap(getEnv("CHAIN_SLUGS", "1=ethereum,10=optimism,137=polygon,8453=base,42161=arbitrum"))
	if err != nil {
		return nil, fmt.Errorf("CHAIN_SLUGS: %w", err)
	}

	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    environment,
		Version:        getEnv("BUILD_VERSION", ""),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 25*time.Second),

		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		StorageBackend: getEnv("STORAGE_BACKEND", defaultStorage(environment)),
		SnapshotTable:  getEnv("SNAPSHOT_TABLE", "explore-snapshots"),
		EventBusName:   getEnv("EVENT_BUS_NAME", "explore-events"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		// Explore pages
		CategoriesFile:   getEnv("CATEGORIES_FILE", ""),
		RevalidateOnMiss: getEnvBool("REVALIDATE_ON_MISS", environment != "production"),
		PageCacheTTL:     getEnvInt("PAGE_CACHE_TTL", 60),
		PrerenderLockTTL: getEnvDuration("PRERENDER_LOCK_TTL", 2*time.Minute),

		ContractRegistryURL:     getEnv("CONTRACT_REGISTRY_URL", "https://contract.thirdweb.com"),
		ContractRegistryTimeout: getEnvDuration("CONTRACT_REGISTRY_TIMEOUT", 10*time.Second),
		RegistryCacheTTL:        getEnvInt("REGISTRY_CACHE_TTL", 300),

		ChainRPCURLs:     rpcURLs,
		ChainSlugs:       slugs,
		IPFSGateway:      getEnv("IPFS_GATEWAY", "https://ipfs.io/ipfs/"),
		MetadataTimeout:  getEnvDuration("METADATA_TIMEOUT", 5*time.Second),
		PanelWaitTimeout: getEnvDuration("PANEL_WAIT_TIMEOUT", 3*time.Second),

		// Authentication
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "dashboard-explore"),
		JWTAudience: getEnv("JWT_AUDIENCE", ""),

		ChainReadsPerMinute: getEnvInt("CHAIN_READS_PER_MINUTE", 120),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Logging and features
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageDynamoDB:
		if c.SnapshotTable == "" {
			return fmt.Errorf("SNAPSHOT_TABLE is required for the dynamodb backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.ContractRegistryURL == "" {
		return fmt.Errorf("CONTRACT_REGISTRY_URL is required")
	}
	if c.ChainReadsPerMinute <= 0 {
		return fmt.Errorf("CHAIN_READS_PER_MINUTE must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend != StorageDynamoDB {
			return fmt.Errorf("production requires the dynamodb storage backend")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultStorage(environment string) string {
	if environment == "production" {
		return StorageDynamoDB
	}
	return StorageMemory
}

// parseChainMap parses "1=value,137=value"
func parseChainMap(raw string) (map[uint64]string, error) {
	out := make(map[uint64]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, value, ok := strings.Cut(pair, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("entry %q must be chainID=value", pair)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %q: invalid chain ID", pair)
		}
		out[chainID] = strings.TrimSpace(value)
	}
	return out, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable ("3s", "2m") with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList gets a comma separated environment variable with a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
