package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AllowedOrigins []string // CORS allowed origins

	// Monitoring loop.
	MonitorInterval  time.Duration
	CycleTimeout     time.Duration // hard deadline for one full cycle
	VolatilityCutoff float64
	TargetRatio      float64 // health ratio the collateral suggestion aims for
	HistoryLimit     int
	RetentionDays    int // notification records older than this are pruned

	// Persisted store.
	StoreBackend  string // "file" | "dynamo"
	StoreFilePath string
	DynamoTables  DynamoTables
	ArchiveBucket string // S3 bucket for pruned notifications, empty = no archive

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	// Chain reads.
	EthRPCURL          string
	ComptrollerAddress string

	// Market data.
	MarketAPIURL     string
	MarketCoinID     string
	MarketVsCurrency string
	MarketLookback   string // days of price history, API-native granularity

	// Notification delivery.
	NotifyProvider        string // "notifyapi" | "aws"
	NotifyAPIBaseURL      string
	NotifyAPIClientID     string
	NotifyAPIClientSecret string
	SNSRegion             string
	SMTPHost              string
	SMTPPort              string
	SMTPFrom              string
	SMTPUsername          string
	SMTPPassword          string
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	Users         string
	Notifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		MonitorInterval:  getEnvDuration("MONITOR_INTERVAL", 5*time.Minute),
		CycleTimeout:     getEnvDuration("CYCLE_TIMEOUT", 4*time.Minute),
		VolatilityCutoff: getEnvFloat("VOLATILITY_CUTOFF", 0.05),
		TargetRatio:      getEnvFloat("TARGET_RATIO", 1.5),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 10),
		RetentionDays:    getEnvInt("NOTIFICATION_RETENTION_DAYS", 90),

		StoreBackend:  getEnv("STORE_BACKEND", "file"),
		StoreFilePath: getEnv("STORE_FILE_PATH", "./monitor-db.json"),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "monitor_users"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "monitor_notifications"),
		},
		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		EthRPCURL:          getEnv("ETH_RPC_URL", "https://eth.llamarpc.com"),
		ComptrollerAddress: getEnv("COMPTROLLER_ADDRESS", "0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B"),

		MarketAPIURL:     getEnv("MARKET_API_URL", "https://api.coingecko.com/api/v3"),
		MarketCoinID:     getEnv("MARKET_COIN_ID", "ethereum"),
		MarketVsCurrency: getEnv("MARKET_VS_CURRENCY", "usd"),
		MarketLookback:   getEnv("MARKET_LOOKBACK_DAYS", "1"),

		NotifyProvider:        getEnv("NOTIFY_PROVIDER", "notifyapi"),
		NotifyAPIBaseURL:      getEnv("NOTIFYAPI_BASE_URL", "https://api.notificationapi.com"),
		NotifyAPIClientID:     getEnv("NOTIFYAPI_CLIENT_ID", ""),
		NotifyAPIClientSecret: getEnv("NOTIFYAPI_CLIENT_SECRET", ""),
		SNSRegion:             getEnv("SNS_REGION", "us-east-1"),
		SMTPHost:              getEnv("SMTP_HOST", "localhost"),
		SMTPPort:              getEnv("SMTP_PORT", "1025"),
		SMTPFrom:              getEnv("SMTP_FROM", "alerts@example.com"),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
