package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// Portfolio accounting settings.
	QuoteCurrency              string
	CostBasisMethod            string // "WAC" or "FIFO"; FIFO cost is reported alongside either way
	ConcentrationWarnThreshold float64
	ReadOnly                   bool

	// Price resolver settings.
	CoinGeckoBaseURL  string
	PriceCacheTTL     time.Duration
	PriceTimeout      time.Duration
	PriceBatchTimeout time.Duration

	MaxBodyBytes int64
}

var Cfg *AppConfig

// LoadConfig reads .env plus OS environment into the global Cfg.
// It fails fast when the configuration implies write or trade
// capability: this service is read-only analytics by contract.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	readOnlyStr := getEnv("READ_ONLY", "true")
	readOnly, err := strconv.ParseBool(readOnlyStr)
	if err != nil {
		log.Printf("WARNING: Invalid READ_ONLY value '%s'. Defaulting to true.", readOnlyStr)
		readOnly = true
	}
	if !readOnly {
		log.Fatalf("FATAL: READ_ONLY=false is not supported. This service never executes trades or touches keys; refusing to start with a write-capable configuration.")
	}

	costBasisMethod := strings.ToUpper(getEnv("COST_BASIS_METHOD", "WAC"))
	if costBasisMethod != "WAC" && costBasisMethod != "FIFO" {
		log.Printf("WARNING: Invalid COST_BASIS_METHOD '%s'. Using default WAC.", costBasisMethod)
		costBasisMethod = "WAC"
	}

	threshold := getEnvAsFloat("CONCENTRATION_WARN_THRESHOLD", 25)
	if threshold <= 0 || threshold > 100 {
		log.Printf("WARNING: CONCENTRATION_WARN_THRESHOLD %v out of (0,100]. Using default 25.", threshold)
		threshold = 25
	}

	maxBodyBytesStr := getEnv("MAX_BODY_BYTES", "1048576")
	maxBodyBytes, err := strconv.ParseInt(maxBodyBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_BODY_BYTES format '%s'. Using default 1MB. Error: %v", maxBodyBytesStr, err)
		maxBodyBytes = 1 << 20
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./coinsensei.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		QuoteCurrency:              strings.ToUpper(getEnv("QUOTE_CURRENCY", "USD")),
		CostBasisMethod:            costBasisMethod,
		ConcentrationWarnThreshold: threshold,
		ReadOnly:                   readOnly,

		CoinGeckoBaseURL:  getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		PriceCacheTTL:     getEnvAsDuration("PRICE_CACHE_TTL", 60*time.Second),
		PriceTimeout:      getEnvAsDuration("PRICE_TIMEOUT", 5*time.Second),
		PriceBatchTimeout: getEnvAsDuration("PRICE_BATCH_TIMEOUT", 10*time.Second),

		MaxBodyBytes: maxBodyBytes,
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, QuoteCurrency=%s, CostBasisMethod=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.QuoteCurrency, Cfg.CostBasisMethod)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
