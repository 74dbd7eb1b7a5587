package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	AppEnv     string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// External collaborators
	OracleBaseURL string
	OracleAPIKey  string
	IntakeBaseURL string

	// Data tables (loaded at startup, edited without code changes)
	WeightTablePath  string
	ZoneTablePath    string
	PreferencesPath  string
	PaymentRulesPath string

	// Service-to-service auth for the conversational collaborator
	ServiceSecret string

	// Tunables
	SessionWindow  time.Duration
	OracleTimeout  time.Duration
	ResolveTimeout time.Duration
	MaxCandidates  int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppEnv:           os.Getenv("APP_ENV"),
		DBHost:           os.Getenv("DB_HOST"),
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBName:           os.Getenv("DB_NAME"),
		DBPort:           getEnv("DB_PORT", "5432"),
		OracleBaseURL:    os.Getenv("ORACLE_BASE_URL"),
		OracleAPIKey:     os.Getenv("ORACLE_API_KEY"),
		IntakeBaseURL:    os.Getenv("INTAKE_BASE_URL"),
		WeightTablePath:  getEnv("WEIGHT_TABLE_PATH", "config/weights.yaml"),
		ZoneTablePath:    getEnv("ZONE_TABLE_PATH", "config/zones.yaml"),
		PreferencesPath:  getEnv("PREFERENCES_PATH", "config/preferences.yaml"),
		PaymentRulesPath: getEnv("PAYMENT_RULES_PATH", "config/payment_rules.yaml"),
		ServiceSecret:    os.Getenv("SERVICE_SECRET"),
		SessionWindow:    getDuration("SESSION_WINDOW", 15*time.Minute),
		OracleTimeout:    getDuration("ORACLE_TIMEOUT", 5*time.Second),
		ResolveTimeout:   getDuration("RESOLVE_TIMEOUT", 10*time.Second),
		MaxCandidates:    getInt("MAX_CANDIDATES", 3),
	}

	if cfg.OracleBaseURL == "" {
		log.Fatal("Environment variables not loaded properly: ORACLE_BASE_URL is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}
