package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	AppPort    string
	AppEnv     string

	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DeliveryFee        decimal.Decimal
	DeliveryMinutes    int
	DefaultPrepMinutes int

	RedisURL     string
	MenuCacheTTL time.Duration

	InternalSecretKey string
	CORSOrigins       string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		AppPort:    getEnv("APP_PORT", "8000"),
		AppEnv:     os.Getenv("APP_ENV"),

		SecretKey:       os.Getenv("SECRET_KEY"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		DeliveryFee:        getDecimal("DELIVERY_FEE", decimal.NewFromInt(5)),
		DeliveryMinutes:    getInt("DELIVERY_MINUTES", 30),
		DefaultPrepMinutes: getInt("DEFAULT_PREP_MINUTES", 20),

		RedisURL:     os.Getenv("REDIS_URL"),
		MenuCacheTTL: getDuration("MENU_CACHE_TTL", 5*time.Minute),

		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(os.Getenv(key))
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d.Round(2)
}
