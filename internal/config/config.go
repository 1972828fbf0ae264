package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port   string
	AppEnv string
	DSN    string

	AdminAPIKey string
	SeedDemo    bool

	RateLimitPerMinute int
	RateLimitClients   int
	// TrustProxy makes the rate limiter key clients by X-Forwarded-For. Only enable it
	// behind a proxy that overwrites that header.
	TrustProxy bool

	StoreCacheSize int
	StoreCacheTTL  time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load reads the process environment. Call godotenv.Load before it so a .env file is honoured.
func Load() Config {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		AppEnv:             strings.ToLower(getEnv("APP_ENV", "development")),
		DSN:                dsnFromEnv(),
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),
		SeedDemo:           getEnvBool("SEED_DEMO", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitClients:   getEnvInt("RATE_LIMIT_CLIENTS", 4096),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),
		StoreCacheSize:     getEnvInt("STORE_CACHE_SIZE", 256),
		StoreCacheTTL:      getEnvDuration("STORE_CACHE_TTL", 30*time.Second),
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
	}
	return cfg
}

// IsDev reports whether the process runs with a development profile.
func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

func dsnFromEnv() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return dsn
	}
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := firstEnv("postgres", "DB_USER", "POSTGRES_USER")
	pass := firstEnv("postgres", "DB_PASSWORD", "POSTGRES_PASSWORD")
	name := firstEnv("alquileres", "DB_NAME", "POSTGRES_DB")
	ssl := getEnv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getEnvBool accepts "1", "true" and "yes"; anything else set is false.
func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
