// Package config loads application configuration from environment
// variables. Policy knobs that admins tune at runtime (advance notice,
// quotas, duration caps) are NOT here; those live in the system_config
// table and are read per request.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds process-level configuration. Each field corresponds to
// an environment variable; strings for identifiers and secrets, ints
// for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	Currency       string // ledger currency for booking obligations
	GatewayBaseURL string // card processor API base URL
	GatewaySecret  string // card processor API secret key
	WebhookSecret  string // shared secret verifying webhook signatures
}

// Load reads configuration from the environment. Required variables
// are enforced by must(); missing values abort startup with a fatal
// log so a misconfigured instance never serves traffic.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Currency:       envStr("LEDGER_CURRENCY", "eur"),
		GatewayBaseURL: envStr("GATEWAY_BASE_URL", "https://api.gateway.example"),
		GatewaySecret:  must("GATEWAY_SECRET_KEY"),
		WebhookSecret:  must("GATEWAY_WEBHOOK_SECRET"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
