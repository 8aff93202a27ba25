// Package config loads server configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override via env.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server wires at startup.
type Config struct {
	Env           string
	Addr          string
	PostgresDSN   string
	AMQPURL       string
	JWTSigningKey string

	Redis RedisConfig

	// AllowReRequest controls whether a rejected contact request may be
	// re-requested with a fresh pending record. Product has not committed
	// either way, so it ships as configuration.
	AllowReRequest bool

	// CheckoutSuccessURL and CheckoutCancelURL are handed to the payment
	// provider when building a checkout session.
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	// RateLimitPerMinute caps requests per client IP. Zero disables the
	// limiter.
	RateLimitPerMinute int

	ShutdownTimeout time.Duration
}

// RedisConfig tunes the plan-snapshot cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Env:           getenv("RINKNET_ENV", "dev"),
		Addr:          getenv("RINKNET_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("RINKNET_POSTGRES_DSN"),
		AMQPURL:       os.Getenv("RINKNET_AMQP_URL"),
		JWTSigningKey: getenv("RINKNET_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("RINKNET_REDIS_URL"),
			PoolSize:     getint("RINKNET_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("RINKNET_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		AllowReRequest:     getenv("RINKNET_ALLOW_REREQUEST", "true") == "true",
		CheckoutSuccessURL: getenv("RINKNET_CHECKOUT_SUCCESS_URL", "http://localhost:3000/settings?tab=subscription&success=1"),
		CheckoutCancelURL:  getenv("RINKNET_CHECKOUT_CANCEL_URL", "http://localhost:3000/subscription"),
		RateLimitPerMinute: getint("RINKNET_RATELIMIT_PER_MINUTE", 300),
		ShutdownTimeout:    10 * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
