package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "VoltVend"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultTokenAttempts  = 3

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	tokenAttemptsEnvVar    = "TOKEN_RETRY_ATTEMPTS"
	pricingPolicyEnvVar    = "PRICING_POLICY"
	roundingModeEnvVar     = "ROUNDING_MODE"
)

// Pricing policies controlling how a payment converts to units.
const (
	// PricingNet divides the amount net of the fixed charge by the unit rate.
	PricingNet = "net"
	// PricingGross divides the full amount by the unit rate; the fixed charge
	// still sets the minimum accepted payment.
	PricingGross = "gross"
)

// Rounding modes for the computed unit figure.
const (
	// RoundingHalfUp rounds units to 4 decimals half-up; the net amount used
	// equals the amount paid.
	RoundingHalfUp = "half-up"
	// RoundingDown truncates units to 4 decimals; the net amount used is the
	// amount paid minus the truncation remainder.
	RoundingDown = "down"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	TokenAttempts  int
	PricingPolicy  string
	RoundingMode   string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		Env:            getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		TokenAttempts:  defaultTokenAttempts,
		PricingPolicy:  strings.ToLower(getEnv(pricingPolicyEnvVar, PricingNet)),
		RoundingMode:   strings.ToLower(getEnv(roundingModeEnvVar, RoundingHalfUp)),
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv(tokenAttemptsEnvVar); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts < 1 {
			return Config{}, fmt.Errorf("invalid %s: %q", tokenAttemptsEnvVar, v)
		}
		cfg.TokenAttempts = attempts
	}

	switch cfg.PricingPolicy {
	case PricingNet, PricingGross:
	default:
		return Config{}, fmt.Errorf("invalid %s: %q", pricingPolicyEnvVar, cfg.PricingPolicy)
	}

	switch cfg.RoundingMode {
	case RoundingHalfUp, RoundingDown:
	default:
		return Config{}, fmt.Errorf("invalid %s: %q", roundingModeEnvVar, cfg.RoundingMode)
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.Env)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.Env)
		}
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a development environment, where
// the in-memory store and cache fallbacks are permitted.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
