package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	NATSSubjectPrefix    string
	JWTSecret            string
	OverviewCacheTTL     time.Duration
	FollowUpInterval     time.Duration
	StrictScreeningTypes bool
	ScreeningRateLimit   int
	ScreeningRateWindow  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAMPUSWELL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CampusWell API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_prefix", "campuswell.cases")
	v.SetDefault("overview.cache_ttl", "5m")
	v.SetDefault("followup.interval", "168h")
	v.SetDefault("screening.strict_types", false)
	v.SetDefault("screening.rate_limit", 30)
	v.SetDefault("screening.rate_window", "1m")

	ttl, err := parseDuration(v.GetString("overview.cache_ttl"), "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid overview cache ttl: %w", err)
	}

	followUp, err := parseDuration(v.GetString("followup.interval"), "168h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid follow-up interval: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("screening.rate_window"), "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid screening rate window: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		NATSSubjectPrefix:    v.GetString("nats.subject_prefix"),
		JWTSecret:            v.GetString("jwt.secret"),
		OverviewCacheTTL:     ttl,
		FollowUpInterval:     followUp,
		StrictScreeningTypes: v.GetBool("screening.strict_types"),
		ScreeningRateLimit:   v.GetInt("screening.rate_limit"),
		ScreeningRateWindow:  rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScreeningRateLimit <= 0 {
		cfg.ScreeningRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}
