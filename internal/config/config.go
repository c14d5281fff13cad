package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultTimezone        = "Asia/Ho_Chi_Minh"
	defaultMQTTTopic       = "telemetry"
	defaultPollInterval    = 5 * time.Minute
	defaultCrawlInterval   = 5 * time.Minute
	defaultCleanupInterval = 24 * time.Hour
	defaultRetryDelay      = 10 * time.Second
	defaultLivenessWindow  = 60 * time.Minute
	defaultFreshnessWindow = 2 * time.Hour
	defaultRetentionDays   = 90
)

// Config holds runtime configuration for the monitoring service.
type Config struct {
	DatabaseURL string
	Port        int
	BearerToken string
	Timezone    string

	MQTTBrokerURL string
	MQTTTopic     string
	// MQTTCoordinates is the raw device coordinate table,
	// "device=lat,lng" entries separated by semicolons.
	MQTTCoordinates string

	ScadaURL      string
	ScadaUsername string
	ScadaPassword string

	FeedURL string

	PollInterval    time.Duration
	CrawlInterval   time.Duration
	CleanupInterval time.Duration
	RetryDelay      time.Duration

	LivenessWindow  time.Duration
	FreshnessWindow time.Duration

	RetentionCeiling int
	RetentionDays    int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:            8080,
		Timezone:        defaultTimezone,
		MQTTTopic:       defaultMQTTTopic,
		PollInterval:    defaultPollInterval,
		CrawlInterval:   defaultCrawlInterval,
		CleanupInterval: defaultCleanupInterval,
		RetryDelay:      defaultRetryDelay,
		LivenessWindow:  defaultLivenessWindow,
		FreshnessWindow: defaultFreshnessWindow,
		RetentionDays:   defaultRetentionDays,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}

	cfg.MQTTBrokerURL = strings.TrimSpace(os.Getenv("MQTT_BROKER_URL"))
	if topic := strings.TrimSpace(os.Getenv("MQTT_TOPIC")); topic != "" {
		cfg.MQTTTopic = topic
	}
	cfg.MQTTCoordinates = strings.TrimSpace(os.Getenv("MQTT_COORDINATES"))

	cfg.ScadaURL = strings.TrimSpace(os.Getenv("SCADA_URL"))
	cfg.ScadaUsername = os.Getenv("SCADA_USERNAME")
	cfg.ScadaPassword = os.Getenv("SCADA_PASSWORD")
	if cfg.ScadaURL != "" && (cfg.ScadaUsername == "" || cfg.ScadaPassword == "") {
		return cfg, errors.New("SCADA_USERNAME and SCADA_PASSWORD are required when SCADA_URL is set")
	}

	cfg.FeedURL = strings.TrimSpace(os.Getenv("FEED_URL"))

	for _, d := range []struct {
		env  string
		dest *time.Duration
	}{
		{"POLL_INTERVAL", &cfg.PollInterval},
		{"CRAWL_INTERVAL", &cfg.CrawlInterval},
		{"CLEANUP_INTERVAL", &cfg.CleanupInterval},
		{"RETRY_DELAY", &cfg.RetryDelay},
		{"LIVENESS_WINDOW", &cfg.LivenessWindow},
		{"FRESHNESS_WINDOW", &cfg.FreshnessWindow},
	} {
		if v := strings.TrimSpace(os.Getenv(d.env)); v != "" {
			dur, err := time.ParseDuration(v)
			if err != nil || dur <= 0 {
				return cfg, fmt.Errorf("invalid %s: %s", d.env, v)
			}
			*d.dest = dur
		}
	}

	if v := strings.TrimSpace(os.Getenv("RETENTION_CEILING")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid RETENTION_CEILING: %s", v)
		}
		cfg.RetentionCeiling = n
	}

	if v := strings.TrimSpace(os.Getenv("RETENTION_DAYS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid RETENTION_DAYS: %s", v)
		}
		cfg.RetentionDays = n
	}

	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
