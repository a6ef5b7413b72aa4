package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix marks environment overrides, e.g. CREWTIME_TRAVEL__RATE_RPS=2.
const EnvPrefix = "CREWTIME_"

type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Workday  WorkdayConfig  `json:"workday"`
	Travel   TravelConfig   `json:"travel"`
	Logging  LoggingConfig  `json:"logging"`
	// Fixtures seeds the in-memory store when no database is configured.
	Fixtures string `json:"fixtures"`
}

type HTTPConfig struct {
	Addr                     string `json:"addr"`
	ReadHeaderTimeoutSeconds int    `json:"read_header_timeout_seconds"`
}

type DatabaseConfig struct {
	URL     string `json:"url"`
	Migrate bool   `json:"migrate"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// WorkdayConfig bounds the day in minutes from the workday reference.
type WorkdayConfig struct {
	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`
}

type TravelConfig struct {
	Provider               string  `json:"provider"` // geo or http
	Concurrency            int     `json:"concurrency"`
	CallTimeoutMs          int     `json:"call_timeout_ms"`
	RetryUnresolvedSeconds int     `json:"retry_unresolved_seconds"`
	GeoSpeedKph            float64 `json:"geo_speed_kph"`
	GeoOverheadMinutes     int     `json:"geo_overhead_minutes"`
	HTTPBaseURL            string  `json:"http_base_url"`
	RateRPS                float64 `json:"rate_rps"`
	RateBurst              int     `json:"rate_burst"`
	SharedTTLSeconds       int     `json:"shared_ttl_seconds"`
}

func (t TravelConfig) CallTimeout() time.Duration {
	return time.Duration(t.CallTimeoutMs) * time.Millisecond
}

func (t TravelConfig) RetryUnresolvedAfter() time.Duration {
	return time.Duration(t.RetryUnresolvedSeconds) * time.Second
}

func (t TravelConfig) SharedTTL() time.Duration {
	return time.Duration(t.SharedTTLSeconds) * time.Second
}

type LoggingConfig struct {
	Env   string `json:"env"` // development prints human-readable output
	Level string `json:"level"`
}

// Defaults returns the configuration used for anything a file or the
// environment leaves unset.
func Defaults() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: ":8080", ReadHeaderTimeoutSeconds: 5},
		Workday: WorkdayConfig{StartMinutes: 0, EndMinutes: 720},
		Travel: TravelConfig{
			Provider:               "geo",
			Concurrency:            5,
			CallTimeoutMs:          5000,
			RetryUnresolvedSeconds: 300,
			GeoSpeedKph:            50,
			RateRPS:                10,
			RateBurst:              5,
			SharedTTLSeconds:       12 * 3600,
		},
		Logging:  LoggingConfig{Env: "production", Level: "info"},
		Database: DatabaseConfig{Migrate: true},
	}
}

// Load layers defaults, the optional file at path (YAML or JSON) and
// CREWTIME_ environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Workday.StartMinutes < 0 {
		errs = append(errs, errors.New("workday.start_minutes must be >= 0"))
	}
	if c.Workday.EndMinutes <= c.Workday.StartMinutes {
		errs = append(errs, errors.New("workday.end_minutes must be after workday.start_minutes"))
	}
	if c.Travel.Concurrency <= 0 {
		errs = append(errs, errors.New("travel.concurrency must be > 0"))
	}
	if c.Travel.CallTimeoutMs <= 0 {
		errs = append(errs, errors.New("travel.call_timeout_ms must be > 0"))
	}
	if c.Travel.RetryUnresolvedSeconds < 0 {
		errs = append(errs, errors.New("travel.retry_unresolved_seconds must be >= 0"))
	}
	switch c.Travel.Provider {
	case "geo":
		if c.Travel.GeoSpeedKph <= 0 {
			errs = append(errs, errors.New("travel.geo_speed_kph must be > 0"))
		}
	case "http":
		if c.Travel.HTTPBaseURL == "" {
			errs = append(errs, errors.New("travel.http_base_url is required for the http provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown travel.provider %q (allowed: geo, http)", c.Travel.Provider))
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	return errors.Join(errs...)
}
