// Package config loads application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port string `yaml:"port"`

	// External service endpoints. All free, rate-limited public instances
	// by default; override for self-hosted deployments and tests.
	NominatimURL string `yaml:"nominatimUrl"`
	PhotonURL    string `yaml:"photonUrl"`
	OSRMURL      string `yaml:"osrmUrl"`
	OverpassURL  string `yaml:"overpassUrl"`
	ElevationURL string `yaml:"elevationUrl"`

	// UserAgent identifies us to Nominatim per its usage policy.
	UserAgent string `yaml:"userAgent"`

	// Region and Country qualify city lookups (e.g. "Minas Gerais", "Brazil").
	Region  string `yaml:"region"`
	Country string `yaml:"country"`

	HTTPTimeout  time.Duration `yaml:"-"`
	RetryMax     int           `yaml:"retryMax"`
	GeocodeRPS   float64       `yaml:"geocodeRps"`
	CacheBackend string        `yaml:"cacheBackend"` // memory, redis, postgres
	RedisURL     string        `yaml:"-"`
	DatabaseURL  string        `yaml:"-"`

	DefaultStrategy    string `yaml:"defaultStrategy"`
	DefaultTimeLimitMs int    `yaml:"defaultTimeLimitMs"`

	TimeoutSeconds int `yaml:"httpTimeoutSeconds"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// is missing), then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", defStr(cfg.Port, "8080"))
	cfg.NominatimURL = getEnv("NOMINATIM_URL", defStr(cfg.NominatimURL, "https://nominatim.openstreetmap.org"))
	cfg.PhotonURL = getEnv("PHOTON_URL", defStr(cfg.PhotonURL, "https://photon.komoot.io"))
	cfg.OSRMURL = getEnv("OSRM_URL", defStr(cfg.OSRMURL, "http://router.project-osrm.org"))
	cfg.OverpassURL = getEnv("OVERPASS_URL", defStr(cfg.OverpassURL, "http://overpass-api.de/api/interpreter"))
	cfg.ElevationURL = getEnv("ELEVATION_URL", defStr(cfg.ElevationURL, "https://api.open-elevation.com/api/v1/lookup"))
	cfg.UserAgent = getEnv("USER_AGENT", defStr(cfg.UserAgent, "walkroute/1.0"))
	cfg.Region = getEnv("REGION", cfg.Region)
	cfg.Country = getEnv("COUNTRY", cfg.Country)
	cfg.CacheBackend = getEnv("CACHE_BACKEND", defStr(cfg.CacheBackend, "memory"))
	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DefaultStrategy = getEnv("DEFAULT_STRATEGY", defStr(cfg.DefaultStrategy, "local-search"))

	cfg.RetryMax = getIntEnv("RETRY_MAX", defInt(cfg.RetryMax, 5))
	cfg.DefaultTimeLimitMs = getIntEnv("DEFAULT_TIME_LIMIT_MS", defInt(cfg.DefaultTimeLimitMs, 5000))
	cfg.TimeoutSeconds = getIntEnv("HTTP_TIMEOUT_SECONDS", defInt(cfg.TimeoutSeconds, 30))
	cfg.HTTPTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.GeocodeRPS == 0 {
		cfg.GeocodeRPS = 1 // Nominatim public instance allows 1 req/s
	}
	if v := os.Getenv("GEOCODE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.GeocodeRPS = f
		}
	}
	return cfg, nil
}

// DefaultTimeLimitDuration returns the solver budget as a duration.
func (c *Config) DefaultTimeLimitDuration() time.Duration {
	return time.Duration(c.DefaultTimeLimitMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func defStr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func defInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
