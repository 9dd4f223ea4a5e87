package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort         = 2342
	defaultEnv          = "development"
	defaultMongoURL     = "mongodb://localhost:27017"
	defaultMongoDB      = "spes"
	defaultRedisURL     = "redis://localhost:6379/0"
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	MongoURL       string          `yaml:"mongo_url"`
	MongoDB        string          `yaml:"mongo_db"`
	RedisURL       string          `yaml:"redis_url"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Nominatim      NominatimConfig `yaml:"nominatim"`
}

// NominatimConfig configures the reverse-geocoding collaborator.
type NominatimConfig struct {
	URL     string `yaml:"url"`
	Email   string `yaml:"email"` // contact address sent per Nominatim usage policy
	Timeout int    `yaml:"timeout_seconds"`
}

// Load reads YAML from path, applies defaults and environment overrides.
// A missing file is not an error; defaults are used.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("MONGO_URL"); v != "" {
		c.MongoURL = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		c.MongoDB = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("SPES_ENV"); v != "" {
		c.Env = v
	}

	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Env == "" {
		c.Env = defaultEnv
	}
	if c.MongoURL == "" {
		c.MongoURL = defaultMongoURL
	}
	if c.MongoDB == "" {
		c.MongoDB = defaultMongoDB
	}
	if c.RedisURL == "" {
		c.RedisURL = defaultRedisURL
	}
	if c.Nominatim.URL == "" {
		c.Nominatim.URL = defaultNominatimURL
	}
	if c.Nominatim.Timeout <= 0 {
		c.Nominatim.Timeout = 10
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }
