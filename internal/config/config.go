package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// ProductionAPIURL is where a production build points when no explicit
	// backend URL is configured.
	ProductionAPIURL = "https://api.teatok.app"

	// DevAPIURL is the local development backend.
	DevAPIURL = "http://localhost:5000"
)

type Config struct {
	// APIURL is the backend base URL for REST calls.
	APIURL string `toml:"api_url"`

	// SocketURL is the messaging endpoint. Empty means "derive from APIURL".
	SocketURL string `toml:"socket_url"`

	// Env selects the production default URL when set to "production".
	Env string `toml:"env"`

	Debug bool `toml:"debug"`
}

// Dir returns the per-profile config directory.
func Dir(profile string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "teatok", profile)
}

// Load resolves configuration for a profile. File values are overridden by
// environment variables; the backend URL falls back to the production
// default in a production environment and the local development default
// otherwise.
func Load(profile string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(Dir(profile), "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.APIURL = getEnv("TEATOK_API_URL", cfg.APIURL)
	cfg.SocketURL = getEnv("TEATOK_SOCKET_URL", cfg.SocketURL)
	cfg.Env = getEnv("TEATOK_ENV", cfg.Env)
	if os.Getenv("TEATOK_DEBUG") != "" {
		cfg.Debug = true
	}

	if cfg.APIURL == "" {
		if cfg.Env == "production" {
			cfg.APIURL = ProductionAPIURL
		} else {
			cfg.APIURL = DevAPIURL
		}
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	return cfg, nil
}

// ResolveSocketURL returns the websocket endpoint, deriving it from the API
// base when not explicitly configured.
func (c *Config) ResolveSocketURL() string {
	if c.SocketURL != "" {
		return c.SocketURL
	}
	url := c.APIURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
