package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Monday  MondayConfig  `yaml:"monday"`
	Columns ColumnsConfig `yaml:"columns"`
	Cache   CacheConfig   `yaml:"cache"`
	Map     MapConfig     `yaml:"map"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// MondayConfig holds monday.com API configuration.
type MondayConfig struct {
	APIToken       string `yaml:"api_token"`
	BoardID        int64  `yaml:"board_id"`
	Subdomain      string `yaml:"subdomain"`
	BaseURL        string `yaml:"base_url"`
	PageSize       int    `yaml:"page_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c MondayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ColumnsConfig maps logical fields to board column titles or IDs.
// Each value is matched first as an exact column ID, then as a title.
type ColumnsConfig struct {
	Location   string   `yaml:"location"`
	OrderValue string   `yaml:"order_value"`
	Status     string   `yaml:"status"`
	Date       string   `yaml:"date"`
	Customer   string   `yaml:"customer"`
	City       string   `yaml:"city"`
	State      string   `yaml:"state"`
	Country    string   `yaml:"country"`
	Extras     []string `yaml:"extras"`
}

// CacheConfig holds the redis snapshot cache configuration.
// An empty RedisAddr disables the cache entirely; every request then
// fetches from the API (subject to the in-flight guard).
type CacheConfig struct {
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the snapshot time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MapConfig holds presentation-layer options passed through to the client.
type MapConfig struct {
	ClusterMarkers bool   `yaml:"cluster_markers"`
	PopupTemplate  string `yaml:"popup_template"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Monday.BaseURL == "" {
		cfg.Monday.BaseURL = "https://api.monday.com/v2"
	}
	if cfg.Monday.PageSize == 0 {
		cfg.Monday.PageSize = 500
	}
	if cfg.Monday.TimeoutSeconds == 0 {
		cfg.Monday.TimeoutSeconds = 30
	}
	if cfg.Columns.Location == "" {
		cfg.Columns.Location = "location"
	}
	if cfg.Columns.OrderValue == "" {
		cfg.Columns.OrderValue = "order_value"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 60
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env
// vars, so the API token can live in .env locally and in real env vars
// in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv("MONDAY_API_TOKEN"); token != "" {
		cfg.Monday.APIToken = token
	}
	if boardID := os.Getenv("MONDAY_BOARD_ID"); boardID != "" {
		if id, perr := strconv.ParseInt(boardID, 10, 64); perr == nil {
			cfg.Monday.BoardID = id
		}
	}
	if sub := os.Getenv("MONDAY_SUBDOMAIN"); sub != "" {
		cfg.Monday.Subdomain = sub
	}
	if baseURL := os.Getenv("MONDAY_BASE_URL"); baseURL != "" {
		cfg.Monday.BaseURL = baseURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}

	return cfg, nil
}
