package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishguard/")
	v.AddConfigPath("$HOME/.phishguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Detection API defaults
	v.SetDefault("detector.base_url", "http://localhost:8000")
	v.SetDefault("detector.timeout", "10s")

	// Result cache defaults
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.capacity", 100)
	v.SetDefault("cache.cleanup_frequency", "0s")

	// Guard pipeline defaults
	v.SetDefault("guard.excluded_schemes", []string{
		"chrome://",
		"chrome-extension://",
		"file://",
		"about:",
	})

	// Popup defaults
	v.SetDefault("popup.wait_timeout", "2s")
	v.SetDefault("popup.poll_interval", "100ms")

	// History defaults
	v.SetDefault("history.type", "memory")
	v.SetDefault("history.limit", 50)
	v.SetDefault("history.sqlite_path", "/data/phishguard.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/phishguard")

	// HTTP server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.rate_limit.rps", 10)
	v.SetDefault("server.rate_limit.burst", 20)

	// Mail gateway defaults
	v.SetDefault("mailgw.enabled", false)
	v.SetDefault("mailgw.listen_address", "0.0.0.0:10025")
	v.SetDefault("mailgw.relay_address", "127.0.0.1")
	v.SetDefault("mailgw.relay_port", 10026)
	v.SetDefault("mailgw.relay_enabled", false)
	v.SetDefault("mailgw.block_phishing", false)
	v.SetDefault("mailgw.max_body_size", 4096)
	v.SetDefault("mailgw.headers.status", "X-Phishing-Status")
	v.SetDefault("mailgw.headers.score", "X-Phishing-Score")
	v.SetDefault("mailgw.headers.reason", "X-Phishing-Reason")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
