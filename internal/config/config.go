package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL the dynamic code images encode
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for asynchronous scan recording
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the scan record channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines persisting scan events
	} `mapstructure:"analytics"`

	// Monitor configuration for destination health checking
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Interval in minutes between destination checks
	} `mapstructure:"monitor"`

	// QR configuration bounding payloads and destinations
	QR struct {
		MaxContentLength int    `mapstructure:"max_content_length"` // Ceiling for static payloads (QR physical capacity)
		MaxURLLength     int    `mapstructure:"max_url_length"`     // Ceiling for redirect destinations
		RedirectPath     string `mapstructure:"redirect_path"`      // Path prefix of the resolver endpoint
	} `mapstructure:"qr"`
}

// ResolverBase returns the absolute URL prefix under which dynamic codes
// resolve, e.g. "http://localhost:8080/r". This is both the payload prefix
// encoded into dynamic code images and the prefix destinations must not point
// back into.
func (c *Config) ResolverBase() string {
	return strings.TrimSuffix(c.Server.BaseURL, "/") + c.QR.RedirectPath
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding so config values can be
	// overridden via environment variables, e.g. "server.port" -> SERVER_PORT.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Look for configs/config.yaml relative to the working directory.
	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Defaults cover every key, so a missing config file is not fatal.
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "qr_codes.db")
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("monitor.interval_minutes", 5)
	viper.SetDefault("qr.max_content_length", 2000)
	viper.SetDefault("qr.max_url_length", 2048)
	viper.SetDefault("qr.redirect_path", "/r")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			// Any other error (permissions, malformed YAML, etc.) is fatal
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the loaded configuration into our strongly-typed struct.
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Analytics Buffer=%d, Monitor Interval=%dmin",
		cfg.Server.Port, cfg.Database.Name, cfg.Analytics.BufferSize, cfg.Monitor.IntervalMinutes)

	return &cfg, nil
}
