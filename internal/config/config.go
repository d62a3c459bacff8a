package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Host               string        `mapstructure:"host" yaml:"host"`
	Port               int           `mapstructure:"port" yaml:"port"`
	AllowedOrigins     string        `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxHistory         int           `mapstructure:"max_history" yaml:"max_history"`
	HistoryDBPath      string        `mapstructure:"history_db_path" yaml:"history_db_path"`
	BroadcastCapacity  int           `mapstructure:"broadcast_capacity" yaml:"broadcast_capacity"`
	PersistQueueSize   int           `mapstructure:"persist_queue_size" yaml:"persist_queue_size"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	StaticDir          string        `mapstructure:"static_dir" yaml:"static_dir"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
	MetricsInterval    time.Duration `mapstructure:"metrics_interval" yaml:"metrics_interval"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		AllowedOrigins:     "*",
		MaxHistory:         200,
		HistoryDBPath:      "chat.db",
		BroadcastCapacity:  256,
		PersistQueueSize:   1024,
		MaxMessageBytes:    32768,
		RateLimitPerMinute: 0,
		StaticDir:          "./static",
		LogLevel:           "info",
		LogFormat:          "console",
		MetricsInterval:    0,
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
	}
}

// Addr returns the listen address built from host and port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PersistenceEnabled reports whether a durable history path is set.
func (c Config) PersistenceEnabled() bool {
	return c.HistoryDBPath != ""
}

// Normalize replaces out-of-range values with defaults and returns the names
// of the fields it changed.
func (c *Config) Normalize() []string {
	def := Default()
	var fixed []string

	if c.MaxHistory <= 0 {
		c.MaxHistory = def.MaxHistory
		fixed = append(fixed, "max_history")
	}
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = def.Port
		fixed = append(fixed, "port")
	}
	if c.BroadcastCapacity <= 0 {
		c.BroadcastCapacity = def.BroadcastCapacity
		fixed = append(fixed, "broadcast_capacity")
	}
	if c.PersistQueueSize <= 0 {
		c.PersistQueueSize = def.PersistQueueSize
		fixed = append(fixed, "persist_queue_size")
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = def.MaxMessageBytes
		fixed = append(fixed, "max_message_bytes")
	}
	if c.RateLimitPerMinute < 0 {
		c.RateLimitPerMinute = 0
		fixed = append(fixed, "rate_limit_per_minute")
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
		fixed = append(fixed, "shutdown_timeout")
	}
	return fixed
}
