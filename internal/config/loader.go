package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "RELAYCHAT"
	envConfigDefaultPath = "RELAYCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// legacyEnv maps config keys to the unprefixed variable names deployments
// already use. The prefixed RELAYCHAT_* name wins when both are set.
var legacyEnv = map[string]string{
	"allowed_origins": "ALLOWED_ORIGINS",
	"max_history":     "MAX_HISTORY",
	"history_db_path": "HISTORY_DB_PATH",
	"host":            "HOST",
	"port":            "PORT",
}

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// an explicitly empty HISTORY_DB_PATH disables persistence
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), legacy); err != nil {
			return cfg, "", fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	// Non-numeric values fall back to defaults instead of failing startup.
	for _, key := range []string{"port", "max_history", "broadcast_capacity", "persist_queue_size", "max_message_bytes", "rate_limit_per_minute"} {
		raw := strings.TrimSpace(v.GetString(key))
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			if logger != nil {
				logger.Warn().Str("key", key).Str("value", raw).Msg("ignoring non-numeric config value")
			}
			v.Set(key, defaultValue(cfg, key))
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.HistoryDBPath = strings.TrimSpace(cfg.HistoryDBPath)
	for _, key := range cfg.Normalize() {
		if logger != nil {
			logger.Warn().Str("key", key).Msg("config value out of range, using default")
		}
	}

	return cfg, configPath, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("max_history", cfg.MaxHistory)
	v.SetDefault("history_db_path", cfg.HistoryDBPath)
	v.SetDefault("broadcast_capacity", cfg.BroadcastCapacity)
	v.SetDefault("persist_queue_size", cfg.PersistQueueSize)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("rate_limit_per_minute", cfg.RateLimitPerMinute)
	v.SetDefault("static_dir", cfg.StaticDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("metrics_interval", cfg.MetricsInterval)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
}

func defaultValue(cfg Config, key string) any {
	switch key {
	case "port":
		return cfg.Port
	case "max_history":
		return cfg.MaxHistory
	case "broadcast_capacity":
		return cfg.BroadcastCapacity
	case "persist_queue_size":
		return cfg.PersistQueueSize
	case "max_message_bytes":
		return cfg.MaxMessageBytes
	case "rate_limit_per_minute":
		return cfg.RateLimitPerMinute
	default:
		return nil
	}
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
