package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ALLOWED_ORIGINS", "MAX_HISTORY", "HISTORY_DB_PATH", "HOST", "PORT"} {
		if val, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, val) })
		}
		if val, ok := os.LookupEnv("RELAYCHAT_" + key); ok {
			os.Unsetenv("RELAYCHAT_" + key)
			t.Cleanup(func() { os.Setenv("RELAYCHAT_"+key, val) })
		}
	}
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.MaxHistory != def.MaxHistory || cfg.Port != def.Port || cfg.HistoryDBPath != def.HistoryDBPath {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("max_history: 50\nallowed_origins: example.com\nport: 9000\nshutdown_timeout: 2s\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxHistory != 50 || cfg.AllowedOrigins != "example.com" || cfg.Port != 9000 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_HISTORY", "10")
	t.Setenv("ALLOWED_ORIGINS", "a.com,b.com")
	t.Setenv("HISTORY_DB_PATH", "")
	t.Setenv("PORT", "9090")

	cfg, _, err := Load(nil, filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxHistory != 10 {
		t.Fatalf("max_history = %d", cfg.MaxHistory)
	}
	if cfg.AllowedOrigins != "a.com,b.com" {
		t.Fatalf("allowed_origins = %q", cfg.AllowedOrigins)
	}
	if cfg.PersistenceEnabled() {
		t.Fatalf("empty HISTORY_DB_PATH should disable persistence, got %q", cfg.HistoryDBPath)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_HISTORY", "10")
	t.Setenv("RELAYCHAT_MAX_HISTORY", "20")

	cfg, _, err := Load(nil, filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxHistory != 20 {
		t.Fatalf("max_history = %d, want 20", cfg.MaxHistory)
	}
}

func TestLoadInvalidHistoryFallsBack(t *testing.T) {
	for _, raw := range []string{"0", "-3", "abc"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MAX_HISTORY", raw)

			cfg, _, err := Load(nil, filepath.Join(t.TempDir(), "config.yaml"))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.MaxHistory != 200 {
				t.Fatalf("max_history = %d, want default 200", cfg.MaxHistory)
			}
		})
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := Load(nil, path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{MaxHistory: -1, Port: 70000, RateLimitPerMinute: -5}
	fixed := cfg.Normalize()

	if cfg.MaxHistory != 200 || cfg.Port != 8080 || cfg.RateLimitPerMinute != 0 {
		t.Fatalf("normalize did not repair values: %+v", cfg)
	}
	if len(fixed) == 0 {
		t.Fatal("expected fixed field names")
	}
}
