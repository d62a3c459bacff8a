package app

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
)

func testConfig(t *testing.T, dbPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HistoryDBPath = dbPath
	cfg.StaticDir = ""
	cfg.ShutdownTimeout = 2 * time.Second
	return &cfg
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func runApp(t *testing.T, a *App) (cancel func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	return func() {
		stop()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("app did not shut down")
		}
	}
}

func TestAppSeedsHistoryFromStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chat.db")

	first := New(testConfig(t, dbPath), nopLogger())
	stop := runApp(t, first)
	for _, text := range []string{"a", "b", "c"} {
		first.Relay().Submit("alice", text)
	}
	stop()

	cfg := testConfig(t, dbPath)
	cfg.MaxHistory = 2
	second := New(cfg, nopLogger())
	defer second.cleanup()

	snap := second.Relay().History().Snapshot()
	if len(snap) != 2 || snap[0].Text != "b" || snap[1].Text != "c" {
		t.Fatalf("unexpected seeded history: %+v", snap)
	}
}

func TestAppWithoutPersistence(t *testing.T) {
	a := New(testConfig(t, ""), nopLogger())
	if a.store != nil || a.writer != nil {
		t.Fatal("blank db path should disable persistence")
	}
	stop := runApp(t, a)
	a.Relay().Submit("bob", "ephemeral")
	stop()
}

func TestAppDegradesOnBrokenStore(t *testing.T) {
	// a directory is not a usable database file
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "db"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	a := New(testConfig(t, filepath.Join(dir, "db")), nopLogger())
	if a.store != nil {
		t.Fatal("expected store to be disabled")
	}
	if a.Relay().History().Len() != 0 {
		t.Fatal("expected empty history")
	}
	a.Relay().Submit("carol", "still works")
	if a.Relay().History().Len() != 1 {
		t.Fatal("relay should keep working without persistence")
	}
}

func TestAppRunFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := testConfig(t, "")
	addr := ln.Addr().(*net.TCPAddr)
	cfg.Host = "127.0.0.1"
	cfg.Port = addr.Port

	a := New(cfg, nopLogger())
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected bind error")
	}
}
