package app

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/metrics"
	"github.com/vovakirdan/relaychat/internal/store"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/relaychat/internal/transport/http"
)

const seedTimeout = 10 * time.Second

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	metricsInterval time.Duration
	hub             *core.Hub
	relay           *core.Relay
	store           store.HistoryStore
	writer          *store.Writer
	metrics         *metrics.Registry
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
// A broken history database is logged and the relay runs without persistence.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	reg := metrics.New()

	history := core.NewHistory(cfg.MaxHistory)
	hub := core.NewHub(cfg.BroadcastCapacity, reg)

	var (
		st      store.HistoryStore
		writer  *store.Writer
		persist core.Persister
	)
	if cfg.PersistenceEnabled() {
		st = openStore(cfg.HistoryDBPath, logger)
	} else {
		logger.Info().Msg("history persistence disabled")
	}
	if st != nil {
		history.Seed(loadSeed(st, history.Cap(), logger))
		writer = store.NewWriter(st, cfg.PersistQueueSize, reg, logger)
		persist = writer
	}

	relay := core.NewRelay(hub, history, persist, reg)

	reg.Gauge(metrics.HubSubscribers, func() int64 { return int64(hub.Subscribers()) })
	reg.Gauge(metrics.HistorySize, func() int64 { return int64(history.Len()) })

	server := transporthttp.NewServer(relay, cfg, reg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		metricsInterval: cfg.MetricsInterval,
		hub:             hub,
		relay:           relay,
		store:           st,
		writer:          writer,
		metrics:         reg,
		log:             logger,
	}
}

// Relay exposes the relay, mainly for tests.
func (a *App) Relay() *core.Relay { return a.relay }

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.cleanup()
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the server on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	defer stopMetrics()
	go a.metrics.Report(metricsCtx, a.metricsInterval, a.log)

	a.log.Info().Str("addr", ln.Addr().String()).Msg("relay listening")
	go func() {
		if err := a.server.Serve(ln); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.hub.Close()
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked WebSocket connections are not tracked by Shutdown;
		// closing the hub ends every session.
		a.hub.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup flushes pending durable writes and closes the store.
func (a *App) cleanup() {
	if a.writer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.writer.Close(ctx); err != nil {
			a.log.Warn().Err(err).Msg("pending history writes not flushed")
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

func openStore(path string, logger *zerolog.Logger) store.HistoryStore {
	st, err := sqlite.New(path)
	if err != nil {
		logger.Warn().Err(err).Str("db_path", path).Msg("history store unavailable, continuing without persistence")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()
	if err := st.Initialize(ctx); err != nil {
		st.Close()
		logger.Warn().Err(err).Str("db_path", path).Msg("history store unavailable, continuing without persistence")
		return nil
	}

	logger.Info().Str("db_path", path).Msg("history store initialized")
	return st
}

func loadSeed(st store.HistoryStore, limit int, logger *zerolog.Logger) []core.Message {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	msgs, err := st.LoadRecent(ctx, limit)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load history, starting empty")
		return nil
	}
	logger.Info().Int("messages", len(msgs)).Msg("history seeded")
	return msgs
}
