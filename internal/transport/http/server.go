package http

import (
	stdhttp "net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/config"
	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/metrics"
	"github.com/vovakirdan/relaychat/internal/origin"
)

// NewServer builds an HTTP server with the relay routes.
func NewServer(relay *core.Relay, cfg *config.Config, reg *metrics.Registry, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(relay, cfg, reg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the health, WebSocket, API and static routes.
// The WebSocket endpoint sits on a plain ServeMux in front of gin, whose
// response writer refuses to hijack after the upgrade response is written.
func NewRouter(relay *core.Relay, cfg *config.Config, reg *metrics.Registry, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	guard := origin.Parse(cfg.AllowedOrigins)
	if guard.AllowsAll() {
		logger.Info().Msg("accepting websocket connections from any origin")
	} else {
		logger.Info().Strs("origins", guard.Entries()).Msg("websocket origin allowlist")
	}

	ws := NewWSHandler(relay, guard, SessionOptions{
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, reg, logger)

	api := NewAPIHandlers(relay, reg, logger)

	router.GET("/health", healthHandler)
	router.GET("/api/history", api.History)
	router.GET("/api/metrics", api.Metrics)

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			router.NoRoute(gin.WrapH(stdhttp.FileServer(stdhttp.Dir(cfg.StaticDir))))
		} else {
			logger.Debug().Str("dir", cfg.StaticDir).Msg("static directory not found, asset serving disabled")
		}
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)
	return mux
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
