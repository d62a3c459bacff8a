package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/metrics"
)

// APIHandlers serves read-only JSON views of the relay state.
type APIHandlers struct {
	relay   *core.Relay
	metrics *metrics.Registry
	log     *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(relay *core.Relay, reg *metrics.Registry, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		relay:   relay,
		metrics: reg,
		log:     logger,
	}
}

// History returns the current history snapshot, oldest first.
// GET /api/history
func (h *APIHandlers) History(c *gin.Context) {
	c.JSON(http.StatusOK, wireFromHistory(h.relay.History().Snapshot()))
}

// Metrics returns relay counters and gauges.
// GET /api/metrics
func (h *APIHandlers) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
