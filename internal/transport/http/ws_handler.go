package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/metrics"
	"github.com/vovakirdan/relaychat/internal/origin"
	"github.com/vovakirdan/relaychat/internal/proto"
)

const writeTimeout = 10 * time.Second

// SessionOptions bounds what a single connection may send.
type SessionOptions struct {
	MaxMessageBytes    int64
	RateLimitPerMinute int
}

// WSHandler checks the origin, upgrades the connection and runs a session.
type WSHandler struct {
	relay   *core.Relay
	guard   *origin.Guard
	opts    SessionOptions
	metrics *metrics.Registry
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(relay *core.Relay, guard *origin.Guard, opts SessionOptions, reg *metrics.Registry, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		relay:   relay,
		guard:   guard,
		opts:    opts,
		metrics: reg,
		log:     logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	originValues := r.Header.Values("Origin")
	originHeader := r.Header.Get("Origin")
	if !h.guard.Allowed(originHeader, len(originValues) > 0) {
		h.metrics.Incr(metrics.SessionsRejected, 1)
		h.log.Debug().Str("origin", originHeader).Str("remote", r.RemoteAddr).Msg("ws origin rejected")
		stdhttp.Error(w, "forbidden", stdhttp.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// origin already checked by the guard
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	sub, err := h.relay.Hub().Subscribe()
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer sub.Close()

	s := &session{
		id:      uuid.NewString(),
		conn:    conn,
		sub:     sub,
		relay:   h.relay,
		limiter: newRateLimiter(h.opts.RateLimitPerMinute),
		metrics: h.metrics,
	}
	logger := h.log.With().Str("session_id", s.id).Logger()
	s.log = &logger

	h.metrics.Incr(metrics.SessionsTotal, 1)
	h.metrics.Incr(metrics.SessionsActive, 1)
	defer h.metrics.Decr(metrics.SessionsActive, 1)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("session active")
	s.run(r.Context())
	s.log.Debug().Uint64("dropped", sub.Dropped()).Int("pending", sub.Pending()).Msg("session closed")
}

// session is the server side of one connection. The read loop feeds the
// relay; the write loop replays history and then forwards hub deliveries.
type session struct {
	id      string
	conn    *websocket.Conn
	sub     *core.Subscription
	relay   *core.Relay
	limiter *rateLimiter
	metrics *metrics.Registry
	log     *zerolog.Logger
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.readLoop(ctx)
	}()
	go func() {
		errCh <- s.writeLoop(ctx)
	}()

	err := <-errCh
	status, reason := s.closeStatus(err)

	// Close before cancel: cancelling a pending Read tears the connection
	// down without a close frame. The peer's reply unblocks the read loop.
	s.conn.Close(status, reason)
	cancel()
	<-errCh
}

// closeStatus maps the error that ended the first loop to a close code.
func (s *session) closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, core.ErrSubscriptionClosed):
		return websocket.StatusGoingAway, "server shutting down"
	}

	switch code := websocket.CloseStatus(err); code {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return code, "closing"
	case -1:
		s.log.Warn().Err(err).Msg("ws connection closed with error")
		return websocket.StatusInternalError, "connection error"
	default:
		s.log.Warn().Err(err).Msg("ws connection closed with error")
		return code, "connection error"
	}
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		inbound, err := proto.DecodeInbound(data)
		if err != nil {
			s.metrics.Incr(metrics.FramesInvalid, 1)
			s.log.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		if !s.limiter.allow() {
			s.metrics.Incr(metrics.FramesLimited, 1)
			s.log.Debug().Msg("rate limit exceeded, dropping message")
			continue
		}

		s.relay.Submit(inbound.User, inbound.Text)
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	for _, msg := range s.relay.History().Snapshot() {
		if err := s.write(ctx, msg); err != nil {
			return err
		}
	}

	for {
		msg, err := s.sub.Next(ctx)
		if err != nil {
			return err
		}
		if err := s.write(ctx, msg); err != nil {
			return err
		}
	}
}

func (s *session) write(ctx context.Context, msg core.Message) error {
	data, err := json.Marshal(wireFromMessage(msg))
	if err != nil {
		s.log.Debug().Err(err).Msg("skipping unencodable message")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Debug().Err(err).Msg("write ws message")
		return err
	}
	return nil
}
