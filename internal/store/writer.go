package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/relaychat/internal/core"
	"github.com/vovakirdan/relaychat/internal/metrics"
)

const (
	// DefaultQueueSize bounds messages waiting for a durable write.
	DefaultQueueSize = 1024
	insertTimeout    = 5 * time.Second
)

// Writer persists messages on a single background goroutine so durable
// writes keep publish order and never block a publisher.
type Writer struct {
	st    HistoryStore
	queue chan core.Message
	log   *zerolog.Logger
	rec   *metrics.Registry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter creates a writer with room for size pending messages and starts
// its worker.
func NewWriter(st HistoryStore, size int, rec *metrics.Registry, logger *zerolog.Logger) *Writer {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	w := &Writer{
		st:    st,
		queue: make(chan core.Message, size),
		log:   logger,
		rec:   rec,
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue schedules msg for insertion. It returns false without blocking
// when the queue is full or the writer is closed.
func (w *Writer) Enqueue(msg core.Message) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}
	select {
	case w.queue <- msg:
		return true
	default:
		w.log.Warn().Str("user", msg.User).Msg("persist queue full, dropping durable write")
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be written,
// or for ctx to end.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)

	for msg := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		_, err := w.st.Insert(ctx, msg)
		cancel()
		if err != nil {
			w.rec.Incr(metrics.PersistFailed, 1)
			w.log.Warn().Err(err).Str("user", msg.User).Msg("failed to persist message")
			continue
		}
		w.rec.Incr(metrics.PersistWritten, 1)
	}
}
