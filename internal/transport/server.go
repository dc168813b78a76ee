package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/ghosttype/internal/model"
	"github.com/verte-zerg/ghosttype/internal/replay"
)

// Handler upgrades requests to websockets and applies received batches to
// an injector, observing each event's delay before acknowledging.
type Handler struct {
	injector replay.Injector
	clock    replay.Clock
	logger   *log.Logger
	onBatch  func(seq, events int)
	upgrader websocket.Upgrader
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerClock replaces the wall clock used to observe delays.
func WithHandlerClock(c replay.Clock) HandlerOption {
	return func(h *Handler) {
		h.clock = c
	}
}

// WithHandlerLogger sets the logger for connection diagnostics.
func WithHandlerLogger(logger *log.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithBatchHook registers a callback run after each applied batch.
func WithBatchHook(fn func(seq, events int)) HandlerOption {
	return func(h *Handler) {
		h.onBatch = fn
	}
}

// NewHandler returns a Handler applying batches to inj.
func NewHandler(inj replay.Injector, opts ...HandlerOption) *Handler {
	h := &Handler{
		injector: inj,
		clock:    replay.RealClock(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Agents are driven by local tools, not browsers.
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP serves one sender until it disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf(log.WarnLevel, "websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	h.logf(log.InfoLevel, "sender connected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logf(log.WarnLevel, "websocket read failed", "err", err)
			}
			return
		}
		ack := h.handle(ctx, raw)
		data, err := json.Marshal(ack)
		if err != nil {
			h.logf(log.ErrorLevel, "failed to encode ack", "err", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logf(log.WarnLevel, "websocket write failed", "err", err)
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, raw []byte) AckMessage {
	var msg BatchMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return AckMessage{Error: fmt.Sprintf("failed to decode batch: %v", err)}
	}
	events, err := model.EventsFromWire(msg.Events)
	if err != nil {
		return AckMessage{Seq: msg.Seq, Error: err.Error()}
	}
	for i, ev := range events {
		if err := replay.Apply(ctx, h.injector, ev); err != nil {
			return AckMessage{Seq: msg.Seq, Error: fmt.Sprintf("failed to inject event %d: %v", i, err)}
		}
		if err := h.clock.Sleep(ctx, time.Duration(ev.Delay()*float64(time.Millisecond))); err != nil {
			return AckMessage{Seq: msg.Seq, Error: err.Error()}
		}
	}
	if h.onBatch != nil {
		h.onBatch(msg.Seq, len(events))
	}
	return AckMessage{Seq: msg.Seq, OK: true}
}

func (h *Handler) logf(level log.Level, msg string, keyvals ...interface{}) {
	if h.logger != nil {
		h.logger.Log(level, msg, keyvals...)
	}
}
