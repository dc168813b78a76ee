package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/ghosttype/internal/model"
)

// DefaultAckSlack is added to a batch's planned duration when waiting for
// its acknowledgement.
const DefaultAckSlack = 5 * time.Second

// WSInjector sends batches to an agent and waits for each to be applied.
// It satisfies replay.Injector and replay.BatchInjector.
type WSInjector struct {
	conn     *websocket.Conn
	ackSlack time.Duration
	logger   *log.Logger

	mu  sync.Mutex
	seq int
}

// ClientOption configures a WSInjector.
type ClientOption func(*WSInjector)

// WithAckSlack changes the extra time allowed for an acknowledgement.
func WithAckSlack(d time.Duration) ClientOption {
	return func(w *WSInjector) {
		if d > 0 {
			w.ackSlack = d
		}
	}
}

// WithClientLogger sets the logger used for batch diagnostics.
func WithClientLogger(logger *log.Logger) ClientOption {
	return func(w *WSInjector) {
		w.logger = logger
	}
}

// Dial connects to the agent at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...ClientOption) (*WSInjector, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial agent: %w", err)
	}
	w := &WSInjector{conn: conn, ackSlack: DefaultAckSlack}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Inject sends batch and blocks until the agent acknowledges it.
func (w *WSInjector) Inject(ctx context.Context, batch []model.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	msg := BatchMessage{Seq: w.seq, Events: model.EventsToWire(batch)}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		// Unblocks a pending read or write.
		_ = w.conn.SetReadDeadline(time.Now())
		_ = w.conn.SetWriteDeadline(time.Now())
	})
	defer stop()

	planned := time.Duration(model.NewPlan(batch).TotalTimeMs * float64(time.Millisecond))
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.ackSlack)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return w.ctxErr(ctx, fmt.Errorf("failed to send batch %d: %w", msg.Seq, err))
	}
	if err := w.conn.SetReadDeadline(time.Now().Add(planned + w.ackSlack)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	_, raw, err := w.conn.ReadMessage()
	if err != nil {
		return w.ctxErr(ctx, fmt.Errorf("failed to read ack %d: %w", msg.Seq, err))
	}
	var ack AckMessage
	if err := json.Unmarshal(raw, &ack); err != nil {
		return fmt.Errorf("failed to decode ack: %w", err)
	}
	if ack.Seq != msg.Seq {
		return fmt.Errorf("ack out of order: got %d, want %d", ack.Seq, msg.Seq)
	}
	if !ack.OK {
		return fmt.Errorf("agent rejected batch %d: %s", ack.Seq, ack.Error)
	}
	if w.logger != nil {
		w.logger.Debug("batch acknowledged", "seq", ack.Seq, "events", len(batch))
	}
	return nil
}

// TypeRune sends a single type event with no delay.
func (w *WSInjector) TypeRune(ctx context.Context, r rune) error {
	return w.Inject(ctx, []model.Event{model.TypeEvent{Char: r}})
}

// Backspace sends a single delete event with no delay.
func (w *WSInjector) Backspace(ctx context.Context) error {
	return w.Inject(ctx, []model.Event{model.DeleteEvent{}})
}

// Close sends a close frame and closes the connection.
func (w *WSInjector) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *WSInjector) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
