package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/ghosttype/internal/logger"
	"github.com/verte-zerg/ghosttype/internal/replay"
	"github.com/verte-zerg/ghosttype/internal/transport"
)

const shutdownTimeout = 5 * time.Second

// echoInjector mirrors keystrokes to a writer while recording them.
type echoInjector struct {
	mu  sync.Mutex
	out io.Writer
	buf *replay.Buffer
}

func newEchoInjector(out io.Writer) *echoInjector {
	return &echoInjector{out: out, buf: replay.NewBuffer()}
}

func (e *echoInjector) TypeRune(ctx context.Context, r rune) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.buf.TypeRune(ctx, r); err != nil {
		return err
	}
	_, err := io.WriteString(e.out, string(r))
	return err
}

func (e *echoInjector) Backspace(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf.Len() == 0 {
		return nil
	}
	if err := e.buf.Backspace(ctx); err != nil {
		return err
	}
	_, err := io.WriteString(e.out, "\b \b")
	return err
}

func newAgentCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Accept streamed plans over websocket and type them here",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			inj := newEchoInjector(cmd.OutOrStdout())
			handler := transport.NewHandler(inj,
				transport.WithHandlerLogger(logger.Get()),
				transport.WithBatchHook(func(seq, events int) {
					logger.Debug("batch applied", "seq", seq, "events", events)
				}),
			)
			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			logger.Info("agent listening", "addr", addr)
			logErrf("agent listening on ws://%s/\n", addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("agent server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop agent: %w", err)
			}
			logger.Info("agent stopped", "typed", inj.buf.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAgentAddr, "listen address")
	return cmd
}
