package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
)

// InterruptHandler cancels a batch run on SIGINT/SIGTERM and reports how far
// it got.
type InterruptHandler struct {
	writer   io.Writer
	progress func() (done, total int)
	once     sync.Once
	fired    atomic.Bool
}

// NewInterruptHandler creates a handler writing its notice to writer.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts returns a context canceled on the first interrupt.
// progress, if not nil, supplies the counts for the notice.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, progress func() (done, total int)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	h.progress = progress

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func (h *InterruptHandler) interrupt() {
	h.once.Do(h.report)
}

func (h *InterruptHandler) report() {
	h.fired.Store(true)
	if _, err := fmt.Fprint(h.writer, h.notice()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

func (h *InterruptHandler) notice() string {
	var b strings.Builder
	b.WriteString("\n\n" + FormatWarning("Recognition interrupted!") + "\n")
	if h.progress != nil {
		done, total := h.progress()
		b.WriteString(FormatInfo(fmt.Sprintf("Recognized %d of %d photos before stopping.", done, total)) + "\n")
	}
	return b.String()
}

// WasInterrupted reports whether an interrupt arrived.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.fired.Load()
}
