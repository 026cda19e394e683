package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// TerminalListener watches the controlling terminal in raw mode and sets
// the signal when the configured stop key is pressed.
type TerminalListener struct {
	stopKey  string
	signal   *Signal
	log      *slog.Logger
	fd       int
	oldState *term.State
}

func NewTerminalListener(stopKey string, signal *Signal, log *slog.Logger) *TerminalListener {
	return &TerminalListener{stopKey: stopKey, signal: signal, log: log, fd: int(os.Stdin.Fd())}
}

// Start puts stdin into raw mode and begins watching for the stop key in a
// background goroutine. Fails with ErrListenerInit when stdin is not a
// terminal or the key name is unknown.
func (t *TerminalListener) Start(ctx context.Context) error {
	key, err := keyByte(t.stopKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListenerInit, err)
	}
	if !term.IsTerminal(t.fd) {
		return fmt.Errorf("%w: stdin is not a terminal", ErrListenerInit)
	}
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("%w: raw mode: %v", ErrListenerInit, err)
	}
	t.oldState = state

	go t.watch(ctx, key)
	t.log.Info("stop key armed", slog.String("key", t.stopKey))
	return nil
}

// watch reads stdin one byte at a time until the stop key arrives or the
// context ends. The blocking read is released by process exit; a one-shot
// CLI never outlives it.
func (t *TerminalListener) watch(ctx context.Context, key byte) {
	buf := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 1 && buf[0] == key {
			t.log.Info("stop key pressed")
			t.signal.Cancel()
			return
		}
	}
}

// Stop restores the terminal state.
func (t *TerminalListener) Stop() {
	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}

// keyByte maps a configured key name to the raw byte delivered by the
// terminal.
func keyByte(name string) (byte, error) {
	switch name {
	case "esc", "escape":
		return 0x1b, nil
	case "enter", "return":
		return '\r', nil
	case "space":
		return ' ', nil
	case "tab":
		return '\t', nil
	}
	if len(name) == 1 {
		return name[0], nil
	}
	return 0, fmt.Errorf("unknown stop key %q", name)
}
