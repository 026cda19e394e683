// Package hotkey provides the stop-key cancellation signal: an asynchronous
// listener sets a process-wide flag that the capture loop polls once per
// frame. The flag is the only state shared between the two.
package hotkey

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrListenerInit marks a listener that could not start (no tty, missing
// watch command). Non-fatal: capture proceeds with silence/ceiling-only
// termination.
var ErrListenerInit = errors.New("hotkey listener init failed")

// Signal is the shared cancellation flag. It transitions false to true at
// most once per session and is reset only at the start of the next one.
type Signal struct {
	cancelled atomic.Bool
}

func NewSignal() *Signal { return &Signal{} }

// Cancel sets the flag. Safe to call from any goroutine.
func (s *Signal) Cancel() { s.cancelled.Store(true) }

// Cancelled is a non-blocking read of the flag.
func (s *Signal) Cancelled() bool { return s.cancelled.Load() }

// Reset clears the flag for a fresh session.
func (s *Signal) Reset() { s.cancelled.Store(false) }

// Listener watches for the stop key and sets the Signal when it fires.
// Start must not block; Stop tears the watch down.
type Listener interface {
	Start(ctx context.Context) error
	Stop()
}

// NopListener is the explicit degraded mode: no stop key, only the silence
// timeout or the session ceiling can end the session.
type NopListener struct{}

func (NopListener) Start(context.Context) error { return nil }
func (NopListener) Stop()                       {}
