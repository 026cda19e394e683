// Package inject delivers recognized text to the focused application,
// either as synthetic keystrokes via an external typing command or by
// placing it on the clipboard.
package inject

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/murmurlabs/murmur/internal/config"
)

// ErrInjection marks delivery failures: typing command failed, no display,
// clipboard unavailable. Fatal to the session; the transcript is not
// retried or queued.
var ErrInjection = errors.New("text injection failed")

// Injector types text into whatever currently holds input focus.
type Injector interface {
	Type(ctx context.Context, text string) error
}

// New builds the injector selected by cfg.Mode.
func New(cfg config.InjectConfig) (Injector, error) {
	switch cfg.Mode {
	case "exec":
		return NewExec(cfg.Command)
	case "clipboard":
		return NewClipboard(), nil
	case "mock":
		return &Mock{}, nil
	}
	return nil, fmt.Errorf("unknown inject mode %q", cfg.Mode)
}

// cleanText collapses newlines into spaces so the typing command delivers
// one clean stream without submitting forms or splitting lines.
func cleanText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}

// Mock records typed text for tests.
type Mock struct {
	Typed []string
	Err   error
}

func (m *Mock) Type(_ context.Context, text string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Typed = append(m.Typed, text)
	return nil
}
