package inject

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// clipboardInjector places the transcript on the system clipboard instead
// of typing it. Useful where synthetic keystrokes are blocked (Wayland
// without a portal, remote desktops).
type clipboardInjector struct{}

func NewClipboard() Injector {
	return clipboardInjector{}
}

func (clipboardInjector) Type(_ context.Context, text string) error {
	text = cleanText(text)
	if text == "" {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: clipboard: %v", ErrInjection, err)
	}
	return nil
}
