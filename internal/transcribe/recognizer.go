// Package transcribe converts a finished session waveform into text via a
// local speech engine. Backends: whisper.cpp bindings (native), an external
// command fed a temp WAV (exec), and a mock for tests.
package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/murmurlabs/murmur/internal/config"
)

// ErrTranscription marks engine failures: model load errors, inference
// errors, unusable output. Fatal to the session; no text is injected.
var ErrTranscription = errors.New("transcription failed")

// Result is the recognizer output for one waveform.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer turns mono 16-bit PCM into text. Implementations are invoked
// once per completed session with a non-empty waveform.
type Recognizer interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (Result, error)
	Close() error
}

// New builds the recognizer selected by cfg.Mode.
func New(cfg config.STTConfig) (Recognizer, error) {
	switch cfg.Mode {
	case "native":
		return NewNative(cfg)
	case "exec":
		return NewExec(cfg)
	case "mock":
		return NewMock(), nil
	}
	return nil, fmt.Errorf("unknown stt mode %q", cfg.Mode)
}
