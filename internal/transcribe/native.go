// This file contains the whisper.cpp-backed recognizer using the CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH.

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/murmurlabs/murmur/internal/config"
)

// nativeRecognizer runs whisper.cpp in-process. The model is loaded once at
// construction and released by Close.
type nativeRecognizer struct {
	model    whisperlib.Model
	language string
}

func NewNative(cfg config.STTConfig) (Recognizer, error) {
	path := cfg.ModelPath
	if path == "" {
		path = fmt.Sprintf("models/ggml-%s.bin", cfg.ModelName)
	}
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load model %q: %v", ErrTranscription, path, err)
	}
	return &nativeRecognizer{model: model, language: cfg.Language}, nil
}

func (r *nativeRecognizer) Transcribe(_ context.Context, samples []int16, _ int) (Result, error) {
	// Each whisper context is single-use and not thread-safe; the model is
	// shared.
	wctx, err := r.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("%w: create context: %v", ErrTranscription, err)
	}
	if r.language != "" {
		if err := wctx.SetLanguage(r.language); err != nil {
			return Result{}, fmt.Errorf("%w: set language %q: %v", ErrTranscription, r.language, err)
		}
	}

	if err := wctx.Process(toFloat32(samples), nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("%w: process audio: %v", ErrTranscription, err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: read segment: %v", ErrTranscription, err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return Result{Text: strings.Join(parts, " ")}, nil
}

func (r *nativeRecognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}

// toFloat32 converts 16-bit PCM to the normalized float samples whisper.cpp
// expects.
func toFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
