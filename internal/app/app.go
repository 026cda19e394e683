// Package app wires one dictation invocation end to end: capture session,
// transcription, text injection, session history, and the mapping from
// outcome to process exit code.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/config"
	"github.com/murmurlabs/murmur/internal/history"
	"github.com/murmurlabs/murmur/internal/hotkey"
	"github.com/murmurlabs/murmur/internal/inject"
	"github.com/murmurlabs/murmur/internal/session"
	"github.com/murmurlabs/murmur/internal/transcribe"
)

// Exit codes let shortcut tooling distinguish outcomes.
const (
	ExitOK            = 0
	ExitStartup       = 1
	ExitCancelled     = 10
	ExitNoSpeech      = 11
	ExitDevice        = 12
	ExitTranscription = 13
	ExitInjection     = 14
)

// App runs one dictation session. The collaborator fields are built from
// config when nil; tests fill them with scripted implementations.
type App struct {
	cfg config.Config
	log *slog.Logger

	Source     audio.Source
	Listener   hotkey.Listener
	Signal     *hotkey.Signal
	Recognizer transcribe.Recognizer
	Injector   inject.Injector
	Store      *history.Store
	Notify     func(title, message string)
}

func New(cfg config.Config, log *slog.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Run executes the pipeline and returns the process exit code. All
// failures surface here; nothing is retried.
func (a *App) Run(ctx context.Context) int {
	shutdownTelemetry, err := setupTracing(a.cfg, a.log)
	if err != nil {
		a.log.Error("failed to set up tracing", slog.String("error", err.Error()))
		return ExitStartup
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			a.log.Warn("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}()

	if a.Notify == nil {
		a.Notify = notifier(a.cfg, a.log)
	}
	if a.Store == nil {
		store, err := history.Open(ctx, a.cfg.History, a.log)
		if err != nil {
			// history is bookkeeping, never a reason to refuse dictation
			a.log.Warn("session history unavailable", slog.String("error", err.Error()))
		} else {
			a.Store = store
			defer a.Store.Close()
		}
	}

	if a.Recognizer == nil {
		recognizer, err := transcribe.New(a.cfg.STT)
		if err != nil {
			a.log.Error("failed to initialize transcription engine", slog.String("error", err.Error()))
			a.Notify("Murmur", "Transcription engine failed to load")
			return ExitTranscription
		}
		a.Recognizer = recognizer
	}
	defer func() {
		if err := a.Recognizer.Close(); err != nil {
			a.log.Warn("recognizer close failed", slog.String("error", err.Error()))
		}
	}()

	if a.Injector == nil {
		injector, err := inject.New(a.cfg.Inject)
		if err != nil {
			a.log.Error("failed to initialize injector", slog.String("error", err.Error()))
			return ExitStartup
		}
		a.Injector = injector
	}

	if a.Signal == nil {
		a.Signal = hotkey.NewSignal()
	}
	if a.Listener == nil {
		a.Listener = a.buildListener()
	}
	if a.Source == nil {
		a.Source = audio.NewDeviceSource(a.cfg.Audio, a.log)
	}

	sessionID := uuid.NewString()
	tracer := otel.Tracer("murmur")
	ctx, span := tracer.Start(ctx, "dictation",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	result := a.capture(ctx, tracer)
	a.record(ctx, sessionID, result)

	switch result.Outcome {
	case session.OutcomeCancelled:
		a.Notify("Murmur", "Dictation cancelled")
		return ExitCancelled
	case session.OutcomeNoSpeech:
		a.Notify("Murmur", "No speech detected")
		return ExitNoSpeech
	case session.OutcomeFailed:
		a.log.Error("session failed", slog.String("error", result.Err.Error()))
		a.Notify("Murmur", "Recording failed")
		if errors.Is(result.Err, audio.ErrDevice) {
			return ExitDevice
		}
		return ExitStartup
	}

	text, err := a.transcribe(ctx, tracer, result)
	if err != nil {
		a.log.Error("transcription failed", slog.String("error", err.Error()))
		a.Notify("Murmur", "Transcription failed")
		return ExitTranscription
	}
	if text == "" {
		a.log.Info("transcription produced no text, nothing to inject")
		return ExitOK
	}

	if err := a.inject(ctx, tracer, text); err != nil {
		a.log.Error("injection failed", slog.String("error", err.Error()))
		a.Notify("Murmur", "Could not type transcript")
		return ExitInjection
	}

	a.log.Info("dictation complete", slog.Int("chars", len(text)))
	return ExitOK
}

func (a *App) buildListener() hotkey.Listener {
	switch a.cfg.Hotkey.Mode {
	case "terminal":
		return hotkey.NewTerminalListener(a.cfg.Hotkey.StopKey, a.Signal, a.log)
	case "exec":
		return hotkey.NewExecListener(a.cfg.Hotkey.Command, a.Signal, a.log)
	}
	return hotkey.NopListener{}
}

func (a *App) capture(ctx context.Context, tracer trace.Tracer) session.Result {
	ctx, span := tracer.Start(ctx, "capture")
	defer span.End()

	s := session.New(session.Config{
		SampleRate:       a.cfg.Audio.SampleRate,
		SilenceThreshold: a.cfg.Capture.SilenceThreshold,
		SilenceStop:      time.Duration(a.cfg.Capture.SilenceStopMS) * time.Millisecond,
		MaxDuration:      time.Duration(a.cfg.Capture.MaxSessionMS) * time.Millisecond,
	}, a.Source, a.Listener, a.Signal, a.log)

	result := s.Run(ctx)
	span.SetAttributes(
		attribute.String("outcome", result.Outcome.String()),
		attribute.Int("frames", result.Frames),
		attribute.Int64("recorded_ms", result.Recorded.Milliseconds()),
	)
	return result
}

func (a *App) transcribe(ctx context.Context, tracer trace.Tracer, result session.Result) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe")
	defer span.End()

	transcript, err := a.Recognizer.Transcribe(ctx, result.Samples, a.cfg.Audio.SampleRate)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("chars", len(transcript.Text)))
	return transcript.Text, nil
}

func (a *App) inject(ctx context.Context, tracer trace.Tracer, text string) error {
	ctx, span := tracer.Start(ctx, "inject")
	defer span.End()
	return a.Injector.Type(ctx, text)
}

func (a *App) record(ctx context.Context, sessionID string, result session.Result) {
	if a.Store == nil {
		return
	}
	entry := history.Entry{
		ID:           sessionID,
		Outcome:      result.Outcome.String(),
		Engine:       a.cfg.STT.Mode,
		Frames:       result.Frames,
		SpeechFrames: result.SpeechFrames,
		RecordedMS:   result.Recorded.Milliseconds(),
	}
	if err := a.Store.Record(ctx, entry); err != nil {
		a.log.Warn("failed to record session history", slog.String("error", err.Error()))
	}
}
