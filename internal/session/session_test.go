package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/hotkey"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// frameSize for 50ms at 16kHz
const frameSize = 800

func testConfig() Config {
	return Config{
		SampleRate:       16000,
		SilenceThreshold: 0.002,
		SilenceStop:      1500 * time.Millisecond,
		MaxDuration:      120 * time.Second,
	}
}

// speechFrame has normalized RMS 0.05, well above the 0.002 threshold.
func speechFrame() []int16 { return audio.ToneFrame(frameSize, 1638) }

// faintFrame has normalized RMS ~0.0001, below the threshold.
func faintFrame() []int16 { return audio.ToneFrame(frameSize, 3) }

func repeat(n int, frame func() []int16) [][]int16 {
	frames := make([][]int16, n)
	for i := range frames {
		frames[i] = frame()
	}
	return frames
}

type recordingListener struct {
	startErr error
	started  int
	stopped  int
}

func (l *recordingListener) Start(context.Context) error {
	l.started++
	return l.startErr
}

func (l *recordingListener) Stop() { l.stopped++ }

func TestSilenceStopAfterSpeech(t *testing.T) {
	// 10 speech frames then 40 faint frames; the silence stop fires at the
	// 30th silent frame (1500ms) so exactly 40 frames are buffered.
	frames := append(repeat(10, speechFrame), repeat(40, faintFrame)...)
	src := audio.NewScriptSource(frames...)
	listener := &recordingListener{}
	s := New(testConfig(), src, listener, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeDone {
		t.Fatalf("expected done, got %v (err=%v)", result.Outcome, result.Err)
	}
	if result.Frames != 40 {
		t.Fatalf("expected 40 buffered frames, got %d", result.Frames)
	}
	if src.FramesRead() != 40 {
		t.Fatalf("expected 40 frames read from source, got %d", src.FramesRead())
	}
	if result.SpeechFrames != 10 {
		t.Fatalf("expected 10 speech frames, got %d", result.SpeechFrames)
	}
	if len(result.Samples) != 40*frameSize {
		t.Fatalf("expected %d samples, got %d", 40*frameSize, len(result.Samples))
	}
	if result.Recorded != 2*time.Second {
		t.Fatalf("expected 2s recorded, got %v", result.Recorded)
	}
	if s.State() != StateDone {
		t.Fatalf("expected terminal state done, got %v", s.State())
	}
	if src.CloseCalls != 1 {
		t.Fatalf("source must be closed exactly once, got %d", src.CloseCalls)
	}
	if listener.started != 1 {
		t.Fatalf("listener must be started once, got %d", listener.started)
	}
	if listener.stopped == 0 {
		t.Fatal("listener must be stopped")
	}
}

func TestWaveformPreservesFrameOrder(t *testing.T) {
	// three speech frames with distinct amplitudes, then enough silence
	frames := [][]int16{
		audio.ToneFrame(frameSize, 1000),
		audio.ToneFrame(frameSize, 2000),
		audio.ToneFrame(frameSize, 3000),
	}
	frames = append(frames, repeat(30, faintFrame)...)
	src := audio.NewScriptSource(frames...)
	s := New(testConfig(), src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())
	if result.Outcome != OutcomeDone {
		t.Fatalf("expected done, got %v", result.Outcome)
	}
	for i, want := range []int16{1000, 2000, 3000} {
		if got := result.Samples[i*frameSize]; got != want {
			t.Fatalf("frame %d out of order: sample %d, want %d", i, got, want)
		}
	}
}

func TestCancellationAtFrameN(t *testing.T) {
	src := audio.NewScriptSource(repeat(100, speechFrame)...)
	signal := hotkey.NewSignal()
	// cancel while the 5th frame (seq 4) is being delivered
	src.OnRead = func(seq int) {
		if seq == 4 {
			signal.Cancel()
		}
	}
	s := New(testConfig(), src, &recordingListener{}, signal, newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled, got %v", result.Outcome)
	}
	if result.Frames != 5 {
		t.Fatalf("expected exactly 5 frames, got %d", result.Frames)
	}
	if src.FramesRead() != 5 {
		t.Fatalf("no frames may be read post-cancellation, read %d", src.FramesRead())
	}
	if src.CloseCalls != 1 {
		t.Fatalf("source must be closed exactly once, got %d", src.CloseCalls)
	}
	if s.State() != StateCancelled {
		t.Fatalf("expected cancelled state, got %v", s.State())
	}
}

func TestCeilingEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = 500 * time.Millisecond // 10 frames at 50ms

	// continuous speech never triggers the silence stop
	src := audio.NewScriptSource(repeat(100, speechFrame)...)
	s := New(cfg, src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeDone {
		t.Fatalf("ceiling stop with speech should be done, got %v", result.Outcome)
	}
	if result.Recorded > cfg.MaxDuration {
		t.Fatalf("recorded %v exceeds ceiling %v", result.Recorded, cfg.MaxDuration)
	}
	if result.Frames != 10 {
		t.Fatalf("expected 10 frames at the ceiling, got %d", result.Frames)
	}
}

func TestNoSpeechBeforeCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = 1 * time.Second // 20 frames

	src := audio.NewScriptSource(repeat(40, faintFrame)...)
	s := New(cfg, src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeNoSpeech {
		t.Fatalf("expected no-speech outcome, got %v", result.Outcome)
	}
	if result.Samples != nil {
		t.Fatal("no-speech session must yield an empty waveform")
	}
	if result.Frames != 20 {
		t.Fatalf("expected 20 frames before ceiling, got %d", result.Frames)
	}
}

func TestDeviceFailureMidLoop(t *testing.T) {
	src := audio.NewScriptSource(repeat(10, speechFrame)...)
	src.FailAt = 3
	s := New(testConfig(), src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %v", result.Outcome)
	}
	if !errors.Is(result.Err, audio.ErrDevice) {
		t.Fatalf("expected device error, got %v", result.Err)
	}
	if src.CloseCalls != 1 {
		t.Fatalf("device must be released exactly once on read failure, got %d", src.CloseCalls)
	}
	if s.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", s.State())
	}
}

func TestOpenFailure(t *testing.T) {
	src := audio.NewScriptSource()
	if err := src.Open(); err != nil {
		t.Fatalf("prime open: %v", err)
	}
	// second Open fails, simulating an unavailable device
	s := New(testConfig(), src, &recordingListener{}, hotkey.NewSignal(), newLogger())
	result := s.Run(context.Background())
	if result.Outcome != OutcomeFailed || !errors.Is(result.Err, audio.ErrDevice) {
		t.Fatalf("expected device open failure, got %v (err=%v)", result.Outcome, result.Err)
	}
}

func TestListenerInitFailureIsDegradedNotFatal(t *testing.T) {
	frames := append(repeat(5, speechFrame), repeat(30, faintFrame)...)
	src := audio.NewScriptSource(frames...)
	listener := &recordingListener{startErr: hotkey.ErrListenerInit}
	s := New(testConfig(), src, listener, hotkey.NewSignal(), newLogger())

	result := s.Run(context.Background())

	if result.Outcome != OutcomeDone {
		t.Fatalf("degraded session should still finish, got %v (err=%v)", result.Outcome, result.Err)
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := audio.NewScriptSource(repeat(50, speechFrame)...)
	src.OnRead = func(seq int) {
		if seq == 2 {
			cancel()
		}
	}
	s := New(testConfig(), src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	result := s.Run(ctx)
	if result.Outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled on context, got %v", result.Outcome)
	}
	if result.Frames != 3 {
		t.Fatalf("expected 3 frames, got %d", result.Frames)
	}
}

func TestSessionNotReusable(t *testing.T) {
	frames := append(repeat(5, speechFrame), repeat(30, faintFrame)...)
	src := audio.NewScriptSource(frames...)
	s := New(testConfig(), src, &recordingListener{}, hotkey.NewSignal(), newLogger())

	if result := s.Run(context.Background()); result.Outcome != OutcomeDone {
		t.Fatalf("first run: %v", result.Outcome)
	}
	second := s.Run(context.Background())
	if second.Outcome != OutcomeFailed || !errors.Is(second.Err, ErrReused) {
		t.Fatalf("expected reuse failure, got %v (err=%v)", second.Outcome, second.Err)
	}
}

func TestFreshSessionAfterTerminalState(t *testing.T) {
	signal := hotkey.NewSignal()
	signal.Cancel() // stale flag from a previous session

	frames := append(repeat(5, speechFrame), repeat(30, faintFrame)...)
	src := audio.NewScriptSource(frames...)
	s := New(testConfig(), src, &recordingListener{}, signal, newLogger())

	result := s.Run(context.Background())
	if result.Outcome != OutcomeDone {
		t.Fatalf("fresh session must reset the flag, got %v", result.Outcome)
	}
}
