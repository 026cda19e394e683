// Package session drives one dictation capture: it pulls frames from the
// audio source, folds them through the activity detector, polls the
// cancellation signal once per frame, and ends on silence timeout, ceiling,
// stop key, or device failure. The finished waveform is handed to the
// caller exactly once.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/hotkey"
	"github.com/murmurlabs/murmur/internal/vad"
)

// State is the capture state machine position.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome classifies how a session ended.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeCancelled
	OutcomeNoSpeech
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoSpeech:
		return "no_speech"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// ErrReused is returned when Run is called on a consumed session. Session
// objects are single-shot; create a fresh one per dictation.
var ErrReused = errors.New("session already consumed")

// Config carries the capture parameters for one session.
type Config struct {
	SampleRate       int
	SilenceThreshold float64
	SilenceStop      time.Duration
	MaxDuration      time.Duration
}

// Result is the session outcome plus the captured waveform. Samples is the
// concatenation of every buffered frame; it is non-empty for OutcomeDone
// and carried (but ignored by callers) for OutcomeCancelled.
type Result struct {
	Outcome      Outcome
	Samples      []int16
	Frames       int
	SpeechFrames int
	Recorded     time.Duration
	Err          error
}

// Session is the aggregate for one dictation attempt. Not reusable.
type Session struct {
	cfg      Config
	source   audio.Source
	listener hotkey.Listener
	signal   *hotkey.Signal
	detector *vad.Detector
	log      *slog.Logger

	state    State
	consumed bool
}

func New(cfg Config, source audio.Source, listener hotkey.Listener, signal *hotkey.Signal, log *slog.Logger) *Session {
	return &Session{
		cfg:      cfg,
		source:   source,
		listener: listener,
		signal:   signal,
		detector: vad.New(cfg.SilenceThreshold),
		log:      log,
		state:    StateIdle,
	}
}

// State reports the current state machine position.
func (s *Session) State() State { return s.state }

// Run executes the capture loop to a terminal state. The audio device and
// the listener are released exactly once on every exit path. The context
// cancels the session the same way the stop key does.
func (s *Session) Run(ctx context.Context) Result {
	if s.consumed {
		return Result{Outcome: OutcomeFailed, Err: ErrReused}
	}
	s.consumed = true

	s.signal.Reset()
	s.detector.Reset()

	if err := s.source.Open(); err != nil {
		s.state = StateFailed
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	sourceClosed := false
	closeSource := func() {
		if !sourceClosed {
			sourceClosed = true
			if err := s.source.Close(); err != nil {
				s.log.Warn("audio source close failed", slog.String("error", err.Error()))
			}
		}
	}
	defer closeSource()

	if err := s.listener.Start(ctx); err != nil {
		if errors.Is(err, hotkey.ErrListenerInit) {
			// degraded mode: only the silence timeout or the ceiling can
			// end this session
			s.log.Warn("stop key unavailable, continuing without cancellation",
				slog.String("error", err.Error()))
		} else {
			s.state = StateFailed
			return Result{Outcome: OutcomeFailed, Err: err}
		}
	}
	defer s.listener.Stop()

	s.state = StateRecording
	s.log.Info("recording started",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Duration("silence_stop", s.cfg.SilenceStop),
		slog.Duration("max_duration", s.cfg.MaxDuration))

	var (
		frames       []audio.Frame
		speechFrames int
		recorded     time.Duration
	)

	for {
		frame, err := s.source.ReadFrame()
		if err != nil {
			s.state = StateFailed
			closeSource()
			return Result{
				Outcome:  OutcomeFailed,
				Frames:   len(frames),
				Recorded: recorded,
				Err:      err,
			}
		}

		frames = append(frames, frame)
		recorded += frame.Duration(s.cfg.SampleRate)
		if s.detector.Observe(frame.Samples, frame.Duration(s.cfg.SampleRate)) {
			speechFrames++
		}

		if s.signal.Cancelled() || ctx.Err() != nil {
			s.state = StateCancelled
			s.log.Info("recording cancelled",
				slog.Int("frames", len(frames)),
				slog.Duration("recorded", recorded))
			return Result{
				Outcome:      OutcomeCancelled,
				Samples:      concat(frames),
				Frames:       len(frames),
				SpeechFrames: speechFrames,
				Recorded:     recorded,
			}
		}

		if s.detector.SpeechStarted() && s.detector.SilentFor() >= s.cfg.SilenceStop {
			s.log.Info("utterance complete",
				slog.Duration("trailing_silence", s.detector.SilentFor()))
			break
		}

		if recorded >= s.cfg.MaxDuration {
			// boundary condition, not an error: capture is cut at the
			// safety ceiling
			s.log.Warn("session ceiling reached",
				slog.Duration("recorded", recorded))
			break
		}
	}

	s.state = StateFinalizing
	closeSource()
	s.listener.Stop()

	result := Result{
		Samples:      concat(frames),
		Frames:       len(frames),
		SpeechFrames: speechFrames,
		Recorded:     recorded,
	}
	if !s.detector.SpeechStarted() {
		s.state = StateDone
		result.Outcome = OutcomeNoSpeech
		result.Samples = nil
		s.log.Info("no speech detected", slog.Duration("recorded", recorded))
		return result
	}

	s.state = StateDone
	result.Outcome = OutcomeDone
	s.log.Info("recording finished",
		slog.Int("frames", result.Frames),
		slog.Int("speech_frames", result.SpeechFrames),
		slog.Duration("recorded", recorded))
	return result
}

func concat(frames []audio.Frame) []int16 {
	var n int
	for _, f := range frames {
		n += len(f.Samples)
	}
	samples := make([]int16, 0, n)
	for _, f := range frames {
		samples = append(samples, f.Samples...)
	}
	return samples
}
