package audio

import "fmt"

// ScriptSource replays a fixed sequence of frames. It stands in for the
// microphone in tests and lets callers observe each read and fail at a
// chosen frame.
type ScriptSource struct {
	frames [][]int16
	// FailAt makes ReadFrame return a device error at this sequence index
	// (-1 disables).
	FailAt int
	// OnRead, when set, runs after each frame is produced with its index.
	OnRead func(seq int)

	seq        int
	opened     bool
	CloseCalls int
}

func NewScriptSource(frames ...[]int16) *ScriptSource {
	return &ScriptSource{frames: frames, FailAt: -1}
}

func (s *ScriptSource) Open() error {
	if s.opened {
		return fmt.Errorf("%w: source already open", ErrDevice)
	}
	s.opened = true
	return nil
}

func (s *ScriptSource) ReadFrame() (Frame, error) {
	if !s.opened {
		return Frame{}, fmt.Errorf("%w: source not open", ErrDevice)
	}
	if s.FailAt >= 0 && s.seq == s.FailAt {
		return Frame{}, fmt.Errorf("%w: scripted stream failure at frame %d", ErrDevice, s.seq)
	}
	if s.seq >= len(s.frames) {
		return Frame{}, fmt.Errorf("%w: script exhausted after %d frames", ErrDevice, s.seq)
	}
	frame := Frame{Seq: s.seq, Samples: s.frames[s.seq]}
	s.seq++
	if s.OnRead != nil {
		s.OnRead(frame.Seq)
	}
	return frame, nil
}

func (s *ScriptSource) Close() error {
	s.opened = false
	s.CloseCalls++
	return nil
}

// FramesRead reports how many frames have been consumed.
func (s *ScriptSource) FramesRead() int { return s.seq }

// ToneFrame builds a frame of n samples at a constant amplitude.
func ToneFrame(n int, amplitude int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = amplitude
	}
	return samples
}

// SilentFrame builds a frame of n zero samples.
func SilentFrame(n int) []int16 {
	return make([]int16, n)
}
