// Package audio captures fixed-size PCM frames from a microphone input
// stream. Frames are mono 16-bit signed samples tagged with a strictly
// increasing sequence index.
package audio

import (
	"errors"
	"time"
)

// ErrDevice marks microphone failures: no input device, unsupported format,
// or a stream error mid-capture. All of them are fatal to the session.
var ErrDevice = errors.New("audio device error")

// Frame is one fixed-duration block of mono PCM samples. Immutable once
// produced; the capture loop owns it after ReadFrame returns.
type Frame struct {
	Seq     int
	Samples []int16
}

// Duration returns the frame length in wall time at the given sample rate.
func (f Frame) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(sampleRate)
}

// Source produces frames from an input device. Open must be called before
// ReadFrame, and Close exactly once per successful Open, on every exit path.
type Source interface {
	Open() error
	ReadFrame() (Frame, error)
	Close() error
}

// Device describes an available audio input device.
type Device struct {
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}
