// Package vad classifies audio frames as speech or silence using an RMS
// energy threshold and tracks how long silence has persisted.
package vad

import (
	"math"
	"time"
)

// Detector holds the running speech/silence judgment for one session.
// Constant space: it keeps a flag and a duration, never the frames.
type Detector struct {
	threshold     float64
	speechStarted bool
	silentFor     time.Duration
}

// New creates a Detector with the given normalized RMS threshold (0..1).
func New(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Observe folds one frame into the running state and reports whether the
// frame carried speech. A speech frame resets the silence counter; a silent
// frame extends it by the frame's duration.
func (d *Detector) Observe(samples []int16, duration time.Duration) bool {
	if Energy(samples) >= d.threshold {
		d.speechStarted = true
		d.silentFor = 0
		return true
	}
	d.silentFor += duration
	return false
}

// SpeechStarted reports whether any speech frame has been observed.
func (d *Detector) SpeechStarted() bool { return d.speechStarted }

// SilentFor returns the duration of consecutive silence up to the last
// observed frame.
func (d *Detector) SilentFor() time.Duration { return d.silentFor }

// Reset clears all state for a fresh session.
func (d *Detector) Reset() {
	d.speechStarted = false
	d.silentFor = 0
}

// Energy returns the root-mean-square level of 16-bit samples normalized to
// [0, 1]. Empty input is 0.
func Energy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(samples))) / 32768.0
}
