// Package schedule decides the time offsets at which wavetable frames are
// extracted from a source signal.
//
// Two variants exist: a uniform grid over the full duration, and a
// voiced-region schedule that keeps the source's natural timing by sampling
// only where the intensity contour exceeds a threshold.
package schedule

import (
	"errors"
	"fmt"
)

// Schedule produces a non-decreasing ordered sequence of frame times in
// seconds within [0, duration).
type Schedule interface {
	Times(duration float64) ([]float64, error)
}

// Uniform spaces exactly Count frame times evenly over the duration.
type Uniform struct {
	Count int
}

// Times returns Count times at i/Count*duration for i in [0, Count).
func (u Uniform) Times(duration float64) ([]float64, error) {
	if u.Count <= 0 {
		return nil, fmt.Errorf("uniform schedule count must be > 0: %d", u.Count)
	}

	if duration < 0 {
		return nil, fmt.Errorf("uniform schedule duration must be >= 0: %f", duration)
	}

	out := make([]float64, u.Count)
	for i := range out {
		out[i] = float64(i) / float64(u.Count) * duration
	}

	return out, nil
}

// Detector reports the time offsets whose measured intensity exceeds a
// decibel threshold.
type Detector interface {
	VoicedTimes(thresholdDB float64) ([]float64, error)
}

// Voiced returns the detector's voiced-time list verbatim. The frame count
// is data-dependent.
type Voiced struct {
	ThresholdDB float64
	Detector    Detector
}

// Times returns every detected voiced time. The duration argument is
// ignored; the detector spans the full signal it was built from.
func (v Voiced) Times(_ float64) ([]float64, error) {
	if v.Detector == nil {
		return nil, errors.New("voiced schedule requires a detector")
	}

	return v.Detector.VoicedTimes(v.ThresholdDB)
}
