package schedule

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Grid step for the intensity contour.
	intensityGridSec = 0.001

	// Default mean-square window around each grid point.
	defaultIntensityWindowSec = 0.032

	// Reference amplitude for dB conversion (20 µPa, auditory threshold).
	intensityReference = 2e-5
)

// IntensityOption configures an IntensityDetector.
type IntensityOption func(*IntensityDetector)

// WithIntensityWindow sets the mean-square window duration in seconds.
func WithIntensityWindow(sec float64) IntensityOption {
	return func(d *IntensityDetector) {
		if sec > 0 {
			d.windowSec = sec
		}
	}
}

// IntensityDetector samples a signal's intensity contour on a 1 ms grid and
// reports the grid points that exceed a decibel threshold.
//
// Intensity at a grid point is the mean square over a centered window,
// expressed in dB relative to 20 µPa. Silent windows measure as -Inf and
// never pass a finite threshold.
type IntensityDetector struct {
	signal     []float64
	sampleRate float64
	windowSec  float64
}

// NewIntensityDetector creates a detector bound to signal at sampleRate Hz.
func NewIntensityDetector(signal []float64, sampleRate float64, opts ...IntensityOption) (*IntensityDetector, error) {
	if len(signal) == 0 {
		return nil, errors.New("intensity detector signal must not be empty")
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("intensity detector sample rate must be > 0: %f", sampleRate)
	}

	d := &IntensityDetector{
		signal:     signal,
		sampleRate: sampleRate,
		windowSec:  defaultIntensityWindowSec,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d, nil
}

// Duration returns the signal duration in seconds.
func (d *IntensityDetector) Duration() float64 {
	return float64(len(d.signal)) / d.sampleRate
}

// IntensityAt returns the intensity in dB at time t.
func (d *IntensityDetector) IntensityAt(t float64) float64 {
	half := int(math.Round(d.windowSec * d.sampleRate / 2))
	if half < 1 {
		half = 1
	}

	center := int(math.Round(t * d.sampleRate))

	lo := max(center-half, 0)

	hi := center + half
	if hi > len(d.signal) {
		hi = len(d.signal)
	}

	if lo >= hi {
		return math.Inf(-1)
	}

	sum := 0.0
	for _, v := range d.signal[lo:hi] {
		sum += v * v
	}

	meanSquare := sum / float64(hi-lo)
	if meanSquare <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(meanSquare/(intensityReference*intensityReference))
}

// VoicedTimes returns every grid point whose intensity exceeds thresholdDB.
func (d *IntensityDetector) VoicedTimes(thresholdDB float64) ([]float64, error) {
	duration := d.Duration()

	var out []float64
	for t := 0.0; t < duration; t += intensityGridSec {
		if d.IntensityAt(t) > thresholdDB {
			out = append(out, t)
		}
	}

	return out, nil
}
