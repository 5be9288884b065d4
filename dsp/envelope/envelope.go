// Package envelope builds per-frequency-bin gain curves from formant sets.
//
// The curve concentrates spectral energy near the formant peaks: Gaussian
// bumps centered on each resolved formant are summed, peak-normalized to 1,
// tilted toward low frequencies, optionally sharpened, and scaled by a final
// strength gain.
package envelope

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-wavetable/dsp/formant"
)

// Config holds envelope shaping parameters.
type Config struct {
	// Q controls peak width; larger values produce narrower bumps.
	Q float64
	// Tilt is the exponential high-frequency attenuation base in (0, 1];
	// 1 disables the rolloff.
	Tilt float64
	// Contrast squares the normalized curve, sharpening peaks and
	// suppressing non-peak energy quadratically.
	Contrast bool
	// Strength is an unbounded gain applied after normalization.
	Strength float64
}

// DefaultConfig returns the reference shaping parameters.
func DefaultConfig() Config {
	return Config{
		Q:        12,
		Tilt:     0.4,
		Strength: 1,
	}
}

// Validate checks the shaping parameters.
func (c Config) Validate() error {
	if c.Q <= 0 || math.IsNaN(c.Q) || math.IsInf(c.Q, 0) {
		return fmt.Errorf("envelope q must be > 0: %f", c.Q)
	}

	if c.Tilt <= 0 || c.Tilt > 1 || math.IsNaN(c.Tilt) {
		return fmt.Errorf("envelope tilt must be in (0, 1]: %f", c.Tilt)
	}

	if c.Strength < 0 || math.IsNaN(c.Strength) || math.IsInf(c.Strength, 0) {
		return fmt.Errorf("envelope strength must be >= 0: %f", c.Strength)
	}

	return nil
}

// Axis returns the frequency axis for a half spectrum of the given bin
// count, spanning 0 to sampleRate/2 inclusive.
func Axis(bins int, sampleRate float64) []float64 {
	if bins <= 0 || sampleRate <= 0 {
		return nil
	}

	out := make([]float64, bins)
	if bins == 1 {
		return out
	}

	step := sampleRate / 2 / float64(bins-1)
	for i := range out {
		out[i] = float64(i) * step
	}

	return out
}

// Build returns the gain curve for formants over the frequency axis freqs.
//
// Invalid or non-positive formant slots are skipped. When every slot is
// skipped the curve stays all-zero; that is not an error, and downstream
// blending degenerates to attenuating the dry spectrum.
func Build(formants formant.Set, freqs []float64, cfg Config) []float64 {
	out := make([]float64, len(freqs))
	if len(freqs) == 0 {
		return out
	}

	for _, f := range formants {
		if !f.Valid || f.FrequencyHz <= 0 {
			continue
		}

		fc := f.FrequencyHz
		for i, freq := range freqs {
			d := (freq - fc) / fc
			out[i] += math.Exp(-cfg.Q * d * d)
		}
	}

	peak := 0.0
	for _, v := range out {
		if v > peak {
			peak = v
		}
	}

	if peak > 0 {
		vecmath.ScaleBlock(out, out, 1/peak)
	}

	freqMax := freqs[len(freqs)-1]
	if cfg.Tilt != 1 && freqMax > 0 {
		for i, freq := range freqs {
			out[i] *= math.Pow(cfg.Tilt, freq/freqMax)
		}
	}

	if cfg.Contrast {
		vecmath.MulBlockInPlace(out, out)
	}

	if cfg.Strength != 1 {
		vecmath.ScaleBlock(out, out, cfg.Strength)
	}

	return out
}
