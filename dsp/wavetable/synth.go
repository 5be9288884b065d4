// Package wavetable turns a vocal recording into a fixed-frame-length,
// loop-ready wavetable.
//
// Each scheduled frame is windowed, transformed, reshaped toward its formant
// envelope, and rebuilt from a magnitude-only symmetric spectrum. Discarding
// phase is deliberate: the inverse of an even real spectrum is guaranteed
// periodic over the frame length, which is what cyclic playback needs, at
// the cost of waveform fidelity.
package wavetable

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-wavetable/dsp/envelope"
)

// normEpsilon guards the per-frame peak normalization against division by
// zero on silent frames.
const normEpsilon = 1e-8

// Synthesizer renders single wavetable frames from a source signal.
//
// This type holds FFT scratch state and is not safe for concurrent use;
// the pipeline creates one per worker.
type Synthesizer struct {
	sampleRate  float64
	frameLength int
	fftSize     int

	plan *algofft.Plan[complex128]

	windowCoeffs []float64
	freqs        []float64

	timeData []complex128
	freqData []complex128
	shaped   []float64
}

// NewSynthesizer creates a frame synthesizer. fftSize 0 defaults to
// frameLength; otherwise it must be a power of two no smaller than
// frameLength.
func NewSynthesizer(sampleRate float64, frameLength, fftSize int) (*Synthesizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("synthesizer sample rate must be > 0: %f", sampleRate)
	}

	if frameLength <= 0 {
		return nil, fmt.Errorf("synthesizer frame length must be > 0: %d", frameLength)
	}

	if fftSize == 0 {
		fftSize = frameLength
	}

	if fftSize < frameLength || !isPowerOf2(fftSize) {
		return nil, fmt.Errorf("synthesizer fft size must be power-of-two and >= frame length %d: %d",
			frameLength, fftSize)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(window.TypeHann, frameLength)
	if len(coeffs) != frameLength {
		return nil, fmt.Errorf("synthesizer: window generation failed for length %d", frameLength)
	}

	bins := fftSize/2 + 1

	return &Synthesizer{
		sampleRate:   sampleRate,
		frameLength:  frameLength,
		fftSize:      fftSize,
		plan:         plan,
		windowCoeffs: coeffs,
		freqs:        envelope.Axis(bins, sampleRate),
		timeData:     make([]complex128, fftSize),
		freqData:     make([]complex128, fftSize),
		shaped:       make([]float64, bins),
	}, nil
}

// FrameLength returns the output frame length in samples.
func (s *Synthesizer) FrameLength() int { return s.frameLength }

// FFTSize returns the transform size.
func (s *Synthesizer) FFTSize() int { return s.fftSize }

// Bins returns the half-spectrum bin count, fftSize/2 + 1.
func (s *Synthesizer) Bins() int { return s.fftSize/2 + 1 }

// Frequencies returns the frequency axis matching the envelope bins, from 0
// to sampleRate/2. The slice is shared; callers must not modify it.
func (s *Synthesizer) Frequencies() []float64 { return s.freqs }

// Synthesize renders one frame of frameLength samples starting at sample
// index start. Indices outside the signal read as zero, so frames straddling
// either end of the signal are zero-filled.
//
// env must hold one gain per half-spectrum bin. blend interpolates between
// the dry magnitude spectrum (0) and the fully shaped one (1). The returned
// frame is peak-normalized; a silent frame stays all-zero.
func (s *Synthesizer) Synthesize(signal []float64, start int, env []float64, blend float64) ([]float64, error) {
	if len(env) != s.Bins() {
		return nil, fmt.Errorf("synthesizer envelope length mismatch: got %d want %d", len(env), s.Bins())
	}

	if blend < 0 || blend > 1 || math.IsNaN(blend) {
		return nil, fmt.Errorf("synthesizer blend must be in [0, 1]: %f", blend)
	}

	for i := range s.timeData {
		x := 0.0

		if i < s.frameLength {
			idx := start + i
			if idx >= 0 && idx < len(signal) {
				x = signal[idx] * s.windowCoeffs[i]
			}
		}

		s.timeData[i] = complex(x, 0)
	}

	err := s.plan.Forward(s.freqData, s.timeData)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: forward FFT failed: %w", err)
	}

	half := s.fftSize / 2
	for k := 0; k <= half; k++ {
		mag := math.Hypot(real(s.freqData[k]), imag(s.freqData[k]))
		s.shaped[k] = (1-blend)*mag + blend*mag*env[k]
	}

	// Mirror the shaped magnitudes into an even real spectrum; its inverse
	// transform is real and periodic over the frame.
	s.freqData[0] = complex(s.shaped[0], 0)
	s.freqData[half] = complex(s.shaped[half], 0)

	for k := 1; k < half; k++ {
		v := complex(s.shaped[k], 0)
		s.freqData[k] = v
		s.freqData[s.fftSize-k] = v
	}

	err = s.plan.Inverse(s.timeData, s.freqData)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: inverse FFT failed: %w", err)
	}

	out := make([]float64, s.frameLength)

	maxAbs := 0.0
	for i := range out {
		out[i] = real(s.timeData[i])
		if av := math.Abs(out[i]); av > maxAbs {
			maxAbs = av
		}
	}

	vecmath.ScaleBlock(out, out, 1/(maxAbs+normEpsilon))

	return out, nil
}

func isPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
