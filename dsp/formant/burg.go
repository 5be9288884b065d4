package formant

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-wavetable/internal/lpcroot"
)

const (
	defaultCeilingHz     = 5500.0
	defaultWindowSec     = 0.025
	defaultPreemphasisHz = 50.0

	// Formants this close to DC or the analysis ceiling are artifacts of the
	// predictor fit, not vocal resonances.
	formantMarginHz = 50.0

	// Roots broader than this are residual-fitting noise, not resonances.
	maxBandwidthHz = 700.0

	// Mean-square level below which a slice is treated as silent.
	silenceFloor = 1e-10
)

// BurgOption configures a BurgEstimator.
type BurgOption func(*BurgEstimator)

// WithCeiling sets the formant search ceiling in Hz. The input is decimated
// to twice this frequency before analysis.
func WithCeiling(hz float64) BurgOption {
	return func(b *BurgEstimator) {
		if hz > 0 {
			b.ceilingHz = hz
		}
	}
}

// WithWindowDuration sets the analysis window length in seconds.
func WithWindowDuration(sec float64) BurgOption {
	return func(b *BurgEstimator) {
		if sec > 0 {
			b.windowSec = sec
		}
	}
}

// WithPreemphasis sets the pre-emphasis corner frequency in Hz.
func WithPreemphasis(hz float64) BurgOption {
	return func(b *BurgEstimator) {
		if hz >= 0 {
			b.preemphasisHz = hz
		}
	}
}

// BurgEstimator estimates formant frequencies with Burg linear prediction.
//
// The input signal is decimated once at construction to twice the formant
// ceiling. Each query fits a predictor of order 2*count+2 to a windowed,
// pre-emphasized slice centered on the query time and maps the predictor
// polynomial roots to resonance frequencies.
//
// The estimator holds no mutable state after construction and is safe for
// concurrent use.
type BurgEstimator struct {
	signal        []float64
	rate          float64
	ceilingHz     float64
	windowSec     float64
	preemphasisHz float64
}

// NewBurgEstimator creates an estimator bound to signal at sampleRate Hz.
func NewBurgEstimator(signal []float64, sampleRate float64, opts ...BurgOption) (*BurgEstimator, error) {
	if len(signal) == 0 {
		return nil, errors.New("burg estimator signal must not be empty")
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("burg estimator sample rate must be > 0: %f", sampleRate)
	}

	b := &BurgEstimator{
		ceilingHz:     defaultCeilingHz,
		windowSec:     defaultWindowSec,
		preemphasisHz: defaultPreemphasisHz,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	targetRate := 2 * b.ceilingHz
	if sampleRate > targetRate {
		r, err := resample.NewForRates(sampleRate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("burg estimator: failed to create resampler: %w", err)
		}

		b.signal = r.Process(signal)
		b.rate = targetRate
	} else {
		b.signal = append([]float64(nil), signal...)
		b.rate = sampleRate
	}

	if len(b.signal) == 0 {
		return nil, errors.New("burg estimator: decimated signal is empty")
	}

	return b, nil
}

// SampleRate returns the internal analysis rate in Hz after decimation.
func (b *BurgEstimator) SampleRate() float64 { return b.rate }

// EstimateAt returns up to count formants at time t in seconds.
//
// Unresolvable slots come back invalid rather than as an error: silence,
// predictor failures, and root sets without enough resonances in range all
// yield partially or fully missing sets.
func (b *BurgEstimator) EstimateAt(t float64, count int) (Set, error) {
	if count <= 0 {
		return nil, fmt.Errorf("burg estimator formant count must be > 0: %d", count)
	}

	order := 2*count + 2

	n := int(math.Round(b.windowSec * b.rate))
	if n <= order {
		return nil, fmt.Errorf("burg estimator window too short for order %d: %d samples", order, n)
	}

	slice := b.sliceAt(t, n)

	meanSquare := 0.0
	for _, v := range slice {
		meanSquare += v * v
	}

	meanSquare /= float64(n)
	if meanSquare < silenceFloor {
		return Missing(count), nil
	}

	b.preemphasize(slice)
	vecmath.MulBlockInPlace(slice, window.Generate(window.TypeGauss, n))

	coeffs, err := burgCoefficients(slice, order)
	if err != nil {
		return Missing(count), nil
	}

	poly := make([]float64, order+1)
	poly[0] = 1
	copy(poly[1:], coeffs)

	roots, err := lpcroot.Roots(poly)
	if err != nil {
		return Missing(count), nil
	}

	freqs := b.resonanceFrequencies(roots)

	out := Missing(count)
	for i := 0; i < count && i < len(freqs); i++ {
		out[i] = Estimate{FrequencyHz: freqs[i], Valid: true}
	}

	return out, nil
}

// sliceAt extracts n samples centered on time t. Indices outside the signal
// read as zero.
func (b *BurgEstimator) sliceAt(t float64, n int) []float64 {
	out := make([]float64, n)
	start := int(math.Round(t*b.rate)) - n/2

	for i := range out {
		idx := start + i
		if idx >= 0 && idx < len(b.signal) {
			out[i] = b.signal[idx]
		}
	}

	return out
}

func (b *BurgEstimator) preemphasize(x []float64) {
	if b.preemphasisHz <= 0 {
		return
	}

	a := math.Exp(-2 * math.Pi * b.preemphasisHz / b.rate)
	for i := len(x) - 1; i > 0; i-- {
		x[i] -= a * x[i-1]
	}
}

// resonanceFrequencies maps predictor roots to ascending formant candidates.
// Each conjugate pair contributes once via its upper-half-plane member.
func (b *BurgEstimator) resonanceFrequencies(roots []complex128) []float64 {
	var freqs []float64

	for _, r := range roots {
		if imag(r) <= 0 {
			continue
		}

		f := math.Atan2(imag(r), real(r)) * b.rate / (2 * math.Pi)
		if f <= formantMarginHz || f >= b.ceilingHz-formantMarginHz {
			continue
		}

		mag := cmplx.Abs(r)
		if mag >= 1 {
			continue
		}

		if bw := -math.Log(mag) * b.rate / math.Pi; bw > maxBandwidthHz {
			continue
		}

		freqs = append(freqs, f)
	}

	sort.Float64s(freqs)

	return freqs
}

// burgCoefficients fits an all-pole predictor of the given order to x and
// returns the coefficients a[1..order] of A(z) = 1 + a1*z^-1 + ... .
func burgCoefficients(x []float64, order int) ([]float64, error) {
	n := len(x)
	if order <= 0 || order >= n {
		return nil, fmt.Errorf("burg order must be in [1, %d): %d", n, order)
	}

	fwd := append([]float64(nil), x...)
	bwd := append([]float64(nil), x...)

	a := make([]float64, order+1)
	a[0] = 1

	prev := make([]float64, order+1)

	for m := 1; m <= order; m++ {
		num := 0.0
		den := 0.0

		for i := m; i < n; i++ {
			num += fwd[i] * bwd[i-1]
			den += fwd[i]*fwd[i] + bwd[i-1]*bwd[i-1]
		}

		if den <= 0 {
			return nil, errors.New("burg reflection denominator vanished")
		}

		k := -2 * num / den

		copy(prev, a)
		for i := 1; i <= m; i++ {
			a[i] = prev[i] + k*prev[m-i]
		}

		for i := n - 1; i >= m; i-- {
			f := fwd[i] + k*bwd[i-1]
			bwd[i] = bwd[i-1] + k*fwd[i]
			fwd[i] = f
		}
	}

	return a[1:], nil
}
