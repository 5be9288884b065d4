package wavetable

import (
	"math"
	"testing"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-wavetable/dsp/envelope"
	"github.com/cwbudde/algo-wavetable/dsp/formant"
	"github.com/cwbudde/algo-wavetable/internal/testutil"
)

func TestNewSynthesizerValidation(t *testing.T) {
	if _, err := NewSynthesizer(0, 2048, 0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}

	if _, err := NewSynthesizer(44100, 0, 0); err == nil {
		t.Fatalf("expected error for zero frame length")
	}

	if _, err := NewSynthesizer(44100, 2048, 1000); err == nil {
		t.Fatalf("expected error for non-power-of-two fft size")
	}

	if _, err := NewSynthesizer(44100, 2048, 1024); err == nil {
		t.Fatalf("expected error for fft size below frame length")
	}

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	if syn.FFTSize() != 2048 {
		t.Fatalf("default fft size mismatch: got %d want 2048", syn.FFTSize())
	}

	if syn.Bins() != 1025 {
		t.Fatalf("bin count mismatch: got %d want 1025", syn.Bins())
	}
}

func TestSynthesizeFrameLengthAndPeak(t *testing.T) {
	signal := testutil.Sine(220, 0.8, 44100, 44100)

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	frame, err := syn.Synthesize(signal, 0, testutil.Ones(syn.Bins()), 0.7)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if len(frame) != 2048 {
		t.Fatalf("frame length mismatch: got %d want 2048", len(frame))
	}

	maxAbs := testutil.PeakAbs(frame)
	if maxAbs > 1 {
		t.Fatalf("peak above 1: %f", maxAbs)
	}

	if maxAbs < 0.9 {
		t.Fatalf("non-silent frame barely normalized: peak %f", maxAbs)
	}
}

func TestSynthesizeBlendZeroIgnoresEnvelope(t *testing.T) {
	signal := testutil.Sine(220, 0.8, 44100, 44100)

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	zero := make([]float64, syn.Bins())

	shaped := make([]float64, syn.Bins())
	for i := range shaped {
		shaped[i] = float64(i%7) * 0.3
	}

	a, err := syn.Synthesize(signal, 100, zero, 0)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	b, err := syn.Synthesize(signal, 100, shaped, 0)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("blend 0 output depends on envelope at sample %d: %g != %g", i, a[i], b[i])
		}
	}
}

func TestSynthesizeBlendOneZeroEnvelopeIsSilent(t *testing.T) {
	signal := testutil.Sine(220, 0.8, 44100, 44100)

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	frame, err := syn.Synthesize(signal, 0, make([]float64, syn.Bins()), 1)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	for i, v := range frame {
		if v != 0 {
			t.Fatalf("expected all-zero frame, sample %d = %g", i, v)
		}
	}
}

func TestSynthesizeDominantBinAtFormant(t *testing.T) {
	const (
		rate        = 44100.0
		frameLength = 2048
	)

	signal := testutil.Sine(220, 0.8, rate, int(rate))

	syn, err := NewSynthesizer(rate, frameLength, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	set := formant.Set{{FrequencyHz: 220, Valid: true}, {}, {}, {}}
	env := envelope.Build(set, syn.Frequencies(), envelope.Config{Q: 12, Tilt: 1, Strength: 1})

	frame, err := syn.Synthesize(signal, 0, env, 1)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	plan, err := algofft.NewPlan64(frameLength)
	if err != nil {
		t.Fatalf("fft plan failed: %v", err)
	}

	in := make([]complex128, frameLength)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, frameLength)
	if err := plan.Forward(out, in); err != nil {
		t.Fatalf("forward fft failed: %v", err)
	}

	best := 1
	for k := 1; k <= frameLength/2; k++ {
		if m := math.Hypot(real(out[k]), imag(out[k])); m > math.Hypot(real(out[best]), imag(out[best])) {
			best = k
		}
	}

	wantBin := int(math.Round(220 * frameLength / rate))
	if best < wantBin-1 || best > wantBin+1 {
		t.Fatalf("dominant bin mismatch: got %d want near %d", best, wantBin)
	}
}

func TestSynthesizeOutOfRangeStartIsSilent(t *testing.T) {
	signal := testutil.Sine(220, 0.8, 44100, 4096)

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	for _, start := range []int{-4096, len(signal)} {
		frame, err := syn.Synthesize(signal, start, testutil.Ones(syn.Bins()), 0.7)
		if err != nil {
			t.Fatalf("synthesis failed for start %d: %v", start, err)
		}

		for i, v := range frame {
			if v != 0 {
				t.Fatalf("start %d: expected zero-filled frame, sample %d = %g", start, i, v)
			}
		}
	}
}

func TestSynthesizeTailZeroPad(t *testing.T) {
	// Start close enough to the end that most of the slice is zero fill.
	signal := testutil.Sine(220, 0.8, 44100, 4096)

	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	frame, err := syn.Synthesize(signal, len(signal)-16, testutil.Ones(syn.Bins()), 0.7)
	if err != nil {
		t.Fatalf("synthesis failed: %v", err)
	}

	if len(frame) != 2048 {
		t.Fatalf("frame length mismatch: got %d want 2048", len(frame))
	}
}

func TestSynthesizeEnvelopeLengthMismatch(t *testing.T) {
	syn, err := NewSynthesizer(44100, 2048, 0)
	if err != nil {
		t.Fatalf("synthesizer construction failed: %v", err)
	}

	if _, err := syn.Synthesize(make([]float64, 4096), 0, make([]float64, 100), 0.5); err == nil {
		t.Fatalf("expected error for envelope length mismatch")
	}

	if _, err := syn.Synthesize(make([]float64, 4096), 0, make([]float64, syn.Bins()), 1.5); err == nil {
		t.Fatalf("expected error for blend out of range")
	}
}

func TestAssemble(t *testing.T) {
	frames := [][]float64{{1, 2}, {3, 4}, {5, 6}}

	out, err := Assemble(frames)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}

	want := []float64{1, 2, 3, 4, 5, 6}
	if len(out) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(want))
	}

	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d mismatch: got %f want %f", i, out[i], want[i])
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	if _, err := Assemble(nil); err == nil {
		t.Fatalf("expected error for empty frame list")
	}

	if _, err := Assemble([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatalf("expected error for mismatched frame lengths")
	}
}
