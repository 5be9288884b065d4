package wavetable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-wavetable/dsp/envelope"
	"github.com/cwbudde/algo-wavetable/dsp/formant"
	"github.com/cwbudde/algo-wavetable/dsp/schedule"
)

// Config holds pipeline parameters shared by every frame.
type Config struct {
	// SampleRate is the source signal rate in Hz.
	SampleRate float64
	// FrameLength is the sample count of every output frame.
	FrameLength int
	// FFTSize is the transform size; 0 defaults to FrameLength.
	FFTSize int
	// NumFormants is the number of formant slots requested per frame.
	NumFormants int
	// Blend interpolates between the dry spectrum (0) and the fully
	// formant-shaped spectrum (1).
	Blend float64
	// Envelope holds the spectral envelope shaping parameters.
	Envelope envelope.Config
}

// DefaultConfig returns the reference pipeline parameters.
func DefaultConfig() Config {
	return Config{
		SampleRate:  48000,
		FrameLength: 2048,
		NumFormants: 4,
		Blend:       0.7,
		Envelope:    envelope.DefaultConfig(),
	}
}

// Validate checks the pipeline parameters.
func (c Config) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("pipeline sample rate must be > 0: %f", c.SampleRate)
	}

	if c.FrameLength <= 0 {
		return fmt.Errorf("pipeline frame length must be > 0: %d", c.FrameLength)
	}

	if c.FFTSize != 0 && (c.FFTSize < c.FrameLength || !isPowerOf2(c.FFTSize)) {
		return fmt.Errorf("pipeline fft size must be power-of-two and >= frame length %d: %d",
			c.FrameLength, c.FFTSize)
	}

	if c.NumFormants <= 0 {
		return fmt.Errorf("pipeline formant count must be > 0: %d", c.NumFormants)
	}

	if c.Blend < 0 || c.Blend > 1 || math.IsNaN(c.Blend) {
		return fmt.Errorf("pipeline blend must be in [0, 1]: %f", c.Blend)
	}

	return c.Envelope.Validate()
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver sets the checkpoint observer.
func WithObserver(obs Observer) Option {
	return func(p *Pipeline) {
		if obs != nil {
			p.obs = obs
		}
	}
}

// WithWorkers sets the synthesis worker count. Zero selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.workers = n
		}
	}
}

// Pipeline renders a schedule of frames into one wavetable buffer.
//
// Frames are independent of one another, so synthesis fans out over a
// worker pool; only the final concatenation depends on schedule order.
// The output is deterministic for identical inputs and configuration.
type Pipeline struct {
	cfg     Config
	obs     Observer
	workers int
}

// NewPipeline creates a pipeline from cfg.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg: cfg,
		obs: NopObserver{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

// Run schedules, synthesizes, and assembles the wavetable for signal.
//
// Each scheduled time queries est for a formant set, builds its envelope,
// and renders one frame; frames land in schedule order regardless of
// completion order. Cancelling ctx stops the run at frame granularity.
func (p *Pipeline) Run(ctx context.Context, signal []float64, sched schedule.Schedule, est formant.Estimator) ([]float64, error) {
	if len(signal) == 0 {
		return nil, errors.New("pipeline signal must not be empty")
	}

	if sched == nil {
		return nil, errors.New("pipeline schedule must not be nil")
	}

	if est == nil {
		return nil, errors.New("pipeline formant estimator must not be nil")
	}

	duration := float64(len(signal)) / p.cfg.SampleRate

	times, err := sched.Times(duration)
	if err != nil {
		return nil, fmt.Errorf("pipeline: scheduling failed: %w", err)
	}

	if len(times) == 0 {
		return nil, errors.New("pipeline schedule produced no frames")
	}

	p.obs.ScheduleReady(times)

	frames := make([][]float64, len(times))

	g, ctx := errgroup.WithContext(ctx)
	indices := make(chan int)

	g.Go(func() error {
		defer close(indices)

		for i := range times {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	for range p.workerCount(len(times)) {
		g.Go(func() error {
			syn, err := NewSynthesizer(p.cfg.SampleRate, p.cfg.FrameLength, p.cfg.FFTSize)
			if err != nil {
				return err
			}

			for idx := range indices {
				t := times[idx]

				set, err := est.EstimateAt(t, p.cfg.NumFormants)
				if err != nil {
					return fmt.Errorf("pipeline: formant estimation at %.3fs failed: %w", t, err)
				}

				if set.AllMissing() {
					p.obs.FrameWarning(idx, t)
				}

				env := envelope.Build(set, syn.Frequencies(), p.cfg.Envelope)

				frame, err := syn.Synthesize(signal, int(t*p.cfg.SampleRate), env, p.cfg.Blend)
				if err != nil {
					return fmt.Errorf("pipeline: frame %d failed: %w", idx, err)
				}

				frames[idx] = frame
			}

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	out, err := Assemble(frames)
	if err != nil {
		return nil, err
	}

	p.obs.Completed(len(times), len(out))

	return out, nil
}

func (p *Pipeline) workerCount(frames int) int {
	n := p.workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	if n > frames {
		n = frames
	}

	return n
}
