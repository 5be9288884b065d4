// Command formantwt generates a formant-isolated wavetable from a vocal
// recording.
//
// Usage:
//
//	formantwt [flags] input.wav
//
// For each scheduled frame it estimates the formant frequencies, reshapes
// the frame's magnitude spectrum around them, and resynthesizes a clean
// periodic segment; segments are concatenated into one loop-ready WAV.
//
// Examples:
//
//	formantwt voice.wav
//	formantwt -max-frames 64 -blend 1 voice.wav
//	formantwt -preserve-timing -voiced-threshold 45 voice.wav
//	formantwt -preset bright.yaml -o bright-wt.wav voice.wav
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-wavetable/dsp/envelope"
	"github.com/cwbudde/algo-wavetable/dsp/formant"
	"github.com/cwbudde/algo-wavetable/dsp/schedule"
	"github.com/cwbudde/algo-wavetable/dsp/wavetable"
	"github.com/cwbudde/algo-wavetable/internal/audiofile"
	"github.com/cwbudde/algo-wavetable/internal/preset"
)

func main() {
	p := preset.Default()

	output := flag.String("o", "", "output wavetable .wav (default: <input>-wt.wav)")
	presetPath := flag.String("preset", "", "YAML preset file; explicit flags override preset values")
	workers := flag.Int("workers", 0, "synthesis worker count (0 = all CPUs)")
	yes := flag.Bool("y", false, "overwrite existing output without asking")

	flag.IntVar(&p.MaxFrames, "max-frames", p.MaxFrames, "wavetable frame count in uniform mode")
	flag.IntVar(&p.FrameLength, "frame-length", p.FrameLength, "samples per frame")
	flag.IntVar(&p.SampleRate, "sample-rate", p.SampleRate, "output sample rate override (0 = match input)")
	flag.IntVar(&p.NumFormants, "num-formants", p.NumFormants, "formant slots per frame")
	flag.Float64Var(&p.FormantQ, "formant-q", p.FormantQ, "formant peak width (higher = narrower)")
	flag.Float64Var(&p.Blend, "blend", p.Blend, "0 = dry spectrum, 1 = full formant shaping")
	flag.Float64Var(&p.SpectralTilt, "spectral-tilt", p.SpectralTilt, "exponential high-frequency rolloff base (0-1]")
	flag.Float64Var(&p.FormantStrength, "formant-strength", p.FormantStrength, "envelope gain after normalization")
	flag.BoolVar(&p.Contrast, "contrast", p.Contrast, "square the envelope to boost peaks and suppress the rest")
	flag.BoolVar(&p.PreserveTiming, "preserve-timing", p.PreserveTiming, "extract frames from voiced regions only")
	flag.Float64Var(&p.VoicedThresholdDB, "voiced-threshold", p.VoicedThresholdDB, "voiced-region intensity threshold in dB")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: formantwt [flags] input.wav\n\n")
		fmt.Fprintf(os.Stderr, "Generates a formant-isolated wavetable from a vocal sample.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *presetPath != "" {
		merged, err := mergePreset(*presetPath, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		p = merged
	}

	err := run(flag.Arg(0), *output, p, *workers, *yes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// mergePreset loads path and re-applies every flag the user set explicitly,
// so the precedence is defaults < preset < command line.
func mergePreset(path string, flags preset.Preset) (preset.Preset, error) {
	p, err := preset.Load(path)
	if err != nil {
		return preset.Preset{}, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-frames":
			p.MaxFrames = flags.MaxFrames
		case "frame-length":
			p.FrameLength = flags.FrameLength
		case "sample-rate":
			p.SampleRate = flags.SampleRate
		case "num-formants":
			p.NumFormants = flags.NumFormants
		case "formant-q":
			p.FormantQ = flags.FormantQ
		case "blend":
			p.Blend = flags.Blend
		case "spectral-tilt":
			p.SpectralTilt = flags.SpectralTilt
		case "formant-strength":
			p.FormantStrength = flags.FormantStrength
		case "contrast":
			p.Contrast = flags.Contrast
		case "preserve-timing":
			p.PreserveTiming = flags.PreserveTiming
		case "voiced-threshold":
			p.VoicedThresholdDB = flags.VoicedThresholdDB
		}
	})

	return p, nil
}

func run(input, output string, p preset.Preset, workers int, overwrite bool) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input not readable: %w", err)
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "-wt.wav"
	}

	if _, err := os.Stat(output); err == nil && !overwrite {
		if !confirmOverwrite(output) {
			fmt.Println("operation canceled")
			return nil
		}
	}

	samples, inputRate, err := audiofile.ReadFile(input)
	if err != nil {
		return err
	}

	outputRate := inputRate
	if p.SampleRate > 0 {
		outputRate = p.SampleRate
	}

	est, err := formant.NewBurgEstimator(samples, float64(inputRate))
	if err != nil {
		return err
	}

	var sched schedule.Schedule
	if p.PreserveTiming {
		det, err := schedule.NewIntensityDetector(samples, float64(inputRate))
		if err != nil {
			return err
		}

		sched = schedule.Voiced{ThresholdDB: p.VoicedThresholdDB, Detector: det}
	} else {
		sched = schedule.Uniform{Count: p.MaxFrames}
	}

	pipe, err := wavetable.NewPipeline(wavetable.Config{
		SampleRate:  float64(inputRate),
		FrameLength: p.FrameLength,
		NumFormants: p.NumFormants,
		Blend:       p.Blend,
		Envelope: envelope.Config{
			Q:        p.FormantQ,
			Tilt:     p.SpectralTilt,
			Contrast: p.Contrast,
			Strength: p.FormantStrength,
		},
	}, wavetable.WithObserver(stderrObserver{}), wavetable.WithWorkers(workers))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	table, err := pipe.Run(ctx, samples, sched, est)
	if err != nil {
		return err
	}

	err = audiofile.WriteFile(output, table, outputRate)
	if err != nil {
		return err
	}

	fmt.Printf("generated %s: %d frames x %d samples at %d Hz\n",
		output, len(table)/p.FrameLength, p.FrameLength, outputRate)
	fmt.Printf("blend %.2f | q %.1f | tilt %.2f | strength %.2f\n",
		p.Blend, p.FormantQ, p.SpectralTilt, p.FormantStrength)

	return nil
}

func confirmOverwrite(path string) bool {
	fmt.Fprintf(os.Stderr, "%q exists. Overwrite? [y/N]: ", path)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// stderrObserver prints pipeline checkpoints the way the interactive tool
// reports progress.
type stderrObserver struct{}

func (stderrObserver) ScheduleReady(times []float64) {
	fmt.Fprintf(os.Stderr, "scheduled %d frames\n", len(times))
}

func (stderrObserver) FrameWarning(_ int, timeSec float64) {
	fmt.Fprintf(os.Stderr, "warning: no valid formants at t = %.3fs\n", timeSec)
}

func (stderrObserver) Completed(frameCount, sampleCount int) {
	fmt.Fprintf(os.Stderr, "synthesized %d frames (%d samples)\n", frameCount, sampleCount)
}
