// Package preset loads wavetable extraction presets from YAML files.
//
// A preset carries the same knobs as the command line; explicit flags win
// over preset values, which win over the built-in defaults.
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset holds every tunable extraction parameter.
type Preset struct {
	MaxFrames         int     `yaml:"maxFrames"`
	FrameLength       int     `yaml:"frameLength"`
	SampleRate        int     `yaml:"sampleRate"`
	NumFormants       int     `yaml:"numFormants"`
	FormantQ          float64 `yaml:"formantQ"`
	Blend             float64 `yaml:"blend"`
	SpectralTilt      float64 `yaml:"spectralTilt"`
	FormantStrength   float64 `yaml:"formantStrength"`
	Contrast          bool    `yaml:"contrast"`
	PreserveTiming    bool    `yaml:"preserveTiming"`
	VoicedThresholdDB float64 `yaml:"voicedThresholdDb"`
}

// Default returns the reference extraction parameters.
func Default() Preset {
	return Preset{
		MaxFrames:         256,
		FrameLength:       2048,
		NumFormants:       4,
		FormantQ:          12,
		Blend:             0.7,
		SpectralTilt:      0.4,
		FormantStrength:   1,
		VoicedThresholdDB: 40,
	}
}

// Load reads a preset file. Fields absent from the file keep their
// defaults.
func Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: read %s: %w", path, err)
	}

	p := Default()

	err = yaml.Unmarshal(data, &p)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: parse %s: %w", path, err)
	}

	return p, nil
}
