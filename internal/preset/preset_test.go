package preset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesReference(t *testing.T) {
	p := Default()

	if p.MaxFrames != 256 || p.FrameLength != 2048 || p.NumFormants != 4 {
		t.Fatalf("structural defaults mismatch: %+v", p)
	}

	if p.FormantQ != 12 || p.Blend != 0.7 || p.SpectralTilt != 0.4 || p.FormantStrength != 1 {
		t.Fatalf("shaping defaults mismatch: %+v", p)
	}

	if p.Contrast || p.PreserveTiming || p.SampleRate != 0 {
		t.Fatalf("mode defaults mismatch: %+v", p)
	}

	if p.VoicedThresholdDB != 40 {
		t.Fatalf("voiced threshold default mismatch: %f", p.VoicedThresholdDB)
	}
}

func TestLoadOverridesSubset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")

	body := "blend: 1\nformantQ: 20\ncontrast: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if p.Blend != 1 || p.FormantQ != 20 || !p.Contrast {
		t.Fatalf("overrides not applied: %+v", p)
	}

	// Untouched fields keep their defaults.
	if p.FrameLength != 2048 || p.SpectralTilt != 0.4 {
		t.Fatalf("defaults lost on partial preset: %+v", p)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("blend: [not a number"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}
