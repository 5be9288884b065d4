package audiofile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	// Exactly representable in float32.
	samples := []float64{0, 0.5, -0.25, 1, -1, 0.125}

	err := WriteFile(path, samples, 44100)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, rate, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if rate != 44100 {
		t.Fatalf("sample rate mismatch: got %d want 44100", rate)
	}

	if len(got) != len(samples) {
		t.Fatalf("sample count mismatch: got %d want %d", len(got), len(samples))
	}

	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d mismatch: got %g want %g", i, got[i], samples[i])
		}
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteFile(path, []float64{0.5}, 8000); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	if err := WriteFile(path, []float64{0.25, 0.75}, 16000); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, rate, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if rate != 16000 || len(got) != 2 {
		t.Fatalf("overwrite mismatch: rate %d samples %d", rate, len(got))
	}
}

func TestWriteFailureLeavesNoPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.wav")

	err := WriteFile(path, []float64{0.5}, 44100)
	if err == nil {
		t.Fatalf("expected error for unwritable destination")
	}

	if _, statErr := os.Stat(path); statErr == nil {
		t.Fatalf("partial output left behind at %s", path)
	}
}

func TestWriteValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := WriteFile(path, nil, 44100); err == nil {
		t.Fatalf("expected error for empty samples")
	}

	if err := WriteFile(path, []float64{0.5}, 0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestReadPCM16FirstChannel(t *testing.T) {
	// Minimal stereo PCM16 file: two frames, left channel 0.5/-0.5.
	const (
		channels = 2
		frames   = 2
	)

	dataSize := frames * channels * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], 22050)
	binary.LittleEndian.PutUint32(buf[28:32], 22050*channels*2)
	binary.LittleEndian.PutUint16(buf[32:34], channels*2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	binary.LittleEndian.PutUint16(buf[44:], uint16(16384))  // L0 = 0.5
	binary.LittleEndian.PutUint16(buf[46:], uint16(1000))   // R0
	binary.LittleEndian.PutUint16(buf[48:], uint16(0xC000)) // L1 = -0.5
	binary.LittleEndian.PutUint16(buf[50:], uint16(2000))   // R1

	path := filepath.Join(t.TempDir(), "pcm16.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	got, rate, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if rate != 22050 {
		t.Fatalf("sample rate mismatch: got %d want 22050", rate)
	}

	if len(got) != frames {
		t.Fatalf("frame count mismatch: got %d want %d", len(got), frames)
	}

	if math.Abs(got[0]-0.5) > 1e-9 || math.Abs(got[1]+0.5) > 1e-9 {
		t.Fatalf("first channel mismatch: got %v", got)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	if _, _, err := ReadFile(path); err == nil {
		t.Fatalf("expected error for malformed file")
	}

	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
