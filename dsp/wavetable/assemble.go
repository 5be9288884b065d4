package wavetable

import (
	"errors"
	"fmt"
)

// Assemble concatenates frames into one linear buffer in order, with no
// gaps, crossfading, or reordering. Every frame must be non-nil and share
// the same length; the result holds len(frames) * frameLength samples.
func Assemble(frames [][]float64) ([]float64, error) {
	if len(frames) == 0 {
		return nil, errors.New("assemble requires at least one frame")
	}

	frameLength := len(frames[0])

	for i, f := range frames {
		if len(f) != frameLength {
			return nil, fmt.Errorf("assemble frame %d length mismatch: got %d want %d", i, len(f), frameLength)
		}
	}

	out := make([]float64, 0, len(frames)*frameLength)
	for _, f := range frames {
		out = append(out, f...)
	}

	return out, nil
}
