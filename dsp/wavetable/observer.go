package wavetable

// Observer receives pipeline checkpoints. It decouples progress reporting
// from the synthesis logic; the zero observer discards everything.
//
// FrameWarning is invoked from synthesis workers and may be called
// concurrently; implementations must be safe for concurrent use.
type Observer interface {
	// ScheduleReady reports the computed frame times before synthesis starts.
	ScheduleReady(times []float64)
	// FrameWarning reports a frame whose formant set resolved no usable
	// frequency. The frame is still rendered.
	FrameWarning(index int, timeSec float64)
	// Completed reports the final frame and sample counts.
	Completed(frameCount, sampleCount int)
}

// NopObserver discards all checkpoints.
type NopObserver struct{}

// ScheduleReady implements Observer.
func (NopObserver) ScheduleReady([]float64) {}

// FrameWarning implements Observer.
func (NopObserver) FrameWarning(int, float64) {}

// Completed implements Observer.
func (NopObserver) Completed(int, int) {}
