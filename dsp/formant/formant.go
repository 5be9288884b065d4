// Package formant provides formant frequency sets and estimation of formant
// trajectories from raw audio.
//
// A formant is a vocal resonance peak at a given instant. Estimators report
// up to N formant slots per query time; a slot the analysis could not resolve
// is explicitly invalid rather than carrying a numeric sentinel.
package formant

// Estimate is a single formant slot. Valid is false when the analysis could
// not resolve the formant at the query time.
type Estimate struct {
	FrequencyHz float64
	Valid       bool
}

// Set holds the formant slots reported for one query time, ordered by
// ascending formant index (F1, F2, ...).
type Set []Estimate

// AllMissing reports whether no slot in the set carries a usable frequency.
// Non-positive frequencies count as missing.
func (s Set) AllMissing() bool {
	for _, e := range s {
		if e.Valid && e.FrequencyHz > 0 {
			return false
		}
	}

	return true
}

// Missing returns a set of count slots with every entry invalid.
func Missing(count int) Set {
	if count <= 0 {
		return nil
	}

	return make(Set, count)
}

// Estimator answers per-time formant queries against a fixed signal.
//
// Implementations must be safe for concurrent use; the wavetable pipeline
// issues queries from multiple workers.
type Estimator interface {
	EstimateAt(t float64, count int) (Set, error)
}
