// Package lpcroot finds the complex roots of real-coefficient polynomials,
// sized for the LPC predictor polynomials produced by formant analysis.
package lpcroot

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrNoConvergence is returned when the iteration fails to settle on a root
// set with an acceptable residual.
var ErrNoConvergence = errors.New("lpcroot: root iteration did not converge")

const (
	maxIterations    = 500
	deltaTolerance   = 1e-12
	residualFallback = 1e-6
)

// Roots returns all complex roots of the polynomial with real coefficients
// in descending power order: coeff[0]*z^n + coeff[1]*z^(n-1) + ... + coeff[n].
//
// The solver runs a Durand-Kerner simultaneous iteration from a staggered
// ring of start values sized to the coefficient magnitudes. The leading
// coefficient must be non-zero.
func Roots(coeff []float64) ([]complex128, error) {
	if len(coeff) < 2 || coeff[0] == 0 {
		return nil, ErrNoConvergence
	}

	n := len(coeff) - 1

	norm := make([]complex128, len(coeff))
	for i, c := range coeff {
		norm[i] = complex(c/coeff[0], 0)
	}

	radius := 1.0
	for i := 1; i <= n; i++ {
		if r := cmplx.Abs(norm[i]); r > radius {
			radius = r
		}
	}

	roots := make([]complex128, n)
	for i := range n {
		angle := 2*math.Pi*float64(i)/float64(n) + 0.3
		r := radius * (1 + 0.1*float64(i)/float64(n))
		roots[i] = complex(r*math.Cos(angle), r*math.Sin(angle))
	}

	for range maxIterations {
		maxDelta := 0.0

		for i := range n {
			den := complex(1, 0)

			for j := range n {
				if i == j {
					continue
				}

				den *= roots[i] - roots[j]
			}

			if cmplx.Abs(den) == 0 {
				// Coincident estimates; nudge apart and retry next sweep.
				roots[i] += complex(1e-10, 1e-10)
				continue
			}

			delta := eval(norm, roots[i]) / den

			roots[i] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}

		if maxDelta < deltaTolerance {
			return roots, nil
		}
	}

	maxResidual := 0.0

	for _, r := range roots {
		if res := cmplx.Abs(eval(norm, r)); res > maxResidual {
			maxResidual = res
		}
	}

	if maxResidual < residualFallback {
		return roots, nil
	}

	return nil, ErrNoConvergence
}

// eval evaluates the polynomial at x using Horner's method. Coefficients are
// in descending power order.
func eval(coeff []complex128, x complex128) complex128 {
	v := coeff[0]
	for i := 1; i < len(coeff); i++ {
		v = v*x + coeff[i]
	}

	return v
}
