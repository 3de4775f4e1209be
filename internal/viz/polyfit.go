package viz

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// polyfit returns least-squares polynomial coefficients, lowest order
// first. The degree is capped at len(xs)-1 so the system stays
// overdetermined.
func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("polyfit: need matching non-empty samples")
	}
	if degree > len(xs)-1 {
		degree = len(xs) - 1
	}

	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	b := mat.NewVecDense(len(ys), ys)

	var qr mat.QR
	qr.Factorize(a)
	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, b); err != nil {
		return nil, fmt.Errorf("polyfit: %w", err)
	}

	out := make([]float64, degree+1)
	for i := range out {
		out[i] = coeffs.AtVec(i)
	}
	return out, nil
}

// polyval evaluates coefficients from polyfit at x.
func polyval(coeffs []float64, x float64) float64 {
	y, p := 0.0, 1.0
	for _, c := range coeffs {
		y += c * p
		p *= x
	}
	return y
}
