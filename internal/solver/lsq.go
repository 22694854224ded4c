package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxIter bounds the Gauss-Newton iteration, matching
// FengXuebin-gnssgo's EstimatePos MAXITR.
const maxIter = 10

// convergeNorm is the step-size norm below which the fit is accepted.
const convergeNorm = 1e-4

// candidate is one SV's pseudorange observation and ECEF position at
// the solution epoch.
type candidate struct {
	prn     int
	rangeM  float64 // pseudorange, meters
	x, y, z float64 // SV ECEF position, meters
}

// estimatedFix is the 4-parameter (x, y, z, receiver-clock-bias) result
// of a converged least-squares fit.
type estimatedFix struct {
	x, y, z      float64
	clockBiasSec float64
	iterations   int
}

// estimatePosition runs a Gauss-Newton least-squares fit for receiver
// ECEF position and clock bias from a set of pseudorange candidates,
// reduced from FengXuebin-gnssgo's Residuals/EstimatePos (RTKLIB's point
// -positioning solver) to this spec's single-constellation, 4-parameter
// case: no iono/tropo correction, no inter-system clock offsets.
func estimatePosition(cands []candidate, x0, y0, z0 float64) (estimatedFix, error) {
	if len(cands) < 4 {
		return estimatedFix{}, fmt.Errorf("solver: need at least 4 candidates, got %d", len(cands))
	}

	x := []float64{x0, y0, z0, 0}

	n := len(cands)
	hData := make([]float64, n*4)
	vData := make([]float64, n)

	var dxNorm float64
	iter := 0
	for ; iter < maxIter; iter++ {
		for i, c := range cands {
			dx, dy, dz := x[0]-c.x, x[1]-c.y, x[2]-c.z
			r := math.Sqrt(dx*dx + dy*dy + dz*dz)
			if r == 0 {
				return estimatedFix{}, fmt.Errorf("solver: zero range to sv %d", c.prn)
			}

			vData[i] = c.rangeM - (r + x[3])
			hData[i*4+0] = dx / r
			hData[i*4+1] = dy / r
			hData[i*4+2] = dz / r
			hData[i*4+3] = 1
		}

		H := mat.NewDense(n, 4, hData)
		v := mat.NewVecDense(n, vData)

		var ht mat.Dense
		ht.CloneFrom(H.T())

		var htH mat.Dense
		htH.Mul(&ht, H)

		var htv mat.VecDense
		htv.MulVec(&ht, v)

		var dx mat.VecDense
		if err := dx.SolveVec(&htH, &htv); err != nil {
			return estimatedFix{}, fmt.Errorf("solver: normal equations singular: %w", err)
		}

		for j := 0; j < 4; j++ {
			x[j] += dx.AtVec(j)
		}
		dxNorm = mat.Norm(&dx, 2)
		if dxNorm < convergeNorm {
			iter++
			break
		}
	}

	if dxNorm >= convergeNorm {
		return estimatedFix{}, fmt.Errorf("solver: did not converge after %d iterations (step=%.3g)", iter, dxNorm)
	}

	return estimatedFix{
		x: x[0], y: x[1], z: x[2],
		clockBiasSec: x[3] / speedOfLight,
		iterations:   iter,
	}, nil
}
