// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSolveZeroDampingExact(t *testing.T) {
	// Orthogonal columns: the least-squares solution is exact per
	// coordinate and the third residual row is left over.
	a := mat.NewDense(3, 2, []float64{
		2, 0,
		0, 3,
		0, 0,
	})
	b := []float64{2, 3, 7}
	ls := newPivotedQR(a).intoLeastSquaresDiagonalProblem(b)

	p := make([]float64, 2)
	rank := ls.solveZeroDamping(p)
	require.Equal(t, 2, rank)
	require.InEpsilon(t, 1.0, p[0], 1e-14)
	require.InEpsilon(t, 1.0, p[1], 1e-14)
}

func TestSolveZeroDampingRankDeficient(t *testing.T) {
	// The second column is a multiple of the first; the undamped solve
	// must stay finite and pin the deficient coordinate to zero.
	a := mat.NewDense(3, 2, []float64{
		1, 2,
		0, 0,
		0, 0,
	})
	b := []float64{3, 5, 7}
	ls := newPivotedQR(a).intoLeastSquaresDiagonalProblem(b)

	p := make([]float64, 2)
	rank := ls.solveZeroDamping(p)
	require.Equal(t, 1, rank)
	require.True(t, allFinite(p))
	// The pivoted column carries the whole solution: A·p is the
	// projection of b onto the column span.
	require.InDelta(t, 0.0, p[0], 1e-14)
	require.InDelta(t, 1.5, p[1], 1e-14)
}

func TestSolveDampedNormalEquations(t *testing.T) {
	// The damped solution must satisfy (AᵀA + D²)p = Aᵀb, even though
	// it is never computed through the normal equations.
	a := testJacobian()
	b := []float64{1, 2, 0.5}
	lambda := 2.5
	diag := []float64{1.5, 0.8}

	ls := newPivotedQR(a).intoLeastSquaresDiagonalProblem(b)
	d := make([]float64, 2)
	for i, v := range diag {
		d[i] = math.Sqrt(lambda) * v
	}
	p := make([]float64, 2)
	ls.solveDamped(d, p)

	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := range d {
		ata.Set(i, i, ata.At(i, i)+d[i]*d[i])
	}
	var lhs, atb mat.VecDense
	lhs.MulVec(&ata, mat.NewVecDense(2, p))
	atb.MulVec(a.T(), mat.NewVecDense(3, b))
	for i := 0; i < 2; i++ {
		require.InDelta(t, atb.AtVec(i), lhs.AtVec(i), 1e-12)
	}
}

func TestSolveDampedZeroDiagonalMatchesUndamped(t *testing.T) {
	a := testJacobian()
	b := []float64{1, 2, 0.5}
	ls := newPivotedQR(a).intoLeastSquaresDiagonalProblem(b)

	want := make([]float64, 2)
	ls.solveZeroDamping(want)
	got := make([]float64, 2)
	ls.solveDamped([]float64{0, 0}, got)
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-13)
	}
}

func TestMaxCosine(t *testing.T) {
	b := []float64{1, 2, 0.5}
	ls := newPivotedQR(testJacobian()).intoLeastSquaresDiagonalProblem(b)

	// cos against column 0: (1+8+0.25) / (‖col0‖·‖b‖).
	want := 9.25 / math.Sqrt(17.25*5.25)
	require.InEpsilon(t, want, ls.maxCosine(enorm(b)), 1e-12)
	require.Equal(t, 0.0, ls.maxCosine(0))
}

func TestNormAp(t *testing.T) {
	a := testJacobian()
	p := []float64{0.7, -1.3}
	ls := newPivotedQR(a).intoLeastSquaresDiagonalProblem([]float64{1, 2, 0.5})

	var ap mat.VecDense
	ap.MulVec(a, mat.NewVecDense(2, p))
	require.InEpsilon(t, mat.Norm(&ap, 2), ls.normAp(p), 1e-12)
}
