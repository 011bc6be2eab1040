// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// pivotedQR is a Householder QR factorization of an m×n matrix A
// (m ≥ n) with column pivoting: A·P = Q·R where P orders the columns
// by decreasing norm at the time of pivoting, ties kept in original
// order. The revealed rank and the pre-pivot column norms feed the
// trust-region scaling and the damped subproblem.
//
// Storage follows qrfac from MINPACK:
//
//	qr     column-major m×n. The strict upper triangle holds R without
//	       its diagonal. Each column j holds on and below the diagonal
//	       the Householder vector uⱼ of the transformation
//	       Qⱼ = I - uⱼuⱼᵀ/uⱼ[j] that produced column j of R.
//	rDiag  the diagonal of R, sign chosen by the reflections.
//
// The input matrix is copied, never mutated. A matrix containing NaN
// or infinite entries factors without panicking; the degeneracy
// surfaces through non-finite column norms, which the caller converts
// into a numerical termination.
type pivotedQR struct {
	m, n     int
	qr       []float64
	rDiag    []float64
	perm     []int     // perm[j] is the original index of pivoted column j
	colNorms []float64 // pre-pivot column norms, indexed by original column
}

// newPivotedQR factors the matrix a. It panics when a has fewer rows
// than columns; the driver rules that case out before factorizing.
func newPivotedQR(a *mat.Dense) *pivotedQR {
	m, n := a.Dims()
	if m < n {
		panic("levmar: matrix has fewer rows than columns")
	}

	f := &pivotedQR{
		m: m, n: n,
		qr:       make([]float64, m*n),
		rDiag:    make([]float64, n),
		perm:     make([]int, n),
		colNorms: make([]float64, n),
	}

	// Copy the row-major input into column-major storage and take the
	// original column norms.
	raw := a.RawMatrix()
	wa := make([]float64, n)
	for j := 0; j < n; j++ {
		col := f.qr[j*m : j*m+m]
		for i := 0; i < m; i++ {
			col[i] = raw.Data[i*raw.Stride+j]
		}
		f.perm[j] = j
		f.colNorms[j] = enorm(col)
		f.rDiag[j] = f.colNorms[j]
		wa[j] = f.colNorms[j]
	}

	for j := 0; j < n; j++ {
		// Bring the column of largest remaining norm into position j.
		kmax := j
		for k := j + 1; k < n; k++ {
			if f.rDiag[k] > f.rDiag[kmax] {
				kmax = k
			}
		}
		if kmax != j {
			cj := f.qr[j*m : j*m+m]
			ck := f.qr[kmax*m : kmax*m+m]
			for i := 0; i < m; i++ {
				cj[i], ck[i] = ck[i], cj[i]
			}
			f.rDiag[kmax] = f.rDiag[j]
			wa[kmax] = wa[j]
			f.perm[j], f.perm[kmax] = f.perm[kmax], f.perm[j]
		}

		// Compute the Householder transformation reducing column j and
		// apply it to the trailing columns.
		colj := f.qr[j*m : j*m+m]
		ajnorm := enorm(colj[j:])
		if ajnorm != zero {
			if colj[j] < zero {
				ajnorm = -ajnorm
			}
			blas64.Scal(one/ajnorm, vec(colj[j:]))
			colj[j] += one

			for k := j + 1; k < n; k++ {
				colk := f.qr[k*m : k*m+m]
				sum := blas64.Dot(vec(colj[j:]), vec(colk[j:]))
				blas64.Axpy(-sum/colj[j], vec(colj[j:]), vec(colk[j:]))
				if f.rDiag[k] == zero {
					continue
				}
				// Downdate the remaining norm, recomputing it when
				// cancellation has eaten the estimate.
				t := colk[j] / f.rDiag[k]
				f.rDiag[k] *= math.Sqrt(math.Max(zero, one-t*t))
				if 0.05*(f.rDiag[k]/wa[k])*(f.rDiag[k]/wa[k]) <= eps {
					f.rDiag[k] = enorm(colk[j+1:])
					wa[k] = f.rDiag[k]
				}
			}
		}
		f.rDiag[j] = -ajnorm
	}
	return f
}

// intoLeastSquaresDiagonalProblem pairs the factorization with the
// residual vector b, computing Qᵀb and extracting R so the damped
// subproblem can be solved repeatedly without the m×n factor. The
// factorization itself is left untouched.
func (f *pivotedQR) intoLeastSquaresDiagonalProblem(b []float64) *leastSquaresDiagonalProblem {
	m, n := f.m, f.n
	if len(b) != m {
		panic("levmar: residual dimension not match factorization")
	}

	wa := make([]float64, m)
	copy(wa, b)
	for j := 0; j < n; j++ {
		colj := f.qr[j*m : j*m+m]
		if colj[j] != zero {
			sum := blas64.Dot(vec(colj[j:]), vec(wa[j:]))
			blas64.Axpy(-sum/colj[j], vec(colj[j:]), vec(wa[j:]))
		}
	}

	upperR := make([]float64, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			upperR[j*n+i] = f.qr[j*m+i]
		}
		upperR[j*n+j] = f.rDiag[j]
	}

	return &leastSquaresDiagonalProblem{
		n:        n,
		upperR:   upperR,
		qtb:      wa[:n:n],
		perm:     f.perm,
		colNorms: f.colNorms,
		work:     make([]float64, n*n),
		sDiag:    make([]float64, n),
		rd:       make([]float64, n),
		wa:       make([]float64, n),
	}
}
