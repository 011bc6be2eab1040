// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import "math"

// leastSquaresDiagonalProblem is the damped least-squares subproblem
//
//	min ‖b − A·p‖² + ‖D·p‖²
//
// expressed through the pivoted QR factorization of A, so the damped
// system is reduced without ever forming AᵀA (which would square the
// condition number). D is a diagonal matrix supplied per solve; the
// undamped D = 0 case falls back to a minimum-norm solution over the
// non-deficient subspace revealed by the pivoting.
type leastSquaresDiagonalProblem struct {
	n        int
	upperR   []float64 // n×n column-major upper triangle of R with its diagonal
	qtb      []float64 // first n entries of Qᵀb
	perm     []int
	colNorms []float64

	// Scratch of solveDamped. After a solve, sDiag holds the diagonal
	// of the eliminated factor S and the strict lower triangle of work
	// holds Sᵀ, which the damping search reuses for its Newton
	// correction.
	work  []float64
	sDiag []float64
	rd    []float64
	wa    []float64
}

// columnNorms returns the pre-pivot Euclidean norms of the Jacobian
// columns, indexed by original column.
func (ls *leastSquaresDiagonalProblem) columnNorms() []float64 { return ls.colNorms }

// maxCosine returns the largest cosine, in absolute value, of the
// angle between a Jacobian column and the residual vector b with norm
// bnorm. Since AᵀB = P·Rᵀ·Qᵀb, the gradient is read off the reduced
// factors directly.
func (ls *leastSquaresDiagonalProblem) maxCosine(bnorm float64) float64 {
	n := ls.n
	g := zero
	if bnorm == zero {
		return g
	}
	for j := 0; j < n; j++ {
		cn := ls.colNorms[ls.perm[j]]
		if cn == zero {
			continue
		}
		sum := zero
		for i := 0; i <= j; i++ {
			sum += ls.upperR[j*n+i] * (ls.qtb[i] / bnorm)
		}
		g = math.Max(g, math.Abs(sum/cn))
	}
	return g
}

// normAp returns ‖A·p‖, using ‖A·p‖ = ‖R·Pᵀ·p‖.
func (ls *leastSquaresDiagonalProblem) normAp(p []float64) float64 {
	n := ls.n
	wa := ls.wa
	for i := range wa {
		wa[i] = zero
	}
	for j := 0; j < n; j++ {
		t := p[ls.perm[j]]
		for i := 0; i <= j; i++ {
			wa[i] += ls.upperR[j*n+i] * t
		}
	}
	return enorm(wa)
}

// solveZeroDamping computes the Gauss-Newton direction, the p of
// minimum norm solving R·Pᵀ·p = Qᵀb over the non-deficient subspace.
// Coordinates beyond the first zero diagonal of R are pinned to zero
// so a rank-deficient factorization yields a finite solution instead
// of NaN. The revealed rank is returned alongside.
func (ls *leastSquaresDiagonalProblem) solveZeroDamping(out []float64) (rank int) {
	n := ls.n
	z := ls.wa
	rank = n
	for j := 0; j < n; j++ {
		z[j] = ls.qtb[j]
		if ls.upperR[j*n+j] == zero && rank == n {
			rank = j
		}
		if rank < n {
			z[j] = zero
		}
	}
	for j := rank - 1; j >= 0; j-- {
		z[j] /= ls.upperR[j*n+j]
		t := z[j]
		for i := 0; i < j; i++ {
			z[i] -= ls.upperR[j*n+i] * t
		}
	}
	for j := 0; j < n; j++ {
		out[ls.perm[j]] = z[j]
	}
	return rank
}

// solveDamped solves the damped system for the diagonal d (indexed by
// original column, including any sqrt(λ) factor): the rows of D are
// eliminated against R with Givens rotations (qrsolv from MINPACK),
// preserving the orthogonal reduction, and the resulting triangular
// factor S is solved with the same revealed-rank fallback as the
// undamped case.
func (ls *leastSquaresDiagonalProblem) solveDamped(d, out []float64) {
	n := ls.n
	r, wa := ls.work, ls.wa

	// Copy R transposed into the lower triangle of the workspace; the
	// rotations destroy the lower part only. Save the diagonal of R.
	for j := 0; j < n; j++ {
		for i := j; i < n; i++ {
			r[j*n+i] = ls.upperR[i*n+j]
		}
		ls.rd[j] = ls.upperR[j*n+j]
		wa[j] = ls.qtb[j]
	}

	// Eliminate row j of D, rotating against rows j..n-1 of R. Each
	// rotation spills a nonzero down the D row, tracked in sDiag.
	for j := 0; j < n; j++ {
		if l := ls.perm[j]; d[l] != zero {
			for k := j; k < n; k++ {
				ls.sDiag[k] = zero
			}
			ls.sDiag[j] = d[l]

			qtbpj := zero
			for k := j; k < n; k++ {
				if ls.sDiag[k] == zero {
					continue
				}
				var sin, cos float64
				if math.Abs(r[k*n+k]) < math.Abs(ls.sDiag[k]) {
					cotan := r[k*n+k] / ls.sDiag[k]
					sin = p5 / math.Sqrt(p25+p25*cotan*cotan)
					cos = sin * cotan
				} else {
					tan := ls.sDiag[k] / r[k*n+k]
					cos = p5 / math.Sqrt(p25+p25*tan*tan)
					sin = cos * tan
				}

				r[k*n+k] = cos*r[k*n+k] + sin*ls.sDiag[k]
				temp := cos*wa[k] + sin*qtbpj
				qtbpj = -sin*wa[k] + cos*qtbpj
				wa[k] = temp

				for i := k + 1; i < n; i++ {
					temp = cos*r[k*n+i] + sin*ls.sDiag[i]
					ls.sDiag[i] = -sin*r[k*n+i] + cos*ls.sDiag[i]
					r[k*n+i] = temp
				}
			}
		}
		// Keep the diagonal of S aside and restore R's own diagonal so
		// the workspace still describes both factors.
		ls.sDiag[j], r[j*n+j] = r[j*n+j], ls.rd[j]
	}

	// Solve S·z = wa, pinning coordinates beyond a zero diagonal.
	rank := n
	for j := 0; j < n; j++ {
		if ls.sDiag[j] == zero && rank == n {
			rank = j
		}
		if rank < n {
			wa[j] = zero
		}
	}
	for j := rank - 1; j >= 0; j-- {
		sum := zero
		for i := j + 1; i < rank; i++ {
			sum += r[j*n+i] * wa[i]
		}
		wa[j] = (wa[j] - sum) / ls.sDiag[j]
	}

	for j := 0; j < n; j++ {
		out[ls.perm[j]] = wa[j]
	}
}
