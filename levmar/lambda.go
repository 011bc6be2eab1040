// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import "math"

// determineLambda finds the Levenberg-Marquardt damping λ ≥ 0 for
// which the damped step p of the subproblem satisfies the trust-region
// constraint ‖diag⊙p‖ ≈ delta (lmpar from MINPACK).
//
// If the Gauss-Newton step is inside the region, λ = 0 and that step
// is returned. Otherwise λ solves ‖diag⊙p(λ)‖ = delta to within 10% of
// delta, by a safeguarded Newton iteration on the reciprocal of the
// step norm, which is almost linear in λ. The iteration starts from
// par, the λ accepted for the previous Jacobian, and needs few steps.
//
// The returned step is the subproblem solution A·p ≅ b; the driver
// negates it before stepping.
func determineLambda(ls *leastSquaresDiagonalProblem, delta float64, diag []float64, par float64, step []float64) float64 {
	n := ls.n
	wa1 := make([]float64, n)
	wa2 := make([]float64, n)

	rank := ls.solveZeroDamping(step)

	for j := 0; j < n; j++ {
		wa2[j] = diag[j] * step[j]
	}
	dxnorm := enorm(wa2)
	fp := dxnorm - delta
	if fp <= p1*delta {
		return zero
	}

	// A lower bound on λ from the Newton step of the secular equation,
	// available only at full rank: the function is -∞ at rank
	// deficiency.
	parl := zero
	if rank == n {
		for j := 0; j < n; j++ {
			l := ls.perm[j]
			wa1[j] = diag[l] * (wa2[l] / dxnorm)
		}
		for j := 0; j < n; j++ {
			sum := zero
			for i := 0; i < j; i++ {
				sum += ls.upperR[j*n+i] * wa1[i]
			}
			wa1[j] = (wa1[j] - sum) / ls.upperR[j*n+j]
		}
		temp := enorm(wa1)
		parl = ((fp / delta) / temp) / temp
	}

	// An upper bound on λ from the gradient norm.
	for j := 0; j < n; j++ {
		sum := zero
		for i := 0; i <= j; i++ {
			sum += ls.upperR[j*n+i] * ls.qtb[i]
		}
		wa1[j] = sum / diag[ls.perm[j]]
	}
	gnorm := enorm(wa1)
	paru := gnorm / delta
	if paru == zero {
		paru = dwarf / math.Min(delta, p1)
	}

	par = math.Min(math.Max(par, parl), paru)
	if par == zero {
		par = gnorm / dxnorm
	}

	for iter := 1; ; iter++ {
		if par == zero {
			par = math.Max(dwarf, p001*paru)
		}
		temp := math.Sqrt(par)
		for j := 0; j < n; j++ {
			wa1[j] = temp * diag[j]
		}
		ls.solveDamped(wa1, step)

		for j := 0; j < n; j++ {
			wa2[j] = diag[j] * step[j]
		}
		dxnorm = enorm(wa2)
		prev := fp
		fp = dxnorm - delta

		// Accept λ when the step norm is within 10% of delta, or when
		// the lower bound is pinned at zero and the norm cannot be
		// raised further, or once the iteration budget runs out.
		if math.Abs(fp) <= p1*delta || (parl == zero && fp <= prev && prev < zero) || iter == 10 {
			return par
		}

		// Newton correction, using the factor S left by the damped
		// solve.
		for j := 0; j < n; j++ {
			l := ls.perm[j]
			wa1[j] = diag[l] * (wa2[l] / dxnorm)
		}
		for j := 0; j < n; j++ {
			wa1[j] /= ls.sDiag[j]
			t := wa1[j]
			for i := j + 1; i < n; i++ {
				wa1[i] -= ls.work[j*n+i] * t
			}
		}
		temp = enorm(wa1)
		parc := ((fp / delta) / temp) / temp

		if fp > zero {
			parl = math.Max(parl, par)
		} else if fp < zero {
			paru = math.Min(paru, par)
		}
		par = math.Max(parl, par+parc)
	}
}
