// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// lmState carries the trust-region state of one minimization run
// between outer iterations: the current parameters, the scaling
// diagonal, the region radius and the bookkeeping around them. It is
// owned by exactly one run and never shared.
type lmState struct {
	opt    *Optimizer
	target Problem

	x      []float64
	diag   []float64
	xnorm  float64
	delta  float64
	gnorm  float64
	lambda float64

	residuals []float64
	rnorm     float64

	// initialized flips once diag, xnorm and delta have been set from
	// the first factorization; later calls must not touch xnorm and
	// delta again.
	initialized bool
	// firstStep holds until the first accepted step; the initial
	// radius is clipped to the first step length while it is set.
	firstStep bool

	xTrial, rTrial []float64
	step, dx       []float64

	evals, maxEvals int
	iterations      int
}

// newState evaluates the problem at x0 and builds the run state.
// A non-nil Termination means the run is already over; the state may
// still carry the evaluation count for the report.
func newState(o *Optimizer, target Problem, x0 *mat.VecDense) (*lmState, *Termination) {
	st := &lmState{opt: o, target: target, firstStep: true}
	if x0 == nil || x0.Len() == 0 {
		return st, &Termination{Reason: ReasonNoParameters}
	}

	n := x0.Len()
	st.x = make([]float64, n)
	for i := 0; i < n; i++ {
		st.x[i] = x0.AtVec(i)
	}
	st.diag = make([]float64, n)
	for i := range st.diag {
		st.diag[i] = one
	}
	st.xTrial = make([]float64, n)
	st.step = make([]float64, n)
	st.dx = make([]float64, n)
	st.maxEvals = o.patience * (n + 1)

	target.SetParams(mat.NewVecDense(n, st.x))
	st.evals++
	r, ok := target.Residuals()
	if !ok {
		return st, &Termination{Reason: ReasonUser, Stage: "residuals"}
	}
	m := r.Len()
	if m < n {
		return st, &Termination{Reason: ReasonNoResiduals}
	}
	st.residuals = make([]float64, m)
	st.rTrial = make([]float64, m)
	for i := 0; i < m; i++ {
		st.residuals[i] = r.AtVec(i)
	}
	st.rnorm = enorm(st.residuals)
	if math.IsNaN(st.rnorm) || math.IsInf(st.rnorm, 0) {
		return st, &Termination{Reason: ReasonNumerical, Stage: "residuals"}
	}
	if st.rnorm <= dwarf {
		return st, &Termination{Reason: ReasonResidualsZero}
	}
	return st, nil
}

// updateDiag brings diag, xnorm and delta up to date from the current
// Jacobian factorization, once per outer iteration and before the
// damped solve. It validates the already-evaluated data and makes no
// Problem calls of its own. A non-nil Termination either reports a
// numerical degeneracy or, via ReasonOrthogonal, convergence of the
// gradient test.
func (st *lmState) updateDiag(ls *leastSquaresDiagonalProblem) *Termination {
	if !allFinite(st.x) {
		return &Termination{Reason: ReasonNumerical, Stage: "subproblem x"}
	}
	norms := ls.columnNorms()
	if !allFinite(norms) {
		return &Termination{Reason: ReasonNumerical, Stage: "jacobian"}
	}

	if !st.opt.noScaleDiag {
		if !st.initialized {
			for i, cn := range norms {
				if cn == zero {
					// A zero column must not collapse the trust region
					// for its parameter.
					st.diag[i] = one
				} else {
					st.diag[i] = cn
				}
			}
		} else {
			// The scaling only ever grows across a run.
			for i, cn := range norms {
				st.diag[i] = math.Max(st.diag[i], cn)
			}
		}
	}

	if !st.initialized {
		st.initialized = true
		floats.MulTo(st.dx, st.diag, st.x)
		st.xnorm = enorm(st.dx)
		if st.xnorm == zero {
			st.delta = st.opt.stepBound
		} else {
			st.delta = st.opt.stepBound * st.xnorm
		}
	}

	st.gnorm = ls.maxCosine(st.rnorm)
	if st.gnorm <= st.opt.gtol {
		return &Termination{Reason: ReasonOrthogonal}
	}
	return nil
}
