// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// iterDriver runs the outer iterations of one minimization: evaluate
// the Jacobian, factor it, refresh the trust-region state, then search
// the region for an acceptable step.
type iterDriver struct {
	opt    *Optimizer
	target Problem
	st     *lmState
}

func (d *iterDriver) mainLoop() Termination {
	st, log := d.st, &d.opt.logger
	for {
		jac, ok := d.target.Jacobian()
		if !ok {
			return Termination{Reason: ReasonUser, Stage: "jacobian"}
		}
		jm, jn := jac.Dims()
		if jm != len(st.residuals) || jn != len(st.x) {
			panic("levmar: jacobian dimension not match problem")
		}

		ls := newPivotedQR(jac).intoLeastSquaresDiagonalProblem(st.residuals)
		if term := st.updateDiag(ls); term != nil {
			return *term
		}

		if log.enable(LogEval) {
			log.log("At iterate %5d    f= %12.5e    |cos|= %12.5e    delta= %12.5e\n",
				st.iterations, p5*st.rnorm*st.rnorm, st.gnorm, st.delta)
		}

		if term := d.trustRegion(ls); term != nil {
			return *term
		}
	}
}

// trustRegion searches the current region for a step that reduces the
// residual norm, adapting the damping and the radius from the ratio of
// actual to predicted reduction. It returns nil after an accepted
// step, handing control back for a fresh Jacobian.
func (d *iterDriver) trustRegion(ls *leastSquaresDiagonalProblem) *Termination {
	st, opt := d.st, d.opt
	p, dxp := st.step, st.dx

	for {
		st.lambda = determineLambda(ls, st.delta, st.diag, st.lambda, p)
		floats.Scale(-one, p)
		floats.AddTo(st.xTrial, st.x, p)
		floats.MulTo(dxp, st.diag, p)
		pnorm := enorm(dxp)

		// Until a step has been accepted the initial radius is still a
		// guess; clip it to the length of the step actually taken.
		if st.firstStep {
			st.delta = math.Min(st.delta, pnorm)
		}

		d.target.SetParams(mat.NewVecDense(len(st.xTrial), st.xTrial))
		st.evals++
		fnorm1 := math.Inf(1)
		if r, ok := d.target.Residuals(); ok {
			if r.Len() != len(st.residuals) {
				panic("levmar: residual dimension not match problem")
			}
			for i := range st.rTrial {
				st.rTrial[i] = r.AtVec(i)
			}
			if v := enorm(st.rTrial); !math.IsNaN(v) {
				fnorm1 = v
			}
		}

		actred := -one
		if p1*fnorm1 < st.rnorm {
			t := fnorm1 / st.rnorm
			actred = one - t*t
		}

		temp1 := ls.normAp(p) / st.rnorm
		temp2 := math.Sqrt(st.lambda) * pnorm / st.rnorm
		prered := temp1*temp1 + two*temp2*temp2
		dirder := -(temp1*temp1 + temp2*temp2)

		ratio := zero
		if prered != zero {
			ratio = actred / prered
		}

		if ratio <= p25 {
			temp := p5
			if actred < zero {
				temp = p5 * dirder / (dirder + p5*actred)
			}
			if p1*fnorm1 >= st.rnorm || temp < p1 {
				temp = p1
			}
			st.delta = temp * math.Min(st.delta, pnorm/p1)
			st.lambda /= temp
		} else if st.lambda == zero || ratio >= p75 {
			st.delta = pnorm / p5
			st.lambda *= p5
		}

		improved := ratio >= p0001
		if improved {
			st.x, st.xTrial = st.xTrial, st.x
			st.residuals, st.rTrial = st.rTrial, st.residuals
			st.rnorm = fnorm1
			floats.MulTo(dxp, st.diag, st.x)
			st.xnorm = enorm(dxp)
			st.iterations++
			st.firstStep = false
		}

		ftolConv := math.Abs(actred) <= opt.ftol && prered <= opt.ftol && p5*ratio <= one
		xtolConv := st.delta <= opt.xtol*st.xnorm
		switch {
		case improved && st.rnorm <= dwarf:
			return &Termination{Reason: ReasonResidualsZero}
		case ftolConv || xtolConv:
			return &Termination{Reason: ReasonConverged, Ftol: ftolConv, Xtol: xtolConv}
		case st.evals >= st.maxEvals:
			return &Termination{Reason: ReasonLostPatience}
		case math.Abs(actred) <= eps && prered <= eps && p5*ratio <= one:
			return &Termination{Reason: ReasonNoImprovement, Stage: "ftol"}
		case st.delta <= eps*st.xnorm:
			return &Termination{Reason: ReasonNoImprovement, Stage: "xtol"}
		case st.gnorm <= eps:
			return &Termination{Reason: ReasonNoImprovement, Stage: "gtol"}
		}

		if improved {
			return nil
		}
	}
}
