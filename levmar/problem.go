// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import "gonum.org/v1/gonum/mat"

// Problem is the least-squares objective: the residuals of a model and
// their partial derivatives at a trial parameter vector.
//
// SetParams fixes the parameters for the following Residuals and
// Jacobian calls. The optimizer calls SetParams exactly once before
// each evaluation and never mutates the vector afterwards;
// implementations must not retain or modify it.
//
// Residuals returns the m-vector of residuals at the last set
// parameters. Jacobian returns the m×n matrix of partial derivatives
// ∂rᵢ/∂xⱼ there, with m ≥ n. Both report ok == false when the model is
// undefined at the current parameters; the optimizer converts that
// into a termination, never a panic. A trial point with undefined
// residuals is treated as a rejected step so the trust region shrinks
// away from it.
type Problem interface {
	SetParams(x *mat.VecDense)
	Residuals() (r *mat.VecDense, ok bool)
	Jacobian() (j *mat.Dense, ok bool)
}
