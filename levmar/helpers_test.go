// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import "gonum.org/v1/gonum/mat"

type mockCall int

const (
	callSetParams mockCall = iota
	callResiduals
	callJacobian
)

// mockProblem records every call made against it and replays queued
// evaluation results. A nil queue entry plays back as an undefined
// evaluation.
type mockProblem struct {
	calls     []mockCall
	params    []float64
	residuals []*mat.VecDense
	jacobians []*mat.Dense
}

func (p *mockProblem) SetParams(x *mat.VecDense) {
	p.calls = append(p.calls, callSetParams)
	p.params = append(p.params[:0], x.RawVector().Data...)
}

func (p *mockProblem) Residuals() (*mat.VecDense, bool) {
	p.calls = append(p.calls, callResiduals)
	if len(p.residuals) == 0 {
		return nil, false
	}
	r := p.residuals[0]
	p.residuals = p.residuals[1:]
	return r, r != nil
}

func (p *mockProblem) Jacobian() (*mat.Dense, bool) {
	p.calls = append(p.calls, callJacobian)
	if len(p.jacobians) == 0 {
		return nil, false
	}
	j := p.jacobians[0]
	p.jacobians = p.jacobians[1:]
	return j, j != nil
}

func vecOf(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}
