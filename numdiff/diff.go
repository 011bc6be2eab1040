// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates Jacobian matrices of vector functions by
// finite differences, for least-squares problems whose analytic
// derivatives are unavailable or untrusted.
package numdiff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
	cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)
)

// Method selects the finite difference scheme.
type Method int

const (
	// Forward use the first order accuracy forward difference,
	// one extra evaluation per parameter.
	Forward Method = iota
	// Central use the second order accuracy central difference,
	// two extra evaluations per parameter.
	Central
)

// Jacobian approximates the m×n Jacobian of a function mapping an
// n-vector of parameters to an m-vector of residuals.
//
// The zero value with Func, N and M set is ready to use and selects the
// Forward method with an automatic step size.
type Jacobian struct {
	// Func evaluates the function. The argument x is an n-vector, the
	// result is stored into the m-vector y. Func must not retain x.
	Func func(x, y []float64)
	// N is the number of parameters, M the number of residuals.
	N, M int
	// Method is the finite difference scheme to use.
	Method Method
	// RelStep is the relative step size. The absolute step for each
	// parameter is h = RelStep × sign(x₀) × max(1, |x₀|). When zero a
	// method-dependent default is used, ε^(1/2) for Forward and ε^(1/3)
	// for Central.
	RelStep float64
	// AbsStep overrides the relative step with a fixed absolute step.
	AbsStep float64

	f0, f1, f2 []float64
	h          []float64
}

func (j *Jacobian) check(x []float64) error {
	switch {
	case j.N <= 0 || j.M <= 0:
		return errors.New("numdiff: dimensions must be positive")
	case j.Method != Forward && j.Method != Central:
		return errors.New("numdiff: unknown method")
	case j.Func == nil:
		return errors.New("numdiff: function is required")
	case len(x) != j.N:
		return errors.New("numdiff: x dimension does not match N")
	}
	if len(j.f0) != j.M {
		j.f0 = make([]float64, j.M)
		j.f1 = make([]float64, j.M)
		j.f2 = make([]float64, j.M)
	}
	if len(j.h) != j.N {
		j.h = make([]float64, j.N)
	}
	return nil
}

// steps fills the per-parameter step sizes. A step that would vanish in
// the floating point sum x+h falls back to the automatic choice.
func (j *Jacobian) steps(x []float64) {
	eps := sqrtEps
	if j.Method == Central {
		eps = cubeEps
	}

	for i, v := range x {
		s := j.AbsStep
		if s == 0 {
			rel := j.RelStep
			if rel == 0 {
				rel = eps
			}
			s = math.Copysign(rel, v) * math.Max(1, math.Abs(v))
		}
		if d := (v + s) - v; d == 0 {
			s = math.Copysign(eps, v) * math.Max(1, math.Abs(v))
		}
		j.h[i] = s
	}
}

// Approx evaluates the finite difference approximation at x and writes
// it into dst, which must be M×N or nil. It returns the filled matrix.
// The contents of x are restored before returning.
func (j *Jacobian) Approx(x []float64, dst *mat.Dense) (*mat.Dense, error) {
	if err := j.check(x); err != nil {
		return nil, err
	}
	if dst == nil {
		dst = mat.NewDense(j.M, j.N, nil)
	} else if dm, dn := dst.Dims(); dm != j.M || dn != j.N {
		return nil, errors.New("numdiff: dst dimension does not match M×N")
	}

	j.steps(x)
	if j.Method == Central {
		j.central(x, dst)
	} else {
		j.forward(x, dst)
	}
	return dst, nil
}

func (j *Jacobian) forward(x []float64, dst *mat.Dense) {
	j.Func(x, j.f0)
	for i, s := range j.h {
		t := x[i]
		x[i] = t + s
		j.Func(x, j.f1)
		x[i] = t
		d := 1 / s
		for k, f0 := range j.f0 {
			dst.Set(k, i, (j.f1[k]-f0)*d)
		}
	}
}

func (j *Jacobian) central(x []float64, dst *mat.Dense) {
	for i, s := range j.h {
		t := x[i]
		x[i] = t - s
		j.Func(x, j.f1)
		x[i] = t + s
		j.Func(x, j.f2)
		x[i] = t
		d := 1 / (2 * s)
		for k := range j.f1 {
			dst.Set(k, i, (j.f2[k]-j.f1[k])*d)
		}
	}
}
