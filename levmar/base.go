// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
)

const (
	zero  = 0.0
	one   = 1.0
	two   = 2.0
	p1    = 0.1
	p25   = 0.25
	p5    = 0.5
	p75   = 0.75
	p001  = 0.001
	p0001 = 1e-4
	eps   = float64(7)/3 - float64(4)/3 - 1.
	// dwarf is the smallest positive normal double (dpmpar(2) in MINPACK).
	dwarf = 2.2250738585072014e-308
)

func vec(a []float64) blas64.Vector {
	return blas64.Vector{N: len(a), Data: a, Inc: 1}
}

// enorm computes the Euclidean norm of a without overflowing
// on intermediate squares.
func enorm(a []float64) float64 {
	return blas64.Nrm2(vec(a))
}

func allFinite(a []float64) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
