// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func trigFunc(x, y []float64) {
	y[0] = x[0] * math.Sin(x[1])
	y[1] = x[1] * math.Cos(x[0])
	y[2] = x[0] * x[0] * x[0] / math.Sqrt(x[1])
}

func trigJac(x []float64) *mat.Dense {
	return mat.NewDense(3, 2, []float64{
		math.Sin(x[1]), x[0] * math.Cos(x[1]),
		-x[1] * math.Sin(x[0]), math.Cos(x[0]),
		3 * x[0] * x[0] / math.Sqrt(x[1]), -0.5 * x[0] * x[0] * x[0] * math.Pow(x[1], -1.5),
	})
}

func TestJacobianForward(t *testing.T) {
	j := Jacobian{Func: trigFunc, N: 2, M: 3}
	x := []float64{1.5, 0.7}

	got, err := j.Approx(x, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 0.7}, x, "x must be restored")

	want := trigJac(x)
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			assert.InDelta(t, want.At(r, c), got.At(r, c), 1e-6)
		}
	}
}

func TestJacobianCentral(t *testing.T) {
	j := Jacobian{Func: trigFunc, N: 2, M: 3, Method: Central}
	x := []float64{1.5, 0.7}

	got, err := j.Approx(x, nil)
	require.NoError(t, err)

	want := trigJac(x)
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			assert.InDelta(t, want.At(r, c), got.At(r, c), 1e-9)
		}
	}
}

func TestJacobianAtZero(t *testing.T) {
	// Automatic steps must not collapse at x = 0.
	f := func(x, y []float64) {
		y[0] = x[0] * x[1]
		y[1] = math.Cos(x[0] * x[1])
	}
	j := Jacobian{Func: f, N: 2, M: 2, Method: Central}
	x := []float64{0, 0}

	got, err := j.Approx(x, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0, got.At(0, 1), 1e-9)
	assert.InDelta(t, 0.0, got.At(1, 0), 1e-9)
	assert.InDelta(t, 0.0, got.At(1, 1), 1e-9)
}

func TestJacobianDstReuse(t *testing.T) {
	j := Jacobian{Func: trigFunc, N: 2, M: 3}
	dst := mat.NewDense(3, 2, nil)

	got, err := j.Approx([]float64{1, 1}, dst)
	require.NoError(t, err)
	require.Same(t, dst, got)

	_, err = j.Approx([]float64{1, 1}, mat.NewDense(2, 2, nil))
	require.Error(t, err)
}

func TestJacobianFixedStep(t *testing.T) {
	f := func(x, y []float64) { y[0] = x[0] * x[0] }
	j := Jacobian{Func: f, N: 1, M: 1, Method: Central, AbsStep: 1e-4}

	got, err := j.Approx([]float64{3}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got.At(0, 0), 1e-8)
}

func TestJacobianValidation(t *testing.T) {
	f := func(x, y []float64) {}
	for _, j := range []Jacobian{
		{Func: f, N: 0, M: 1},
		{Func: f, N: 1, M: 0},
		{Func: f, N: 1, M: 1, Method: Method(7)},
		{N: 1, M: 1},
	} {
		_, err := j.Approx(make([]float64, j.N), nil)
		require.Error(t, err)
	}
}
