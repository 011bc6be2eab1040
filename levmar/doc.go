// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package levmar solves nonlinear least-squares problems with the
// Levenberg-Marquardt algorithm.
//
// Given residuals r(x) and their Jacobian J(x), supplied through the
// Problem interface, the optimizer finds parameters minimizing
// 0.5×‖r(x)‖². Each iteration factors the Jacobian with a pivoted
// Householder QR, refreshes a per-parameter scaling diagonal and the
// trust-region radius, then damps the Gauss-Newton step until it fits
// the region, following the classic MINPACK lmdif/lmpar scheme. The
// damped subproblem is solved through the orthogonal factorization,
// never through the normal equations, and rank deficiency falls back
// to a minimum-norm step instead of overflowing.
//
// Termination is reported as a structured reason rather than an error:
// convergence by residual reduction, step length or gradient
// orthogonality, exhaustion of the evaluation budget, or a numerical
// degeneracy such as a NaN in the parameters or the Jacobian.
package levmar
