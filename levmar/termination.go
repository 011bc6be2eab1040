// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"errors"
	"fmt"
)

// Reason identifies why a minimization stopped. Programs should not
// rely on the underlying numeric value of a Reason being constant.
type Reason int

const (
	// ReasonNone the run has not terminated.
	ReasonNone Reason = iota
	// ReasonResidualsZero the residual vector is numerically zero.
	ReasonResidualsZero
	// ReasonOrthogonal the residuals are orthogonal to the Jacobian
	// columns within Gtol.
	ReasonOrthogonal
	// ReasonConverged the Ftol or Xtol criterion was satisfied.
	ReasonConverged
	// ReasonNoImprovement a tolerance is stricter than the arithmetic
	// allows for this problem, no further progress is possible.
	ReasonNoImprovement
	// ReasonLostPatience the evaluation budget was exhausted.
	ReasonLostPatience
	// ReasonNumerical a NaN or infinite value was produced.
	ReasonNumerical
	// ReasonUser the problem declined to evaluate at the requested
	// parameters.
	ReasonUser
	// ReasonNoParameters the initial parameter vector is empty.
	ReasonNoParameters
	// ReasonNoResiduals the problem provides fewer residuals than
	// parameters.
	ReasonNoResiduals
)

var reasons = []struct {
	name string
	good bool
	err  error
}{
	{name: "NotTerminated"},
	{name: "ResidualsZero", good: true},
	{name: "Orthogonal", good: true},
	{name: "Converged", good: true},
	{
		name: "NoImprovementPossible",
		err:  errors.New("levmar: tolerance too strict, no improvement possible"),
	},
	{
		name: "LostPatience",
		err:  errors.New("levmar: maximum number of evaluations reached"),
	},
	{
		name: "Numerical",
		err:  errors.New("levmar: NaN or infinite value encountered"),
	},
	{
		name: "User",
		err:  errors.New("levmar: problem undefined at requested parameters"),
	},
	{
		name: "NoParameters",
		err:  errors.New("levmar: no parameters to optimize"),
	},
	{
		name: "NoResiduals",
		err:  errors.New("levmar: fewer residuals than parameters"),
	},
}

func (r Reason) String() string { return reasons[r].name }

// Termination is the structured outcome of a minimization run.
//
// Stage names the data on which a ReasonNumerical or ReasonUser failure
// was detected, or the tolerance a ReasonNoImprovement refers to. For
// ReasonConverged the Ftol and Xtol fields record which of the two
// criteria fired; both may be set at once.
type Termination struct {
	Reason     Reason
	Stage      string
	Ftol, Xtol bool
}

// Successful reports whether the run ended at a minimum rather than on
// a failure or budget condition.
func (t Termination) Successful() bool { return reasons[t.Reason].good }

// Err returns the error associated with an unsuccessful termination,
// or nil when Successful would report true.
func (t Termination) Err() error { return reasons[t.Reason].err }

func (t Termination) String() string {
	if t.Stage != "" {
		return fmt.Sprintf("%s(%s)", t.Reason, t.Stage)
	}
	if t.Reason == ReasonConverged {
		return fmt.Sprintf("Converged(ftol=%t,xtol=%t)", t.Ftol, t.Xtol)
	}
	return t.Reason.String()
}
