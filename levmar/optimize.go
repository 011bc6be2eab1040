// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated (level < 0).
	LogNoop LogLevel = -1
	// LogLast print only one line when the run terminates.
	LogLast LogLevel = 0
	// LogEval print also f and the gradient cosine at every outer iteration.
	LogEval LogLevel = 1
)

// Logger handles logging output for the optimizer.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Msg != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Settings specifies the stopping criteria and trust-region behaviour
// of the optimizer. The zero value of each field selects its default.
type Settings struct {
	// Ftol is the relative reduction of the sum of squares below which
	// the run converges. Defaults to the machine epsilon.
	Ftol float64
	// Xtol is the relative step length below which the run converges.
	// Defaults to the machine epsilon.
	Xtol float64
	// Gtol bounds the cosine of the angle between the residual vector
	// and the column space of the Jacobian; below it the run converges
	// by orthogonality. Defaults to the machine epsilon.
	Gtol float64
	// StepBound scales the initial trust-region radius,
	// delta₀ = StepBound×‖diag⊙x₀‖, or delta₀ = StepBound itself when
	// the scaled parameter norm is exactly zero. Defaults to 100.
	StepBound float64
	// Patience caps the residual evaluations at Patience×(n+1).
	// Defaults to 100.
	Patience int
	// NoScaleDiag freezes the trust-region scaling at all ones instead
	// of tracking the Jacobian column norms.
	NoScaleDiag bool
	// Logger for iteration output, nil disables.
	Logger *Logger
}

// Optimizer minimizes a sum of squared residuals with the
// Levenberg-Marquardt algorithm. One Optimizer may serve many
// sequential or concurrent Minimize calls; each run owns its state.
type Optimizer struct {
	ftol, xtol, gtol float64
	stepBound        float64
	patience         int
	noScaleDiag      bool
	logger           Logger
}

// New validates the settings and creates an optimizer.
func New(s Settings) (o *Optimizer, err error) {
	if s.Ftol == 0 {
		s.Ftol = eps
	}
	if s.Xtol == 0 {
		s.Xtol = eps
	}
	if s.Gtol == 0 {
		s.Gtol = eps
	}
	if s.StepBound == 0 {
		s.StepBound = 100
	}
	if s.Patience == 0 {
		s.Patience = 100
	}

	switch {
	case math.IsNaN(s.Ftol) || s.Ftol < 0:
		err = errors.New("ftol must not be negative")
	case math.IsNaN(s.Xtol) || s.Xtol < 0:
		err = errors.New("xtol must not be negative")
	case math.IsNaN(s.Gtol) || s.Gtol < 0:
		err = errors.New("gtol must not be negative")
	case math.IsNaN(s.StepBound) || s.StepBound < 0:
		err = errors.New("step bound must greater than 0")
	case s.Patience < 0:
		err = errors.New("patience must greater than 0")
	}
	if err != nil {
		return
	}

	o = &Optimizer{
		ftol:        s.Ftol,
		xtol:        s.Xtol,
		gtol:        s.Gtol,
		stepBound:   s.StepBound,
		patience:    s.Patience,
		noScaleDiag: s.NoScaleDiag,
	}
	if s.Logger != nil {
		o.logger = *s.Logger
	} else {
		o.logger.Level = LogNoop
	}
	return
}

// Report summarises a finished minimization.
type Report struct {
	// Termination tells why the run stopped.
	Termination Termination
	// Evaluations counts the residual evaluations performed.
	Evaluations int
	// Iterations counts the accepted steps.
	Iterations int
	// ObjectiveFunction is the final value 0.5×‖r‖².
	ObjectiveFunction float64
}

// Minimize runs the optimization of target from the initial guess x0
// and returns the best parameters found together with the report. The
// run is strictly sequential; concurrent runs need separate x0 vectors
// and, unless the target is stateless, separate targets.
func (o *Optimizer) Minimize(target Problem, x0 *mat.VecDense) (*mat.VecDense, Report) {
	st, term := newState(o, target, x0)
	if term == nil {
		d := iterDriver{opt: o, target: target, st: st}
		t := d.mainLoop()
		term = &t
	}

	report := Report{
		Termination:       *term,
		Evaluations:       st.evals,
		Iterations:        st.iterations,
		ObjectiveFunction: p5 * st.rnorm * st.rnorm,
	}
	if o.logger.enable(LogLast) {
		o.logger.log("STOP: %s after %d evaluations, f= %12.5e\n",
			report.Termination, report.Evaluations, report.ObjectiveFunction)
	}

	x := x0
	if len(st.x) > 0 {
		x = mat.NewVecDense(len(st.x), st.x)
	}
	return x, report
}
