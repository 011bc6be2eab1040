// Copyright ©2025 minimath. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package levmar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminationSuccessful(t *testing.T) {
	good := map[Reason]bool{
		ReasonResidualsZero: true,
		ReasonOrthogonal:    true,
		ReasonConverged:     true,
	}
	for r := ReasonNone; r <= ReasonNoResiduals; r++ {
		term := Termination{Reason: r}
		assert.Equal(t, good[r], term.Successful(), "reason %s", r)
		if good[r] {
			assert.NoError(t, term.Err(), "reason %s", r)
		} else if r != ReasonNone {
			assert.Error(t, term.Err(), "reason %s", r)
		}
	}
}

func TestTerminationString(t *testing.T) {
	require.Equal(t, "ResidualsZero", Termination{Reason: ReasonResidualsZero}.String())
	require.Equal(t, "Numerical(jacobian)",
		Termination{Reason: ReasonNumerical, Stage: "jacobian"}.String())
	require.Equal(t, "User(residuals)",
		Termination{Reason: ReasonUser, Stage: "residuals"}.String())
	require.Equal(t, "Converged(ftol=true,xtol=false)",
		Termination{Reason: ReasonConverged, Ftol: true}.String())
	require.Equal(t, "NoImprovementPossible(xtol)",
		Termination{Reason: ReasonNoImprovement, Stage: "xtol"}.String())
}
