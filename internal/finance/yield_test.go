package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveYield_Quadratic(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("1000", "8", 2, 1))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 1, dec("950"))
	require.NoError(t, err)
	assert.Equal(t, YieldQuadratic, y.Method)
	assert.True(t, y.Converged)

	r := y.Rate.InexactFloat64()
	pv := 80/(1+r) + 1080/math.Pow(1+r, 2)
	assert.InDelta(t, 950, pv, 0.01)
	assert.InDelta(t, 0.10916, r, 1e-4)
}

func TestSolveYield_SingleFlow(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("1000", "10", 1, 1))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, YieldLinear, y.Method)
	assertDecimal(t, "0.1", y.Rate)

	terms := bullet("1000", "10", 3, 1)
	terms.TotalGracePeriods = 2
	s, err = e.BuildSchedule(terms)
	require.NoError(t, err)
	assertDecimal(t, "1331", s[3].CashFlow)

	y, err = e.SolveYield(s, 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, YieldRoot, y.Method)
	assert.InDelta(t, 0.1, y.Rate.InexactFloat64(), 1e-8)
}

func TestSolveYield_Bisection(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("1000", "8", 3, 1))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, YieldBisection, y.Method)
	assert.True(t, y.Converged)
	assert.Greater(t, y.Iterations, 0)
	assert.LessOrEqual(t, y.Iterations, bisectMaxIter)
	assert.InDelta(t, 0.08, y.Rate.InexactFloat64(), 1e-6)
	assert.Less(t, y.Residual.Abs().InexactFloat64(), 0.0001)
}

func TestSolveYield_QuarterlyBisection(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("5000", "6", 2, 4))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 4, dec("5000"))
	require.NoError(t, err)
	assert.Equal(t, YieldBisection, y.Method)
	// effective annual of 1.5% a quarter
	assert.InDelta(t, 0.06136355, y.Rate.InexactFloat64(), 1e-6)
	assert.InDelta(t, 0.015, y.PeriodicRate.InexactFloat64(), 1e-6)
}

func TestSolveYield_NonBracketingReturnsEdgeUnconverged(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("1000", "8", 3, 1))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 1, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, YieldBisection, y.Method)
	assert.False(t, y.Converged)
	assert.InDelta(t, 2.0, y.Rate.InexactFloat64(), 1e-3)
}

func TestSolveYield_Degenerate(t *testing.T) {
	e := Default()
	s, err := e.BuildSchedule(bullet("1000", "8", 3, 1))
	require.NoError(t, err)

	y, err := e.SolveYield(s, 1, dec("0"))
	require.NoError(t, err)
	assert.Equal(t, YieldDegenerate, y.Method)
	assert.True(t, y.Rate.IsZero())
	assert.False(t, y.Converged)

	y, err = e.SolveYield(s[:1], 1, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, YieldDegenerate, y.Method)

	_, err = e.SolveYield(s, 0, dec("1000"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
