package sensitivity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/lptest"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

func solve(t *testing.T, p *lp.Problem) *simplex.Solution {
	t.Helper()
	sol, err := simplex.NewEngine().Solve(context.Background(), p)
	require.NoError(t, err)
	return sol
}

func TestAnalyzeScenarioA(t *testing.T) {
	p := lptest.ScenarioA()
	res := NewAnalyzer().Analyze(p, solve(t, p))

	require.True(t, res.Available)
	require.Len(t, res.ShadowPrices, 2)

	c1 := res.ShadowPrices[0]
	assert.Equal(t, "C1", c1.Name)
	assert.Equal(t, "s1", c1.Column)
	assert.InDelta(t, 1, c1.ShadowPrice, 1e-9)
	assert.InDelta(t, 1, c1.Dual, 1e-9)
	assert.True(t, c1.Binding)
	assert.InDelta(t, 1, c1.RangeLow, 1e-9)
	assert.InDelta(t, 2, c1.RangeHigh, 1e-9)
	assert.InDelta(t, 3, c1.LowerBound, 1e-9)
	assert.InDelta(t, 6, c1.UpperBound, 1e-9)

	// the second constraint has a positive shadow price and a finite range
	c2 := res.ShadowPrices[1]
	assert.Greater(t, c2.ShadowPrice, 0.0)
	assert.InDelta(t, 1, c2.ShadowPrice, 1e-9)
	assert.True(t, c2.Binding)
	assert.InDelta(t, 2, c2.RangeLow, 1e-9)
	assert.InDelta(t, 2, c2.RangeHigh, 1e-9)
	assert.False(t, math.IsInf(c2.RangeHigh, 0))
	assert.Equal(t, 0.0, c2.Slack)

	x1, x2 := res.ObjectiveRanging[0], res.ObjectiveRanging[1]
	assert.True(t, x1.Basic)
	assert.True(t, x2.Basic)
	assert.Equal(t, 0.0, x1.ReducedCost)
	assert.Equal(t, 0.0, x2.ReducedCost)
	assert.InDelta(t, 2, x1.LowerBound, 1e-9)
	assert.InDelta(t, 4, x1.UpperBound, 1e-9)
	assert.InDelta(t, 0.5, x2.RangeLow, 1e-9)
	assert.InDelta(t, 1, x2.RangeHigh, 1e-9)
	assert.InDelta(t, 1.5, x2.LowerBound, 1e-9)
	assert.InDelta(t, 3, x2.UpperBound, 1e-9)

	assert.False(t, res.Stable)
	assert.Equal(t, DefaultStabilityThreshold, res.StabilityThreshold)
}

func TestAnalyzeScenarioB(t *testing.T) {
	p := lptest.ScenarioB()
	res := NewAnalyzer().Analyze(p, solve(t, p))
	require.True(t, res.Available)

	c1, c2 := res.ShadowPrices[0], res.ShadowPrices[1]
	assert.Equal(t, "e1", c1.Column)
	assert.InDelta(t, 4.0/3, c1.ShadowPrice, 1e-9)
	assert.InDelta(t, 4.0/3, c1.Dual, 1e-9)
	assert.InDelta(t, 1.0/3, c2.Dual, 1e-9)
	assert.InDelta(t, 4, c1.LowerBound, 1e-9)
	assert.InDelta(t, 16, c1.UpperBound, 1e-9)

	// minimization swaps the sides of the coefficient range
	x1 := res.ObjectiveRanging[0]
	assert.InDelta(t, 1.5, x1.LowerBound, 1e-9)
	assert.InDelta(t, 6, x1.UpperBound, 1e-9)
}

func TestAnalyzeEquality(t *testing.T) {
	p := lptest.WithEquality()
	res := NewAnalyzer().Analyze(p, solve(t, p))
	require.True(t, res.Available)

	duals := make([]float64, len(res.ShadowPrices))
	prices := make([]float64, len(res.ShadowPrices))
	for i, c := range res.ShadowPrices {
		duals[i] = c.Dual
		prices[i] = c.ShadowPrice
	}
	lptest.AssertFloat64SlicesEqual(t, duals, []float64{2.5, -0.5, 0}, 1e-9)
	lptest.AssertFloat64SlicesEqual(t, prices, []float64{2.5, 0.5, 0}, 1e-9)

	c3 := res.ShadowPrices[2]
	assert.False(t, c3.Binding)
	assert.InDelta(t, 2, c3.Slack, 1e-9)
	assert.InDelta(t, 2, c3.RangeLow, 1e-9)
	assert.True(t, math.IsInf(c3.RangeHigh, 1))

	x3 := res.ObjectiveRanging[2]
	assert.False(t, x3.Basic)
	assert.Greater(t, x3.ReducedCost, 0.0)
	assert.InDelta(t, x3.ReducedCost, x3.RangeHigh, 1e-12)
	assert.True(t, math.IsInf(x3.RangeLow, 1))
}

func TestAnalyzeFlippedRow(t *testing.T) {
	p := lp.MustProblem(lp.Definition{
		Direction: "min",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 3}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{-1, -1}, Operator: "<=", RHS: -2},
		},
	})
	res := NewAnalyzer().Analyze(p, solve(t, p))
	require.True(t, res.Available)

	c := res.ShadowPrices[0]
	assert.InDelta(t, 1, c.ShadowPrice, 1e-9)
	assert.InDelta(t, -1, c.Dual, 1e-9)
	assert.True(t, math.IsInf(c.RangeLow, 1))
	assert.InDelta(t, 2, c.RangeHigh, 1e-9)
	assert.True(t, math.IsInf(c.LowerBound, -1))
	assert.InDelta(t, 0, c.UpperBound, 1e-9)
}

func TestAnalyzeRedundantRow(t *testing.T) {
	p := lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 2}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 1}, Operator: "=", RHS: 4},
			{Coefficients: []float64{2, 2}, Operator: "=", RHS: 8},
		},
	})
	res := NewAnalyzer().Analyze(p, solve(t, p))
	require.True(t, res.Available)

	c2 := res.ShadowPrices[1]
	assert.True(t, c2.Redundant)
	assert.Equal(t, 0.0, c2.Dual)
	assert.Equal(t, 8.0, c2.LowerBound)
	assert.Equal(t, 8.0, c2.UpperBound)
	assert.InDelta(t, 2, res.ShadowPrices[0].Dual, 1e-9)
}

func TestAnalyzeUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		problem *lp.Problem
		status  simplex.Status
	}{
		{name: "unbounded", problem: lptest.ScenarioC(), status: simplex.StatusUnbounded},
		{name: "infeasible", problem: lptest.Infeasible(), status: simplex.StatusInfeasible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewAnalyzer().Analyze(tt.problem, solve(t, tt.problem))
			assert.False(t, res.Available)
			assert.Contains(t, res.Message, string(tt.status))
			assert.Empty(t, res.ShadowPrices)
			assert.Empty(t, res.ObjectiveRanging)
			assert.Empty(t, res.Recommendations)
		})
	}

	res := NewAnalyzer().Analyze(nil, nil)
	assert.False(t, res.Available)
}

func TestStabilityThreshold(t *testing.T) {
	p := lptest.ScenarioA()
	sol := solve(t, p)

	tests := []struct {
		threshold float64
		stable    bool
	}{
		{threshold: 1, stable: false},
		{threshold: 0.5, stable: true},
		{threshold: 0.25, stable: true},
		{threshold: 0, stable: true},
	}

	for _, tt := range tests {
		res := NewAnalyzer(WithStabilityThreshold(tt.threshold)).Analyze(p, sol)
		assert.Equal(t, tt.stable, res.Stable, "threshold %v", tt.threshold)
		assert.Equal(t, tt.threshold, res.StabilityThreshold)
	}

	assert.Equal(t, DefaultStabilityThreshold, NewAnalyzer(WithStabilityThreshold(-1)).Threshold())
}

func TestRecommendations(t *testing.T) {
	p := lptest.ScenarioA()
	sol := solve(t, p)

	res := NewAnalyzer().Analyze(p, sol)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, "C1 has the largest shadow price (1): each unit of right-hand side changes the objective by 1 while it stays within [3, 6].", res.Recommendations[0])
	assert.Equal(t, "Every decision variable is basic in the optimal solution.", res.Recommendations[1])
	assert.Equal(t, "The optimal basis is sensitive: the objective coefficient of x2 allows a decrease of only 0.5 (threshold 1).", res.Recommendations[2])

	stable := NewAnalyzer(WithStabilityThreshold(0.25)).Analyze(p, sol)
	assert.Equal(t, "The optimal basis is stable: every allowable change is at least 0.25.", stable.Recommendations[2])

	// identical input, identical text
	assert.Equal(t, res.Recommendations, NewAnalyzer().Analyze(p, sol).Recommendations)
}

func TestRecommendationsNonBasic(t *testing.T) {
	p := lptest.WithEquality()
	res := NewAnalyzer().Analyze(p, solve(t, p))

	require.Len(t, res.Recommendations, 3)
	assert.Contains(t, res.Recommendations[0], "C1 has the largest shadow price (2.5)")
	assert.Contains(t, res.Recommendations[1], "x3 is not in the solution")
}

func TestAllowancesListsEveryFiniteChange(t *testing.T) {
	res := &Result{
		ShadowPrices: []ConstraintSensitivity{
			{Name: "C1", RangeLow: 1, RangeHigh: 2},
			{Name: "C2", RangeLow: math.Inf(1), RangeHigh: 0.5},
		},
		ObjectiveRanging: []VariableSensitivity{
			{Variable: "x1", RangeLow: 3, RangeHigh: math.Inf(1)},
		},
	}

	got := allowances(res)
	assert.Equal(t, []allowance{
		{subject: "the right-hand side of C1", side: "decrease", amount: 1},
		{subject: "the right-hand side of C1", side: "increase", amount: 2},
		{subject: "the right-hand side of C2", side: "increase", amount: 0.5},
		{subject: "the objective coefficient of x1", side: "decrease", amount: 3},
	}, got)
}
