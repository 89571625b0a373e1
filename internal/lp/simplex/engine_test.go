package simplex

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/lptest"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func TestEngineSolve(t *testing.T) {
	tests := []struct {
		name       string
		problem    *lp.Problem
		status     Status
		value      float64
		point      []float64
		iterations int
		tableaus   int
	}{
		{
			name:       "maximize with slack basis",
			problem:    lptest.ScenarioA(),
			status:     StatusOptimal,
			value:      10,
			point:      []float64{2, 2},
			iterations: 2,
			tableaus:   3,
		},
		{
			// (2, 2) gives 10 but violates 2x1 + x2 >= 8.
			name:       "minimize with surplus rows",
			problem:    lptest.ScenarioB(),
			status:     StatusOptimal,
			value:      32.0 / 3,
			point:      []float64{10.0 / 3, 4.0 / 3},
			iterations: 2,
			tableaus:   5,
		},
		{
			name:    "equality row",
			problem: lptest.WithEquality(),
			status:  StatusOptimal,
			value:   24,
			point:   []float64{6, 4, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(WithLogger(zaptest.NewLogger(t)))
			sol, err := engine.Solve(testContext(t), tt.problem)
			require.NoError(t, err)

			assert.Equal(t, tt.status, sol.Status)
			assert.InDelta(t, tt.value, sol.OptimalValue, 1e-9)
			lptest.AssertFloat64SlicesEqual(t, sol.Point(), tt.point, 1e-9)
			assert.True(t, tt.problem.Feasible(sol.Point(), 1e-9))
			assert.InDelta(t, tt.problem.Evaluate(sol.Point()), sol.OptimalValue, 1e-9)
			assert.True(t, sol.Final().IsOptimal(lp.OptimalityTol))
			assert.Contains(t, sol.Message, "Optimal solution found")
			if tt.iterations > 0 {
				assert.Equal(t, tt.iterations, sol.Iterations)
			}
			if tt.tableaus > 0 {
				assert.Len(t, sol.Tableaus, tt.tableaus)
			}
		})
	}
}

func TestEngineScenarioAFinalTableau(t *testing.T) {
	sol, err := NewEngine().Solve(testContext(t), lptest.ScenarioA())
	require.NoError(t, err)

	final := sol.Final()
	lptest.AssertFloat64SlicesEqual(t, final.ObjectiveRow(), []float64{0, 0, 1, 1, 10}, 1e-12)
	assert.Equal(t, []string{"x2", "x1"}, final.BasicVariables())
	assert.Equal(t, map[string]float64{"s1": 0, "s2": 0}, sol.Auxiliary)

	steps := []struct{ entering, leaving string }{
		{"x1", "s2"},
		{"x2", "s1"},
	}
	for i, want := range steps {
		step := sol.Tableaus[i+1].Pivot()
		require.NotNil(t, step)
		assert.Equal(t, want.entering, step.Entering)
		assert.Equal(t, want.leaving, step.Leaving)
	}
}

func TestEngineScenarioBPhases(t *testing.T) {
	sol, err := NewEngine().Solve(testContext(t), lptest.ScenarioB())
	require.NoError(t, err)

	assert.Equal(t, PhaseTwo, sol.Tableaus[0].Phase())
	assert.Contains(t, sol.Tableaus[0].Explanation(), "Initial tableau")
	assert.Equal(t, PhaseOne, sol.Tableaus[1].Phase())
	assert.Contains(t, sol.Tableaus[1].Explanation(), "Phase I")

	final := sol.Final()
	assert.Equal(t, PhaseTwo, final.Phase())
	assert.Equal(t, []string{"x1", "x2", "e1", "e2"}, final.ColumnNames())
	assert.Contains(t, final.Explanation(), "dropped a1, a2")
	lptest.AssertFloat64SlicesEqual(t, final.ObjectiveRow(), []float64{0, 0, 4.0 / 3, 1.0 / 3, -32.0 / 3}, 1e-9)
}

func TestEngineUnbounded(t *testing.T) {
	sol, err := NewEngine().Solve(testContext(t), lptest.ScenarioC())
	require.NoError(t, err)

	assert.Equal(t, StatusUnbounded, sol.Status)
	assert.True(t, math.IsInf(sol.OptimalValue, 1))
	assert.Equal(t, "x2", sol.UnboundedVariable)
	assert.Equal(t, 1, sol.Iterations)
	assert.Contains(t, sol.Message, "unbounded")
}

func TestEngineUnboundedMinimize(t *testing.T) {
	p := lp.MustProblem(lp.Definition{
		Direction: "min",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{-1, 0}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, -1}, Operator: ">=", RHS: 1},
		},
	})

	sol, err := NewEngine().Solve(testContext(t), p)
	require.NoError(t, err)

	assert.Equal(t, StatusUnbounded, sol.Status)
	assert.True(t, math.IsInf(sol.OptimalValue, -1))
}

func TestEngineInfeasible(t *testing.T) {
	sol, err := NewEngine().Solve(testContext(t), lptest.Infeasible())
	require.NoError(t, err)

	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.True(t, math.IsNaN(sol.OptimalValue))
	assert.Equal(t, PhaseOne, sol.Final().Phase())
	assert.Contains(t, sol.Message, "infeasible")
	assert.InDelta(t, -3, sol.Final().ObjectiveValue(), 1e-9)
}

func TestEngineIterationLimit(t *testing.T) {
	engine := NewEngine(WithMaxIterations(1))
	assert.Equal(t, 1, engine.MaxIterations())

	sol, err := engine.Solve(testContext(t), lptest.ScenarioA())
	require.NoError(t, err)

	assert.Equal(t, StatusIterationLimit, sol.Status)
	assert.Equal(t, 1, sol.Iterations)
	assert.Len(t, sol.Tableaus, 2)
	assert.InDelta(t, 9, sol.OptimalValue, 1e-12)
	assert.Contains(t, sol.Message, "Stopped after 1 iterations")
}

func TestEngineIterationLimitDuringPhaseOne(t *testing.T) {
	sol, err := NewEngine(WithMaxIterations(1)).Solve(testContext(t), lptest.ScenarioB())
	require.NoError(t, err)

	assert.Equal(t, StatusIterationLimit, sol.Status)
	assert.Equal(t, PhaseOne, sol.Final().Phase())
	assert.True(t, math.IsNaN(sol.OptimalValue))
}

func TestEngineDeterministic(t *testing.T) {
	engine := NewEngine()

	encode := func() []byte {
		sol, err := engine.Solve(testContext(t), lptest.WithEquality())
		require.NoError(t, err)
		data, err := json.Marshal(sol.Tableaus)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, string(encode()), string(encode()))
}

func TestEngineBlandRule(t *testing.T) {
	sol, err := NewEngine(WithRule(Bland)).Solve(testContext(t), lptest.ScenarioA())
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 10, sol.OptimalValue, 1e-9)
	for _, tab := range sol.Tableaus[1:] {
		require.NotNil(t, tab.Pivot())
		assert.Equal(t, Bland, tab.Pivot().Rule)
	}
}

func TestEngineDegenerateProblemTerminates(t *testing.T) {
	// Beale's example, which cycles under the textbook Dantzig rule.
	p := lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{0.75, -20, 0.5, -6}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{0.25, -8, -1, 9}, Operator: "<=", RHS: 0},
			{Coefficients: []float64{0.5, -12, -0.5, 3}, Operator: "<=", RHS: 0},
			{Coefficients: []float64{0, 0, 1, 0}, Operator: "<=", RHS: 1},
		},
	})

	sol, err := NewEngine().Solve(testContext(t), p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.25, sol.OptimalValue, 1e-9)
	assert.Less(t, sol.Iterations, DefaultMaxIterations)
}

func TestEngineRedundantEquality(t *testing.T) {
	p := lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 2}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 1}, Operator: "=", RHS: 4},
			{Coefficients: []float64{2, 2}, Operator: "=", RHS: 8},
		},
	})

	sol, err := NewEngine().Solve(testContext(t), p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 8, sol.OptimalValue, 1e-9)
	lptest.AssertFloat64SlicesEqual(t, sol.Point(), []float64{0, 4}, 1e-9)
	assert.Equal(t, 1, sol.Final().NumRows())
	assert.Equal(t, []int{1}, sol.Redundant)

	var phaseTwo *Tableau
	for _, tab := range sol.Tableaus {
		if tab.Phase() == PhaseTwo && tab.Pivot() == nil {
			phaseTwo = tab
		}
	}
	require.NotNil(t, phaseTwo)
	assert.Contains(t, phaseTwo.Explanation(), "removed 1 redundant row(s)")
}

func TestEngineNegativeRHS(t *testing.T) {
	// -x1 - x2 <= -2 is x1 + x2 >= 2 after the flip.
	p := lp.MustProblem(lp.Definition{
		Direction: "min",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 3}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{-1, -1}, Operator: "<=", RHS: -2},
		},
	})

	sol, err := NewEngine().Solve(testContext(t), p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.OptimalValue, 1e-9)
	lptest.AssertFloat64SlicesEqual(t, sol.Point(), []float64{2, 0}, 1e-9)
}

func TestEngineNoConstraints(t *testing.T) {
	p := lp.MustProblem(lp.Definition{
		Direction: "min",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
	})

	sol, err := NewEngine().Solve(testContext(t), p)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 0.0, sol.OptimalValue)
	assert.Len(t, sol.Tableaus, 1)
}

func TestEngineErrors(t *testing.T) {
	_, err := NewEngine().Solve(testContext(t), nil)
	require.Error(t, err)
	e, ok := lp.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "simplex", e.Component)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewEngine().Solve(ctx, lptest.ScenarioA())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineSnapshotsAreIndependent(t *testing.T) {
	sol, err := NewEngine().Solve(testContext(t), lptest.ScenarioA())
	require.NoError(t, err)

	initial := sol.Tableaus[0]
	assert.Equal(t, -3.0, initial.Objective(0))
	assert.Equal(t, []string{"s1", "s2"}, initial.BasicVariables())
	assert.Equal(t, 0.0, initial.ObjectiveValue())
}

const blandNote = "[Bland's rule after degenerate pivots]"

func TestEngineBlandFallbackHoldsForPhase(t *testing.T) {
	// x1 - x2 <= 0 makes the first pivot degenerate
	p := lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, -1}, Operator: "<=", RHS: 0},
			{Coefficients: []float64{1, 0}, Operator: "<=", RHS: 2},
			{Coefficients: []float64{0, 1}, Operator: "<=", RHS: 3},
		},
	})
	e := NewEngine()
	e.streakLimit = 1

	sol, err := e.Solve(testContext(t), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 5, sol.OptimalValue, 1e-9)
	require.Equal(t, 3, sol.Iterations)
	require.Len(t, sol.Tableaus, 4)

	assert.InDelta(t, 0, sol.Tableaus[1].Pivot().Ratio, 1e-12)
	assert.NotContains(t, sol.Tableaus[1].Explanation(), blandNote)
	// the second pivot is not degenerate, Bland's rule still applies
	assert.Greater(t, sol.Tableaus[2].Pivot().Ratio, 0.0)
	assert.Contains(t, sol.Tableaus[2].Explanation(), blandNote)
	assert.Contains(t, sol.Tableaus[3].Explanation(), blandNote)
}

func TestEngineBlandFallbackResetsBetweenPhases(t *testing.T) {
	// the only Phase I pivot is degenerate: x1 - x2 >= 0 has a zero RHS
	p := lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 3}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, -1}, Operator: ">=", RHS: 0},
			{Coefficients: []float64{1, 1}, Operator: "<=", RHS: 4},
		},
	})
	e := NewEngine()
	e.streakLimit = 1

	sol, err := e.Solve(testContext(t), p)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 8, sol.OptimalValue, 1e-9)
	lptest.AssertFloat64SlicesEqual(t, sol.Point(), []float64{2, 2}, 1e-9)

	var phaseTwoPivots []*Tableau
	for _, tab := range sol.Tableaus {
		if tab.Phase() == PhaseTwo && tab.Pivot() != nil {
			phaseTwoPivots = append(phaseTwoPivots, tab)
		}
	}
	require.NotEmpty(t, phaseTwoPivots)
	assert.NotContains(t, phaseTwoPivots[0].Explanation(), blandNote)
}
