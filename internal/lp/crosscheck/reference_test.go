package crosscheck

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/lptest"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// surplusTightProblem is max -x1 - 3x2 s.t. 2x1 + x2 - x3 <= -5,
// x1 + x2 + x3 <= 50. The optimum 0 sits at x3 = 5.
func surplusTightProblem() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "max",
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{-1, -3, 0}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{2, 1, -1}, Operator: "<=", RHS: -5},
			{Coefficients: []float64{1, 1, 1}, Operator: "<=", RHS: 50},
		},
	})
}

func TestSolveReference(t *testing.T) {
	tests := []struct {
		name    string
		problem *lp.Problem
		status  simplex.Status
		value   float64
		point   []float64
	}{
		{name: "scenario A", problem: lptest.ScenarioA(), status: simplex.StatusOptimal, value: 10, point: []float64{2, 2}},
		{name: "scenario B", problem: lptest.ScenarioB(), status: simplex.StatusOptimal, value: 32.0 / 3, point: []float64{10.0 / 3, 4.0 / 3}},
		{name: "negative rhs", problem: surplusTightProblem(), status: simplex.StatusOptimal, value: 0},
		{
			name: "minimum at the origin",
			problem: lp.MustProblem(lp.Definition{
				Direction: "min",
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{2, 1, 2, 3}},
				Constraints: []lp.ConstraintDefinition{
					{Coefficients: []float64{1, 1, 1, 1}, Operator: "<=", RHS: 10},
					{Coefficients: []float64{2, 1, 0, 3}, Operator: "<=", RHS: 12},
					{Coefficients: []float64{0, 1, 4, 1}, Operator: "<=", RHS: 8},
				},
			}),
			status: simplex.StatusOptimal,
			value:  0,
			point:  []float64{0, 0, 0, 0},
		},
		{name: "unbounded", problem: lptest.ScenarioC(), status: simplex.StatusUnbounded, value: math.Inf(1)},
		{name: "infeasible", problem: lptest.Infeasible(), status: simplex.StatusInfeasible, value: math.NaN()},
		{
			name: "free variable improves objective",
			problem: lp.MustProblem(lp.Definition{
				Direction: "max",
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
				Constraints: []lp.ConstraintDefinition{
					{Coefficients: []float64{1, 0}, Operator: "<=", RHS: 3},
				},
			}),
			status: simplex.StatusUnbounded,
			value:  math.Inf(1),
		},
		{
			name: "free variable in an infeasible problem",
			problem: lp.MustProblem(lp.Definition{
				Direction: "max",
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
				Constraints: []lp.ConstraintDefinition{
					{Coefficients: []float64{1, 0}, Operator: "<=", RHS: 2},
					{Coefficients: []float64{1, 0}, Operator: ">=", RHS: 5},
				},
			}),
			status: simplex.StatusInfeasible,
			value:  math.NaN(),
		},
		{
			name: "unused variable stays at zero",
			problem: lp.MustProblem(lp.Definition{
				Direction: "min",
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 4}},
				Constraints: []lp.ConstraintDefinition{
					{Coefficients: []float64{1, 0}, Operator: ">=", RHS: 3},
				},
			}),
			status: simplex.StatusOptimal,
			value:  3,
			point:  []float64{3, 0},
		},
		{
			name: "zero equality row",
			problem: lp.MustProblem(lp.Definition{
				Direction: "max",
				Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
				Constraints: []lp.ConstraintDefinition{
					{Coefficients: []float64{0, 0}, Operator: "=", RHS: 1},
					{Coefficients: []float64{1, 1}, Operator: "<=", RHS: 4},
				},
			}),
			status: simplex.StatusInfeasible,
			value:  math.NaN(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := NewReferee(5*time.Second, 1).Solve(context.Background(), tt.problem)
			require.True(t, ref.Available, "%v", ref.Err)
			assert.Equal(t, tt.status, ref.Status)
			switch {
			case math.IsNaN(tt.value):
				assert.True(t, math.IsNaN(ref.Value))
			case math.IsInf(tt.value, 0):
				assert.Equal(t, tt.value, ref.Value)
			default:
				assert.InDelta(t, tt.value, ref.Value, 1e-6)
			}
			if tt.point != nil {
				lptest.AssertFloat64SlicesEqual(t, ref.Point, tt.point, 1e-6)
			}
		})
	}
}

func TestRefereeTimeout(t *testing.T) {
	p := lptest.ScenarioA()
	release := make(chan struct{})
	r := NewReferee(20*time.Millisecond, 1)
	r.solve = func(*lp.Problem) Reference {
		<-release
		return Reference{Available: true, Status: simplex.StatusOptimal, Value: 10}
	}

	ref := r.Solve(context.Background(), p)
	assert.False(t, ref.Available)
	assert.True(t, math.IsNaN(ref.Value))
	assert.ErrorIs(t, ref.Err, context.DeadlineExceeded)

	// the abandoned solve still holds the only slot
	ref = r.Solve(context.Background(), p)
	assert.ErrorIs(t, ref.Err, ErrReferenceBusy)

	close(release)
	require.Eventually(t, func() bool {
		return r.Solve(context.Background(), p).Available
	}, time.Second, 5*time.Millisecond)
}

func TestRefereeHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := NewReferee(time.Hour, 2)
	r.solve = func(*lp.Problem) Reference {
		<-release
		return Reference{Available: true}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := r.Solve(ctx, lptest.ScenarioA())
	assert.False(t, ref.Available)
	assert.ErrorIs(t, ref.Err, context.Canceled)
}

func TestNewRefereeDefaults(t *testing.T) {
	r := NewReferee(0, 0)
	assert.Equal(t, DefaultReferenceTimeout, r.timeout)
	assert.GreaterOrEqual(t, cap(r.slots), 1)
}

func TestCompareReference(t *testing.T) {
	p := lptest.ScenarioA()
	s, err := simplex.NewEngine().Solve(context.Background(), p)
	require.NoError(t, err)

	cmp := CompareReference(s, SolveReference(p))
	assert.True(t, cmp.Checked)
	assert.True(t, cmp.Agree, cmp.Message)

	cmp = CompareReference(s, unavailable(ErrReferenceBusy))
	assert.False(t, cmp.Checked)
	assert.Equal(t, "reference solver unavailable: reference solver busy", cmp.Message)

	cmp = CompareReference(s, Reference{Available: true, Status: simplex.StatusUnbounded, Value: math.Inf(1)})
	assert.True(t, cmp.Checked)
	assert.False(t, cmp.Agree)
	assert.Contains(t, cmp.Message, "reference reports unbounded")
}

func TestCompareReferenceStatuses(t *testing.T) {
	s, err := simplex.NewEngine().Solve(context.Background(), lptest.ScenarioC())
	require.NoError(t, err)

	cmp := CompareReference(s, Reference{Available: true, Status: simplex.StatusUnbounded, Value: math.Inf(1)})
	assert.True(t, cmp.Agree)
	assert.Equal(t, "both solvers report unbounded", cmp.Message)
}

func TestRandomProblemsMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for k := 0; k < 30; k++ {
		p := randomBoundedProblem(rng, 2+rng.Intn(4), 2+rng.Intn(4))
		t.Run(fmt.Sprintf("problem %d", k), func(t *testing.T) {
			s, err := simplex.NewEngine().Solve(context.Background(), p)
			require.NoError(t, err)
			require.Equal(t, simplex.StatusOptimal, s.Status)
			assert.True(t, p.Feasible(s.Point(), 1e-9))

			ref := NewReferee(5*time.Second, 1).Solve(context.Background(), p)
			if !ref.Available {
				t.Skipf("reference solver unavailable: %v", ref.Err)
			}
			cmp := CompareReference(s, ref)
			assert.True(t, cmp.Agree, "%s\n%s", cmp.Message, p)
		})
	}
}

// randomMixedProblem draws continuous data so that ties and degenerate
// vertices are unlikely. At most one row is an equality and right-hand
// sides may be negative.
func randomMixedProblem(rng *rand.Rand, n, m int) *lp.Problem {
	def := lp.Definition{
		Direction: []string{"max", "min"}[rng.Intn(2)],
		Objective: lp.ObjectiveDefinition{Coefficients: make([]float64, n)},
	}
	for j := range def.Objective.Coefficients {
		def.Objective.Coefficients[j] = rng.Float64()*10 - 5
	}
	equality := rng.Intn(m + 1)
	for i := 0; i < m; i++ {
		row := make([]float64, n)
		for j := range row {
			row[j] = rng.Float64()*12 - 3
		}
		op := []string{"<=", ">="}[rng.Intn(2)]
		if i == equality {
			op = "="
		}
		def.Constraints = append(def.Constraints, lp.ConstraintDefinition{
			Coefficients: row,
			Operator:     op,
			RHS:          rng.Float64()*40 - 10,
		})
	}
	return lp.MustProblem(def)
}

func TestRandomMixedProblemsMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	engine := simplex.NewEngine(simplex.WithMaxIterations(1000))
	referee := NewReferee(5*time.Second, 1)

	for k := 0; k < 60; k++ {
		p := randomMixedProblem(rng, 2+rng.Intn(3), 2+rng.Intn(3))
		t.Run(fmt.Sprintf("problem %d", k), func(t *testing.T) {
			s, err := engine.Solve(context.Background(), p)
			require.NoError(t, err)
			require.NotEqual(t, simplex.StatusIterationLimit, s.Status)

			ref := referee.Solve(context.Background(), p)
			if !ref.Available {
				t.Skipf("reference solver unavailable: %v", ref.Err)
			}
			cmp := CompareReference(s, ref)
			assert.True(t, cmp.Agree, "%s\n%s", cmp.Message, p)
		})
	}
}
