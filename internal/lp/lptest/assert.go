// Package lptest provides assertions and fixed problems shared by the engine
// tests.
package lptest

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/lplab/internal/lp"
)

// AssertFloat64SlicesEqual checks if two float64 slices are approximately equal
func AssertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// AssertMatDimsEqual checks if two matrices have the same dimensions
func AssertMatDimsEqual(t *testing.T, got, want mat.Matrix) {
	t.Helper()

	rg, cg := got.Dims()
	rw, cw := want.Dims()

	if rg != rw || cg != cw {
		t.Fatalf("matrix dimensions mismatch: got %dx%d, want %dx%d", rg, cg, rw, cw)
	}
}

// AssertMatEqual checks if two matrices are approximately equal
func AssertMatEqual(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()

	AssertMatDimsEqual(t, got, want)

	r, c := got.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := got.At(i, j)
			w := want.At(i, j)
			if math.Abs(g-w) > tol {
				t.Fatalf("at (%d,%d): got %v, want %v (tolerance %v)", i, j, g, w, tol)
			}
		}
	}
}

// AssertUnitColumn checks that column col of m is 1 at row and 0 elsewhere.
func AssertUnitColumn(t *testing.T, m mat.Matrix, row, col int, tol float64) {
	t.Helper()

	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		want := 0.0
		if i == row {
			want = 1
		}
		if got := m.At(i, col); math.Abs(got-want) > tol {
			t.Fatalf("column %d not a unit vector at row %d: got %v, want %v", col, i, got, want)
		}
	}
}

// ScenarioA is max 3x1 + 2x2 s.t. x1 + x2 <= 4, 2x1 + x2 <= 6.
func ScenarioA() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "maximize",
		Variables: []string{"x1", "x2"},
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{3, 2}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 1}, Operator: "<=", RHS: 4},
			{Coefficients: []float64{2, 1}, Operator: "<=", RHS: 6},
		},
	})
}

// ScenarioB is min 2x1 + 3x2 s.t. x1 + 2x2 >= 6, 2x1 + x2 >= 8.
func ScenarioB() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "minimize",
		Variables: []string{"x1", "x2"},
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{2, 3}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 2}, Operator: ">=", RHS: 6},
			{Coefficients: []float64{2, 1}, Operator: ">=", RHS: 8},
		},
	})
}

// ScenarioC is max x1 + x2 s.t. x1 - x2 <= 1, which is unbounded.
func ScenarioC() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "maximize",
		Variables: []string{"x1", "x2"},
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, -1}, Operator: "<=", RHS: 1},
		},
	})
}

// Infeasible is max x1 + x2 s.t. x1 + x2 <= 2, x1 + x2 >= 5.
func Infeasible() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "maximize",
		Variables: []string{"x1", "x2"},
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{1, 1}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 1}, Operator: "<=", RHS: 2},
			{Coefficients: []float64{1, 1}, Operator: ">=", RHS: 5},
		},
	})
}

// WithEquality is max 2x1 + 3x2 + x3 s.t. x1 + x2 + x3 = 10, x1 - x2 >= 2,
// x2 + x3 <= 6. The optimum is 24 at (6, 4, 0) with duals 2.5, -0.5 and 0.
func WithEquality() *lp.Problem {
	return lp.MustProblem(lp.Definition{
		Direction: "maximize",
		Variables: []string{"x1", "x2", "x3"},
		Objective: lp.ObjectiveDefinition{Coefficients: []float64{2, 3, 1}},
		Constraints: []lp.ConstraintDefinition{
			{Coefficients: []float64{1, 1, 1}, Operator: "=", RHS: 10},
			{Coefficients: []float64{1, -1}, Operator: ">=", RHS: 2},
			{Coefficients: []float64{0, 1, 1}, Operator: "<=", RHS: 6},
		},
	})
}
