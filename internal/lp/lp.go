// Package lp holds the linear programming model shared by the solver engines:
// the validated Problem, its standard form, and the error type used at the
// problem boundary.
package lp

import (
	"fmt"
	"strings"
)

// Numeric tolerances shared by the engines.
const (
	// OptimalityTol is the bound below which a negative objective-row entry
	// still counts as non-negative.
	OptimalityTol = 1e-10

	// PivotTol is the smallest magnitude accepted as a pivot element.
	PivotTol = 1e-12

	// FeasibilityTol bounds the residual Phase I objective of a feasible problem.
	FeasibilityTol = 1e-9
)

// Direction is the optimization sense of a problem.
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// ParseDirection normalizes the accepted spellings of a direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "max", "maximize", "maximise":
		return Maximize, nil
	case "min", "minimize", "minimise":
		return Minimize, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Operator is the relation of a constraint's left-hand side to its RHS.
type Operator string

const (
	LessEqual    Operator = "<="
	GreaterEqual Operator = ">="
	Equal        Operator = "="
)

// ParseOperator normalizes the accepted spellings of a constraint operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<=", "≤", "le", "=<":
		return LessEqual, nil
	case ">=", "≥", "ge", "=>":
		return GreaterEqual, nil
	case "=", "==", "eq":
		return Equal, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Mirror returns the operator obtained when both sides are multiplied by -1.
func (o Operator) Mirror() Operator {
	switch o {
	case LessEqual:
		return GreaterEqual
	case GreaterEqual:
		return LessEqual
	}
	return o
}

// Holds reports whether lhs (operator) rhs is satisfied within tol.
func (o Operator) Holds(lhs, rhs, tol float64) bool {
	switch o {
	case LessEqual:
		return lhs <= rhs+tol
	case GreaterEqual:
		return lhs >= rhs-tol
	default:
		d := lhs - rhs
		return d <= tol && d >= -tol
	}
}

// Point is a location in the two-variable plane.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
