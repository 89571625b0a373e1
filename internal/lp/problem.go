package lp

import (
	"fmt"
	"math"
	"strings"
)

// Definition is the loosely-typed form of a problem as it arrives from a
// file, an HTTP body or a parser. NewProblem validates it.
type Definition struct {
	Direction   string                 `json:"direction" yaml:"direction"`
	Variables   []string               `json:"variables,omitempty" yaml:"variables,omitempty"`
	Objective   ObjectiveDefinition    `json:"objective" yaml:"objective"`
	Constraints []ConstraintDefinition `json:"constraints" yaml:"constraints"`
}

// ObjectiveDefinition holds the objective coefficients in variable order.
type ObjectiveDefinition struct {
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
}

// ConstraintDefinition is one row of a Definition.
type ConstraintDefinition struct {
	Name         string    `json:"name,omitempty" yaml:"name,omitempty"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Operator     string    `json:"operator" yaml:"operator"`
	RHS          float64   `json:"rhs" yaml:"rhs"`
}

// Constraint is a validated constraint row.
type Constraint struct {
	Name         string
	Coefficients []float64
	Operator     Operator
	RHS          float64
}

// Problem is a validated, immutable LP problem. Every coefficient vector
// has exactly NumVariables entries.
type Problem struct {
	direction   Direction
	variables   []string
	objective   []float64
	constraints []Constraint
}

// NewProblem validates def and builds a Problem. Coefficient vectors shorter
// than the variable list are padded with zeros; longer ones, duplicate or
// empty names, unknown operators and non-finite numbers are rejected with an
// error wrapping ErrInvalidProblem.
func NewProblem(def Definition) (*Problem, error) {
	const op = "NewProblem"

	direction, err := ParseDirection(def.Direction)
	if err != nil {
		return nil, structuralf(op, "%v", err)
	}

	variables := def.Variables
	if len(variables) == 0 {
		n := len(def.Objective.Coefficients)
		for _, c := range def.Constraints {
			if len(c.Coefficients) > n {
				n = len(c.Coefficients)
			}
		}
		variables = make([]string, n)
		for i := range variables {
			variables[i] = fmt.Sprintf("x%d", i+1)
		}
	}
	if len(variables) == 0 {
		return nil, structuralf(op, "problem has no variables")
	}

	seen := make(map[string]struct{}, len(variables))
	names := make([]string, len(variables))
	for i, v := range variables {
		name := strings.TrimSpace(v)
		if name == "" {
			return nil, structuralf(op, "variable %d has an empty name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, structuralf(op, "duplicate variable name %q", name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	objective, err := padCoefficients(def.Objective.Coefficients, len(names))
	if err != nil {
		return nil, structuralf(op, "objective: %v", err)
	}

	constraints := make([]Constraint, len(def.Constraints))
	for i, c := range def.Constraints {
		coeffs, err := padCoefficients(c.Coefficients, len(names))
		if err != nil {
			return nil, structuralf(op, "constraint %d: %v", i+1, err)
		}
		operator, err := ParseOperator(c.Operator)
		if err != nil {
			return nil, structuralf(op, "constraint %d: %v", i+1, err)
		}
		if !isFinite(c.RHS) {
			return nil, structuralf(op, "constraint %d: rhs is not finite", i+1)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = fmt.Sprintf("C%d", i+1)
		}
		constraints[i] = Constraint{
			Name:         name,
			Coefficients: coeffs,
			Operator:     operator,
			RHS:          c.RHS,
		}
	}

	return &Problem{
		direction:   direction,
		variables:   names,
		objective:   objective,
		constraints: constraints,
	}, nil
}

// MustProblem is like NewProblem but panics on error. Intended for tests and
// fixed examples.
func MustProblem(def Definition) *Problem {
	p, err := NewProblem(def)
	if err != nil {
		panic(err)
	}
	return p
}

func padCoefficients(coeffs []float64, n int) ([]float64, error) {
	if len(coeffs) > n {
		return nil, fmt.Errorf("%d coefficients for %d variables", len(coeffs), n)
	}
	out := make([]float64, n)
	for i, c := range coeffs {
		if !isFinite(c) {
			return nil, fmt.Errorf("coefficient %d is not finite", i+1)
		}
		out[i] = c
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Direction returns the optimization sense.
func (p *Problem) Direction() Direction { return p.direction }

// NumVariables returns the number of decision variables.
func (p *Problem) NumVariables() int { return len(p.variables) }

// NumConstraints returns the number of constraints.
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// Variables returns a copy of the decision variable names in order.
func (p *Problem) Variables() []string {
	return append([]string(nil), p.variables...)
}

// Variable returns the name of decision variable i.
func (p *Problem) Variable(i int) string { return p.variables[i] }

// Objective returns a copy of the objective coefficients.
func (p *Problem) Objective() []float64 {
	return append([]float64(nil), p.objective...)
}

// Constraints returns a deep copy of the constraints.
func (p *Problem) Constraints() []Constraint {
	out := make([]Constraint, len(p.constraints))
	for i, c := range p.constraints {
		out[i] = c
		out[i].Coefficients = append([]float64(nil), c.Coefficients...)
	}
	return out
}

// Constraint returns a copy of constraint i.
func (p *Problem) Constraint(i int) Constraint {
	c := p.constraints[i]
	c.Coefficients = append([]float64(nil), c.Coefficients...)
	return c
}

// Evaluate returns the objective value at x, in the problem's own sense.
func (p *Problem) Evaluate(x []float64) float64 {
	var sum float64
	for i, c := range p.objective {
		sum += c * x[i]
	}
	return sum
}

// Feasible reports whether x satisfies every constraint and the
// non-negativity bounds within tol.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	for _, v := range x {
		if v < -tol {
			return false
		}
	}
	for _, c := range p.constraints {
		var lhs float64
		for j, a := range c.Coefficients {
			lhs += a * x[j]
		}
		if !c.Operator.Holds(lhs, c.RHS, tol) {
			return false
		}
	}
	return true
}

// Definition returns the canonical definition of the problem: normalized
// direction and operators, explicit names and padded coefficient vectors.
func (p *Problem) Definition() Definition {
	def := Definition{
		Direction:   string(p.direction),
		Variables:   p.Variables(),
		Objective:   ObjectiveDefinition{Coefficients: p.Objective()},
		Constraints: make([]ConstraintDefinition, len(p.constraints)),
	}
	for i, c := range p.constraints {
		def.Constraints[i] = ConstraintDefinition{
			Name:         c.Name,
			Coefficients: append([]float64(nil), c.Coefficients...),
			Operator:     string(c.Operator),
			RHS:          c.RHS,
		}
	}
	return def
}

// String renders the problem in algebraic form.
func (p *Problem) String() string {
	var b strings.Builder
	b.WriteString(string(p.direction))
	b.WriteString(" ")
	b.WriteString(p.expression(p.objective))
	for _, c := range p.constraints {
		fmt.Fprintf(&b, "\n  %s: %s %s %g", c.Name, p.expression(c.Coefficients), c.Operator, c.RHS)
	}
	return b.String()
}

func (p *Problem) expression(coeffs []float64) string {
	var b strings.Builder
	for i, c := range coeffs {
		if c == 0 {
			continue
		}
		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() > 0 && c < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		if a := math.Abs(c); a != 1 {
			fmt.Fprintf(&b, "%g", a)
		}
		b.WriteString(p.variables[i])
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}
