package lp

import "fmt"

// VariableKind classifies a standard form column.
type VariableKind int

const (
	Decision VariableKind = iota
	Slack
	Surplus
	Artificial
)

func (k VariableKind) String() string {
	switch k {
	case Decision:
		return "decision"
	case Slack:
		return "slack"
	case Surplus:
		return "surplus"
	case Artificial:
		return "artificial"
	}
	return fmt.Sprintf("VariableKind(%d)", int(k))
}

// Column describes one standard form variable.
type Column struct {
	Name string
	Kind VariableKind
	// Constraint is the index of the owning constraint, or -1 for decision
	// variables.
	Constraint int
}

// Row is a constraint after sign normalization. Slack, Surplus and
// Artificial hold column indices, or -1 when the row has none.
type Row struct {
	Name         string
	Coefficients []float64
	Operator     Operator
	RHS          float64
	// Flipped is set when the original row was multiplied by -1 to make its
	// RHS non-negative.
	Flipped    bool
	Slack      int
	Surplus    int
	Artificial int
}

// IdentityColumn returns the column that forms the unit vector of this row
// in the initial tableau.
func (r Row) IdentityColumn() int {
	if r.Slack >= 0 {
		return r.Slack
	}
	return r.Artificial
}

// StandardForm is a problem rewritten in maximize form with auxiliary
// variables. Columns lists decision variables first, then the auxiliary
// variables in constraint order.
type StandardForm struct {
	Direction Direction
	// Objective holds the max-form coefficients of the decision variables.
	Objective []float64
	Columns   []Column
	Rows      []Row
}

// ToStandardForm converts p. Slack, surplus and artificial variables are
// named s1.., e1.. and a1.. with independent counters that advance in
// constraint order.
func ToStandardForm(p *Problem) *StandardForm {
	n := p.NumVariables()
	sf := &StandardForm{
		Direction: p.direction,
		Objective: make([]float64, n),
		Columns:   make([]Column, 0, n+2*p.NumConstraints()),
		Rows:      make([]Row, len(p.constraints)),
	}

	for j, c := range p.objective {
		if p.direction == Minimize {
			c = -c
		}
		sf.Objective[j] = c
	}

	taken := make(map[string]struct{}, n)
	for _, name := range p.variables {
		sf.Columns = append(sf.Columns, Column{Name: name, Kind: Decision, Constraint: -1})
		taken[name] = struct{}{}
	}

	var slacks, surpluses, artificials int
	add := func(prefix string, counter *int, kind VariableKind, row int) int {
		*counter++
		name := fmt.Sprintf("%s%d", prefix, *counter)
		for {
			if _, clash := taken[name]; !clash {
				break
			}
			name = "_" + name
		}
		taken[name] = struct{}{}
		sf.Columns = append(sf.Columns, Column{Name: name, Kind: kind, Constraint: row})
		return len(sf.Columns) - 1
	}

	for i, c := range p.constraints {
		row := Row{
			Name:         c.Name,
			Coefficients: append([]float64(nil), c.Coefficients...),
			Operator:     c.Operator,
			RHS:          c.RHS,
			Slack:        -1,
			Surplus:      -1,
			Artificial:   -1,
		}
		if row.RHS < 0 {
			for j := range row.Coefficients {
				row.Coefficients[j] = -row.Coefficients[j]
			}
			row.RHS = -row.RHS
			row.Operator = row.Operator.Mirror()
			row.Flipped = true
		}

		switch row.Operator {
		case LessEqual:
			row.Slack = add("s", &slacks, Slack, i)
		case GreaterEqual:
			row.Surplus = add("e", &surpluses, Surplus, i)
			row.Artificial = add("a", &artificials, Artificial, i)
		case Equal:
			row.Artificial = add("a", &artificials, Artificial, i)
		}
		sf.Rows[i] = row
	}

	return sf
}

// NumDecision returns the number of decision variables.
func (sf *StandardForm) NumDecision() int { return len(sf.Objective) }

// HasArtificial reports whether any row needs an artificial variable.
func (sf *StandardForm) HasArtificial() bool {
	for _, r := range sf.Rows {
		if r.Artificial >= 0 {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in order.
func (sf *StandardForm) ColumnNames() []string {
	names := make([]string, len(sf.Columns))
	for i, c := range sf.Columns {
		names[i] = c.Name
	}
	return names
}
