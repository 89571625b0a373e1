package simplex

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Rule selects the entering and leaving variables.
type Rule string

const (
	// Dantzig enters the most negative objective-row entry and breaks ties
	// by lowest column and row index.
	Dantzig Rule = "dantzig"
	// Bland enters the first negative objective-row entry and, among tied
	// ratios, leaves the variable with the lowest column index. It cannot
	// cycle.
	Bland Rule = "bland"
)

// ParseRule normalizes a pivot rule name.
func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case Dantzig, "":
		return Dantzig, nil
	case Bland:
		return Bland, nil
	}
	return "", fmt.Errorf("unknown pivot rule %q", s)
}

// snapTol zeroes round-off left behind by row operations.
const snapTol = 1e-11

// InitializeTableau builds the initial tableau of sf. Each constraint row
// carries an identity column for its slack or artificial variable and the
// RHS in the last column. The objective row holds the negated max-form
// objective coefficients of the decision variables and zero elsewhere, so
// the tableau is labelled PhaseTwo even when artificials make a Phase I
// tableau follow it.
func InitializeTableau(sf *lp.StandardForm) *Tableau {
	m := len(sf.Rows)
	n := len(sf.Columns)
	data := mat.NewDense(m+1, n+1, nil)
	basis := make([]int, m)

	for i, row := range sf.Rows {
		for j, a := range row.Coefficients {
			data.Set(i, j, a)
		}
		if row.Slack >= 0 {
			data.Set(i, row.Slack, 1)
		}
		if row.Surplus >= 0 {
			data.Set(i, row.Surplus, -1)
		}
		if row.Artificial >= 0 {
			data.Set(i, row.Artificial, 1)
		}
		data.Set(i, n, row.RHS)
		basis[i] = row.IdentityColumn()
	}
	for j, c := range sf.Objective {
		if c != 0 {
			data.Set(m, j, -c)
		}
	}

	columns := append([]lp.Column(nil), sf.Columns...)
	return newTableau(data, columns, basis, PhaseTwo)
}

// SelectPivotColumn applies Dantzig's rule: the enterable column with the
// most negative objective-row entry, ties resolved to the lowest index. It
// returns false when the tableau is optimal.
func SelectPivotColumn(t *Tableau) (int, bool) {
	return selectColumn(t, Dantzig)
}

func selectColumn(t *Tableau, rule Rule) (int, bool) {
	best, bestVal := -1, -lp.OptimalityTol
	for j := 0; j < t.NumColumns(); j++ {
		if !t.Enterable(j) {
			continue
		}
		v := t.Objective(j)
		if v >= bestVal {
			continue
		}
		if rule == Bland {
			return j, true
		}
		best, bestVal = j, v
	}
	return best, best >= 0
}

// SelectPivotRow applies the minimum-ratio test to column over the rows
// with a strictly positive entry, ties resolved to the lowest row index. It
// returns false when no row bounds the column, i.e. the objective is
// unbounded along it.
func SelectPivotRow(t *Tableau, column int) (int, bool) {
	return selectRow(t, column, Dantzig)
}

func selectRow(t *Tableau, column int, rule Rule) (int, bool) {
	best := -1
	var bestRatio float64
	for i := 0; i < t.NumRows(); i++ {
		a := t.At(i, column)
		if a <= lp.PivotTol {
			continue
		}
		ratio := t.RHS(i) / a
		if best < 0 {
			best, bestRatio = i, ratio
			continue
		}
		slack := lp.PivotTol * math.Max(1, math.Abs(bestRatio))
		switch {
		case ratio < bestRatio-slack:
			best, bestRatio = i, ratio
		case rule == Bland && ratio <= bestRatio+slack && t.basis[i] < t.basis[best]:
			best, bestRatio = i, ratio
		}
	}
	return best, best >= 0
}

// Pivot returns the tableau obtained by pivoting t on (row, column). The
// pivot row is divided by the pivot element and the column is eliminated
// from every other row, the objective row included. t is not modified.
func Pivot(t *Tableau, row, column int) *Tableau {
	return pivot(t, row, column, "")
}

func pivot(t *Tableau, row, column int, rule Rule) *Tableau {
	r, c := t.data.Dims()
	element := t.data.At(row, column)

	pivotRow := mat.Row(nil, row, t.data)
	floats.Scale(1/element, pivotRow)
	pivotRow[column] = 1

	data := mat.NewDense(r, c, nil)
	buf := make([]float64, c)
	for i := 0; i < r; i++ {
		if i == row {
			data.SetRow(i, snap(pivotRow))
			continue
		}
		mat.Row(buf, i, t.data)
		if f := buf[column]; f != 0 {
			floats.AddScaled(buf, -f, pivotRow)
		}
		buf[column] = 0
		data.SetRow(i, snap(buf))
	}

	basis := append([]int(nil), t.basis...)
	leaving := basis[row]
	basis[row] = column

	next := t.with(data, basis)
	next.pivot = &PivotStep{
		Row:      row,
		Column:   column,
		Entering: t.columns[column].Name,
		Leaving:  t.columns[leaving].Name,
		Element:  element,
		Ratio:    t.RHS(row) / element,
		Rule:     rule,
	}
	next.explanation = fmt.Sprintf("%s enters, %s leaves at row %d (pivot element %.6g, ratio %.6g)",
		next.pivot.Entering, next.pivot.Leaving, row+1, element, next.pivot.Ratio)
	return next
}

func snap(v []float64) []float64 {
	for i, x := range v {
		if math.Abs(x) < snapTol {
			v[i] = 0
		}
	}
	return v
}

// phaseOneTableau replaces the objective row of the initial tableau with
// the Phase I objective, maximize -(sum of artificials), priced out against
// the artificial basis.
func phaseOneTableau(initial *Tableau) *Tableau {
	r, c := initial.data.Dims()
	data := mat.DenseCopyOf(initial.data)
	m := r - 1

	obj := make([]float64, c)
	var names []string
	for j, col := range initial.columns {
		if col.Kind == lp.Artificial {
			obj[j] = 1
			names = append(names, col.Name)
		}
	}
	buf := make([]float64, c)
	for i, b := range initial.basis {
		if initial.columns[b].Kind == lp.Artificial {
			floats.AddScaled(obj, -1, mat.Row(buf, i, data))
		}
	}
	data.SetRow(m, snap(obj))

	t := initial.with(data, append([]int(nil), initial.basis...))
	t.phase = PhaseOne
	t.explanation = fmt.Sprintf("Phase I: maximize -(%s) to reach a feasible basis", strings.Join(names, " + "))
	return t
}

// phaseTwoTableau removes the rows listed in redundant and the artificial
// columns that belong to inequality rows, then restores the max-form
// objective of sf and prices it out against the current basis. Artificial
// columns of equality rows stay as locked columns.
func phaseTwoTableau(t *Tableau, sf *lp.StandardForm, redundant map[int]bool) *Tableau {
	var keepCols []int
	var dropped []string
	for j, col := range t.columns {
		if col.Kind == lp.Artificial && sf.Rows[col.Constraint].Operator != lp.Equal {
			dropped = append(dropped, col.Name)
			continue
		}
		keepCols = append(keepCols, j)
	}
	var keepRows []int
	for i := 0; i < t.NumRows(); i++ {
		if !redundant[i] {
			keepRows = append(keepRows, i)
		}
	}

	newIndex := make(map[int]int, len(keepCols))
	columns := make([]lp.Column, len(keepCols))
	for k, j := range keepCols {
		newIndex[j] = k
		columns[k] = t.columns[j]
	}

	m, n := len(keepRows), len(keepCols)
	data := mat.NewDense(m+1, n+1, nil)
	basis := make([]int, m)
	for k, i := range keepRows {
		for l, j := range keepCols {
			data.Set(k, l, t.data.At(i, j))
		}
		data.Set(k, n, t.RHS(i))
		basis[k] = newIndex[t.basis[i]]
	}

	obj := make([]float64, n+1)
	for l, j := range keepCols {
		if columns[l].Kind == lp.Decision {
			obj[l] = -sf.Objective[j]
		}
	}
	buf := make([]float64, n+1)
	for k, b := range basis {
		if f := obj[b]; f != 0 {
			floats.AddScaled(obj, -f, mat.Row(buf, k, data))
			obj[b] = 0
		}
	}
	data.SetRow(m, snap(obj))

	next := newTableau(data, columns, basis, PhaseTwo)
	text := "Phase II: feasible basis found, objective restored"
	if len(dropped) > 0 {
		text += fmt.Sprintf("; dropped %s", strings.Join(dropped, ", "))
	}
	if len(redundant) > 0 {
		text += fmt.Sprintf("; removed %d redundant row(s)", len(redundant))
	}
	return next.explain(text)
}
