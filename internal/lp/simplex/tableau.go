package simplex

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Phase identifies which objective a tableau carries.
type Phase int

const (
	// PhaseOne tableaus maximize the negated sum of artificial variables.
	PhaseOne Phase = 1
	// PhaseTwo tableaus carry the problem's own objective.
	PhaseTwo Phase = 2
)

// PivotStep records the pivot that produced a tableau.
type PivotStep struct {
	Row      int     `json:"row"`
	Column   int     `json:"column"`
	Entering string  `json:"entering"`
	Leaving  string  `json:"leaving"`
	Element  float64 `json:"element"`
	Ratio    float64 `json:"ratio"`
	Rule     Rule    `json:"rule"`
}

// Tableau is an immutable snapshot of the simplex tableau. The matrix has one
// row per constraint plus the objective row (last) and one column per
// variable plus the RHS (last). Every operation that changes the tableau
// returns a new snapshot.
//
// Phase II tableaus keep the artificial columns of equality rows as locked
// columns that never enter; their objective-row entries are the equality
// duals and may be negative. Optimality is therefore judged over enterable
// columns only, and a final tableau of a problem with an equality row need
// not have every objective-row entry at or above -OptimalityTol.
type Tableau struct {
	data        *mat.Dense
	columns     []lp.Column
	basis       []int
	phase       Phase
	pivot       *PivotStep
	explanation string
}

func newTableau(data *mat.Dense, columns []lp.Column, basis []int, phase Phase) *Tableau {
	return &Tableau{
		data:    data,
		columns: columns,
		basis:   basis,
		phase:   phase,
	}
}

// with returns a copy of t's metadata around a new matrix and basis.
func (t *Tableau) with(data *mat.Dense, basis []int) *Tableau {
	return &Tableau{
		data:    data,
		columns: t.columns,
		basis:   basis,
		phase:   t.phase,
	}
}

func (t *Tableau) explain(text string) *Tableau {
	t.explanation = text
	return t
}

// NumRows returns the number of constraint rows (the objective row excluded).
func (t *Tableau) NumRows() int {
	r, _ := t.data.Dims()
	return r - 1
}

// NumColumns returns the number of variable columns (the RHS excluded).
func (t *Tableau) NumColumns() int {
	_, c := t.data.Dims()
	return c - 1
}

// At returns the entry at row i, column j. Row NumRows() is the objective
// row and column NumColumns() is the RHS.
func (t *Tableau) At(i, j int) float64 {
	return t.data.At(i, j)
}

// RHS returns the right-hand side of constraint row i.
func (t *Tableau) RHS(i int) float64 {
	return t.data.At(i, t.NumColumns())
}

// Objective returns the objective-row entry of column j.
func (t *Tableau) Objective(j int) float64 {
	return t.data.At(t.NumRows(), j)
}

// ObjectiveValue returns the current value of the tableau's max-form
// objective.
func (t *Tableau) ObjectiveValue() float64 {
	return t.data.At(t.NumRows(), t.NumColumns())
}

// ObjectiveRow returns a copy of the objective row, RHS included.
func (t *Tableau) ObjectiveRow() []float64 {
	return mat.Row(nil, t.NumRows(), t.data)
}

// ColumnVector returns a copy of the constraint-row entries of column j.
func (t *Tableau) ColumnVector(j int) []float64 {
	out := make([]float64, t.NumRows())
	for i := range out {
		out[i] = t.data.At(i, j)
	}
	return out
}

// Matrix returns a copy of the full tableau matrix.
func (t *Tableau) Matrix() *mat.Dense {
	return mat.DenseCopyOf(t.data)
}

// Columns returns the column metadata.
func (t *Tableau) Columns() []lp.Column {
	return append([]lp.Column(nil), t.columns...)
}

// ColumnNames returns the variable names in column order.
func (t *Tableau) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the column of the named variable.
func (t *Tableau) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// BasicVariables returns the name of the basic variable of every row.
func (t *Tableau) BasicVariables() []string {
	names := make([]string, len(t.basis))
	for i, b := range t.basis {
		names[i] = t.columns[b].Name
	}
	return names
}

// Basis returns the basic column of every row.
func (t *Tableau) Basis() []int {
	return append([]int(nil), t.basis...)
}

// BasicRow returns the row in which column j is basic.
func (t *Tableau) BasicRow(j int) (int, bool) {
	for i, b := range t.basis {
		if b == j {
			return i, true
		}
	}
	return -1, false
}

// Phase returns the phase whose objective the tableau carries.
func (t *Tableau) Phase() Phase { return t.phase }

// Pivot returns the pivot that produced this tableau, or nil for the
// tableaus that start a phase.
func (t *Tableau) Pivot() *PivotStep {
	if t.pivot == nil {
		return nil
	}
	p := *t.pivot
	return &p
}

// Explanation returns the one-line description of the transition that
// produced this tableau.
func (t *Tableau) Explanation() string { return t.explanation }

// Enterable reports whether column j may enter the basis. Artificial
// columns kept in Phase II are locked.
func (t *Tableau) Enterable(j int) bool {
	return t.phase == PhaseOne || t.columns[j].Kind != lp.Artificial
}

// IsOptimal reports whether every enterable objective-row entry is at least
// -tol.
func (t *Tableau) IsOptimal(tol float64) bool {
	for j := 0; j < t.NumColumns(); j++ {
		if t.Enterable(j) && t.Objective(j) < -tol {
			return false
		}
	}
	return true
}

// Value returns the current value of column j: its RHS when basic, zero
// otherwise.
func (t *Tableau) Value(j int) float64 {
	if i, ok := t.BasicRow(j); ok {
		v := t.RHS(i)
		if math.Abs(v) < lp.PivotTol {
			return 0
		}
		return v
	}
	return 0
}

type tableauJSON struct {
	Phase          Phase       `json:"phase"`
	Columns        []string    `json:"columns"`
	BasicVariables []string    `json:"basicVariables"`
	Rows           [][]float64 `json:"rows"`
	Pivot          *PivotStep  `json:"pivot,omitempty"`
	Explanation    string      `json:"explanation"`
}

// MarshalJSON encodes the snapshot with its column names, basis and rows.
func (t *Tableau) MarshalJSON() ([]byte, error) {
	r, _ := t.data.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, t.data)
	}
	return json.Marshal(tableauJSON{
		Phase:          t.phase,
		Columns:        t.ColumnNames(),
		BasicVariables: t.BasicVariables(),
		Rows:           rows,
		Pivot:          t.pivot,
		Explanation:    t.explanation,
	})
}
