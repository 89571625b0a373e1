package crosscheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// DefaultReferenceTimeout bounds one reference solve.
const DefaultReferenceTimeout = 2 * time.Second

// ErrReferenceBusy is reported when every reference slot is held.
var ErrReferenceBusy = errors.New("reference solver busy")

// Reference is the outcome of the gonum solver.
type Reference struct {
	// Available is false when the reference solver could not handle the
	// problem in time, e.g. a singular equality system.
	Available bool
	Status    simplex.Status
	Value     float64
	Point     []float64
	Err       error
}

func unavailable(err error) Reference {
	return Reference{Value: math.NaN(), Err: err}
}

// SolveReference solves p with gonum's simplex. Decision variables are
// already non-negative, so the rows go to gonum as A·x = b with the slack
// and surplus columns of lp.ToStandardForm; artificials are left to gonum's
// own phase one. All-zero rows and columns, which gonum rejects, are settled
// here first. SolveReference cannot be interrupted; use a Referee to bound it.
func SolveReference(p *lp.Problem) (ref Reference) {
	sf := lp.ToStandardForm(p)
	n := sf.NumDecision()
	maximize := sf.Direction == lp.Maximize

	// compact index of every non-artificial column
	index := make([]int, len(sf.Columns))
	var width int
	for j, col := range sf.Columns {
		index[j] = -1
		if col.Kind != lp.Artificial {
			index[j] = width
			width++
		}
	}

	// gonum minimizes, sf.Objective is in max form
	c := make([]float64, width)
	for j, v := range sf.Objective {
		c[j] = -v
	}

	var rows [][]float64
	var b []float64
	for _, r := range sf.Rows {
		row := make([]float64, width)
		copy(row, r.Coefficients)
		if r.Slack >= 0 {
			row[index[r.Slack]] = 1
		}
		if r.Surplus >= 0 {
			row[index[r.Surplus]] = -1
		}
		if zero(row) {
			if r.RHS != 0 {
				return Reference{Available: true, Status: simplex.StatusInfeasible, Value: math.NaN()}
			}
			continue
		}
		rows = append(rows, row)
		b = append(b, r.RHS)
	}

	unboundedValue := math.Inf(1)
	if !maximize {
		unboundedValue = math.Inf(-1)
	}

	// columns gonum sees; a column no row touches sits at zero unless it
	// improves the objective, in which case any feasible problem is
	// unbounded
	var keep []int
	improving := false
	for j := 0; j < width; j++ {
		used := false
		for _, row := range rows {
			if row[j] != 0 {
				used = true
				break
			}
		}
		switch {
		case used:
			keep = append(keep, j)
		case c[j] < 0:
			improving = true
		}
	}

	point := make([]float64, n)
	if len(rows) == 0 {
		if improving {
			return Reference{Available: true, Status: simplex.StatusUnbounded, Value: unboundedValue}
		}
		return Reference{Available: true, Status: simplex.StatusOptimal, Value: 0, Point: point}
	}

	a := mat.NewDense(len(rows), len(keep), nil)
	cKeep := make([]float64, len(keep))
	for k, j := range keep {
		cKeep[k] = c[j]
		for i, row := range rows {
			a.Set(i, k, row[j])
		}
	}

	defer func() {
		if r := recover(); r != nil {
			ref = unavailable(fmt.Errorf("reference solver panicked: %v", r))
		}
	}()

	opt, x, err := gonumlp.Simplex(cKeep, a, b, 0, nil)
	switch {
	case errors.Is(err, gonumlp.ErrInfeasible):
		return Reference{Available: true, Status: simplex.StatusInfeasible, Value: math.NaN(), Err: err}
	case errors.Is(err, gonumlp.ErrUnbounded):
		return Reference{Available: true, Status: simplex.StatusUnbounded, Value: unboundedValue, Err: err}
	case err != nil:
		return unavailable(err)
	case improving:
		return Reference{Available: true, Status: simplex.StatusUnbounded, Value: unboundedValue}
	}

	for k, j := range keep {
		if j < n {
			point[j] = x[k]
		}
	}
	if maximize {
		opt = -opt
	}
	return Reference{Available: true, Status: simplex.StatusOptimal, Value: opt, Point: point}
}

func zero(row []float64) bool {
	for _, v := range row {
		if v != 0 {
			return false
		}
	}
	return true
}

// Referee runs SolveReference under a time bound. gonum's simplex has no
// cancellation, so a solve that outlives its bound keeps its slot until it
// returns; when every slot is held the check reports ErrReferenceBusy
// instead of starting another one.
type Referee struct {
	timeout time.Duration
	slots   chan struct{}
	solve   func(*lp.Problem) Reference
}

// NewReferee creates a Referee. A non-positive timeout selects
// DefaultReferenceTimeout and slots below one select GOMAXPROCS.
func NewReferee(timeout time.Duration, slots int) *Referee {
	if timeout <= 0 {
		timeout = DefaultReferenceTimeout
	}
	if slots < 1 {
		slots = runtime.GOMAXPROCS(0)
	}
	return &Referee{
		timeout: timeout,
		slots:   make(chan struct{}, slots),
		solve:   SolveReference,
	}
}

// Solve returns the reference outcome for p, or an unavailable Reference
// when no slot is free or the solve misses the deadline of ctx or the
// referee's timeout.
func (r *Referee) Solve(ctx context.Context, p *lp.Problem) Reference {
	select {
	case r.slots <- struct{}{}:
	default:
		return unavailable(ErrReferenceBusy)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Reference, 1)
	go func() {
		defer func() { <-r.slots }()
		done <- r.solve(p)
	}()

	select {
	case ref := <-done:
		return ref
	case <-ctx.Done():
		return unavailable(fmt.Errorf("reference solve abandoned: %w", ctx.Err()))
	}
}

// CompareReference compares a simplex solution with the reference outcome.
func CompareReference(s *simplex.Solution, ref Reference) Comparison {
	if !ref.Available {
		msg := "reference solver unavailable"
		if ref.Err != nil {
			msg += ": " + ref.Err.Error()
		}
		return Comparison{Message: msg}
	}

	cmp := Comparison{
		Checked:      true,
		SimplexValue: s.OptimalValue,
		OtherValue:   ref.Value,
	}
	switch {
	case s.Status == simplex.StatusOptimal && ref.Status == simplex.StatusOptimal:
		cmp.Difference = math.Abs(s.OptimalValue - ref.Value)
		cmp.Agree = valuesAgree(s.OptimalValue, ref.Value)
		if cmp.Agree {
			cmp.Message = "simplex and reference optima agree"
		} else {
			cmp.Message = fmt.Sprintf("optimal values differ: simplex %.10g, reference %.10g", s.OptimalValue, ref.Value)
		}
	case s.Status == ref.Status:
		cmp.Agree = true
		cmp.Message = fmt.Sprintf("both solvers report %s", s.Status)
	case s.Status == simplex.StatusIterationLimit:
		cmp.Checked = false
		cmp.Message = "simplex stopped at the iteration limit; reference reports " + string(ref.Status)
	default:
		cmp.Message = fmt.Sprintf("simplex reports %s but reference reports %s", s.Status, ref.Status)
	}
	return cmp
}
