// Package simplex implements a dense tableau simplex method with a Phase I
// for problems whose slack basis is not feasible. Every pivot produces a new
// immutable Tableau so a solve can be replayed step by step.
package simplex

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Status is the terminal state of a solve.
type Status string

const (
	StatusOptimal        Status = "optimal"
	StatusUnbounded      Status = "unbounded"
	StatusInfeasible     Status = "infeasible"
	StatusIterationLimit Status = "iteration-limit"
)

// DefaultMaxIterations caps the number of pivots of a solve.
const DefaultMaxIterations = 100

// degenerateStreak is the number of consecutive zero-ratio pivots after
// which the Dantzig rule gives way to Bland's rule for the rest of the
// phase.
const degenerateStreak = 10

// Solution is the outcome of Engine.Solve.
type Solution struct {
	Status  Status
	Message string

	Problem  *lp.Problem
	Standard *lp.StandardForm

	// Tableaus holds every snapshot in order; index 0 is the initial
	// tableau.
	Tableaus []*Tableau

	// Variables maps decision variable names to their values in the final
	// tableau.
	Variables map[string]float64
	// Auxiliary maps slack and surplus variable names to their values.
	Auxiliary map[string]float64

	// OptimalValue is the objective value in the problem's own sense. It is
	// +Inf (maximize) or -Inf (minimize) when unbounded and NaN when no
	// feasible basis was reached.
	OptimalValue float64

	Iterations int
	// UnboundedVariable names the column along which the objective grows
	// without bound.
	UnboundedVariable string
	// Redundant lists, in ascending order, the constraints removed after
	// Phase I because they are combinations of the others.
	Redundant []int
}

// Final returns the last tableau.
func (s *Solution) Final() *Tableau {
	if len(s.Tableaus) == 0 {
		return nil
	}
	return s.Tableaus[len(s.Tableaus)-1]
}

// Point returns the decision variable values in variable order.
func (s *Solution) Point() []float64 {
	names := s.Problem.Variables()
	x := make([]float64, len(names))
	for i, name := range names {
		x[i] = s.Variables[name]
	}
	return x
}

// Engine runs the simplex method. The zero value is not usable; use
// NewEngine.
type Engine struct {
	maxIterations int
	rule          Rule
	streakLimit   int
	logger        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations sets the pivot cap. Values below 1 keep the default.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithRule sets the pivot rule.
func WithRule(rule Rule) Option {
	return func(e *Engine) {
		if rule != "" {
			e.rule = rule
		}
	}
}

// WithLogger sets the logger used for per-pivot debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine using Dantzig's rule and the default
// iteration cap.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxIterations: DefaultMaxIterations,
		rule:          Dantzig,
		streakLimit:   degenerateStreak,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("simplex")
	return e
}

// MaxIterations returns the pivot cap.
func (e *Engine) MaxIterations() int { return e.maxIterations }

// run carries the mutable bookkeeping of one solve. The tableaus it records
// are never modified.
type run struct {
	engine     *Engine
	ctx        context.Context
	problem    *lp.Problem
	sf         *lp.StandardForm
	history    []*Tableau
	iterations int
	unbounded  int
	redundant  []int
}

func (r *run) record(t *Tableau) {
	r.history = append(r.history, t)
}

// Solve runs Phase I when needed, then Phase II, until the tableau is
// optimal, the objective is unbounded, the problem proves infeasible or the
// iteration cap is reached. The only errors are a nil problem and context
// cancellation.
func (e *Engine) Solve(ctx context.Context, p *lp.Problem) (*Solution, error) {
	const op = "Engine.Solve"

	if p == nil {
		return nil, lp.NilProblem("simplex", op)
	}

	sf := lp.ToStandardForm(p)
	r := &run{engine: e, ctx: ctx, problem: p, sf: sf, unbounded: -1}

	initial := InitializeTableau(sf)
	initial.explain(fmt.Sprintf("Initial tableau: basis {%s}", strings.Join(initial.BasicVariables(), ", ")))
	r.record(initial)

	e.logger.Debug("Starting simplex",
		zap.Int("variables", p.NumVariables()),
		zap.Int("constraints", p.NumConstraints()),
		zap.Bool("phase_one", sf.HasArtificial()),
		zap.String("rule", string(e.rule)),
	)

	current := initial
	if sf.HasArtificial() {
		current = phaseOneTableau(initial)
		r.record(current)

		status, last, err := r.iterate(current)
		if err != nil {
			return nil, err
		}
		current = last
		if status == StatusIterationLimit {
			return r.finish(status, current), nil
		}

		scale := 1.0
		for _, row := range sf.Rows {
			if row.Artificial >= 0 {
				scale += math.Abs(row.RHS)
			}
		}
		if current.ObjectiveValue() < -lp.FeasibilityTol*scale {
			return r.finish(StatusInfeasible, current), nil
		}

		var redundant map[int]bool
		current, redundant = r.driveOut(current)
		current = phaseTwoTableau(current, sf, redundant)
		r.record(current)
	}

	status, last, err := r.iterate(current)
	if err != nil {
		return nil, err
	}
	return r.finish(status, last), nil
}

// iterate runs one phase: it pivots t until no column can enter, no row
// bounds the entering column, or the cap is reached. Once streakLimit
// consecutive pivots are degenerate the phase finishes under Bland's rule.
func (r *run) iterate(t *Tableau) (Status, *Tableau, error) {
	e := r.engine
	rule := e.rule
	streak := 0
	for {
		if err := r.ctx.Err(); err != nil {
			return "", nil, err
		}

		if rule == Dantzig && streak >= e.streakLimit {
			rule = Bland
			e.logger.Debug("Switching to Bland's rule",
				zap.Int("phase", int(t.phase)),
				zap.Int("degenerate_pivots", streak),
			)
		}

		col, ok := selectColumn(t, rule)
		if !ok {
			return StatusOptimal, t, nil
		}
		row, ok := selectRow(t, col, rule)
		if !ok {
			r.unbounded = col
			return StatusUnbounded, t, nil
		}
		if r.iterations >= e.maxIterations {
			return StatusIterationLimit, t, nil
		}

		next := pivot(t, row, col, rule)
		r.iterations++
		if next.pivot.Ratio <= lp.PivotTol {
			streak++
		} else {
			streak = 0
		}
		next.explanation = fmt.Sprintf("Iteration %d: %s", r.iterations, next.explanation)
		if rule != e.rule {
			next.explanation += " [Bland's rule after degenerate pivots]"
		}
		r.record(next)

		e.logger.Debug("Pivot",
			zap.Int("iteration", r.iterations),
			zap.Int("phase", int(t.phase)),
			zap.String("entering", next.pivot.Entering),
			zap.String("leaving", next.pivot.Leaving),
			zap.Float64("element", next.pivot.Element),
			zap.Float64("objective", next.ObjectiveValue()),
		)
		t = next
	}
}

// driveOut pivots artificial variables that are still basic at zero out of
// the basis. Rows where every non-artificial entry is zero are linear
// combinations of the others and are reported as redundant.
func (r *run) driveOut(t *Tableau) (*Tableau, map[int]bool) {
	redundant := make(map[int]bool)
	for i := 0; i < t.NumRows(); i++ {
		if t.columns[t.basis[i]].Kind != lp.Artificial {
			continue
		}
		col := -1
		for j := 0; j < t.NumColumns(); j++ {
			if t.columns[j].Kind != lp.Artificial && math.Abs(t.At(i, j)) > lp.FeasibilityTol {
				col = j
				break
			}
		}
		if col < 0 {
			redundant[i] = true
			r.redundant = append(r.redundant, i)
			continue
		}
		next := pivot(t, i, col, r.engine.rule)
		r.iterations++
		next.explanation = fmt.Sprintf("Phase I cleanup: %s (degenerate)", next.explanation)
		r.record(next)
		t = next
	}
	return t, redundant
}

func (r *run) finish(status Status, final *Tableau) *Solution {
	sol := &Solution{
		Status:     status,
		Problem:    r.problem,
		Standard:   r.sf,
		Tableaus:   r.history,
		Variables:  make(map[string]float64),
		Auxiliary:  make(map[string]float64),
		Iterations: r.iterations,
		Redundant:  r.redundant,
	}
	for j, col := range final.columns {
		switch col.Kind {
		case lp.Decision:
			sol.Variables[col.Name] = final.Value(j)
		case lp.Slack, lp.Surplus:
			sol.Auxiliary[col.Name] = final.Value(j)
		}
	}

	maximize := r.sf.Direction == lp.Maximize
	switch status {
	case StatusOptimal:
		sol.OptimalValue = final.ObjectiveValue()
		if !maximize {
			sol.OptimalValue = -sol.OptimalValue
		}
		sol.OptimalValue = cleanZero(sol.OptimalValue)
		sol.Message = fmt.Sprintf("Optimal solution found after %d iteration(s): objective = %.6g", r.iterations, sol.OptimalValue)
	case StatusUnbounded:
		sol.OptimalValue = math.Inf(1)
		if !maximize {
			sol.OptimalValue = math.Inf(-1)
		}
		if r.unbounded >= 0 {
			sol.UnboundedVariable = final.columns[r.unbounded].Name
		}
		sol.Message = fmt.Sprintf("The objective is unbounded: %s can increase indefinitely because no constraint row limits it", sol.UnboundedVariable)
	case StatusInfeasible:
		sol.OptimalValue = math.NaN()
		sol.Message = fmt.Sprintf("The problem is infeasible: Phase I ended with artificial variables summing to %.6g", -final.ObjectiveValue())
	case StatusIterationLimit:
		sol.OptimalValue = math.NaN()
		if final.phase == PhaseTwo {
			sol.OptimalValue = final.ObjectiveValue()
			if !maximize {
				sol.OptimalValue = -sol.OptimalValue
			}
		}
		sol.Message = fmt.Sprintf("Stopped after %d iterations without reaching optimality; the last tableau is returned", r.iterations)
	}

	r.engine.logger.Debug("Simplex finished",
		zap.String("status", string(status)),
		zap.Int("iterations", r.iterations),
		zap.Int("tableaus", len(r.history)),
	)
	return sol
}

func cleanZero(v float64) float64 {
	if math.Abs(v) < lp.PivotTol {
		return 0
	}
	return v
}
