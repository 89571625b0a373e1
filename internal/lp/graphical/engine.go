// Package graphical solves two-variable problems by enumerating the corner
// points of the feasible region. It exists to corroborate the simplex engine.
package graphical

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Status is the outcome of a graphical solve.
type Status string

const (
	StatusOptimal      Status = "optimal"
	StatusUnbounded    Status = "unbounded"
	StatusInfeasible   Status = "infeasible"
	StatusInapplicable Status = "inapplicable"
)

// Solution is the outcome of Engine.Solve.
type Solution struct {
	Applicable bool
	Status     Status
	Message    string

	Lines        []Line
	CornerPoints []lp.Point

	// OptimalPoint is nil unless Status is StatusOptimal.
	OptimalPoint *lp.Point
	// OptimalValue is NaN unless Status is StatusOptimal.
	OptimalValue float64
	// Direction is an improving ray of the region when Status is
	// StatusUnbounded.
	Direction *lp.Point
}

// Engine enumerates corner points. It holds no per-solve state.
type Engine struct {
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a graphical Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("graphical")
	return e
}

// Solve evaluates the objective at every feasible corner of p. Problems
// without exactly two variables are reported as inapplicable.
func (e *Engine) Solve(p *lp.Problem) *Solution {
	if p == nil || p.NumVariables() != 2 {
		n := 0
		if p != nil {
			n = p.NumVariables()
		}
		return &Solution{
			Status:       StatusInapplicable,
			Message:      fmt.Sprintf("The graphical method needs exactly 2 decision variables; this problem has %d", n),
			OptimalValue: math.NaN(),
		}
	}

	lines := BuildLines(p)
	corners := Corners(lines)
	sol := &Solution{
		Applicable:   true,
		Lines:        lines,
		CornerPoints: corners,
		OptimalValue: math.NaN(),
	}

	e.logger.Debug("Enumerated corner points",
		zap.Int("lines", len(lines)),
		zap.Int("corners", len(corners)),
	)

	// The bounds x >= 0 and y >= 0 keep the region free of lines, so a
	// non-empty region always has a vertex.
	if len(corners) == 0 {
		sol.Status = StatusInfeasible
		sol.Message = "The feasible region is empty: no intersection of constraint boundaries satisfies every constraint"
		return sol
	}

	obj := p.Objective()
	maximize := p.Direction() == lp.Maximize
	value := func(pt lp.Point) float64 { return obj[0]*pt.X + obj[1]*pt.Y }
	better := func(a, b float64) bool {
		if maximize {
			return a > b
		}
		return a < b
	}

	for _, d := range recessionDirections(lines) {
		if !inRecessionCone(lines, d) {
			continue
		}
		gain := value(d)
		if !maximize {
			gain = -gain
		}
		if gain > FeasibilityTol {
			dir := d
			sol.Status = StatusUnbounded
			sol.Direction = &dir
			sol.Message = fmt.Sprintf("The objective is unbounded: the region extends without limit along %s and the objective improves that way", d)
			return sol
		}
	}

	best := corners[0]
	bestVal := value(best)
	for _, pt := range corners[1:] {
		if v := value(pt); better(v, bestVal) {
			best, bestVal = pt, v
		}
	}

	sol.Status = StatusOptimal
	sol.OptimalPoint = &best
	sol.OptimalValue = bestVal
	sol.Message = fmt.Sprintf("Optimal corner %s with objective %.6g among %d corner point(s)", best, bestVal, len(corners))
	return sol
}
