// Package crosscheck corroborates simplex solutions against the graphical
// engine and against gonum's reference LP solver.
package crosscheck

import (
	"fmt"
	"math"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// ValueTol is the relative tolerance under which two optimal values agree.
const ValueTol = 1e-6

// Comparison is the verdict of comparing a simplex solution with another
// solver's outcome.
type Comparison struct {
	// Checked is false when the other solver had nothing to say, e.g. the
	// graphical engine on a problem with more than two variables.
	Checked bool
	Agree   bool
	Message string

	SimplexValue float64
	OtherValue   float64
	Difference   float64
}

// CompareGraphical compares a simplex solution with the graphical solution
// of the same problem. Optimal outcomes agree when the values match within
// ValueTol and the simplex point passes the graphical feasibility test;
// other outcomes agree when both engines report the same status.
func CompareGraphical(s *simplex.Solution, g *graphical.Solution) Comparison {
	if g == nil || !g.Applicable {
		return Comparison{Message: "graphical check not applicable"}
	}

	cmp := Comparison{
		Checked:      true,
		SimplexValue: s.OptimalValue,
		OtherValue:   g.OptimalValue,
	}
	switch {
	case s.Status == simplex.StatusOptimal && g.Status == graphical.StatusOptimal:
		point := s.Point()
		pt := lp.Point{X: point[0], Y: point[1]}
		cmp.Difference = math.Abs(s.OptimalValue - g.OptimalValue)
		feasible := graphical.Feasible(g.Lines, pt)
		cmp.Agree = valuesAgree(s.OptimalValue, g.OptimalValue) && feasible
		switch {
		case !feasible:
			cmp.Message = fmt.Sprintf("simplex point %s is outside the graphical region", pt)
		case !cmp.Agree:
			cmp.Message = fmt.Sprintf("optimal values differ: simplex %.10g, graphical %.10g", s.OptimalValue, g.OptimalValue)
		default:
			cmp.Message = "simplex and graphical optima agree"
		}
	case string(s.Status) == string(g.Status):
		cmp.Agree = true
		cmp.Message = fmt.Sprintf("both engines report %s", s.Status)
	case s.Status == simplex.StatusIterationLimit:
		cmp.Checked = false
		cmp.Message = "simplex stopped at the iteration limit; graphical reports " + string(g.Status)
	default:
		cmp.Message = fmt.Sprintf("simplex reports %s but graphical reports %s", s.Status, g.Status)
	}
	return cmp
}

func valuesAgree(a, b float64) bool {
	return math.Abs(a-b) <= ValueTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
