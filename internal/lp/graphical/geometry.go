package graphical

import (
	"fmt"
	"math"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Geometric tolerances.
const (
	// ParallelTol is the determinant magnitude below which two lines are
	// treated as parallel.
	ParallelTol = 1e-10
	// FeasibilityTol bounds the violation accepted when testing a point
	// against a line, relative to the size of the terms involved.
	FeasibilityTol = 1e-10
	// DuplicateTol is the per-coordinate distance under which two corner
	// points are the same.
	DuplicateTol = 1e-6
)

// Line is the half-plane (or line, for equality) a*x + b*y (operator) c.
type Line struct {
	A        float64     `json:"a"`
	B        float64     `json:"b"`
	C        float64     `json:"c"`
	Operator lp.Operator `json:"operator"`
	Label    string      `json:"label"`
}

func (l Line) String() string {
	return fmt.Sprintf("%s: %gx + %gy %s %g", l.Label, l.A, l.B, l.Operator, l.C)
}

// Eval returns a*x + b*y at p.
func (l Line) Eval(p lp.Point) float64 {
	return l.A*p.X + l.B*p.Y
}

// Satisfied reports whether p lies in the line's half-plane within tol,
// scaled by the magnitude of the terms.
func (l Line) Satisfied(p lp.Point, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(l.C), math.Abs(l.A*p.X)+math.Abs(l.B*p.Y)))
	return l.Operator.Holds(l.Eval(p), l.C, tol*scale)
}

// BuildLines returns one line per constraint of p followed by the bounds
// x >= 0 and y >= 0. p must have exactly two variables.
func BuildLines(p *lp.Problem) []Line {
	constraints := p.Constraints()
	lines := make([]Line, 0, len(constraints)+2)
	for _, c := range constraints {
		lines = append(lines, Line{
			A:        c.Coefficients[0],
			B:        c.Coefficients[1],
			C:        c.RHS,
			Operator: c.Operator,
			Label:    c.Name,
		})
	}
	lines = append(lines,
		Line{A: 1, B: 0, C: 0, Operator: lp.GreaterEqual, Label: p.Variable(0) + " >= 0"},
		Line{A: 0, B: 1, C: 0, Operator: lp.GreaterEqual, Label: p.Variable(1) + " >= 0"},
	)
	return lines
}

// Intersect solves the 2x2 system formed by the boundaries of l1 and l2 by
// Cramer's rule. It returns false when the lines are parallel.
func Intersect(l1, l2 Line) (lp.Point, bool) {
	det := l1.A*l2.B - l2.A*l1.B
	if math.Abs(det) < ParallelTol {
		return lp.Point{}, false
	}
	x := (l1.C*l2.B - l2.C*l1.B) / det
	y := (l1.A*l2.C - l2.A*l1.C) / det
	return lp.Point{X: cleanZero(x), Y: cleanZero(y)}, true
}

// Feasible reports whether p satisfies every line.
func Feasible(lines []Line, p lp.Point) bool {
	for _, l := range lines {
		if !l.Satisfied(p, FeasibilityTol) {
			return false
		}
	}
	return true
}

// Dedupe drops points that lie within DuplicateTol of an earlier point on
// both coordinates, preserving first-found order.
func Dedupe(points []lp.Point) []lp.Point {
	out := make([]lp.Point, 0, len(points))
	for _, p := range points {
		dup := false
		for _, q := range out {
			if math.Abs(p.X-q.X) < DuplicateTol && math.Abs(p.Y-q.Y) < DuplicateTol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// Corners enumerates the feasible pairwise intersections of lines in
// first-found order (line i against every later line j), deduplicated.
func Corners(lines []Line) []lp.Point {
	var candidates []lp.Point
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			p, ok := Intersect(lines[i], lines[j])
			if !ok || !Feasible(lines, p) {
				continue
			}
			candidates = append(candidates, p)
		}
	}
	return Dedupe(candidates)
}

// recessionDirections returns the unit directions along every line
// boundary, both ways. The extreme rays of the region's recession cone are
// among them.
func recessionDirections(lines []Line) []lp.Point {
	var dirs []lp.Point
	for _, l := range lines {
		norm := math.Hypot(l.A, l.B)
		if norm < ParallelTol {
			continue
		}
		d := lp.Point{X: l.B / norm, Y: -l.A / norm}
		dirs = append(dirs, d, lp.Point{X: -d.X, Y: -d.Y})
	}
	return dirs
}

// inRecessionCone reports whether moving along d from any feasible point
// stays feasible.
func inRecessionCone(lines []Line, d lp.Point) bool {
	for _, l := range lines {
		if !l.Operator.Holds(l.Eval(d), 0, FeasibilityTol) {
			return false
		}
	}
	return true
}

func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}
