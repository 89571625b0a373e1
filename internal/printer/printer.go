// Package printer renders solve reports for the terminal.
package printer

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/copyleftdev/lplab/internal/lp/crosscheck"
	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/lp/sensitivity"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
	"github.com/copyleftdev/lplab/internal/solve"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Printer writes human-readable output to w.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.w, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.w, "! %s\n", fmt.Sprintf(format, a...))
}

// Failure prints a failure message in red
func (p *Printer) Failure(format string, a ...any) {
	red.Fprintf(p.w, "✗ %s\n", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.w, "→ %s\n", fmt.Sprintf(format, a...))
}

func (p *Printer) heading(title string) {
	fmt.Fprintln(p.w)
	bold.Fprintln(p.w, title)
}

// Error prints a formatted error with title, explanation, and suggestions
// and returns a plain error for cobra.
func Error(w io.Writer, title, explanation string, suggestions []string) error {
	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(w)
		if len(suggestions) == 1 {
			fmt.Fprintf(w, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(w, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// Report prints the summary of a solve; with steps every tableau is shown.
func (p *Printer) Report(r *solve.Report, steps bool) {
	fmt.Fprintf(p.w, "Problem %s\n", r.ID)
	fmt.Fprintln(p.w, r.Problem.String())

	if steps {
		p.heading("Simplex steps")
		for i, t := range r.Simplex.Tableaus {
			p.Tableau(i, t)
		}
	}

	p.Simplex(r.Simplex)
	if r.Sensitivity != nil {
		p.Sensitivity(r.Sensitivity)
	}
	if r.Graphical != nil && r.Graphical.Applicable {
		p.Graphical(r.Graphical)
	}
	if r.GraphicalCheck != nil {
		p.comparison("graphical", *r.GraphicalCheck)
	}
	if r.ReferenceCheck != nil {
		p.comparison("reference", *r.ReferenceCheck)
	}
}

// Simplex prints the outcome of the simplex engine.
func (p *Printer) Simplex(s *simplex.Solution) {
	p.heading("Simplex")
	switch s.Status {
	case simplex.StatusOptimal:
		p.Success("optimal value %s after %d iteration(s)", Num(s.OptimalValue), s.Iterations)
	case simplex.StatusIterationLimit:
		p.Warning("%s", s.Message)
	default:
		p.Failure("%s", s.Message)
	}
	if s.Status != simplex.StatusOptimal {
		return
	}
	for _, name := range s.Problem.Variables() {
		fmt.Fprintf(p.w, "  %-8s = %s\n", name, Num(s.Variables[name]))
	}
	for _, i := range s.Redundant {
		p.Warning("%s is redundant and was removed", s.Problem.Constraint(i).Name)
	}
}

// Tableau prints one snapshot as an aligned grid.
func (p *Printer) Tableau(index int, t *simplex.Tableau) {
	title := fmt.Sprintf("Tableau %d (phase %d)", index, t.Phase())
	if step := t.Pivot(); step != nil {
		title += fmt.Sprintf(": %s enters, %s leaves", step.Entering, step.Leaving)
	}
	cyan.Fprintln(p.w, title)
	if e := t.Explanation(); e != "" {
		fmt.Fprintf(p.w, "  %s\n", e)
	}

	const width = 9
	var b strings.Builder
	fmt.Fprintf(&b, "  %-6s", "basis")
	for _, name := range t.ColumnNames() {
		fmt.Fprintf(&b, "%*s", width, name)
	}
	fmt.Fprintf(&b, "%*s\n", width, "rhs")

	basics := t.BasicVariables()
	for i := 0; i < t.NumRows(); i++ {
		fmt.Fprintf(&b, "  %-6s", basics[i])
		for j := 0; j < t.NumColumns(); j++ {
			fmt.Fprintf(&b, "%*s", width, Num(t.At(i, j)))
		}
		fmt.Fprintf(&b, "%*s\n", width, Num(t.RHS(i)))
	}
	fmt.Fprintf(&b, "  %-6s", "z")
	for _, v := range t.ObjectiveRow() {
		fmt.Fprintf(&b, "%*s", width, Num(v))
	}
	b.WriteString("\n")
	fmt.Fprint(p.w, b.String())
}

// Sensitivity prints shadow prices, ranging and recommendations.
func (p *Printer) Sensitivity(res *sensitivity.Result) {
	p.heading("Sensitivity")
	if !res.Available {
		fmt.Fprintf(p.w, "  %s\n", res.Message)
		return
	}

	fmt.Fprintln(p.w, "  Shadow prices")
	for _, c := range res.ShadowPrices {
		fmt.Fprintf(p.w, "    %-8s %s  dual %s  rhs in [%s, %s]\n",
			c.Name, Num(c.ShadowPrice), Num(c.Dual), Num(c.LowerBound), Num(c.UpperBound))
	}
	fmt.Fprintln(p.w, "  Objective ranging")
	for _, v := range res.ObjectiveRanging {
		fmt.Fprintf(p.w, "    %-8s %s  reduced cost %s  coefficient in [%s, %s]\n",
			v.Variable, Num(v.Coefficient), Num(v.ReducedCost), Num(v.LowerBound), Num(v.UpperBound))
	}

	if res.Stable {
		p.Success("basis is stable (threshold %g)", res.StabilityThreshold)
	} else {
		p.Warning("basis is sensitive (threshold %g)", res.StabilityThreshold)
	}
	for _, rec := range res.Recommendations {
		fmt.Fprintf(p.w, "  - %s\n", rec)
	}
}

// Graphical prints the corner points and verdict of the graphical engine.
func (p *Printer) Graphical(g *graphical.Solution) {
	p.heading("Graphical")
	if !g.Applicable {
		fmt.Fprintf(p.w, "  %s\n", g.Message)
		return
	}
	for _, l := range g.Lines {
		fmt.Fprintf(p.w, "  %-10s %s\n", l.Label, l)
	}
	corners := make([]string, len(g.CornerPoints))
	for i, c := range g.CornerPoints {
		corners[i] = c.String()
	}
	fmt.Fprintf(p.w, "  corners: %s\n", strings.Join(corners, " "))

	switch g.Status {
	case graphical.StatusOptimal:
		p.Success("optimum %s at %s", Num(g.OptimalValue), g.OptimalPoint)
	default:
		p.Failure("%s", g.Message)
	}
}

func (p *Printer) comparison(against string, c crosscheck.Comparison) {
	switch {
	case !c.Checked:
		fmt.Fprintf(p.w, "  %s check skipped: %s\n", against, c.Message)
	case c.Agree:
		p.Success("%s check: %s", against, c.Message)
	default:
		p.Warning("%s check: %s", against, c.Message)
	}
}

// Num formats a float compactly; integral values print without decimals.
func Num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "-"
	}
	if v == 0 {
		v = 0 // -0
	}
	return fmt.Sprintf("%.4g", v)
}
