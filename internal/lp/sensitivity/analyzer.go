// Package sensitivity derives post-optimal information from the final
// simplex tableau: shadow prices, reduced costs, right-hand side and
// objective coefficient ranging, and a stability verdict for the basis.
package sensitivity

import (
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// DefaultStabilityThreshold is the smallest allowable change that still
// counts as stable.
const DefaultStabilityThreshold = 1.0

// ConstraintSensitivity describes one constraint at the optimum.
type ConstraintSensitivity struct {
	Index    int
	Name     string
	Operator lp.Operator
	RHS      float64
	// Column names the tableau column the values were read from.
	Column string

	// ShadowPrice is the magnitude of the objective change per unit of RHS.
	ShadowPrice float64
	// Dual is the signed rate of change of the optimal value with respect
	// to the constraint's RHS, in the problem's own sense.
	Dual    float64
	Binding bool
	// Slack is |lhs - rhs| at the optimal point.
	Slack float64

	// RangeLow and RangeHigh are the allowable decrease and increase of
	// the RHS that keep the basis feasible. Either may be +Inf.
	RangeLow  float64
	RangeHigh float64
	// LowerBound and UpperBound are RHS - RangeLow and RHS + RangeHigh.
	LowerBound float64
	UpperBound float64

	Redundant bool
}

// VariableSensitivity describes one decision variable at the optimum.
type VariableSensitivity struct {
	Variable    string
	Value       float64
	Coefficient float64
	Basic       bool
	ReducedCost float64

	// RangeLow and RangeHigh are the allowable decrease and increase of
	// the objective coefficient that keep the basis optimal.
	RangeLow  float64
	RangeHigh float64
	// LowerBound and UpperBound are Coefficient - RangeLow and
	// Coefficient + RangeHigh.
	LowerBound float64
	UpperBound float64
}

// Result is the outcome of Analyzer.Analyze.
type Result struct {
	Available bool
	Message   string

	ShadowPrices     []ConstraintSensitivity
	ObjectiveRanging []VariableSensitivity

	Stable             bool
	StabilityThreshold float64
	Recommendations    []string
}

// Analyzer computes sensitivity results. It holds configuration only.
type Analyzer struct {
	threshold float64
	logger    *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStabilityThreshold sets the smallest allowable change a stable basis
// may have. Negative values keep the default.
func WithStabilityThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold >= 0 && !math.IsNaN(threshold) {
			a.threshold = threshold
		}
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		threshold: DefaultStabilityThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("sensitivity")
	return a
}

// Threshold returns the stability threshold.
func (a *Analyzer) Threshold() float64 { return a.threshold }

// Analyze reads the final tableau of sol. It only produces numbers for
// optimal solutions; any other status yields an unavailable Result with a
// message. p defaults to sol.Problem when nil.
func (a *Analyzer) Analyze(p *lp.Problem, sol *simplex.Solution) *Result {
	res := &Result{StabilityThreshold: a.threshold}
	if sol == nil || sol.Final() == nil {
		res.Message = "Sensitivity analysis needs a simplex solution"
		return res
	}
	if p == nil {
		p = sol.Problem
	}
	if sol.Status != simplex.StatusOptimal {
		res.Message = "Sensitivity analysis is only available for optimal solutions; the simplex status is " + string(sol.Status)
		return res
	}

	final := sol.Final()
	x := sol.Point()
	minimize := p.Direction() == lp.Minimize
	redundant := make(map[int]bool, len(sol.Redundant))
	for _, i := range sol.Redundant {
		redundant[i] = true
	}

	res.Available = true
	res.ShadowPrices = make([]ConstraintSensitivity, p.NumConstraints())
	for i := range res.ShadowPrices {
		res.ShadowPrices[i] = constraintSensitivity(p, sol.Standard, final, x, i, redundant[i], minimize)
	}
	res.ObjectiveRanging = make([]VariableSensitivity, p.NumVariables())
	for j := range res.ObjectiveRanging {
		res.ObjectiveRanging[j] = variableSensitivity(p, final, x, j, minimize)
	}

	res.Stable = true
	for _, al := range allowances(res) {
		if al.amount < a.threshold {
			res.Stable = false
			break
		}
	}
	res.Recommendations = a.recommend(res)
	res.Message = "Sensitivity analysis of the optimal basis"

	a.logger.Debug("Analyzed optimal basis",
		zap.Int("constraints", len(res.ShadowPrices)),
		zap.Int("variables", len(res.ObjectiveRanging)),
		zap.Bool("stable", res.Stable),
		zap.Float64("threshold", a.threshold),
	)
	return res
}

func constraintSensitivity(p *lp.Problem, sf *lp.StandardForm, final *simplex.Tableau, x []float64, i int, redundant, minimize bool) ConstraintSensitivity {
	c := p.Constraint(i)
	row := sf.Rows[i]

	var lhs float64
	for j, a := range c.Coefficients {
		lhs += a * x[j]
	}

	cs := ConstraintSensitivity{
		Index:     i,
		Name:      c.Name,
		Operator:  c.Operator,
		RHS:       c.RHS,
		Slack:     cleanZero(math.Abs(lhs - c.RHS)),
		Redundant: redundant,
	}

	var column, sign int
	switch row.Operator {
	case lp.LessEqual:
		column, sign = row.Slack, 1
	case lp.GreaterEqual:
		column, sign = row.Surplus, -1
	default:
		column, sign = row.Artificial, 1
	}
	cs.Column = sf.Columns[column].Name

	if redundant {
		cs.LowerBound, cs.UpperBound = c.RHS, c.RHS
		return cs
	}

	j, _ := final.ColumnIndex(cs.Column)
	entry := final.Objective(j)
	cs.ShadowPrice = cleanZero(math.Abs(entry))
	cs.Binding = cs.ShadowPrice > lp.OptimalityTol

	dual := float64(sign) * entry
	if row.Flipped {
		dual = -dual
	}
	if minimize {
		dual = -dual
	}
	cs.Dual = cleanZero(dual)

	// d is the change of the basic values per unit increase of the
	// normalized RHS.
	d := final.ColumnVector(j)
	if sign < 0 {
		for r := range d {
			d[r] = -d[r]
		}
	}
	decrease, increase := math.Inf(1), math.Inf(1)
	for r, dr := range d {
		xr := math.Max(final.RHS(r), 0)
		switch {
		case dr < -lp.PivotTol:
			increase = math.Min(increase, -xr/dr)
		case dr > lp.PivotTol:
			decrease = math.Min(decrease, xr/dr)
		}
	}
	if row.Flipped {
		decrease, increase = increase, decrease
	}
	cs.RangeLow = cleanZero(decrease)
	cs.RangeHigh = cleanZero(increase)
	cs.LowerBound = c.RHS - cs.RangeLow
	cs.UpperBound = c.RHS + cs.RangeHigh
	return cs
}

func variableSensitivity(p *lp.Problem, final *simplex.Tableau, x []float64, j int, minimize bool) VariableSensitivity {
	coef := p.Objective()[j]
	vs := VariableSensitivity{
		Variable:    p.Variable(j),
		Value:       x[j],
		Coefficient: coef,
	}

	// Ranges are computed on the max-form coefficient and mapped back.
	decrease, increase := math.Inf(1), math.Inf(1)
	if r, ok := final.BasicRow(j); ok {
		vs.Basic = true
		for k := 0; k < final.NumColumns(); k++ {
			if k == j || !final.Enterable(k) {
				continue
			}
			if _, basic := final.BasicRow(k); basic {
				continue
			}
			zk := math.Max(final.Objective(k), 0)
			a := final.At(r, k)
			switch {
			case a > lp.PivotTol:
				decrease = math.Min(decrease, zk/a)
			case a < -lp.PivotTol:
				increase = math.Min(increase, zk/-a)
			}
		}
	} else {
		vs.ReducedCost = cleanZero(final.Objective(j))
		increase = math.Max(vs.ReducedCost, 0)
	}

	if minimize {
		decrease, increase = increase, decrease
	}
	vs.RangeLow = cleanZero(decrease)
	vs.RangeHigh = cleanZero(increase)
	vs.LowerBound = coef - vs.RangeLow
	vs.UpperBound = coef + vs.RangeHigh
	return vs
}

func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-11 {
		return 0
	}
	return v
}
