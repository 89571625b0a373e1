package solve

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/copyleftdev/lplab/internal/lp"
	"github.com/copyleftdev/lplab/internal/lp/crosscheck"
	"github.com/copyleftdev/lplab/internal/lp/graphical"
	"github.com/copyleftdev/lplab/internal/lp/simplex"
)

// Number is a float64 whose JSON form carries infinities as "+Inf" and
// "-Inf" and NaN as null.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*n = Number(math.NaN())
		return nil
	case `"+Inf"`, `"Inf"`:
		*n = Number(math.Inf(1))
		return nil
	case `"-Inf"`:
		*n = Number(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Document is the JSON form of a Report.
type Document struct {
	ID          string              `json:"id"`
	Problem     lp.Definition       `json:"problem"`
	Simplex     SimplexDocument     `json:"simplex"`
	Sensitivity SensitivityDocument `json:"sensitivity"`
	Graphical   GraphicalDocument   `json:"graphical"`
	CrossCheck  *CrossCheckDocument `json:"crossCheck,omitempty"`
}

// SimplexDocument is the JSON form of a simplex solution.
type SimplexDocument struct {
	Status            string             `json:"status"`
	Message           string             `json:"message"`
	OptimalValue      Number             `json:"optimalValue"`
	Variables         map[string]float64 `json:"variables"`
	Auxiliary         map[string]float64 `json:"auxiliary,omitempty"`
	Iterations        int                `json:"iterations"`
	UnboundedVariable string             `json:"unboundedVariable,omitempty"`
	Redundant         []string           `json:"redundantConstraints,omitempty"`
	Tableaus          []*simplex.Tableau `json:"tableaus"`
}

// ConstraintDocument is the JSON form of one constraint's sensitivity.
type ConstraintDocument struct {
	ConstraintIndex int    `json:"constraintIndex"`
	Name            string `json:"name"`
	Operator        string `json:"operator"`
	RHS             Number `json:"rhs"`
	Value           Number `json:"value"`
	Dual            Number `json:"dual"`
	Binding         bool   `json:"binding"`
	Slack           Number `json:"slack"`
	RangeLow        Number `json:"rangeLow"`
	RangeHigh       Number `json:"rangeHigh"`
	LowerBound      Number `json:"lowerBound"`
	UpperBound      Number `json:"upperBound"`
	Redundant       bool   `json:"redundant,omitempty"`
}

// VariableDocument is the JSON form of one variable's sensitivity.
type VariableDocument struct {
	Variable    string `json:"variable"`
	Value       Number `json:"value"`
	Coefficient Number `json:"coefficient"`
	Basic       bool   `json:"basic"`
	ReducedCost Number `json:"reducedCost"`
	RangeLow    Number `json:"rangeLow"`
	RangeHigh   Number `json:"rangeHigh"`
	LowerBound  Number `json:"lowerBound"`
	UpperBound  Number `json:"upperBound"`
}

// SensitivityDocument is the JSON form of a sensitivity result.
type SensitivityDocument struct {
	Available          bool                 `json:"available"`
	Message            string               `json:"message"`
	ShadowPrices       []ConstraintDocument `json:"shadowPrices"`
	ObjectiveRanging   []VariableDocument   `json:"objectiveRanging"`
	Stable             bool                 `json:"stable"`
	StabilityThreshold Number               `json:"stabilityThreshold"`
	Recommendations    []string             `json:"recommendations"`
}

// PointDocument is the JSON form of a plane point.
type PointDocument struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphicalDocument is the JSON form of a graphical solution.
type GraphicalDocument struct {
	Applicable   bool             `json:"applicable"`
	Status       string           `json:"status"`
	Message      string           `json:"message"`
	Lines        []graphical.Line `json:"lines,omitempty"`
	CornerPoints []PointDocument  `json:"cornerPoints"`
	OptimalPoint *PointDocument   `json:"optimalPoint,omitempty"`
	OptimalValue Number           `json:"optimalValue"`
	Direction    *PointDocument   `json:"direction,omitempty"`
}

// ComparisonDocument is the JSON form of a cross-check.
type ComparisonDocument struct {
	Checked      bool   `json:"checked"`
	Agree        bool   `json:"agree"`
	Message      string `json:"message"`
	SimplexValue Number `json:"simplexValue"`
	OtherValue   Number `json:"otherValue"`
	Difference   Number `json:"difference"`
}

// CrossCheckDocument holds both comparisons.
type CrossCheckDocument struct {
	Graphical ComparisonDocument `json:"graphical"`
	Reference ComparisonDocument `json:"reference"`
}

// Document converts r to its JSON form. Equal problems give byte-identical
// documents once encoded.
func (r *Report) Document() *Document {
	doc := &Document{
		ID:          r.ID,
		Problem:     r.Problem.Definition(),
		Simplex:     simplexDocument(r.Problem, r.Simplex),
		Sensitivity: SensitivityDocument{ShadowPrices: []ConstraintDocument{}, ObjectiveRanging: []VariableDocument{}, Recommendations: []string{}},
		Graphical:   graphicalDocument(r.Graphical),
	}

	if s := r.Sensitivity; s != nil {
		doc.Sensitivity.Available = s.Available
		doc.Sensitivity.Message = s.Message
		doc.Sensitivity.Stable = s.Stable
		doc.Sensitivity.StabilityThreshold = Number(s.StabilityThreshold)
		doc.Sensitivity.Recommendations = append(doc.Sensitivity.Recommendations, s.Recommendations...)
		for _, c := range s.ShadowPrices {
			doc.Sensitivity.ShadowPrices = append(doc.Sensitivity.ShadowPrices, ConstraintDocument{
				ConstraintIndex: c.Index,
				Name:            c.Name,
				Operator:        string(c.Operator),
				RHS:             Number(c.RHS),
				Value:           Number(c.ShadowPrice),
				Dual:            Number(c.Dual),
				Binding:         c.Binding,
				Slack:           Number(c.Slack),
				RangeLow:        Number(c.RangeLow),
				RangeHigh:       Number(c.RangeHigh),
				LowerBound:      Number(c.LowerBound),
				UpperBound:      Number(c.UpperBound),
				Redundant:       c.Redundant,
			})
		}
		for _, v := range s.ObjectiveRanging {
			doc.Sensitivity.ObjectiveRanging = append(doc.Sensitivity.ObjectiveRanging, VariableDocument{
				Variable:    v.Variable,
				Value:       Number(v.Value),
				Coefficient: Number(v.Coefficient),
				Basic:       v.Basic,
				ReducedCost: Number(v.ReducedCost),
				RangeLow:    Number(v.RangeLow),
				RangeHigh:   Number(v.RangeHigh),
				LowerBound:  Number(v.LowerBound),
				UpperBound:  Number(v.UpperBound),
			})
		}
	}

	if r.GraphicalCheck != nil && r.ReferenceCheck != nil {
		doc.CrossCheck = &CrossCheckDocument{
			Graphical: comparisonDocument(*r.GraphicalCheck),
			Reference: comparisonDocument(*r.ReferenceCheck),
		}
	}
	return doc
}

func simplexDocument(p *lp.Problem, s *simplex.Solution) SimplexDocument {
	doc := SimplexDocument{
		Status:            string(s.Status),
		Message:           s.Message,
		OptimalValue:      Number(s.OptimalValue),
		Variables:         s.Variables,
		Auxiliary:         s.Auxiliary,
		Iterations:        s.Iterations,
		UnboundedVariable: s.UnboundedVariable,
		Tableaus:          s.Tableaus,
	}
	redundant := append([]int(nil), s.Redundant...)
	sort.Ints(redundant)
	for _, i := range redundant {
		doc.Redundant = append(doc.Redundant, p.Constraint(i).Name)
	}
	return doc
}

func graphicalDocument(g *graphical.Solution) GraphicalDocument {
	doc := GraphicalDocument{CornerPoints: []PointDocument{}, OptimalValue: Number(math.NaN())}
	if g == nil {
		return doc
	}
	doc.Applicable = g.Applicable
	doc.Status = string(g.Status)
	doc.Message = g.Message
	doc.Lines = g.Lines
	doc.OptimalValue = Number(g.OptimalValue)
	for _, pt := range g.CornerPoints {
		doc.CornerPoints = append(doc.CornerPoints, PointDocument{X: pt.X, Y: pt.Y})
	}
	if g.OptimalPoint != nil {
		doc.OptimalPoint = &PointDocument{X: g.OptimalPoint.X, Y: g.OptimalPoint.Y}
	}
	if g.Direction != nil {
		doc.Direction = &PointDocument{X: g.Direction.X, Y: g.Direction.Y}
	}
	return doc
}

func comparisonDocument(c crosscheck.Comparison) ComparisonDocument {
	return ComparisonDocument{
		Checked:      c.Checked,
		Agree:        c.Agree,
		Message:      c.Message,
		SimplexValue: Number(c.SimplexValue),
		OtherValue:   Number(c.OtherValue),
		Difference:   Number(c.Difference),
	}
}
