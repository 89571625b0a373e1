package sensitivity

import (
	"fmt"
	"math"

	"github.com/copyleftdev/lplab/internal/lp"
)

// allowance is one finite allowable change.
type allowance struct {
	subject string
	side    string
	amount  float64
}

// allowances lists every finite allowable change of res in constraint
// order, then variable order, decrease before increase.
func allowances(res *Result) []allowance {
	var out []allowance
	add := func(subject string, low, high float64) {
		if !math.IsInf(low, 0) {
			out = append(out, allowance{subject: subject, side: "decrease", amount: low})
		}
		if !math.IsInf(high, 0) {
			out = append(out, allowance{subject: subject, side: "increase", amount: high})
		}
	}
	for _, c := range res.ShadowPrices {
		add("the right-hand side of "+c.Name, c.RangeLow, c.RangeHigh)
	}
	for _, v := range res.ObjectiveRanging {
		add("the objective coefficient of "+v.Variable, v.RangeLow, v.RangeHigh)
	}
	return out
}

// recommend builds the fixed-template advice for res. Ties are resolved to
// the lowest index so the text is deterministic.
func (a *Analyzer) recommend(res *Result) []string {
	var recs []string

	best := -1
	for i, c := range res.ShadowPrices {
		if c.ShadowPrice > lp.OptimalityTol && (best < 0 || c.ShadowPrice > res.ShadowPrices[best].ShadowPrice) {
			best = i
		}
	}
	if best >= 0 {
		c := res.ShadowPrices[best]
		recs = append(recs, fmt.Sprintf(
			"%s has the largest shadow price (%.4g): each unit of right-hand side changes the objective by %.4g while it stays within [%s, %s].",
			c.Name, c.ShadowPrice, c.Dual, formatBound(c.LowerBound), formatBound(c.UpperBound)))
	} else {
		recs = append(recs, "No constraint has a positive shadow price; relaxing any single constraint will not improve the objective.")
	}

	best = -1
	for j, v := range res.ObjectiveRanging {
		if v.Basic {
			continue
		}
		if best < 0 || math.Abs(v.ReducedCost) > math.Abs(res.ObjectiveRanging[best].ReducedCost) {
			best = j
		}
	}
	switch {
	case best < 0:
		recs = append(recs, "Every decision variable is basic in the optimal solution.")
	case math.Abs(res.ObjectiveRanging[best].ReducedCost) <= lp.OptimalityTol:
		recs = append(recs, fmt.Sprintf(
			"%s is non-basic with zero reduced cost; alternative optimal solutions exist.",
			res.ObjectiveRanging[best].Variable))
	default:
		v := res.ObjectiveRanging[best]
		recs = append(recs, fmt.Sprintf(
			"%s is not in the solution; its objective coefficient must improve by %.4g before it is worth using.",
			v.Variable, math.Abs(v.ReducedCost)))
	}

	if res.Stable {
		recs = append(recs, fmt.Sprintf(
			"The optimal basis is stable: every allowable change is at least %g.", a.threshold))
		return recs
	}
	var tight allowance
	first := true
	for _, al := range allowances(res) {
		if first || al.amount < tight.amount {
			tight, first = al, false
		}
	}
	recs = append(recs, fmt.Sprintf(
		"The optimal basis is sensitive: %s allows a %s of only %.4g (threshold %g).",
		tight.subject, tight.side, tight.amount, a.threshold))
	return recs
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.4g", v)
}
