package regression

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Term is one reported row of the odds-ratio table.
type Term struct {
	Name        string
	Coefficient float64
	StdErr      float64
	OR          float64
	CILow       float64
	CIHigh      float64
	P           float64
}

// OddsRatios converts the fitted coefficients into odds ratios with Wald 95%
// confidence intervals and two-sided p-values.
func OddsRatios(fit *FitResult) []Term {
	z := distuv.UnitNormal.Quantile(0.975)

	terms := make([]Term, len(fit.Coeffs))
	for i, beta := range fit.Coeffs {
		se := fit.StdErrs[i]
		wald := beta / se
		terms[i] = Term{
			Name:        fit.Names[i],
			Coefficient: beta,
			StdErr:      se,
			OR:          math.Exp(beta),
			CILow:       math.Exp(beta - z*se),
			CIHigh:      math.Exp(beta + z*se),
			P:           2 * distuv.UnitNormal.CDF(-math.Abs(wald)),
		}
	}
	return terms
}

// ForestTerms selects and orders the terms shown in the forest plot: the
// intercept and the stay-length interactions are excluded, matching the
// published figure, and the remainder is sorted by odds ratio.
func ForestTerms(terms []Term) []Term {
	var kept []Term
	for _, t := range terms {
		if t.Name == "Intercept" {
			continue
		}
		if strings.HasPrefix(t.Name, "Log length of stay x ") {
			continue
		}
		kept = append(kept, t)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].OR < kept[j].OR })
	return kept
}

// Rows renders the odds-ratio table for CSV export.
func Rows(terms []Term) [][]string {
	rows := make([][]string, 0, len(terms)+1)
	for _, t := range terms {
		rows = append(rows, []string{
			t.Name,
			fmt.Sprintf("%.3f", t.OR),
			fmt.Sprintf("%.3f", t.CILow),
			fmt.Sprintf("%.3f", t.CIHigh),
			formatP(t.P),
		})
	}
	return rows
}

// RowHeader is the column header matching Rows.
var RowHeader = []string{"term", "odds_ratio", "ci_low", "ci_high", "p_value"}

func formatP(p float64) string {
	if p < 0.001 {
		return "<0.001"
	}
	return fmt.Sprintf("%.3f", p)
}
