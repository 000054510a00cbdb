package descriptive

import (
	"math"
	"sort"

	"sihress/internal/dataset"
	"sihress/internal/procedures"
	"sihress/internal/readmission"
)

// BandRate is an outcome rate within one age band.
type BandRate struct {
	Label string
	N     int
	Rate  float64 // percent
}

// CategoryRate is the readmission rate within one procedure category.
type CategoryRate struct {
	Category procedures.Category
	N        int
	Rate     float64 // percent
}

// ageBands are the study's age strata: left-closed bins over
// [18,30), [30,40), ..., [80, inf), with the published labels.
var ageBands = []struct {
	lo    float64
	hi    float64
	label string
}{
	{18, 30, "18-30"},
	{30, 40, "31-40"},
	{40, 50, "41-50"},
	{50, 60, "51-60"},
	{60, 70, "61-70"},
	{70, 80, "71-80"},
	{80, math.Inf(1), "80+"},
}

// MortalityByAgeBand computes the in-hospital mortality rate per age band.
// Every band appears in the output, empty ones with a zero rate, so the
// figure axis is stable across cohorts.
func MortalityByAgeBand(admissions []dataset.Admission) []BandRate {
	rates := make([]BandRate, len(ageBands))
	deaths := make([]int, len(ageBands))

	for i, band := range ageBands {
		rates[i].Label = band.label
	}

	for _, adm := range admissions {
		for i, band := range ageBands {
			if adm.Age >= band.lo && adm.Age < band.hi {
				rates[i].N++
				if adm.Died {
					deaths[i]++
				}
				break
			}
		}
	}

	for i := range rates {
		if rates[i].N > 0 {
			rates[i].Rate = 100 * float64(deaths[i]) / float64(rates[i].N)
		}
	}
	return rates
}

// ReadmissionByCategory computes the 30-day readmission rate per procedure
// category, sorted by descending rate for the bar chart.
func ReadmissionByCategory(results []readmission.Result) []CategoryRate {
	totals := make(map[procedures.Category]int)
	readmits := make(map[procedures.Category]int)

	for _, r := range results {
		cat := procedures.Categorize(r.Admission.ProcedureName)
		totals[cat]++
		if r.Readmitted {
			readmits[cat]++
		}
	}

	rates := make([]CategoryRate, 0, len(totals))
	for cat, n := range totals {
		rates = append(rates, CategoryRate{
			Category: cat,
			N:        n,
			Rate:     100 * float64(readmits[cat]) / float64(n),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}
		return rates[i].Category < rates[j].Category
	})
	return rates
}
