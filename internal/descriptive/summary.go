// Package descriptive computes the cohort description reported as Table 1.
package descriptive

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sihress/internal/dataset"
	"sihress/internal/readmission"
)

// Summary holds the cohort-level descriptive statistics.
type Summary struct {
	N int

	AgeMean   float64
	AgeSD     float64
	AgeMedian float64
	AgeQ1     float64
	AgeQ3     float64

	MalePct float64

	StayMean   float64
	StaySD     float64
	StayMedian float64
	StayQ1     float64
	StayQ3     float64

	Deaths       int
	MortalityPct float64

	Readmissions   int
	ReadmissionPct float64
}

// Summarize computes the descriptive statistics over the cleaned cohort,
// folding in the readmission summary so Table 1 carries the study outcome.
func Summarize(admissions []dataset.Admission, readm readmission.Summary) (Summary, error) {
	if len(admissions) == 0 {
		return Summary{}, fmt.Errorf("no admissions to summarize")
	}

	n := len(admissions)
	ages := make([]float64, n)
	stays := make([]float64, n)
	males := 0
	deaths := 0

	for i, adm := range admissions {
		ages[i] = adm.Age
		stays[i] = adm.StayDays
		if adm.IsMale() {
			males++
		}
		if adm.Died {
			deaths++
		}
	}

	s := Summary{
		N:              n,
		AgeMean:        stat.Mean(ages, nil),
		AgeSD:          stat.StdDev(ages, nil),
		StayMean:       stat.Mean(stays, nil),
		StaySD:         stat.StdDev(stays, nil),
		MalePct:        100 * float64(males) / float64(n),
		Deaths:         deaths,
		MortalityPct:   100 * float64(deaths) / float64(n),
		Readmissions:   readm.Readmitted,
		ReadmissionPct: readm.Rate,
	}

	s.AgeMedian, s.AgeQ1, s.AgeQ3 = medianIQR(ages)
	s.StayMedian, s.StayQ1, s.StayQ3 = medianIQR(stays)

	return s, nil
}

// medianIQR returns the median and interquartile bounds using linear
// interpolation, matching the convention of the published tables.
func medianIQR(values []float64) (median, q1, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	q1 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return median, q1, q3
}

// Rows renders the summary as metric/value pairs in Table 1 order.
func (s Summary) Rows() [][]string {
	return [][]string{
		{"Total admissions", fmt.Sprintf("%d", s.N)},
		{"Age, mean (SD)", fmt.Sprintf("%.1f (%.1f)", s.AgeMean, s.AgeSD)},
		{"Age, median (IQR)", fmt.Sprintf("%.0f (%.0f-%.0f)", s.AgeMedian, s.AgeQ1, s.AgeQ3)},
		{"Male sex, %", fmt.Sprintf("%.2f", s.MalePct)},
		{"Length of stay, mean (SD)", fmt.Sprintf("%.1f (%.1f)", s.StayMean, s.StaySD)},
		{"Length of stay, median (IQR)", fmt.Sprintf("%.0f (%.0f-%.0f)", s.StayMedian, s.StayQ1, s.StayQ3)},
		{"In-hospital mortality, %", fmt.Sprintf("%.2f", s.MortalityPct)},
		{"Deaths", fmt.Sprintf("%d", s.Deaths)},
		{"30-day readmissions", fmt.Sprintf("%d", s.Readmissions)},
		{"30-day readmission rate, %", fmt.Sprintf("%.2f", s.ReadmissionPct)},
	}
}
