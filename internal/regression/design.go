// Package regression fits the multivariable logistic model of 30-day
// readmission and derives the odds-ratio table reported as Table 2.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"sihress/internal/procedures"
	"sihress/internal/readmission"
)

// logStayGuard keeps the log transform finite for zero-length stays. The
// cleaning filters make zero stays impossible, but the guard preserves the
// published model definition exactly.
const logStayGuard = 1e-9

// nonReference lists the treatment-coded category levels, Conservative being
// the reference.
var nonReference = []procedures.Category{
	procedures.MajorSurgery,
	procedures.MinorSurgery,
	procedures.OtherProcedures,
	procedures.SpecificProcedures,
}

// ageInteractions are the category levels whose interaction with
// standardized age enters the model.
var ageInteractions = []procedures.Category{
	procedures.MajorSurgery,
	procedures.MinorSurgery,
}

// Design is the model matrix with the outcome vector and term names. The
// first column is the intercept.
type Design struct {
	Names []string
	X     *mat.Dense
	Y     []float64

	// Standardization parameters recorded for reporting.
	AgeMean float64
	AgeSD   float64
}

// BuildDesign assembles the model matrix from the flagged admissions.
// Transformations follow the study definition: age is z-scored over the
// cohort, length of stay is natural-log transformed, and the procedure
// category is treatment-coded against the Conservative reference.
func BuildDesign(results []readmission.Result) (*Design, error) {
	n := len(results)
	if n == 0 {
		return nil, fmt.Errorf("no observations for design matrix")
	}

	ages := make([]float64, n)
	for i, r := range results {
		ages[i] = r.Admission.Age
	}
	ageMean := stat.Mean(ages, nil)
	ageSD := stat.PopStdDev(ages, nil)
	if ageSD == 0 {
		return nil, fmt.Errorf("age has zero variance, cannot standardize")
	}

	names := termNames()
	p := len(names)

	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)

	for i, r := range results {
		if r.Readmitted {
			y[i] = 1
		}

		ageStd := (r.Admission.Age - ageMean) / ageSD
		logStay := math.Log(r.Admission.StayDays + logStayGuard)
		category := procedures.Categorize(r.Admission.ProcedureName)

		col := 0
		set := func(v float64) {
			x.Set(i, col, v)
			col++
		}

		set(1) // intercept
		set(ageStd)
		set(logStay)

		for _, level := range nonReference {
			set(indicator(category == level))
		}
		for _, level := range ageInteractions {
			set(ageStd * indicator(category == level))
		}
		for _, level := range nonReference {
			set(logStay * indicator(category == level))
		}
	}

	return &Design{
		Names:   names,
		X:       x,
		Y:       y,
		AgeMean: ageMean,
		AgeSD:   ageSD,
	}, nil
}

// termNames returns the model terms in reporting order.
func termNames() []string {
	names := []string{"Intercept", "Age (std)", "Log length of stay"}
	for _, level := range nonReference {
		names = append(names, string(level))
	}
	for _, level := range ageInteractions {
		names = append(names, "Age (std) x "+string(level))
	}
	for _, level := range nonReference {
		names = append(names, "Log length of stay x "+string(level))
	}
	return names
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
