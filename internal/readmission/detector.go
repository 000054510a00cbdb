// Package readmission implements the proxy-based 30-day readmission
// detection over SIH/SUS admissions. The extract carries no patient
// identifier, so admissions are matched through a synthesized identity key
// (residence municipality, birth date, sex, postal code); within each
// identity, admissions are ordered by admit date and the gap to the previous
// discharge decides the flag.
package readmission

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"sihress/internal/dataset"
)

// Result annotates one admission with its readmission assessment. Interval
// carries the days between this admission and the previous discharge of the
// same identity; HasInterval is false for the first admission of an identity.
type Result struct {
	Admission   dataset.Admission
	Interval    int
	HasInterval bool
	Readmitted  bool
}

// Summary aggregates the detection outcome over the cohort.
type Summary struct {
	Total       int
	Readmitted  int
	Identities  int
	Overlapping int // negative intervals, admissions starting before the prior discharge
	Rate        float64
}

// Detector flags admissions that occur within the configured window after a
// previous discharge of the same proxy identity.
type Detector struct {
	windowDays int
	logger     *slog.Logger
}

// NewDetector creates a detector for the given window, in days.
func NewDetector(windowDays int, logger *slog.Logger) (*Detector, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("invalid readmission window: %d days", windowDays)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{windowDays: windowDays, logger: logger}, nil
}

// Detect computes per-admission readmission flags and the cohort summary.
// The returned results preserve the input order.
func (d *Detector) Detect(ctx context.Context, admissions []dataset.Admission) ([]Result, Summary, error) {
	if len(admissions) == 0 {
		return nil, Summary{}, fmt.Errorf("no admissions provided")
	}

	d.logger.InfoContext(ctx, "starting readmission detection",
		"admissions", len(admissions),
		"window_days", d.windowDays,
	)

	results := make([]Result, len(admissions))
	for i, adm := range admissions {
		results[i] = Result{Admission: adm}
	}

	// Group row indices by proxy identity.
	groups := make(map[string][]int)
	for i, adm := range admissions {
		key := adm.ProxyKey()
		groups[key] = append(groups[key], i)
	}

	summary := Summary{Total: len(admissions), Identities: len(groups)}

	for _, indices := range groups {
		select {
		case <-ctx.Done():
			return nil, Summary{}, fmt.Errorf("context cancelled during detection: %w", ctx.Err())
		default:
		}

		if len(indices) < 2 {
			continue // a single admission can never be a readmission
		}

		// Order the identity's admissions by admit date. The sort must be
		// stable so that same-day admissions keep their input order.
		sort.SliceStable(indices, func(a, b int) bool {
			return admissions[indices[a]].AdmitDate.Before(admissions[indices[b]].AdmitDate)
		})

		for k := 1; k < len(indices); k++ {
			idx := indices[k]
			prev := admissions[indices[k-1]]

			interval := daysBetween(prev.DischargeDate, admissions[idx].AdmitDate)
			results[idx].Interval = interval
			results[idx].HasInterval = true

			if interval < 0 {
				summary.Overlapping++
				continue
			}
			if interval <= d.windowDays {
				results[idx].Readmitted = true
				summary.Readmitted++
			}
		}
	}

	summary.Rate = 100 * float64(summary.Readmitted) / float64(summary.Total)

	d.logger.InfoContext(ctx, "readmission detection completed",
		"readmitted", summary.Readmitted,
		"rate_pct", fmt.Sprintf("%.2f", summary.Rate),
		"identities", summary.Identities,
		"overlapping", summary.Overlapping,
	)

	return results, summary, nil
}

// CheckExpectedRate compares the computed cohort rate with the published one
// and logs a warning when they diverge beyond the tolerance, both in
// percentage points. A zero expected rate disables the check.
func (d *Detector) CheckExpectedRate(summary Summary, expected, tolerance float64) {
	if expected <= 0 {
		return
	}
	diff := summary.Rate - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		d.logger.Warn("readmission rate differs from expected",
			"computed_pct", fmt.Sprintf("%.2f", summary.Rate),
			"expected_pct", fmt.Sprintf("%.2f", expected),
			"tolerance_pp", tolerance,
		)
	}
}

// daysBetween returns the whole days from a to b, negative when b precedes a.
// Dates are truncated to midnight first so partial days cannot shift the
// window boundary.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
