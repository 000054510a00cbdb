package dataset

import (
	"log/slog"

	"sihress/internal/config"
)

// CleanStats counts the rows removed by each inclusion filter.
type CleanStats struct {
	Loaded       int
	Incomplete   int
	Underage     int
	ShortStay    int
	InvalidDates int
	Final        int
}

// Clean applies the study inclusion criteria, in order: complete record,
// minimum age, minimum length of stay, discharge on or after admission.
// Each filter's removal count is logged so the cohort flow can be reported.
func Clean(admissions []Admission, study config.StudyConfig, logger *slog.Logger) ([]Admission, CleanStats) {
	if logger == nil {
		logger = slog.Default()
	}

	stats := CleanStats{Loaded: len(admissions)}
	kept := make([]Admission, 0, len(admissions))

	for _, adm := range admissions {
		switch {
		case !adm.IsValid():
			stats.Incomplete++
		case adm.Age < study.MinAge:
			stats.Underage++
		case adm.StayDays < study.MinStayDays:
			stats.ShortStay++
		case adm.DischargeDate.Before(adm.AdmitDate):
			stats.InvalidDates++
		default:
			kept = append(kept, adm)
		}
	}
	stats.Final = len(kept)

	logger.Info("inclusion filters applied",
		"loaded", stats.Loaded,
		"incomplete", stats.Incomplete,
		"underage", stats.Underage,
		"short_stay", stats.ShortStay,
		"invalid_dates", stats.InvalidDates,
		"final", stats.Final,
	)

	// Consistency check against the published cohort size.
	if study.ExpectedRecords > 0 {
		diff := stats.Final - study.ExpectedRecords
		if diff < 0 {
			diff = -diff
		}
		if diff > study.RecordTolerance {
			logger.Warn("final cohort size differs from expected",
				"final", stats.Final,
				"expected", study.ExpectedRecords,
				"tolerance", study.RecordTolerance,
			)
		}
	}

	return kept, stats
}
