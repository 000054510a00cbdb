package descriptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sihress/internal/dataset"
	"sihress/internal/readmission"
)

func cohort() []dataset.Admission {
	mk := func(age, stay float64, sex int, died bool) dataset.Admission {
		return dataset.Admission{Age: age, StayDays: stay, Sex: sex, Died: died}
	}
	return []dataset.Admission{
		mk(20, 2, 1, false),
		mk(30, 4, 1, false),
		mk(40, 6, 2, false),
		mk(50, 8, 2, true),
		mk(60, 10, 1, false),
	}
}

func TestSummarize(t *testing.T) {
	readm := readmission.Summary{Total: 5, Readmitted: 1, Rate: 20}

	s, err := Summarize(cohort(), readm)
	require.NoError(t, err)

	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 40.0, s.AgeMean, 1e-9)
	assert.InDelta(t, 15.8113883, s.AgeSD, 1e-6)
	assert.InDelta(t, 40.0, s.AgeMedian, 1e-9)
	assert.InDelta(t, 30.0, s.AgeQ1, 1e-9)
	assert.InDelta(t, 50.0, s.AgeQ3, 1e-9)

	assert.InDelta(t, 60.0, s.MalePct, 1e-9)

	assert.InDelta(t, 6.0, s.StayMean, 1e-9)
	assert.InDelta(t, 6.0, s.StayMedian, 1e-9)

	assert.Equal(t, 1, s.Deaths)
	assert.InDelta(t, 20.0, s.MortalityPct, 1e-9)

	assert.Equal(t, 1, s.Readmissions)
	assert.InDelta(t, 20.0, s.ReadmissionPct, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil, readmission.Summary{})
	assert.Error(t, err)
}

func TestRows(t *testing.T) {
	s, err := Summarize(cohort(), readmission.Summary{Readmitted: 1, Rate: 20})
	require.NoError(t, err)

	rows := s.Rows()
	require.Len(t, rows, 10)

	assert.Equal(t, []string{"Total admissions", "5"}, rows[0])
	assert.Equal(t, []string{"Age, mean (SD)", "40.0 (15.8)"}, rows[1])
	assert.Equal(t, []string{"Age, median (IQR)", "40 (30-50)"}, rows[2])
	assert.Equal(t, []string{"Male sex, %", "60.00"}, rows[3])
	assert.Equal(t, []string{"30-day readmission rate, %", "20.00"}, rows[9])
}
