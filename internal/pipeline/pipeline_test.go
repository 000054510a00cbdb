package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sihress/internal/config"
)

// writeSyntheticExtract generates a cohort of 40 proxy identities with two
// admissions each. Even identities are readmitted (10-day gap), odd ones are
// not (60-day gap). Procedure categories cycle independently of the outcome
// so every category carries both outcomes and the model stays estimable.
func writeSyntheticExtract(t *testing.T, dir string) string {
	t.Helper()

	proceduresByIdentity := []string{
		"ARTROPLASTIA DE QUADRIL",
		"ARTROSCOPIA DE JOELHO",
		"DRENAGEM DE ABSCESSO",
		"ARTROTOMIA DE OMBRO",
		"TRATAMENTO CONSERVADOR",
	}

	var b strings.Builder
	b.WriteString("MUNIC_RES,NASC,SEXO,CEP,DT_INTER,DT_SAIDA,DIAS_PERM,IDADE,MORTE,PROC_REA,PROC_NOME\n")

	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		age := 20 + (i*7)%55
		stay := 2 + i%9
		sex := 1 + i%2
		died := 0
		if i%10 == 0 {
			died = 1
		}
		proc := proceduresByIdentity[i%len(proceduresByIdentity)]
		cep := fmt.Sprintf("%08d", 1000000+i)
		birth := time.Date(2019-age, 3, 10, 0, 0, 0, 0, time.UTC)

		admit1 := base.AddDate(0, 0, i)
		discharge1 := admit1.AddDate(0, 0, stay)

		gap := 60
		if i%2 == 0 {
			gap = 10
		}
		admit2 := discharge1.AddDate(0, 0, gap)
		discharge2 := admit2.AddDate(0, 0, stay)

		for _, stays := range [][2]time.Time{{admit1, discharge1}, {admit2, discharge2}} {
			fmt.Fprintf(&b, "355030,%s,%d,%s,%s,%s,%d,%d,%d,0408050063,%s\n",
				birth.Format("20060102"), sex, cep,
				stays[0].Format("20060102"), stays[1].Format("20060102"),
				stay, age, died, proc)
		}
	}

	path := filepath.Join(dir, "admissions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Input.CSVPath = writeSyntheticExtract(t, dir)
	cfg.Output.Dir = filepath.Join(dir, "results")
	cfg.Study.ExpectedRecords = 0
	cfg.Study.ExpectedReadmissionRate = 0
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)

	p := New(cfg, nil)
	outcome, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, 80, outcome.CohortSize)

	// 20 even identities each contribute one readmission.
	assert.Equal(t, 20, outcome.Summary.Readmitted)
	assert.Equal(t, 40, outcome.Summary.Identities)
	assert.InDelta(t, 25.0, outcome.Summary.Rate, 1e-9)

	wantFiles := []string{
		"fig1_mortality_by_age.png",
		"fig1_mortality_by_age.tif",
		"fig2_readmission_by_procedure.png",
		"fig2_readmission_by_procedure.tif",
		"fig3_forest_plot.png",
		"fig3_forest_plot.tif",
		"descriptive_summary.csv",
		"procedure_counts.csv",
		"readmission_logit_or.csv",
		"analysis_report.xlsx",
	}
	assert.Len(t, outcome.Artifacts, len(wantFiles))
	for _, name := range wantFiles {
		path := filepath.Join(cfg.Output.Dir, name)
		info, err := os.Stat(path)
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestPipeline_Run_TableContents(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	table1, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "descriptive_summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(table1), "Total admissions,80")
	assert.Contains(t, string(table1), "30-day readmission rate, %\",25.00")

	table2, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "readmission_logit_or.csv"))
	require.NoError(t, err)
	content := string(table2)
	assert.Contains(t, content, "term,odds_ratio,ci_low,ci_high,p_value")
	assert.Contains(t, content, "Intercept")
	assert.Contains(t, content, "Age (std)")
	assert.Contains(t, content, "Major surgery")
	// Full model: 13 terms plus header.
	assert.Equal(t, 14, strings.Count(strings.TrimSpace(content), "\n")+1)
}

func TestPipeline_Run_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.CSVPath = filepath.Join(t.TempDir(), "absent.csv")

	_, err := New(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}
