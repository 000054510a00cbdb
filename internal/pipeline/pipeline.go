// Package pipeline runs the analysis end to end: load, clean, detect
// readmissions, describe, render figures, fit the regression and export the
// artifacts. The stages are strictly sequential; the batch has no partial
// success mode.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sihress/internal/config"
	"sihress/internal/dataset"
	"sihress/internal/descriptive"
	"sihress/internal/exporter"
	"sihress/internal/figures"
	"sihress/internal/procedures"
	"sihress/internal/readmission"
	"sihress/internal/regression"
)

// Artifact file names within the output directory.
const (
	descriptiveCSV = "descriptive_summary.csv"
	proceduresCSV  = "procedure_counts.csv"
	regressionCSV  = "readmission_logit_or.csv"
	reportWorkbook = "analysis_report.xlsx"
)

// Pipeline executes one analysis run.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string
}

// Outcome summarizes a completed run.
type Outcome struct {
	RunID      string
	CohortSize int
	Summary    readmission.Summary
	Artifacts  []string
	Elapsed    time.Duration
}

// New creates a pipeline for the given configuration. Every log line of the
// run carries the generated run ID.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.New().String()
	return &Pipeline{
		cfg:    cfg,
		logger: logger.With("run_id", runID),
		runID:  runID,
	}
}

// Run executes the full analysis and returns the run outcome.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{RunID: p.runID}

	p.logger.InfoContext(ctx, "analysis run starting",
		"input", p.cfg.Input.CSVPath,
		"output_dir", p.cfg.Output.Dir,
	)

	// Load and clean.
	admissions, err := dataset.Load(p.cfg.Input.CSVPath, p.logger)
	if err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}

	cohort, _ := dataset.Clean(admissions, p.cfg.Study, p.logger)
	if len(cohort) == 0 {
		return nil, fmt.Errorf("no admissions left after inclusion filters")
	}
	outcome.CohortSize = len(cohort)

	// Readmission detection.
	detector, err := readmission.NewDetector(p.cfg.Study.ReadmissionWindowDays, p.logger)
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}
	results, summary, err := detector.Detect(ctx, cohort)
	if err != nil {
		return nil, fmt.Errorf("detect readmissions: %w", err)
	}
	detector.CheckExpectedRate(summary, p.cfg.Study.ExpectedReadmissionRate, p.cfg.Study.RateTolerance)
	outcome.Summary = summary

	// Descriptive statistics and procedure counts.
	table1, err := descriptive.Summarize(cohort, summary)
	if err != nil {
		return nil, fmt.Errorf("summarize cohort: %w", err)
	}

	names := make([]string, len(cohort))
	for i, adm := range cohort {
		names[i] = adm.ProcedureName
	}
	counts := procedures.CountByCategory(names)

	// Figures 1 and 2.
	renderer, err := figures.NewRenderer(p.cfg.Output.Dir, p.logger)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	figPaths, err := renderer.MortalityByAge(descriptive.MortalityByAgeBand(cohort))
	if err != nil {
		return nil, fmt.Errorf("render mortality figure: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, figPaths...)

	figPaths, err = renderer.ReadmissionByProcedure(descriptive.ReadmissionByCategory(results))
	if err != nil {
		return nil, fmt.Errorf("render readmission figure: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, figPaths...)

	// Regression and forest plot.
	design, err := regression.BuildDesign(results)
	if err != nil {
		return nil, fmt.Errorf("build design matrix: %w", err)
	}
	fit, err := regression.Fit(ctx, design, p.logger)
	if err != nil {
		return nil, fmt.Errorf("fit readmission model: %w", err)
	}
	terms := regression.OddsRatios(fit)

	figPaths, err = renderer.Forest(regression.ForestTerms(terms))
	if err != nil {
		return nil, fmt.Errorf("render forest plot: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, figPaths...)

	// Tables: CSV artifacts plus the combined workbook.
	if err := p.exportTables(table1, counts, terms, outcome); err != nil {
		return nil, err
	}

	outcome.Elapsed = time.Since(start)
	p.logger.InfoContext(ctx, "analysis run completed",
		"cohort", outcome.CohortSize,
		"readmission_rate_pct", fmt.Sprintf("%.2f", summary.Rate),
		"artifacts", len(outcome.Artifacts),
		"elapsed", outcome.Elapsed,
	)
	for _, artifact := range outcome.Artifacts {
		p.logger.InfoContext(ctx, "artifact written", "path", artifact)
	}

	return outcome, nil
}

func (p *Pipeline) exportTables(table1 descriptive.Summary, counts []procedures.Count, terms []regression.Term, outcome *Outcome) error {
	writer := exporter.NewCSVWriter(p.cfg.Output.Dir, p.logger)

	countRows := make([][]string, len(counts))
	for i, c := range counts {
		countRows[i] = []string{string(c.Category), fmt.Sprintf("%d", c.N)}
	}

	tables := []struct {
		file    string
		sheet   string
		headers []string
		records [][]string
	}{
		{descriptiveCSV, "Table 1", []string{"metric", "value"}, table1.Rows()},
		{proceduresCSV, "Procedures", []string{"category", "count"}, countRows},
		{regressionCSV, "Table 2", regression.RowHeader, regression.Rows(terms)},
	}

	workbookTables := make([]exporter.Table, 0, len(tables))
	for _, tbl := range tables {
		path, err := writer.Write(tbl.file, tbl.headers, tbl.records)
		if err != nil {
			return fmt.Errorf("export %s: %w", tbl.file, err)
		}
		outcome.Artifacts = append(outcome.Artifacts, path)
		workbookTables = append(workbookTables, exporter.Table{
			Sheet:   tbl.sheet,
			Headers: tbl.headers,
			Records: tbl.records,
		})
	}

	meta := exporter.RunMeta{
		RunID:       p.runID,
		GeneratedAt: time.Now().UTC(),
		InputFile:   filepath.Base(p.cfg.Input.CSVPath),
		CohortSize:  outcome.CohortSize,
	}
	path, err := exporter.WriteWorkbook(p.cfg.Output.Dir, reportWorkbook, meta, workbookTables, p.logger)
	if err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	outcome.Artifacts = append(outcome.Artifacts, path)

	return nil
}
