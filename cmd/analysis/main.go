package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sihress/internal/config"
	"sihress/internal/infrastructure"
	"sihress/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	inputPath := flag.String("input", "", "hospital admissions CSV extract (overrides config)")
	outputDir := flag.String("out", "", "output directory for tables and figures (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := applyOverrides(cfg, *inputPath, *outputDir); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, closer, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closer(); err != nil {
			fmt.Fprintf(os.Stderr, "close logger: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := pipeline.New(cfg, logger).Run(ctx)
	if err != nil {
		logger.Error("Analysis run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Analysis finished",
		"run_id", outcome.RunID,
		"cohort", outcome.CohortSize,
		"readmission_rate_pct", fmt.Sprintf("%.2f", outcome.Summary.Rate),
		"elapsed", outcome.Elapsed,
	)
}

// applyOverrides folds command line flags into the loaded configuration and
// revalidates it.
func applyOverrides(cfg *config.Config, inputPath, outputDir string) error {
	if inputPath != "" {
		cfg.Input.CSVPath = inputPath
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	return cfg.Validate()
}
