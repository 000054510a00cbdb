package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete analysis configuration.
// Values are resolved in order: built-in defaults, YAML config file,
// environment variables with the SIH prefix.
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Study   StudyConfig   `yaml:"study" envconfig:"STUDY"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig locates the admissions extract.
type InputConfig struct {
	CSVPath string `yaml:"csv_path" envconfig:"CSV_PATH" validate:"required"`
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// StudyConfig carries the study-design parameters. The expected-record and
// expected-rate fields are consistency checks against the published cohort;
// zero disables the corresponding check.
type StudyConfig struct {
	MinAge                  float64 `yaml:"min_age" envconfig:"MIN_AGE" validate:"gte=0"`
	MinStayDays             float64 `yaml:"min_stay_days" envconfig:"MIN_STAY_DAYS" validate:"gte=0"`
	ReadmissionWindowDays   int     `yaml:"readmission_window_days" envconfig:"READMISSION_WINDOW_DAYS" validate:"gt=0"`
	ExpectedRecords         int     `yaml:"expected_records" envconfig:"EXPECTED_RECORDS" validate:"gte=0"`
	RecordTolerance         int     `yaml:"record_tolerance" envconfig:"RECORD_TOLERANCE" validate:"gte=0"`
	ExpectedReadmissionRate float64 `yaml:"expected_readmission_rate" envconfig:"EXPECTED_READMISSION_RATE" validate:"gte=0,lte=100"`
	RateTolerance           float64 `yaml:"rate_tolerance" envconfig:"RATE_TOLERANCE" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			CSVPath: "SIH_ArtriteSeptica_BrasilUFporUF_filtered61225.csv",
		},
		Output: OutputConfig{
			Dir: "results",
		},
		Study: StudyConfig{
			MinAge:                  18,
			MinStayDays:             1,
			ReadmissionWindowDays:   30,
			ExpectedRecords:         61225,
			RecordTolerance:         100,
			ExpectedReadmissionRate: 10.75,
			RateTolerance:           0.5,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/analysis.log",
		},
	}
}

// Load resolves the configuration from defaults, an optional YAML file and
// SIH_-prefixed environment variables, then validates it. An empty filePath
// skips the file layer.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("SIH", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the structural constraints and the cross-field rules the
// tag language cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output mode %q", c.Logging.Output)
	}

	return nil
}
