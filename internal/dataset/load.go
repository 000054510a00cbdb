package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Column names expected in the extract header. Matching is case-insensitive
// and order-independent; unknown columns are ignored.
var requiredColumns = []string{
	"MUNIC_RES", "NASC", "SEXO", "CEP",
	"DT_INTER", "DT_SAIDA", "DIAS_PERM", "IDADE", "MORTE", "PROC_NOME",
}

// Load reads the admissions extract from a CSV file. DATASUS exports arrive
// either UTF-8 or Latin-1 encoded; invalid UTF-8 input is re-decoded as
// ISO 8859-1 before parsing. Rows that fail to parse are logged and skipped
// rather than aborting the batch.
func Load(path string, logger *slog.Logger) ([]Admission, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	if !utf8.Valid(data) {
		logger.Warn("input is not valid UTF-8, decoding as Latin-1",
			"file", filepath.Base(path))
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode Latin-1 input: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("input contains no data rows")
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("map header columns: %w", err)
	}

	var admissions []Admission
	skipped := 0

	for i, row := range rows[1:] {
		adm, err := parseRow(row, columns)
		if err != nil {
			skipped++
			logger.Warn("skipping unparseable row",
				"line", i+2,
				"error", err,
			)
			continue
		}
		admissions = append(admissions, adm)
	}

	logger.Info("admissions extract loaded",
		"file", filepath.Base(path),
		"rows", len(admissions),
		"skipped", skipped,
	)

	if len(admissions) == 0 {
		return nil, fmt.Errorf("no parseable rows in %s", path)
	}

	return admissions, nil
}

// mapColumns resolves header names to field positions.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return columns, nil
}

func parseRow(row []string, columns map[string]int) (Admission, error) {
	cell := func(name string) (string, error) {
		idx := columns[name]
		if idx >= len(row) {
			return "", fmt.Errorf("row too short for column %s", name)
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			return "", fmt.Errorf("empty value in column %s", name)
		}
		return v, nil
	}

	var adm Admission
	var err error

	if adm.Municipality, err = cell("MUNIC_RES"); err != nil {
		return Admission{}, err
	}
	if adm.PostalCode, err = cell("CEP"); err != nil {
		return Admission{}, err
	}
	if adm.ProcedureName, err = cell("PROC_NOME"); err != nil {
		return Admission{}, err
	}
	if idx, ok := columns["PROC_REA"]; ok && idx < len(row) {
		adm.ProcedureCode = strings.TrimSpace(row[idx])
	}

	for _, fld := range []struct {
		column string
		dst    *time.Time
	}{
		{"NASC", &adm.BirthDate},
		{"DT_INTER", &adm.AdmitDate},
		{"DT_SAIDA", &adm.DischargeDate},
	} {
		v, err := cell(fld.column)
		if err != nil {
			return Admission{}, err
		}
		d, err := parseDate(v)
		if err != nil {
			return Admission{}, fmt.Errorf("parse %s: %w", fld.column, err)
		}
		*fld.dst = d
	}

	for _, fld := range []struct {
		column string
		dst    *float64
	}{
		{"DIAS_PERM", &adm.StayDays},
		{"IDADE", &adm.Age},
	} {
		v, err := cell(fld.column)
		if err != nil {
			return Admission{}, err
		}
		f, err := parseFiniteFloat(v)
		if err != nil {
			return Admission{}, fmt.Errorf("parse %s: %w", fld.column, err)
		}
		*fld.dst = f
	}

	sexo, err := cell("SEXO")
	if err != nil {
		return Admission{}, err
	}
	sexF, err := parseFiniteFloat(sexo)
	if err != nil {
		return Admission{}, fmt.Errorf("parse SEXO: %w", err)
	}
	adm.Sex = int(sexF)

	morte, err := cell("MORTE")
	if err != nil {
		return Admission{}, err
	}
	morteF, err := parseFiniteFloat(morte)
	if err != nil {
		return Admission{}, fmt.Errorf("parse MORTE: %w", err)
	}
	adm.Died = morteF == 1

	return adm, nil
}

// parseFiniteFloat rejects NaN and infinite values, which ParseFloat accepts
// from literal "NaN"/"Inf" cells. A non-finite value would slip through the
// inclusion filters (every comparison against NaN is false) and poison the
// cohort statistics downstream.
func parseFiniteFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", value)
	}
	return f, nil
}

// parseDate handles the two date layouts seen in DATASUS extracts:
// compact YYYYMMDD and ISO YYYY-MM-DD.
func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
