package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	path, err := w.Write("table.csv",
		[]string{"metric", "value"},
		[][]string{
			{"Total admissions", "61225"},
			{"Age, mean (SD)", "52.3 (17.1)"},
		})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "table.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// UTF-8 BOM prefix for spreadsheet tools.
	require.True(t, len(data) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])

	content := string(data[3:])
	assert.Contains(t, content, "metric,value\n")
	assert.Contains(t, content, "Total admissions,61225\n")
	assert.Contains(t, content, `"Age, mean (SD)","52.3 (17.1)"`)
}

func TestCSVWriter_NoHeaders(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), nil)

	path, err := w.Write("bare.csv", nil, [][]string{{"a", "b"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data[3:]))
}

func TestCSVWriter_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	w := NewCSVWriter(dir, nil)

	path, err := w.Write("out.csv", []string{"x"}, nil)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
