package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePipeline writes a pipeline spec with the given dataset reference into
// a fresh temp dir and returns the spec path.
func writePipeline(t *testing.T, datasetName, datasetCSV string) string {
	t.Helper()
	dir := t.TempDir()

	if datasetCSV != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, datasetName), []byte(datasetCSV), 0o644))
	}

	spec := `name: check-test
dataset: ` + datasetName + `
config:
  replicates: 5
models:
  - type: poly
    name: cubic
    config:
      degree: 3
  - type: spline
    name: smooth
    config:
      df: 5
`
	specPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))
	return specPath
}

// fullCoverageCSV returns a dataset with rows at every lattice cell.
func fullCoverageCSV() string {
	var b strings.Builder
	b.WriteString("age,sex,time_sec\n")
	for age := 30; age <= 80; age += 5 {
		for _, sex := range []string{"M", "F"} {
			b.WriteString(strconv.Itoa(age) + "," + sex + ",100.5\n")
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Single pipeline
// ---------------------------------------------------------------------------

func TestCheckCommand_ReadyPipeline(t *testing.T) {
	specPath := writePipeline(t, "swim.csv", fullCoverageCSV())

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Schema:   ✅ valid")
	assert.Contains(t, out, "Models:   ✅ all members build")
	assert.Contains(t, out, "22 on the age lattice")
	assert.Contains(t, out, "anchor age 35 covered")
	assert.Contains(t, out, "Ready to run")
	assert.Contains(t, out, "Coverage (records per age)")
}

func TestCheckCommand_InvalidFormat(t *testing.T) {
	cmd := newCheckCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--format", "xml", "whatever.yaml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCheckCommand_UnreadableFile(t *testing.T) {
	cmd := newCheckCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.yaml")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking pipeline")
}

func TestCheckCommand_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	spec := `name: bad
dataset: swim.csv
config:
  on_fit_failure: retry
models:
  - type: poly
    name: poly
`
	specPath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed readiness checks")

	out := buf.String()
	assert.Contains(t, out, "Schema:   ❌")
	assert.Contains(t, out, "on_fit_failure")
}

func TestCheckCommand_MissingDataset(t *testing.T) {
	specPath := writePipeline(t, "absent.csv", "")

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	err := cmd.Execute()
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Dataset:  ❌")
	assert.Contains(t, out, "absent.csv")
}

func TestCheckCommand_MalformedDataset(t *testing.T) {
	csv := "age,sex,time_sec\n35,M,not-a-number\n"
	specPath := writePipeline(t, "swim.csv", csv)

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	err := cmd.Execute()
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Dataset:  ❌")
	assert.Contains(t, out, "data integrity")
}

func TestCheckCommand_MissingAnchor(t *testing.T) {
	csv := "age,sex,time_sec\n40,M,100\n40,F,110\n45,M,102\n"
	specPath := writePipeline(t, "swim.csv", csv)

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	err := cmd.Execute()
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "Anchors:  ❌")
	assert.Contains(t, out, "no records at anchor age")
}

func TestCheckCommand_CoverageMarksGaps(t *testing.T) {
	// Women only at the anchor age, men everywhere.
	var b strings.Builder
	b.WriteString("age,sex,time_sec\n")
	for age := 30; age <= 80; age += 5 {
		b.WriteString(strconv.Itoa(age) + ",M,100\n")
	}
	b.WriteString("35,F,110\n")
	specPath := writePipeline(t, "swim.csv", b.String())

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{specPath})
	require.NoError(t, cmd.Execute())

	var femaleRow string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "    F") {
			femaleRow = line
			break
		}
	}
	require.NotEmpty(t, femaleRow, "coverage table should have a row for F")
	assert.Contains(t, femaleRow, "1", "anchor cell should be populated")
	assert.Contains(t, femaleRow, "-", "empty cells should render as dashes")
}

// ---------------------------------------------------------------------------
// Multiple pipelines
// ---------------------------------------------------------------------------

func TestCheckCommand_MultiplePipelines(t *testing.T) {
	good := writePipeline(t, "swim.csv", fullCoverageCSV())
	bad := writePipeline(t, "absent.csv", "")

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{good, bad})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 pipeline(s) failed readiness checks")

	out := buf.String()
	assert.Contains(t, out, "CHECK SUMMARY")
	assert.Contains(t, out, "=== check-test ===")
}

func TestCheckCommand_MultiplePipelinesAllReady(t *testing.T) {
	first := writePipeline(t, "swim.csv", fullCoverageCSV())
	second := writePipeline(t, "swim.csv", fullCoverageCSV())

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{first, second})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "CHECK SUMMARY")
}

// ---------------------------------------------------------------------------
// JSON output
// ---------------------------------------------------------------------------

func TestCheckCommand_JSONFormat(t *testing.T) {
	specPath := writePipeline(t, "swim.csv", fullCoverageCSV())

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--format", "json", specPath})
	require.NoError(t, cmd.Execute())

	var doc checkJSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Pipelines, 1)

	p := doc.Pipelines[0]
	assert.Equal(t, "check-test", p.Name)
	assert.True(t, p.Ready)
	assert.Equal(t, 22, p.Rows)
	assert.Equal(t, 22, p.LatticeRows)
	assert.Equal(t, 1, p.Coverage["M"][35])
	assert.Empty(t, p.SchemaErrors)
}

func TestCheckCommand_JSONFormatNotReady(t *testing.T) {
	specPath := writePipeline(t, "absent.csv", "")

	var buf bytes.Buffer
	cmd := newCheckCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--format", "json", specPath})
	err := cmd.Execute()
	require.Error(t, err, "not-ready pipelines should still fail the command")

	var doc checkJSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Pipelines, 1)
	assert.False(t, doc.Pipelines[0].Ready)
	assert.Contains(t, doc.Pipelines[0].DatasetError, "absent.csv")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestCheckPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", checkPadRight("ab", 5))
	assert.Equal(t, "abcdef", checkPadRight("abcdef", 5))
	// The check emoji is double-width in a terminal.
	assert.Equal(t, "✅   ", checkPadRight("✅", 5))
}

func TestCheckTruncateName(t *testing.T) {
	assert.Equal(t, "short", checkTruncateName("short", 10))
	assert.Equal(t, "exactlyten", checkTruncateName("exactlyten", 10))
	assert.Equal(t, "muchtoolo…", checkTruncateName("muchtoolongname", 10))
}

func TestLatticeAges(t *testing.T) {
	ages := latticeAges()
	require.Len(t, ages, 11)
	assert.Equal(t, 30, ages[0])
	assert.Equal(t, 80, ages[10])
}
