package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calegria/depotscan/internal/source"
)

const testConfig = `
sources:
  - name: main-line
    credential: p4-creds
    enumerator: dirs
    includes: //depot
    format: jenkins-main
`

const testSnapshot = `
dirs:
  - //depot/main
  - //depot/dev
changes:
  "//depot/main": [100, 150]
  "//depot/dev": [120]
files:
  - //depot/main/Jenkinsfile
labels:
  - name: rel1
    view: ["//depot/main/..."]
    change: 100
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func scanCommand(t *testing.T, args []string, tokens ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := &ScanOptions{RootOptions: &RootOptions{Format: "text"}}
	if len(tokens) > 0 {
		opts.Tokens = source.NewFixedGenerator(tokens...)
	}
	cmd := newScanCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestScan_ObservesHeads(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)
	db := filepath.Join(dir, "scans.db")

	buf, err := scanCommand(t,
		[]string{"--config", cfg, "--backend", snap, "--db", db},
		"pass-1")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "source main-line: 3 heads observed")
	assert.Contains(t, out, "+ main@150")
	assert.Contains(t, out, "+ dev@120")
	assert.Contains(t, out, "+ rel1@100")
}

func TestScan_SecondPassReportsUpdates(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	db := filepath.Join(dir, "scans.db")

	snap1 := writeFile(t, dir, "depot1.yaml", testSnapshot)
	_, err := scanCommand(t, []string{"--config", cfg, "--backend", snap1, "--db", db}, "pass-1")
	require.NoError(t, err)

	// main advances to 180; dev disappears.
	snap2 := writeFile(t, dir, "depot2.yaml", `
dirs:
  - //depot/main
changes:
  "//depot/main": [100, 150, 180]
labels:
  - name: rel1
    view: ["//depot/main/..."]
    change: 100
`)
	buf, err := scanCommand(t, []string{"--config", cfg, "--backend", snap2, "--db", db}, "pass-2")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "~ main@180 (was 150)")
	assert.Contains(t, out, "- dev@120")
	assert.NotContains(t, out, "+ rel1", "unchanged heads are not reported")
}

func TestScan_CriteriaFilters(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)
	db := filepath.Join(dir, "scans.db")

	buf, err := scanCommand(t,
		[]string{"--config", cfg, "--backend", snap, "--db", db, "--criteria", "Jenkinsfile"},
		"pass-1")
	require.NoError(t, err)

	out := buf.String()
	// Only //depot/main (branch) and rel1 (same path) carry the file.
	assert.Contains(t, out, "2 heads observed")
	assert.NotContains(t, out, "dev@")
}

func TestScan_EventOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)
	db := filepath.Join(dir, "scans.db")

	buf, err := scanCommand(t,
		[]string{
			"--config", cfg, "--backend", snap, "--db", db,
			"--event", `{"branch":"main","path":"//depot/main","change":999}`,
		},
		"pass-1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "+ main@999")
}

func TestScan_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)
	db := filepath.Join(dir, "scans.db")

	buf := &bytes.Buffer{}
	opts := &ScanOptions{
		RootOptions: &RootOptions{Format: "json"},
		Tokens:      source.NewFixedGenerator("pass-1"),
	}
	cmd := newScanCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", cfg, "--backend", snap, "--db", db})
	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestScan_MissingConfig(t *testing.T) {
	dir := t.TempDir()
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)

	_, err := scanCommand(t, []string{
		"--config", filepath.Join(dir, "nope.yaml"),
		"--backend", snap,
		"--db", filepath.Join(dir, "scans.db"),
	})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScan_UnknownSourceFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)

	_, err := scanCommand(t, []string{
		"--config", cfg, "--backend", snap,
		"--db", filepath.Join(dir, "scans.db"),
		"--source", "ghost",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source named")
}

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cfg})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 source(s) valid")
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "bad.yaml", `
sources:
  - name: x
    credential: c
    enumerator: teleport
    includes: //depot
`)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{cfg})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestDiff_NeedsTwoPasses(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	snap := writeFile(t, dir, "depot.yaml", testSnapshot)
	db := filepath.Join(dir, "scans.db")

	_, err := scanCommand(t, []string{"--config", cfg, "--backend", snap, "--db", db}, "pass-1")
	require.NoError(t, err)

	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, "--source", "main-line"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need two to diff")
}

func TestDiff_ComparesLatestTwo(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "depotscan.yaml", testConfig)
	db := filepath.Join(dir, "scans.db")

	snap1 := writeFile(t, dir, "depot1.yaml", testSnapshot)
	_, err := scanCommand(t, []string{"--config", cfg, "--backend", snap1, "--db", db}, "pass-1")
	require.NoError(t, err)

	snap2 := writeFile(t, dir, "depot2.yaml", `
dirs:
  - //depot/main
  - //depot/dev
changes:
  "//depot/main": [100, 150, 200]
  "//depot/dev": [120]
labels:
  - name: rel1
    view: ["//depot/main/..."]
    change: 100
`)
	_, err = scanCommand(t, []string{"--config", cfg, "--backend", snap2, "--db", db}, "pass-2")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	cmd := NewDiffCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--source", "main-line"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "~ main@200 (was 150)")
}

func TestRootCommand_RejectsBadFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "validate", "whatever.yaml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
