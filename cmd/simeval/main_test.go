package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/ludo-technologies/simeval/internal/config"
	"github.com/ludo-technologies/simeval/internal/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addRef  = "int add(int a, int b) { return a + b; }"
	addCand = "int add(int x, int y) { return x + y; }"
	loopFn  = "int sum(int *v, int n) { int s = 0; for (int i = 0; i < n; i++) { if (v[i] > 0) s += v[i]; } return s; }"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--quiet"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func corpus(funcs ...string) string {
	return strings.Join(funcs, "\n"+config.DefaultDelimiter+"\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", out)

	out, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "simeval "))
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.DefaultConfigFileName)

	_, err := runCLI(t, "init", "--output", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[corpus]")

	_, err = runCLI(t, "init", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCLI(t, "init", "--output", path, "--force")
	require.NoError(t, err)

	// the generated file must load back
	_, err = config.LoadConfig(path, "")
	require.NoError(t, err)
}

func TestCompareCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.c"), addRef)
	cand := writeFile(t, filepath.Join(dir, "cand.c"), addCand)

	out, err := runCLI(t, "compare", "--format", "json", "--explain", ref, cand)
	require.NoError(t, err)

	var resp domain.CompareResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ref, resp.ReferencePath)
	assert.Greater(t, resp.Report.Overall, 0.8)
	require.NotNil(t, resp.Detail)
	assert.Equal(t, "add", resp.Detail.CandidateSignature.Name)
}

func TestCompareCommand_FailUnder(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.c"), addRef)
	cand := writeFile(t, filepath.Join(dir, "cand.c"), loopFn)

	tests := []struct {
		name      string
		threshold string
		wantCode  int
	}{
		{"below threshold", "0.99", exitThreshold},
		{"zero threshold", "0", exitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, "compare", "--format", "json", "--fail-under", tt.threshold, ref, cand)
			assert.Equal(t, tt.wantCode, exitCode(err))
		})
	}
}

func TestCompareCommand_OutputFile(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.c"), addRef)
	cand := writeFile(t, filepath.Join(dir, "cand.c"), addCand)
	outPath := filepath.Join(dir, "reports", "compare.yaml")

	out, err := runCLI(t, "compare", "--format", "yaml", "--output", outPath, ref, cand)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "overall:")
}

func TestCompareCommand_Corpus(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.txt"), corpus(addRef, "null", loopFn))
	cand := writeFile(t, filepath.Join(dir, "cand.txt"), corpus(addCand, loopFn, "null"))

	out, err := runCLI(t, "compare", "--corpus", "--format", "json", ref, cand)
	require.NoError(t, err)

	var resp domain.EvaluationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, 1, resp.Files[0].Attempted)
	assert.Equal(t, 2, resp.Files[0].Skipped)
	assert.Len(t, resp.Files[0].Pairs, 3)

	bad := writeFile(t, filepath.Join(dir, "short.txt"), addCand)
	_, err = runCLI(t, "compare", "--corpus", "--format", "json", ref, bad)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeCountMismatch, domain.ErrorCode(err))
}

func TestCompareCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.c"), addRef)

	_, err := runCLI(t, "compare", ref, filepath.Join(dir, "missing.c"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInputNotFound, domain.ErrorCode(err))
	assert.Equal(t, exitError, exitCode(err))
}

func TestEvaluateCommand_Directory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "0-sourcecode", "zlib_source.txt"), corpus(addRef, loopFn))
	writeFile(t, filepath.Join(root, "fine_grain_final_output2txt", "zlib_fine_grain_final.txt"), corpus(addCand, loopFn))

	out, err := runCLI(t, "evaluate", "--format", "json", "--no-progress", "--workers", "2", root)
	require.NoError(t, err)

	var resp domain.EvaluationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Summary.EvaluatedFiles)
	assert.Equal(t, 2, resp.Summary.Attempted)
	assert.Empty(t, resp.Files[0].Pairs)
	assert.Greater(t, resp.Summary.Average.Overall, 0.8)
}

func TestEvaluateCommand_FilePairWithFlags(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, filepath.Join(dir, "ref.txt"), addRef+"\n@@\nSKIPPED")
	cand := writeFile(t, filepath.Join(dir, "cand.txt"), addCand+"\n@@\n"+loopFn)

	out, err := runCLI(t, "evaluate", "--format", "json", "--no-progress", "--show-pairs",
		"--delimiter", "@@", "--skip-sentinel", "SKIPPED", "--structure-algorithm", config.StructureTreeEdit,
		ref, cand)
	require.NoError(t, err)

	var resp domain.EvaluationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, 1, resp.Files[0].Attempted)
	assert.Equal(t, 1, resp.Files[0].Skipped)
	require.Len(t, resp.Files[0].Pairs, 2)
	assert.Equal(t, domain.PairStatusSkipped, resp.Files[0].Pairs[1].Status)
}

func TestEvaluateCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "ref.txt"), addRef)

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"missing path", []string{"evaluate", filepath.Join(dir, "nope")}, "input not found"},
		{"file without candidate", []string{"evaluate", file}, "is a file"},
		{"bad format", []string{"evaluate", "--format", "xml", dir}, "xml"},
		{"bad algorithm", []string{"evaluate", "--structure-algorithm", "magic", dir}, "structure_algorithm"},
		{"bad threshold", []string{"evaluate", "--fail-under", "1.5", dir}, "--fail-under"},
		{"no args", []string{"evaluate"}, "arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, exitError, exitCode(err))
		})
	}
}

func TestGetExplicitFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	var flags analysisFlags
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "3", "--delimiter", "##"}))

	explicit := GetExplicitFlags(cmd)
	assert.True(t, explicit["workers"])
	assert.True(t, explicit["delimiter"])
	assert.False(t, explicit["format"])

	cfg := config.DefaultConfig()
	require.NoError(t, flags.apply(cmd, cfg))
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, "##", cfg.Corpus.Delimiter)
	assert.Equal(t, config.DefaultSkipSentinel, cfg.Corpus.SkipSentinel, "unset flags keep config values")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
	assert.Equal(t, exitThreshold, exitCode(&thresholdError{score: 0.1, threshold: 0.5}))
}
