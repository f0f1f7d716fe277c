package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const (
	refAdd  = "int add(int a, int b) { return a + b; }"
	candAdd = "int add(int x, int y) { return x + y; }"
	refMax  = "int max(int a, int b) { if (a > b) return a; return b; }"
	candMax = "int max(int a, int b) { return a > b ? a : b; }"
)

// createCorpusTree lays out one reference/candidate pair in the default layout
func createCorpusTree(t *testing.T, root string, ref, cand []string) {
	t.Helper()
	createCorpusFile(t, filepath.Join(root, "0-sourcecode", "arith_source.txt"), ref...)
	createCorpusFile(t, filepath.Join(root, "fine_grain_final_output2txt", "arith_fine_grain_final.txt"), cand...)
}

func run(t *testing.T, binary string, env []string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestEvaluateE2EText tests the default text report on stdout
func TestEvaluateE2EText(t *testing.T) {
	binaryPath := buildSimevalBinary(t)

	root := t.TempDir()
	createCorpusTree(t, root, []string{refAdd, refMax}, []string{candAdd, candMax})

	stdout, stderr, err := run(t, binaryPath, nil, "evaluate", "--no-progress", root)
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr)
	}

	for _, want := range []string{"SUMMARY", "AVERAGE SIMILARITY", "arith_source.txt"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Output should contain %q", want)
		}
	}
}

// TestEvaluateE2EJSONReportFile tests that JSON reports go to output.directory
func TestEvaluateE2EJSONReportFile(t *testing.T) {
	binaryPath := buildSimevalBinary(t)

	root := t.TempDir()
	outputDir := t.TempDir()
	createCorpusTree(t, root, []string{refAdd, "null"}, []string{candAdd, candMax})
	createTestConfigFile(t, root, outputDir)

	_, stderr, err := run(t, binaryPath, nil, "evaluate", "--format", "json", "--no-progress", root)
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr)
	}

	files, err := filepath.Glob(filepath.Join(outputDir, "evaluate_*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one JSON report in %s, got %v (%v)", outputDir, files, err)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var report struct {
		Summary struct {
			Attempted int `json:"attempted"`
			Skipped   int `json:"skipped"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Invalid JSON report: %v", err)
	}
	if report.Summary.Attempted != 1 || report.Summary.Skipped != 1 {
		t.Errorf("Expected 1 attempted and 1 skipped pair, got %+v", report.Summary)
	}
}

// TestEvaluateE2EFailUnder tests exit status 2 on a missed threshold
func TestEvaluateE2EFailUnder(t *testing.T) {
	binaryPath := buildSimevalBinary(t)

	root := t.TempDir()
	createCorpusTree(t, root, []string{refAdd}, []string{refMax})

	_, _, err := run(t, binaryPath, nil, "evaluate", "--format", "json", "--no-progress", "--fail-under", "0.99", root)
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Expected an exit error, got %v", err)
	}
	if exitErr.ExitCode() != 2 {
		t.Errorf("Expected exit code 2, got %d", exitErr.ExitCode())
	}
}

// TestEvaluateE2EEnvOverride tests SIMEVAL_* environment overrides
func TestEvaluateE2EEnvOverride(t *testing.T) {
	binaryPath := buildSimevalBinary(t)

	root := t.TempDir()
	createCorpusTree(t, root, []string{refAdd, "MISSING"}, []string{candAdd, candMax})

	stdout, stderr, err := run(t, binaryPath, []string{"SIMEVAL_CORPUS_SKIP_SENTINEL=MISSING"},
		"evaluate", "--format", "json", "--no-progress", root)
	if err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr)
	}

	var resp struct {
		Summary struct {
			Skipped int `json:"skipped"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if resp.Summary.Skipped != 1 {
		t.Errorf("Expected the MISSING entry to be skipped, got %d skipped", resp.Summary.Skipped)
	}
}

// TestEvaluateE2EMissingInput tests exit status 1 on bad input
func TestEvaluateE2EMissingInput(t *testing.T) {
	binaryPath := buildSimevalBinary(t)

	_, stderr, err := run(t, binaryPath, nil, "evaluate", filepath.Join(t.TempDir(), "nope"))
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("Expected exit code 1, got %v", err)
	}
	if !strings.Contains(stderr, "INPUT_NOT_FOUND") {
		t.Errorf("Stderr should name the error code, got %q", stderr)
	}
}
