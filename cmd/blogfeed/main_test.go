package main

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testFixturePath returns the path to test fixtures
func testFixturePath(filename string) string {
	return filepath.Join("..", "..", "internal", "config", "testdata", filename)
}

// runCLI builds and runs the CLI binary, returning stdout, stderr, and
// exit code.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "blogfeed")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("failed to build CLI: %v", err)
	}

	cmd := exec.Command(binaryPath, args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(stdout, "blogfeed") {
		t.Error("expected help to contain 'blogfeed'")
	}
	if !strings.Contains(stdout, "validate") {
		t.Error("expected help to contain 'validate' command")
	}
	if !strings.Contains(stdout, "run") {
		t.Error("expected help to contain 'run' command")
	}
}

func TestCLI_ValidateValidJSON(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", testFixturePath("valid-config.json"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if !strings.Contains(stderr, "valid") {
		t.Errorf("expected output to contain 'valid', got: %s", stderr)
	}
}

func TestCLI_ValidateValidYAML(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", testFixturePath("valid-config.yaml"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if !strings.Contains(stderr, "yaml") {
		t.Errorf("expected output to mention 'yaml' format, got: %s", stderr)
	}
}

func TestCLI_ValidateInvalidJSON(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", testFixturePath("invalid-json.json"))

	if exitCode != ExitParseError {
		t.Errorf("expected exit code %d (parse error), got %d", ExitParseError, exitCode)
	}
	if !strings.Contains(stderr, "Parse errors") {
		t.Errorf("expected stderr to contain 'Parse errors', got: %s", stderr)
	}
}

func TestCLI_ValidateValidationErrors(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", testFixturePath("missing-sources.json"))

	if exitCode != ExitValidationError {
		t.Errorf("expected exit code %d (validation error), got %d", ExitValidationError, exitCode)
	}
	if !strings.Contains(stderr, "Validation errors") {
		t.Errorf("expected stderr to contain 'Validation errors', got: %s", stderr)
	}
}

func TestCLI_ValidateNonExistent(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", "nonexistent.json")

	if exitCode != ExitParseError {
		t.Errorf("expected exit code %d (parse error), got %d", ExitParseError, exitCode)
	}
	if !strings.Contains(stderr, "Parse errors") {
		t.Errorf("expected stderr to contain parse error for non-existent file, got: %s", stderr)
	}
}

func TestCLI_ValidateVerbose(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", "--verbose", testFixturePath("valid-config.json"))

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d", ExitSuccess, exitCode)
	}
	if !strings.Contains(stderr, "example-feed") {
		t.Errorf("expected verbose output to contain feed name, got: %s", stderr)
	}
}

func TestCLI_RunStaticFeed(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "run", testFixturePath("static-feed.json"))

	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &records); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\nstdout: %s", err, stdout)
	}

	// posts 1 and 2 have comments and userId 1; post 3 is filtered out
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["id"].(float64) != 1 || records[1]["id"].(float64) != 2 {
		t.Errorf("records not sorted by id: %v, %v", records[0]["id"], records[1]["id"])
	}

	// canonical key order in the raw output
	first := strings.Index(stdout, `"id"`)
	comments := strings.Index(stdout, `"comments"`)
	if first == -1 || comments == -1 || first > comments {
		t.Errorf("expected id before comments in output: %s", stdout)
	}
}

func TestCLI_RunWithWhereFilter(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "run", "--where", "id > 1", testFixturePath("static-feed.json"))

	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &records); err != nil {
		t.Fatalf("stdout is not a JSON array: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["id"].(float64) != 2 {
		t.Errorf("expected post 2, got %v", records[0]["id"])
	}
}

func TestCLI_RunBadWhereExpression(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "run", "--where", "id >", testFixturePath("static-feed.json"))

	if exitCode != ExitRuntimeError {
		t.Errorf("expected exit code %d (runtime error), got %d", ExitRuntimeError, exitCode)
	}
	if !strings.Contains(stderr, "--where") {
		t.Errorf("expected stderr to mention the bad flag, got: %s", stderr)
	}
}

func TestCLI_RunInvalidConfig(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "run", testFixturePath("invalid-json.json"))

	if exitCode != ExitParseError {
		t.Errorf("expected exit code %d (parse error), got %d", ExitParseError, exitCode)
	}
	if !strings.Contains(stderr, "Parse errors") {
		t.Errorf("expected stderr to contain 'Parse errors', got: %s", stderr)
	}
}

func TestCLI_RunPretty(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "run", "--pretty", testFixturePath("static-feed.json"))

	if exitCode != ExitSuccess {
		t.Fatalf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if !strings.Contains(stdout, "\n  ") {
		t.Errorf("expected indented output, got: %s", stdout)
	}
}

func TestCLI_Version(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "version")

	if exitCode != ExitSuccess {
		t.Errorf("expected exit code %d, got %d\nstderr: %s", ExitSuccess, exitCode, stderr)
	}
	if !strings.Contains(stdout, "Version:") {
		t.Errorf("expected output to contain 'Version:', got: %s", stdout)
	}
	if !strings.Contains(stdout, "Commit:") {
		t.Errorf("expected output to contain 'Commit:', got: %s", stdout)
	}
}

func TestCLI_ValidateMissingArg(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate")

	if exitCode == ExitSuccess {
		t.Error("expected non-zero exit code for missing argument")
	}
	if !strings.Contains(stderr, "accepts 1 arg") {
		t.Errorf("expected error about missing argument, got: %s", stderr)
	}
}
