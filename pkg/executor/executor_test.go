package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecute_Stdout(t *testing.T) {
	out, err := New().Execute(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected stdout 'hello', got %q", out)
	}
}

func TestExecute_NonZeroExitCarriesStderr(t *testing.T) {
	_, err := New().Execute(context.Background(), "sh", "-c", "echo 'Invalid data found' >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.ExitCode)
	}
	if exitErr.Stderr != "Invalid data found" {
		t.Errorf("unexpected stderr: %q", exitErr.Stderr)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error message should include stderr: %v", err)
	}
}

func TestExecute_MissingBinary(t *testing.T) {
	_, err := New().Execute(context.Background(), "definitely-not-a-real-binary-xyz")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if exitErr.ExitCode != -1 {
		t.Errorf("expected exit code -1 for start failure, got %d", exitErr.ExitCode)
	}
}
