package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

func TestExecCapturesOutput(t *testing.T) {
	skipWithoutShell(t)

	res, err := Exec{}.Run(context.Background(), Cmd{
		Args: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecExitError(t *testing.T) {
	skipWithoutShell(t)

	res, err := Exec{}.Run(context.Background(), Cmd{
		Args: []string{"sh", "-c", "echo broken >&2; exit 3"},
	})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run error = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 3 || res.ExitCode != 3 {
		t.Errorf("exit code = %d/%d, want 3", exitErr.ExitCode, res.ExitCode)
	}
	if !strings.Contains(exitErr.Error(), "broken") {
		t.Errorf("Error() = %q, want stderr included", exitErr.Error())
	}
}

func TestExecDirAndEnv(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	res, err := Exec{}.Run(context.Background(), Cmd{
		Args: []string{"sh", "-c", "pwd; echo $JUCEGEN_TEST"},
		Dir:  dir,
		Env:  map[string]string{"JUCEGEN_TEST": "hello"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected output %q", res.Stdout)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(lines[0])
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
	if lines[1] != "hello" {
		t.Errorf("env = %q, want %q", lines[1], "hello")
	}
}

func TestExecCancel(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// The backgrounded sleep keeps stdout open after sh is killed.
	start := time.Now()
	res, err := Exec{WaitDelay: 100 * time.Millisecond}.Run(ctx, Cmd{
		Args: []string{"sh", "-c", "sleep 5 & sleep 5; echo done"},
	})
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run returned after %v, want prompt return on timeout", elapsed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want context.DeadlineExceeded", err)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("Run error = %v, want a cancellation error, not *ExitError", err)
	}
	if res == nil || res.ExitCode != -1 {
		t.Errorf("Result = %+v, want ExitCode -1", res)
	}
}

func TestExecCancelledBeforeStart(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exec{}.Run(ctx, Cmd{Args: []string{"sh", "-c", "exit 0"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestExecNotFound(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), Cmd{
		Args: []string{"jucegen-definitely-missing-tool"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Run error = %v, want ErrNotFound", err)
	}
}

func TestExecEmpty(t *testing.T) {
	if _, err := (Exec{}).Run(context.Background(), Cmd{}); err == nil {
		t.Fatal("Run with no args should fail")
	}
}

func TestLookPathInExtraDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	dir := t.TempDir()
	tool := filepath.Join(dir, "fake-cmake")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\necho ok\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := lookPathIn("fake-cmake", "/nonexistent"+string(os.PathListSeparator)+dir)
	if err != nil {
		t.Fatalf("lookPathIn: %v", err)
	}
	if got != tool {
		t.Errorf("lookPathIn = %q, want %q", got, tool)
	}
	if _, err := lookPathIn("fake-cmake", "/nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookPathIn missing = %v, want ErrNotFound", err)
	}
}

func TestCmdString(t *testing.T) {
	c := Cmd{Args: []string{"open", "-n", "/a b/Projucer.app", "--args", "--resave", ""}}
	want := `open -n "/a b/Projucer.app" --args --resave ""`
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv([]string{"A=1", "B=2"}, map[string]string{"B": "3", "C": "4"})
	want := []string{"A=1", "B=3", "C=4"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("mergeEnv = %v, want %v", got, want)
	}
}
