// Package runner executes external tools and waits for them to finish.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	exec "golang.org/x/sys/execabs"
)

// ErrNotFound is returned when the program of a Cmd cannot be located.
var ErrNotFound = errors.New("executable not found")

// Cmd describes a single external process invocation.
type Cmd struct {
	Args []string          // program followed by its arguments
	Dir  string            // working directory, empty means current
	Env  map[string]string // overrides merged onto os.Environ()
}

// String renders the command the way it is posted to the user.
func (c Cmd) String() string {
	quoted := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// Result is the captured outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a process that ran but exited non-zero.
type ExitError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Cmd, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (*Result, error)
}

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// process was killed on cancellation.
const DefaultWaitDelay = 2 * time.Second

// Exec is the Runner backed by real processes. Cancelling the context kills
// the process; grandchildren still holding its output open are abandoned
// after WaitDelay.
type Exec struct {
	WaitDelay time.Duration // zero means DefaultWaitDelay
}

var _ Runner = Exec{}

// Run starts cmd, waits for it and captures its output. A non-zero exit is
// returned as *ExitError together with the captured Result. A cancelled run
// returns an error wrapping ctx.Err().
func (e Exec) Run(ctx context.Context, cmd Cmd) (*Result, error) {
	if len(cmd.Args) == 0 {
		return nil, errors.New("runner: empty command")
	}
	name := cmd.Args[0]
	if path, ok := cmd.Env["PATH"]; ok {
		// The child's PATH decides where a bare program name is found.
		if found, err := lookPathIn(name, path); err == nil {
			name = found
		}
	}
	c := exec.CommandContext(ctx, name, cmd.Args[1:]...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = mergeEnv(os.Environ(), cmd.Env)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = e.WaitDelay
	if c.WaitDelay <= 0 {
		c.WaitDelay = DefaultWaitDelay
	}

	err := c.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", cmd.String(), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Cmd: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.Args[0])
	}
	return nil, fmt.Errorf("failed to run %s: %w", cmd.Args[0], err)
}

// LookPath searches for an executable named file in the PATH.
func LookPath(file string) (string, error) {
	p, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, file)
	}
	return p, nil
}

func lookPathIn(file, pathList string) (string, error) {
	if strings.ContainsAny(file, `/\`) {
		return exec.LookPath(file)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		if p, err := exec.LookPath(filepath.Join(dir, file)); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
