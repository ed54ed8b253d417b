package cmake

import (
	"context"
	"strings"

	"github.com/c74/jucegen/internal/runner"
)

// fakeRunner records commands and answers them from a table keyed by the
// joined argument list.
type fakeRunner struct {
	calls   []runner.Cmd
	replies map[string]fakeReply
}

type fakeReply struct {
	res *runner.Result
	err error
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Cmd) (*runner.Result, error) {
	f.calls = append(f.calls, cmd)
	key := strings.Join(cmd.Args, " ")
	for prefix, r := range f.replies {
		if strings.HasPrefix(key, prefix) {
			return r.res, r.err
		}
	}
	return &runner.Result{}, nil
}

func (f *fakeRunner) args() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c.Args, " ")
	}
	return out
}
