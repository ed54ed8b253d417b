package export

import (
	"context"
	"strings"

	"github.com/c74/jucegen/internal/runner"
)

// mockRunner implements runner.Runner for testing. Replies are matched by
// the first reply key contained in the joined argument list.
type mockRunner struct {
	calls   []runner.Cmd
	replies []mockReply
}

type mockReply struct {
	match string
	res   *runner.Result
	err   error
}

func (m *mockRunner) Run(_ context.Context, cmd runner.Cmd) (*runner.Result, error) {
	m.calls = append(m.calls, cmd)
	joined := strings.Join(cmd.Args, " ")
	for _, r := range m.replies {
		if strings.Contains(joined, r.match) {
			return r.res, r.err
		}
	}
	return &runner.Result{}, nil
}

func (m *mockRunner) args() [][]string {
	out := make([][]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Args
	}
	return out
}
