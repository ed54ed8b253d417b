// Package build implements the build trigger: verify CMake, then configure
// and build the native project.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/c74/jucegen/internal/platform"
	"github.com/c74/jucegen/internal/post"
	"github.com/c74/jucegen/internal/runner"
	"github.com/c74/jucegen/x/cmake"
)

// ErrCMakeNotFound is returned when the version check rejects CMake.
var ErrCMakeNotFound = cmake.ErrNotFound

// Options configures one build trigger.
type Options struct {
	Tools      platform.Tools
	SourceDir  string // directory holding CMakeLists.txt
	BuildDir   string
	BuildType  string
	MinVersion string   // optional minimum cmake version
	Defines    []string // extra KEY[:TYPE]=VALUE cache entries

	Runner runner.Runner
	Poster post.Poster
}

// Trigger runs the build once. Each step's stdout is posted as it completes.
func Trigger(ctx context.Context, opts Options) error {
	argv, err := platform.Command(opts.Tools.CMake.Command, nil)
	if err != nil {
		return err
	}
	c := cmake.New(opts.Runner, argv, opts.SourceDir, opts.BuildDir)
	if opts.Tools.CMake.Path != "" {
		c.Env("PATH", augmentPath(os.Getenv("PATH"), opts.Tools.CMake.Path))
	}
	c.BuildType(opts.BuildType)
	for _, d := range opts.Defines {
		if err := c.ParseDefine(d); err != nil {
			post.Errorf(opts.Poster, "%v", err)
			return err
		}
	}

	version, err := c.Version(ctx, opts.MinVersion)
	if err != nil {
		if errors.Is(err, cmake.ErrNotFound) {
			opts.Poster.Post(post.Error, opts.Tools.CMake.Hint)
		} else {
			post.Errorf(opts.Poster, "%v", err)
		}
		return err
	}
	post.Infof(opts.Poster, "Using cmake %s", strings.TrimPrefix(version, "v"))

	steps := []struct {
		name string
		run  func(context.Context, ...string) (*runner.Result, error)
	}{
		{"configure", c.Configure},
		{"build", c.Build},
	}
	for _, step := range steps {
		res, err := step.run(ctx)
		if res != nil && res.Stdout != "" {
			opts.Poster.Post(post.Info, res.Stdout)
		}
		if err != nil {
			opts.Poster.Post(post.Error, "Failure to run CMake")
			post.Errorf(opts.Poster, "%v", err)
			return fmt.Errorf("cmake %s failed: %w", step.name, err)
		}
	}
	return nil
}

func augmentPath(cur, extra string) string {
	if cur == "" {
		return extra
	}
	return cur + string(os.PathListSeparator) + extra
}
