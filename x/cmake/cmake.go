// Package cmake wraps the cmake version/configure/build workflow.
package cmake

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/c74/jucegen/internal/runner"
)

// VersionPrefix is how `cmake --version` output starts.
const VersionPrefix = "cmake version "

// ErrNotFound is returned when the version check rejects the tool.
var ErrNotFound = errors.New("cmake not found")

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	argv      []string // executable, possibly with leading arguments
	env       map[string]string
	sourceDir string
	buildDir  string
	buildType string
	defines   map[string]defineValue
	runner    runner.Runner
}

// New returns a CMake invoking argv through r.
func New(r runner.Runner, argv []string, sourceDir, buildDir string) *CMake {
	return &CMake{
		argv:      argv,
		sourceDir: sourceDir,
		buildDir:  buildDir,
		defines:   make(map[string]defineValue),
		runner:    r,
	}
}

// Env sets an environment variable for every cmake invocation.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = make(map[string]string)
	}
	c.env[key] = value
}

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "Debug").
func (c *CMake) BuildType(name string) { c.buildType = name }

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) {
	v := "OFF"
	if value {
		v = "ON"
	}
	c.defines[key] = defineValue{value: v, typeName: "BOOL"}
}

// ParseDefine adds a definition written the way cmake takes it on the
// command line, KEY[:TYPE]=VALUE. BOOL values follow cmake's truth rules.
func (c *CMake) ParseDefine(s string) error {
	keyType, value, ok := strings.Cut(s, "=")
	key, typeName, _ := strings.Cut(keyType, ":")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("invalid definition %q: want KEY[:TYPE]=VALUE", s)
	}
	switch typeName = strings.ToUpper(typeName); typeName {
	case "", "STRING":
		c.Define(key, value)
	case "BOOL":
		c.DefineBool(key, truthy(value))
	default:
		c.defines[key] = defineValue{value: value, typeName: typeName}
	}
	return nil
}

func truthy(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "1", "ON", "YES", "TRUE", "Y":
		return true
	}
	return false
}

// AcceptVersion reports whether out is the output of a real cmake: longer
// than prefix and starting with it.
func AcceptVersion(out, prefix string) bool {
	return len(out) > len(prefix) && out[:len(prefix)] == prefix
}

var versionRE = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the semantic version ("v3.27.4") from
// `cmake --version` output.
func ParseVersion(out string) (string, error) {
	if !AcceptVersion(out, VersionPrefix) {
		return "", fmt.Errorf("%w: unexpected version output %q", ErrNotFound, firstLine(out))
	}
	m := versionRE.FindStringSubmatch(out[len(VersionPrefix):])
	if m == nil {
		return "", fmt.Errorf("unparsable cmake version %q", firstLine(out))
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return "v" + m[1] + "." + m[2] + "." + patch, nil
}

// Version runs `cmake --version` and validates its output. When min is set
// the reported version must be at least min.
func (c *CMake) Version(ctx context.Context, min string) (string, error) {
	res, err := c.run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	v, err := ParseVersion(res.Stdout)
	if err != nil {
		return "", err
	}
	if min != "" {
		if !strings.HasPrefix(min, "v") {
			min = "v" + min
		}
		if !semver.IsValid(min) {
			return "", fmt.Errorf("invalid minimum cmake version %q", min)
		}
		if semver.Compare(v, min) < 0 {
			return "", fmt.Errorf("cmake %s is older than required %s", v, min)
		}
	}
	return v, nil
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, args ...string) (*runner.Result, error) {
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs...)
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) (*runner.Result, error) {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, cmakeArgs...)
}

func (c *CMake) run(ctx context.Context, args ...string) (*runner.Result, error) {
	argv := make([]string, 0, len(c.argv)+len(args))
	argv = append(argv, c.argv...)
	argv = append(argv, args...)
	return c.runner.Run(ctx, runner.Cmd{Args: argv, Env: c.env})
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
