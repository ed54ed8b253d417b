// Package platform maps a host operating system to the external tools the
// triggers invoke and the way each one is called.
//
// Command templates are shell words: they are split with shell quoting rules
// and may reference variables ($NAME, "${NAME}"). Windows paths inside a
// command template must be single-quoted because a backslash escapes the
// next character. Path templates are expanded with $VAR references only and
// keep backslashes verbatim.
package platform

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ErrUnsupportedPlatform is returned for a platform missing from the table
// or lacking the section a trigger needs.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Template variables.
const (
	VarWorkDir       = "WORKDIR"
	VarType          = "TYPE"
	VarName          = "NAME"
	VarConfiguration = "CONFIGURATION"
	VarProjucer      = "PROJUCER"
	VarJucer         = "JUCER"
	VarProject       = "PROJECT"
	VarTarget        = "TARGET"
)

// CMake locates the build-system generator.
type CMake struct {
	Command string `mapstructure:"command"` // command template, e.g. cmake
	Path    string `mapstructure:"path"`    // directories appended to PATH
	Hint    string `mapstructure:"hint"`    // posted when the version check fails
}

// FollowUp is the step run after the Projucer resaved a project.
//
// $TARGET is the build folder of Exporter as named by the project file's
// targetFolder attribute, or Target when the project file does not name one.
type FollowUp struct {
	Exporter string `mapstructure:"exporter"` // project file exporter, e.g. XCODE_MAC
	Target   string `mapstructure:"target"`   // fallback build folder path template
	Project  string `mapstructure:"project"`  // path template of the generated project
	Command  string `mapstructure:"command"`  // command template, may use $PROJECT
	Probe    string `mapstructure:"probe"`    // program that must be on PATH first
}

// Export holds the Projucer invocation for a platform.
type Export struct {
	Projucer string              `mapstructure:"projucer"` // path template
	Resave   string              `mapstructure:"resave"`   // command template
	FollowUp FollowUp            `mapstructure:"followup"`
	ByType   map[string]FollowUp `mapstructure:"by_type"` // follow-up per plugin type
}

// Tools is the per-platform configuration row.
type Tools struct {
	CMake  CMake   `mapstructure:"cmake"`
	Export *Export `mapstructure:"export"`
}

// Table maps a GOOS value to its tools.
type Table map[string]Tools

const darwinPath = "/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin"

// Default returns the built-in table.
func Default() Table {
	return Table{
		"darwin": {
			CMake: CMake{
				Command: "cmake",
				Path:    darwinPath,
				Hint:    "CMake was not found in the path: " + darwinPath,
			},
			Export: &Export{
				Projucer: "$WORKDIR/Projucer/Projucer.app",
				Resave:   `open -n -W "$PROJUCER" --args --resave "$JUCER"`,
				FollowUp: FollowUp{
					Exporter: "XCODE_MAC",
					Target:   "$WORKDIR/$TYPE-Builds/MacOSX",
					Project:  "$TARGET/$NAME.xcodeproj",
					Command:  `xcodebuild -project "$PROJECT" -configuration "$CONFIGURATION"`,
					Probe:    "xcodebuild",
				},
				ByType: map[string]FollowUp{
					"ios": {
						Exporter: "XCODE_IPHONE",
						Target:   "$WORKDIR/App-Builds/iOS",
						Project:  "$TARGET/$NAME.xcodeproj",
						Command:  `open -a Xcode "$PROJECT"`,
					},
				},
			},
		},
		"windows": {
			CMake: CMake{
				Command: `'C:\CMake\bin\cmake.exe'`,
				Hint:    `CMake was not found at C:\CMake\bin\cmake.exe`,
			},
			Export: &Export{
				Projucer: `$WORKDIR\Projucer\Projucer.exe`,
				Resave:   `"$PROJUCER" --resave "$JUCER"`,
				FollowUp: FollowUp{
					Exporter: "VS2019",
					Target:   `$WORKDIR\$TYPE-Builds\VisualStudio2019`,
					Project:  `$TARGET\`,
					Command:  `explorer "$PROJECT"`,
				},
			},
		},
		"linux": {
			CMake: CMake{
				Command: "cmake",
				Hint:    "CMake was not found in PATH",
			},
		},
	}
}

// Lookup returns the tools for goos.
func (t Table) Lookup(goos string) (Tools, error) {
	tools, ok := t[goos]
	if !ok {
		return Tools{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	return tools, nil
}

// ExportTools returns the export section for goos.
func (t Table) ExportTools(goos string) (*Export, error) {
	tools, err := t.Lookup(goos)
	if err != nil {
		return nil, err
	}
	if tools.Export == nil {
		return nil, fmt.Errorf("%w: %s has no project export", ErrUnsupportedPlatform, goos)
	}
	return tools.Export, nil
}

// FollowUpFor returns the follow-up for a plugin type, falling back to the
// platform default.
func (e *Export) FollowUpFor(pluginType string) FollowUp {
	if f, ok := e.ByType[strings.ToLower(pluginType)]; ok {
		return f
	}
	return e.FollowUp
}

// Merge returns a copy of t with the non-empty fields of over applied.
func (t Table) Merge(over Table) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	for goos, o := range over {
		cur := out[goos]
		cur.CMake.Command = pick(o.CMake.Command, cur.CMake.Command)
		cur.CMake.Path = pick(o.CMake.Path, cur.CMake.Path)
		cur.CMake.Hint = pick(o.CMake.Hint, cur.CMake.Hint)
		if o.Export != nil {
			var e Export
			if cur.Export != nil {
				e = *cur.Export
			}
			e.Projucer = pick(o.Export.Projucer, e.Projucer)
			e.Resave = pick(o.Export.Resave, e.Resave)
			e.FollowUp = mergeFollowUp(o.Export.FollowUp, e.FollowUp)
			byType := make(map[string]FollowUp, len(e.ByType)+len(o.Export.ByType))
			for k, v := range e.ByType {
				byType[k] = v
			}
			for k, v := range o.Export.ByType {
				k = strings.ToLower(k)
				byType[k] = mergeFollowUp(v, byType[k])
			}
			e.ByType = byType
			cur.Export = &e
		}
		out[goos] = cur
	}
	return out
}

func mergeFollowUp(o, cur FollowUp) FollowUp {
	cur.Exporter = pick(o.Exporter, cur.Exporter)
	cur.Target = pick(o.Target, cur.Target)
	cur.Project = pick(o.Project, cur.Project)
	cur.Command = pick(o.Command, cur.Command)
	cur.Probe = pick(o.Probe, cur.Probe)
	return cur
}

func pick(v, dflt string) string {
	if v != "" {
		return v
	}
	return dflt
}

// Validate checks that every command template of every platform parses and
// names a program.
func (t Table) Validate() error {
	goosList := make([]string, 0, len(t))
	for goos := range t {
		goosList = append(goosList, goos)
	}
	sort.Strings(goosList)

	var errs []error
	for _, goos := range goosList {
		tools := t[goos]
		check := func(field, tmpl string) {
			if err := validateCommand(tmpl); err != nil {
				errs = append(errs, fmt.Errorf("platform %s: %s: %w", goos, field, err))
			}
		}
		check("cmake.command", tools.CMake.Command)
		if e := tools.Export; e != nil {
			if e.Projucer == "" {
				errs = append(errs, fmt.Errorf("platform %s: export.projucer: empty path", goos))
			}
			check("export.resave", e.Resave)
			// A follow-up is optional.
			if e.FollowUp.Command != "" {
				check("export.followup.command", e.FollowUp.Command)
			}
			for typ, f := range e.ByType {
				if f.Command != "" {
					check("export.by_type."+typ+".command", f.Command)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validateCommand(tmpl string) error {
	if strings.TrimSpace(tmpl) == "" {
		return errors.New("empty command")
	}
	args, err := shell.Fields(tmpl, func(string) string { return "x" })
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "" {
		return errors.New("command names no program")
	}
	return nil
}

// Vars binds template variables.
type Vars map[string]string

func (v Vars) lookup(name string) string { return v[name] }

// Command splits a command template into argv.
func Command(tmpl string, vars Vars) ([]string, error) {
	args, err := shell.Fields(tmpl, vars.lookup)
	if err != nil {
		return nil, fmt.Errorf("invalid command template %q: %w", tmpl, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("invalid command template %q: empty", tmpl)
	}
	return args, nil
}

// Path expands a path template.
func Path(tmpl string, vars Vars) string {
	return os.Expand(tmpl, vars.lookup)
}
