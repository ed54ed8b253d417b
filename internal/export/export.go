// Package export implements the export trigger: rewrite a Projucer template
// with the plugin metadata, resave it into native IDE projects and run the
// platform follow-up.
package export

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/c74/jucegen/internal/hostdict"
	"github.com/c74/jucegen/internal/jucer"
	"github.com/c74/jucegen/internal/platform"
	"github.com/c74/jucegen/internal/post"
	"github.com/c74/jucegen/internal/runner"
)

// ProjucerDir holds the templates, relative to the work directory.
const ProjucerDir = "Projucer"

// DefaultConfiguration is built when the arguments name none.
const DefaultConfiguration = "Debug"

// Options configures one export trigger.
type Options struct {
	WorkDir  string
	Platform string
	Tools    platform.Table
	Dicts    hostdict.Source
	DictName string

	Runner   runner.Runner
	LookPath func(file string) (string, error)
	Poster   post.Poster
}

// Result describes what an export produced.
type Result struct {
	Type     jucer.PluginType
	Name     string
	Template string // template read
	Output   string // project file written
	FollowUp error  // non-fatal follow-up failure, if any
}

// Trigger runs the export once.
func Trigger(ctx context.Context, opts Options) (*Result, error) {
	p := opts.Poster
	dictName := opts.DictName
	if dictName == "" {
		dictName = hostdict.DefaultName
	}
	dict, err := opts.Dicts.Dict(ctx, dictName)
	if err != nil {
		post.Errorf(p, "%v", err)
		return nil, err
	}
	args := hostdict.Decode(dict)
	if args.Configuration == "" {
		args.Configuration = DefaultConfiguration
	}

	p.Post(post.Info, opts.WorkDir)
	post.Infof(p, "%+v", args)

	typ, err := jucer.ParsePluginType(args.Type)
	if err != nil {
		post.Warnf(p, "Invalid export type: %q", args.Type)
		return nil, err
	}
	tools, err := opts.Tools.ExportTools(opts.Platform)
	if err != nil {
		post.Errorf(p, "%v", err)
		return nil, err
	}

	res := &Result{
		Type:     typ,
		Name:     jucer.ResolveName(args.Name, typ),
		Template: filepath.Join(opts.WorkDir, ProjucerDir, jucer.TemplateName(typ)),
	}
	res.Output = jucer.OutputPath(res.Template)

	post.Infof(p, "Using .jucer file: %s", res.Template)
	doc, err := jucer.Load(res.Template)
	if err != nil {
		post.Errorf(p, "%v", err)
		return nil, err
	}
	for _, tag := range jucer.Exporters {
		if folder, ok := doc.TargetFolder(tag); ok {
			post.Infof(p, "%s exports to %s", tag, folder)
		}
	}
	if err := doc.Apply(jucer.Metadata{Name: res.Name, ChannelConfigs: args.ChannelConf}); err != nil {
		post.Errorf(p, "%v", err)
		return nil, err
	}
	if err := doc.WriteFile(res.Output); err != nil {
		post.Errorf(p, "%v", err)
		return nil, err
	}
	post.Infof(p, "New .jucer file written to %s", res.Output)

	vars := platform.Vars{
		platform.VarWorkDir:       opts.WorkDir,
		platform.VarType:          string(typ),
		platform.VarName:          res.Name,
		platform.VarConfiguration: args.Configuration,
		platform.VarJucer:         res.Output,
	}
	vars[platform.VarProjucer] = platform.Path(tools.Projucer, vars)

	if err := resave(ctx, opts, tools, vars); err != nil {
		return res, err
	}
	f := tools.FollowUpFor(string(typ))
	vars[platform.VarTarget] = platform.Path(f.Target, vars)
	if dir := buildFolder(doc, f.Exporter, res.Output, opts.Platform == "windows"); dir != "" {
		vars[platform.VarTarget] = dir
	}
	res.FollowUp = followUp(ctx, opts, f, vars)
	return res, nil
}

// buildFolder returns the targetFolder of exporter resolved against the
// directory of the project file, the way the Projucer resolves it, or ""
// when the document names none. Windows results use backslashes.
func buildFolder(doc *jucer.Document, exporter, jucerPath string, windows bool) string {
	if exporter == "" {
		return ""
	}
	folder, ok := doc.TargetFolder(exporter)
	if !ok || strings.TrimSpace(folder) == "" {
		return ""
	}
	folder = strings.ReplaceAll(folder, `\`, "/")
	if !path.IsAbs(folder) && !hasVolume(folder) {
		base := path.Dir(strings.ReplaceAll(jucerPath, `\`, "/"))
		folder = path.Join(base, folder)
	} else {
		folder = path.Clean(folder)
	}
	if windows {
		folder = strings.ReplaceAll(folder, "/", `\`)
	}
	return folder
}

func hasVolume(p string) bool {
	return len(p) >= 2 && p[1] == ':'
}

func resave(ctx context.Context, opts Options, tools *platform.Export, vars platform.Vars) error {
	argv, err := platform.Command(tools.Resave, vars)
	if err != nil {
		post.Errorf(opts.Poster, "%v", err)
		return err
	}
	cmd := runner.Cmd{Args: argv, Dir: opts.WorkDir}
	opts.Poster.Post(post.Info, cmd.String())
	out, err := opts.Runner.Run(ctx, cmd)
	if out != nil && out.Stdout != "" {
		opts.Poster.Post(post.Info, out.Stdout)
	}
	if err != nil {
		post.Errorf(opts.Poster, "Failed to resave project: %v", err)
		return fmt.Errorf("resave failed: %w", err)
	}
	return nil
}

// followUp builds or reveals the generated project. Failures are posted as
// information and returned without aborting the export.
func followUp(ctx context.Context, opts Options, f platform.FollowUp, vars platform.Vars) error {
	if f.Command == "" {
		return nil
	}
	vars[platform.VarProject] = platform.Path(f.Project, vars)

	if f.Probe != "" {
		lookPath := opts.LookPath
		if lookPath == nil {
			lookPath = runner.LookPath
		}
		if _, err := lookPath(f.Probe); err != nil {
			post.Infof(opts.Poster, "Could not locate '%s', which is necessary to build the generated project. Make sure it is installed.", f.Probe)
			return err
		}
	}

	argv, err := platform.Command(f.Command, vars)
	if err != nil {
		opts.Poster.Post(post.Info, err.Error())
		return err
	}
	cmd := runner.Cmd{Args: argv, Dir: opts.WorkDir}
	opts.Poster.Post(post.Info, cmd.String())
	out, err := opts.Runner.Run(ctx, cmd)
	if out != nil && out.Stdout != "" {
		opts.Poster.Post(post.Info, out.Stdout)
	}
	if err != nil {
		opts.Poster.Post(post.Info, err.Error())
		return err
	}
	return nil
}
