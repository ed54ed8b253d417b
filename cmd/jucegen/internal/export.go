package internal

import (
	"github.com/spf13/cobra"

	"github.com/c74/jucegen/internal/config"
	"github.com/c74/jucegen/internal/export"
	"github.com/c74/jucegen/internal/hostdict"
	"github.com/c74/jucegen/internal/runner"
)

var exportArgs hostdict.Args

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Generate the plugin project from a Projucer template",
	Long: `Export reads the plugin arguments, writes Projucer/out-<template>.jucer
with the plugin name and channel configuration, resaves it with the Projucer
and then builds (macOS) or reveals (Windows) the generated project.

Arguments come from the "args" dictionary of --args-file when given,
otherwise from the --type, --name, --channelconf and --configuration flags.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	flags := exportCmd.Flags()
	flags.String("args-file", "", "YAML or JSON file of named dictionaries")
	flags.String("dict", "", "Dictionary to read from --args-file (default args)")
	flags.StringVar(&exportArgs.Type, "type", "VST3", "Plugin type: VST3, AU or iOS")
	flags.StringVar(&exportArgs.Name, "name", "", "Plugin name (default C74-Gen-<type>Plugin)")
	flags.StringVar(&exportArgs.ChannelConf, "channelconf", "{1,1}, {2,2}", "Plugin channel configuration")
	flags.StringVar(&exportArgs.Configuration, "configuration", "Debug", "Build configuration (Debug/Release)")
	bindFlag(exportCmd, "args-file", "dict.file")
	bindFlag(exportCmd, "dict", "dict.name")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, err = export.Trigger(ctx, export.Options{
		WorkDir:  cfg.WorkDir,
		Platform: cfg.Platform,
		Tools:    cfg.Tools,
		Dicts:    dictSource(cfg, exportArgs),
		DictName: cfg.Dict.Name,
		Runner:   runner.Exec{},
		LookPath: runner.LookPath,
		Poster:   newPoster(cfg),
	})
	return err
}

// dictSource returns the configured dictionary file, or a single in-memory
// dictionary built from flags.
func dictSource(cfg *config.Config, flagArgs hostdict.Args) hostdict.Source {
	if cfg.Dict.File != "" {
		return hostdict.FileSource{Path: cfg.Abs(cfg.Dict.File)}
	}
	return hostdict.MapSource{cfg.Dict.Name: flagArgs.Map()}
}
