package internal

import (
	"github.com/spf13/cobra"

	"github.com/c74/jucegen/internal/build"
	"github.com/c74/jucegen/internal/runner"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the exported code with CMake",
	Long: `Build checks that CMake is installed, then configures the project in
release mode and builds it.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	flags := buildCmd.Flags()
	flags.String("source", "", "Directory holding CMakeLists.txt (default ../misc)")
	flags.String("build-dir", "", "Build directory (default ../misc/build)")
	flags.String("build-type", "", "CMAKE_BUILD_TYPE (default Release)")
	flags.String("min-cmake", "", "Minimum accepted cmake version")
	flags.StringSliceP("define", "D", nil, "Extra cache entry KEY[:TYPE]=VALUE (repeatable)")
	bindFlag(buildCmd, "source", "build.source_dir")
	bindFlag(buildCmd, "build-dir", "build.build_dir")
	bindFlag(buildCmd, "build-type", "build.type")
	bindFlag(buildCmd, "min-cmake", "cmake.min_version")
	bindFlag(buildCmd, "define", "cmake.defines")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tools, err := cfg.Tools.Lookup(cfg.Platform)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return build.Trigger(ctx, build.Options{
		Tools:      tools,
		SourceDir:  cfg.Abs(cfg.Build.SourceDir),
		BuildDir:   cfg.Abs(cfg.Build.BuildDir),
		BuildType:  cfg.Build.Type,
		MinVersion: cfg.CMake.MinVersion,
		Defines:    cfg.CMake.Defines,
		Runner:     runner.Exec{},
		Poster:     newPoster(cfg),
	})
}
