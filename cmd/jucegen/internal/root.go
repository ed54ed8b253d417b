package internal

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c74/jucegen/internal/config"
	"github.com/c74/jucegen/internal/post"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jucegen",
	Short: "jucegen builds and exports Gen plugin projects",
	Long: `jucegen drives the native plugin pipeline: it builds the exported code with
CMake and turns Projucer templates into Xcode or Visual Studio projects.`,
	SilenceUsage: true,
}

// flagKeys maps flag names to config keys, per command.
var flagKeys = map[*cobra.Command]map[string]string{}

func bindFlag(cmd *cobra.Command, flag, key string) {
	if flagKeys[cmd] == nil {
		flagKeys[cmd] = make(map[string]string)
	}
	flagKeys[cmd][flag] = key
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./jucegen.yaml)")
	flags.String("workdir", "", "Directory holding Projucer/ and the generated builds (default current directory)")
	flags.String("platform", "", "Target platform table entry (default host OS)")
	flags.String("log-level", "", "Minimum level posted: info, warn or error")
	bindFlag(rootCmd, "workdir", "workdir")
	bindFlag(rootCmd, "platform", "platform")
	bindFlag(rootCmd, "log-level", "log_level")
}

// loadConfig resolves the configuration for cmd from its flags, the
// environment and the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New(cfgFile)
	for _, c := range []*cobra.Command{rootCmd, cmd} {
		if err := bindFlags(v, c); err != nil {
			return nil, err
		}
	}
	return config.Load(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagKeys[cmd] {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func newPoster(cfg *config.Config) post.Poster {
	return post.NewLogger(os.Stderr, cfg.Level())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
