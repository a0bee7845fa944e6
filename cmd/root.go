// Package cmd wires the skinio command line: export, import, inspect, list and testbed.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "skinio",
	Short: "Vertex based skin weight IO",
	Long: `Export and import per-vertex skin weights of a deformed mesh.

Compared to UV based skin exporters, skinio stores weights by vertex ID, keyed by
influence name, so weights can be backed up or moved to a scene with a different
namespace or a renamed joint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return core.SetLogLevel(viper.GetString("log-level"))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := engine.DefaultApplicationConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./skinio.toml or $HOME/.skinio/skinio.toml)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String("workspace", defaults.Workspace, "workspace root, default location of weight files")
	flags.BoolP("interactive", "i", defaults.Interactive, "ask how to remap unmatched influences and which files to use")
	flags.String("remap", "", "remap table (*.remap.toml, relative to the workspace) answering remap questions before any prompt")
	flags.String("unresolved", string(defaults.UnresolvedPolicy), "unresolved influences: drop or fail")
	flags.String("missing", string(defaults.MissingInfluencePolicy), "deformer influences absent from the file: zero, preserve or error")

	// --log_level and --log-level are the same flag
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	for _, name := range []string{"log-level", "workspace", "interactive", "remap", "unresolved", "missing"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(exportCmd, importCmd, inspectCmd, listCmd, testbedCmd)
}

func initConfig() {
	viper.SetEnvPrefix("SKINIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("skinio")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".skinio"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			core.LogWarn("failed to read config: %s", err)
		}
		return
	}
	core.LogDebug("Using config file '%s'.", viper.ConfigFileUsed())
}

// applicationConfigFromViper merges flags, environment and config file into an engine config.
func applicationConfigFromViper() (*engine.ApplicationConfig, error) {
	config := engine.DefaultApplicationConfig()
	config.LogLevel = viper.GetString("log-level")
	config.Workspace = viper.GetString("workspace")
	config.Interactive = viper.GetBool("interactive")
	config.RemapFile = viper.GetString("remap")

	unresolved, err := skin.ParseUnresolvedPolicy(viper.GetString("unresolved"))
	if err != nil {
		return nil, err
	}
	config.UnresolvedPolicy = unresolved
	missing, err := engine.ParseMissingInfluencePolicy(viper.GetString("missing"))
	if err != nil {
		return nil, err
	}
	config.MissingInfluencePolicy = missing

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return config, nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
