package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/platform"
)

type ImportConfig struct {
	Scene     string
	Shape     string
	Input     string
	SaveScene string
	DryRun    bool
}

func NewImportConfig() *ImportConfig {
	return &ImportConfig{}
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import skin weights onto a shape",
	Long: `Import a .weight file onto a shape. The shape's deformer is reused, or created
from the file when the shape has none. Influence names are matched with namespaces
stripped; unmatched influences are remapped interactively (-i), through a remap
table (--remap) or dropped.

Example:
  skinio import --scene hero.scene.toml --shape body --input body.weight
  skinio import --scene hero.scene.toml --shape body --input body.weight --remap hero.remap.toml
  skinio import --scene hero.scene.toml -i`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := getImportConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return runImport(cmd.Context(), cmd, config)
	},
}

func init() {
	defaults := NewImportConfig()
	importCmd.Flags().StringVar(&defaults.Scene, "scene", defaults.Scene, "scene document (*.scene.toml)")
	importCmd.Flags().StringVar(&defaults.Shape, "shape", defaults.Shape, "shape or transform to import onto (default: current selection)")
	importCmd.Flags().StringVar(&defaults.Input, "input", defaults.Input, "weight file to read, relative to the workspace")
	importCmd.Flags().StringVar(&defaults.SaveScene, "save-scene", defaults.SaveScene, "where to write the updated scene (default: overwrite --scene)")
	importCmd.Flags().BoolVar(&defaults.DryRun, "dry-run", defaults.DryRun, "report what would change without saving the scene")
	_ = importCmd.MarkFlagRequired("scene")
}

func getImportConfigFromFlags(cmd *cobra.Command) (*ImportConfig, error) {
	config := NewImportConfig()
	var err error
	if config.Scene, err = cmd.Flags().GetString("scene"); err != nil {
		return nil, err
	}
	if config.Shape, err = cmd.Flags().GetString("shape"); err != nil {
		return nil, err
	}
	if config.Input, err = cmd.Flags().GetString("input"); err != nil {
		return nil, err
	}
	if config.SaveScene, err = cmd.Flags().GetString("save-scene"); err != nil {
		return nil, err
	}
	if config.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return nil, err
	}
	if config.SaveScene == "" {
		config.SaveScene = config.Scene
	}
	return config, nil
}

func runImport(ctx context.Context, cmd *cobra.Command, config *ImportConfig) error {
	appConfig, err := applicationConfigFromViper()
	if err != nil {
		return err
	}
	rt, err := newRuntime(appConfig, config.Scene)
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	report, err := rt.engine.ImportFromFile(ctx, config.Shape, config.Input)
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			core.LogInfo("Import cancelled.")
			return nil
		}
		return errors.Wrap(err, "import failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), platform.RenderImportReport(report))

	if config.DryRun {
		core.LogInfo("Dry run, scene '%s' left unchanged.", config.Scene)
		return nil
	}
	if err := rt.scene.Save(config.SaveScene); err != nil {
		return errors.Wrapf(err, "failed to save scene '%s'", config.SaveScene)
	}
	core.LogInfo("Scene saved to '%s'.", config.SaveScene)
	return nil
}
