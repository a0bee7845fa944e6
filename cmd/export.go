package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/platform"
)

type ExportConfig struct {
	Scene  string
	Shape  string
	Output string
}

func NewExportConfig() *ExportConfig {
	return &ExportConfig{}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the skin weights of a shape",
	Long: `Export the skin weights of a shape's deformer to a .weight file.

Example:
  skinio export --scene hero.scene.toml --shape body --output body
  skinio export --scene hero.scene.toml -i`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := getExportConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		return runExport(cmd.Context(), cmd, config)
	},
}

func init() {
	defaults := NewExportConfig()
	exportCmd.Flags().StringVar(&defaults.Scene, "scene", defaults.Scene, "scene document (*.scene.toml)")
	exportCmd.Flags().StringVar(&defaults.Shape, "shape", defaults.Shape, "shape or transform to export (default: current selection)")
	exportCmd.Flags().StringVarP(&defaults.Output, "output", "o", defaults.Output, "weight file to write, relative to the workspace; .weight is appended when missing")
	_ = exportCmd.MarkFlagRequired("scene")
}

func getExportConfigFromFlags(cmd *cobra.Command) (*ExportConfig, error) {
	config := NewExportConfig()
	var err error
	if config.Scene, err = cmd.Flags().GetString("scene"); err != nil {
		return nil, err
	}
	if config.Shape, err = cmd.Flags().GetString("shape"); err != nil {
		return nil, err
	}
	if config.Output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	return config, nil
}

func runExport(ctx context.Context, cmd *cobra.Command, config *ExportConfig) error {
	appConfig, err := applicationConfigFromViper()
	if err != nil {
		return err
	}
	rt, err := newRuntime(appConfig, config.Scene)
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	report, err := rt.engine.ExportToFile(ctx, config.Shape, config.Output)
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			core.LogInfo("Export cancelled.")
			return nil
		}
		return errors.Wrap(err, "export failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), platform.RenderExportReport(report))
	return nil
}
