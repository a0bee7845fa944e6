package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/platform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file.weight...]",
	Short: "Summarize weight files",
	Long: `Print the deformer name, settings, vertex and influence counts of weight files,
along with how many vertices have weights that do not sum to one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		am, err := assets.NewAssetManager()
		if err != nil {
			return err
		}
		defer am.Shutdown()

		for i, path := range args {
			record, err := am.LoadWeights(path)
			if err != nil {
				return errors.Wrapf(err, "failed to inspect '%s'", path)
			}
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), platform.RenderRecord(path, record))
		}
		return nil
	},
}
