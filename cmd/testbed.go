package cmd

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/testbed"
)

var testbedCmd = &cobra.Command{
	Use:   "testbed [dir]",
	Short: "Write sample scenes to try export and import",
	Long: `Write two sample scenes: a skinned character rigged under the 'rig' namespace,
and the same character without namespace, with one joint renamed and no deformer,
ready to receive the exported weights. A remap table for the renamed joint is
written next to them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		vertices, err := cmd.Flags().GetInt("vertices")
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		files, err := testbed.WriteSamples(dir, vertices)
		if err != nil {
			return errors.Wrap(err, "failed to write testbed")
		}
		for _, f := range files {
			core.LogInfo("Wrote '%s'.", filepath.Clean(f))
		}
		return nil
	},
}

func init() {
	testbedCmd.Flags().Int("vertices", 8, "vertex count of the sample mesh")
}
