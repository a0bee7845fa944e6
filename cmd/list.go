package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List weight files, scenes and remap tables in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := applicationConfigFromViper()
		if err != nil {
			return err
		}
		am, err := assets.NewAssetManager()
		if err != nil {
			return err
		}
		defer am.Shutdown()
		if err := am.Initialize(appConfig.Workspace); err != nil {
			return errors.Wrapf(err, "failed to index workspace '%s'", appConfig.Workspace)
		}

		for _, info := range am.List(resources.ResourceTypeNone) {
			path := info.Path
			if rel, err := filepath.Rel(am.Root(), path); err == nil {
				path = rel
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s  %s\n", info.Type, info.Modified.Format("2006-01-02 15:04"), path)
		}
		return nil
	},
}
