package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/scene"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/testbed"
)

// useWorkspace points the shared viper config at a fresh workspace holding the testbed samples.
func useWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := testbed.WriteSamples(dir, 5)
	require.NoError(t, err)

	settings := map[string]interface{}{
		"workspace":   dir,
		"interactive": false,
		"remap":       "",
		"unresolved":  string(skin.UnresolvedDrop),
		"missing":     string(engine.MissingInfluenceZero),
	}
	for key, value := range settings {
		viper.Set(key, value)
	}
	t.Cleanup(func() {
		defaults := engine.DefaultApplicationConfig()
		viper.Set("workspace", defaults.Workspace)
		viper.Set("interactive", defaults.Interactive)
		viper.Set("remap", "")
		viper.Set("unresolved", string(defaults.UnresolvedPolicy))
		viper.Set("missing", string(defaults.MissingInfluencePolicy))
	})
	return dir
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestApplicationConfigFromViper(t *testing.T) {
	dir := useWorkspace(t)
	viper.Set("missing", "Preserve")
	viper.Set("unresolved", "fail")

	config, err := applicationConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, dir, config.Workspace)
	assert.Equal(t, engine.MissingInfluencePreserve, config.MissingInfluencePolicy)
	assert.Equal(t, skin.UnresolvedFail, config.UnresolvedPolicy)

	viper.Set("missing", "keep")
	_, err = applicationConfigFromViper()
	assert.Error(t, err)
}

func TestGetImportConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(importCmd.Flags())
	t.Cleanup(func() {
		for _, name := range []string{"scene", "shape", "input", "save-scene"} {
			_ = importCmd.Flags().Set(name, "")
		}
		_ = importCmd.Flags().Set("dry-run", "false")
	})

	require.NoError(t, cmd.ParseFlags([]string{"--scene", "hero.scene.toml", "--input", "hero.weight", "--dry-run"}))
	config, err := getImportConfigFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, &ImportConfig{
		Scene:     "hero.scene.toml",
		Input:     "hero.weight",
		SaveScene: "hero.scene.toml",
		DryRun:    true,
	}, config)
}

func TestGetExportConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(exportCmd.Flags())
	t.Cleanup(func() {
		for _, name := range []string{"scene", "shape", "output"} {
			_ = exportCmd.Flags().Set(name, "")
		}
	})

	require.NoError(t, cmd.ParseFlags([]string{"--scene", "hero.scene.toml", "--shape", "body", "-o", "hero"}))
	config, err := getExportConfigFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, &ExportConfig{Scene: "hero.scene.toml", Shape: "body", Output: "hero"}, config)
}

func TestExportThenImport(t *testing.T) {
	dir := useWorkspace(t)
	ctx := context.Background()

	cmd, out := testCommand()
	err := runExport(ctx, cmd, &ExportConfig{
		Scene:  filepath.Join(dir, testbed.SourceSceneFile),
		Shape:  "body",
		Output: "hero",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "skinCluster1")
	_, err = os.Stat(filepath.Join(dir, "hero.weight"))
	require.NoError(t, err)

	// resolved against the workspace
	viper.Set("remap", testbed.RemapFile)
	saved := filepath.Join(dir, "result.scene.toml")
	cmd, out = testCommand()
	err = runImport(ctx, cmd, &ImportConfig{
		Scene:     filepath.Join(dir, testbed.TargetSceneFile),
		Shape:     "body",
		Input:     "hero.weight",
		SaveScene: saved,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(created)")

	result, err := scene.Load(saved)
	require.NoError(t, err)
	sc := result.SkinCluster("skinCluster1")
	require.NotNil(t, sc)
	assert.Equal(t, testbed.AnimJoints, sc.Influences)
	assert.Equal(t, testbed.NewSkinnedScene(5).SkinCluster("skinCluster1").Weights, sc.Weights)
}

func TestImportDryRunLeavesSceneAlone(t *testing.T) {
	dir := useWorkspace(t)
	ctx := context.Background()

	cmd, _ := testCommand()
	require.NoError(t, runExport(ctx, cmd, &ExportConfig{
		Scene:  filepath.Join(dir, testbed.SourceSceneFile),
		Output: "hero",
	}))

	target := filepath.Join(dir, testbed.TargetSceneFile)
	before, err := os.ReadFile(target)
	require.NoError(t, err)

	cmd, out := testCommand()
	require.NoError(t, runImport(ctx, cmd, &ImportConfig{
		Scene:     target,
		Input:     "hero.weight",
		SaveScene: target,
		DryRun:    true,
	}))
	// without the remap table the renamed head joint is dropped
	assert.Contains(t, out.String(), "dropped")

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImportVertexMismatchFails(t *testing.T) {
	dir := useWorkspace(t)
	ctx := context.Background()

	cmd, _ := testCommand()
	require.NoError(t, runExport(ctx, cmd, &ExportConfig{
		Scene:  filepath.Join(dir, testbed.SourceSceneFile),
		Output: "hero",
	}))

	target := filepath.Join(dir, "small.scene.toml")
	require.NoError(t, testbed.NewUnboundScene(3).Save(target))

	cmd, _ = testCommand()
	err := runImport(ctx, cmd, &ImportConfig{Scene: target, Input: "hero.weight", SaveScene: target})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex counts do not match")
}

func TestInspectCommand(t *testing.T) {
	dir := useWorkspace(t)
	cmd, _ := testCommand()
	require.NoError(t, runExport(context.Background(), cmd, &ExportConfig{
		Scene:  filepath.Join(dir, testbed.SourceSceneFile),
		Output: "hero",
	}))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"inspect", filepath.Join(dir, "hero.weight")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "skinCluster1")
	assert.Contains(t, out.String(), "unnormalized")
}

func TestRuntimeKeepsInteractiveSetting(t *testing.T) {
	dir := useWorkspace(t)
	viper.Set("remap", testbed.RemapFile)

	config, err := applicationConfigFromViper()
	require.NoError(t, err)
	rt, err := newRuntime(config, filepath.Join(dir, testbed.TargetSceneFile))
	require.NoError(t, err)
	defer rt.Shutdown()

	assert.False(t, config.Interactive, "a remap table does not turn on prompts")
	assert.Equal(t, testbed.RemapFile, config.RemapFile)
}

func TestRuntimeRejectsMissingRemapTable(t *testing.T) {
	dir := useWorkspace(t)
	viper.Set("remap", "nowhere.remap.toml")

	config, err := applicationConfigFromViper()
	require.NoError(t, err)
	_, err = newRuntime(config, filepath.Join(dir, testbed.TargetSceneFile))
	assert.Error(t, err)
}
