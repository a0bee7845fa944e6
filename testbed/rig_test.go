package testbed

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets/loaders"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/math"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/scene"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

func TestSkinnedSceneWeightsSumToOne(t *testing.T) {
	s := NewSkinnedScene(9)
	require.NoError(t, s.Validate())

	sc := s.SkinCluster("skinCluster1")
	require.NotNil(t, sc)
	n := len(sc.Influences)
	for v := 0; v < 9; v++ {
		assert.True(t, math.NearlyEqual(math.Sum(sc.Weights[n*v:n*v+n]), 1.0, math.K_WEIGHT_EPSILON), "vertex %d", v)
	}
	assert.Equal(t, 1.0, sc.Weights[0], "first vertex follows the root")
	assert.Equal(t, 1.0, sc.Weights[n*8+2], "last vertex follows the head")
}

func TestSingleVertexScene(t *testing.T) {
	s := NewSkinnedScene(1)
	require.NoError(t, s.Validate())
	assert.Equal(t, []float64{1, 0, 0}, s.SkinCluster("skinCluster1").Weights)
}

func TestWriteSamples(t *testing.T) {
	dir := t.TempDir()
	files, err := WriteSamples(dir, 4)
	require.NoError(t, err)
	require.Len(t, files, 3)

	source, err := scene.Load(filepath.Join(dir, SourceSceneFile))
	require.NoError(t, err)
	assert.Equal(t, NewSkinnedScene(4), source)

	target, err := scene.Load(filepath.Join(dir, TargetSceneFile))
	require.NoError(t, err)
	assert.Empty(t, target.SkinClusters)
	assert.Equal(t, AnimJoints, target.Skeleton)

	res, err := (&loaders.RemapLoader{}).Load(filepath.Join(dir, RemapFile), resources.ResourceTypeRemap, nil)
	require.NoError(t, err)
	assert.Equal(t, skin.StaticRemap{RigJoints[2]: AnimJoints[2]}, res.Data)

	_, err = WriteSamples(dir, 0)
	assert.Error(t, err)
}
