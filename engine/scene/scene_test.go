package scene

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

func sampleScene() *Scene {
	return &Scene{
		Selection: []string{"body"},
		Skeleton:  []string{"Root", "Root|Spine"},
		Meshes: []*Mesh{
			{Name: "bodyShape", Transform: "body", Vertices: 2},
			{Name: "bodyShapeOrig", Transform: "body", Vertices: 2, Intermediate: true},
			{Name: "propShape", Transform: "prop", Vertices: 3},
		},
		SkinClusters: []*SkinCluster{{
			Name:           "skinCluster1",
			Shape:          "bodyShape",
			Influences:     []string{"Root", "Root|Spine"},
			Weights:        []float64{1, 0, 0.5, 0.5},
			BlendWeights:   []float64{0, 1},
			SkinningMethod: int(skin.SkinningMethodDualQuaternion),
		}},
	}
}

func TestShape(t *testing.T) {
	s := sampleScene()
	tests := []struct {
		selection string
		want      string
	}{
		{selection: "", want: "bodyShape"},
		{selection: "body", want: "bodyShape"},
		{selection: "bodyShape", want: "bodyShape"},
		{selection: "prop", want: "propShape"},
	}
	for _, tt := range tests {
		got, err := s.Shape(tt.selection)
		require.NoError(t, err, tt.selection)
		assert.Equal(t, tt.want, got)
	}

	_, err := s.Shape("bodyShapeOrig")
	assert.True(t, errors.Is(err, core.ErrNoSelection))
	_, err = s.Shape("nothing")
	assert.True(t, errors.Is(err, core.ErrNoSelection))

	s.Selection = nil
	_, err = s.Shape("")
	assert.True(t, errors.Is(err, core.ErrNoSelection))
}

func TestShapeByShortName(t *testing.T) {
	s := sampleScene()
	s.Meshes = append(s.Meshes, &Mesh{Name: "rig:armShape", Transform: "rig:arm", Vertices: 1})

	tests := []struct {
		selection string
		want      string
	}{
		{selection: "rig:body", want: "bodyShape"},
		{selection: "|grp|body", want: "bodyShape"},
		{selection: "|grp|rig:bodyShape", want: "bodyShape"},
		{selection: "arm", want: "rig:armShape"},
		{selection: "char:rig:arm", want: "rig:armShape"},
	}
	for _, tt := range tests {
		got, err := s.Shape(tt.selection)
		require.NoError(t, err, tt.selection)
		assert.Equal(t, tt.want, got, tt.selection)
	}

	_, err := s.Shape("|grp|leg")
	assert.True(t, errors.Is(err, core.ErrNoSelection))

	// two shapes end in the same leaf once namespaces are stripped
	s.Meshes = append(s.Meshes, &Mesh{Name: "anim:armShape", Transform: "anim:arm", Vertices: 1})
	_, err = s.Shape("arm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoSelection))
	assert.Contains(t, err.Error(), "rig:armShape")
	assert.Contains(t, err.Error(), "anim:armShape")
}

func TestDeformerWeights(t *testing.T) {
	s := sampleScene()

	name, ok, err := s.DeformerFor("bodyShape")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "skinCluster1", name)

	_, ok, err = s.DeformerFor("propShape")
	require.NoError(t, err)
	assert.False(t, ok)

	influences, weights, blend, err := s.ReadDeformerWeights("skinCluster1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Root", "Root|Spine"}, influences)
	assert.Equal(t, []float64{1, 0, 0.5, 0.5}, weights)
	assert.Equal(t, []float64{0, 1}, blend)

	// reads hand out copies
	weights[0] = 42
	assert.Equal(t, 1.0, s.SkinCluster("skinCluster1").Weights[0])

	require.NoError(t, s.WriteDeformerWeights("skinCluster1", []float64{0, 1, 1, 0}, []float64{0.5, 0.5}))
	assert.Equal(t, []float64{0, 1, 1, 0}, s.SkinCluster("skinCluster1").Weights)
	assert.Error(t, s.WriteDeformerWeights("skinCluster1", []float64{0, 1}, []float64{0.5, 0.5}))
	assert.Error(t, s.WriteDeformerWeights("skinCluster1", []float64{0, 1, 1, 0}, []float64{0.5}))
	assert.Error(t, s.WriteDeformerWeights("skinCluster9", nil, nil))
}

func TestSettings(t *testing.T) {
	s := sampleScene()
	method, err := s.Setting("skinCluster1", skin.SettingSkinningMethod)
	require.NoError(t, err)
	assert.Equal(t, int(skin.SkinningMethodDualQuaternion), method)

	require.NoError(t, s.SetSetting("skinCluster1", skin.SettingNormalizeWeights, int(skin.NormalizeWeightsPost)))
	normalize, err := s.Setting("skinCluster1", skin.SettingNormalizeWeights)
	require.NoError(t, err)
	assert.Equal(t, int(skin.NormalizeWeightsPost), normalize)

	_, err = s.Setting("skinCluster1", "maxInfluences")
	assert.Error(t, err)
	assert.Error(t, s.SetSetting("skinCluster9", skin.SettingSkinningMethod, 0))
}

func TestCreateDeformer(t *testing.T) {
	s := sampleScene()

	name, err := s.CreateDeformer([]string{"Root|Spine"}, "propShape", "skinCluster1")
	require.NoError(t, err)
	assert.Equal(t, "skinCluster2", name)

	sc := s.SkinCluster(name)
	require.NotNil(t, sc)
	assert.Equal(t, make([]float64, 3), sc.Weights)
	assert.Equal(t, make([]float64, 3), sc.BlendWeights)

	_, err = s.CreateDeformer([]string{"Root"}, "propShape", "skinCluster1")
	assert.Error(t, err, "shape already bound")

	s.Meshes = append(s.Meshes, &Mesh{Name: "capShape", Transform: "cap", Vertices: 1})
	_, err = s.CreateDeformer([]string{"Tail"}, "capShape", "")
	assert.Error(t, err, "unknown joint")
	_, err = s.CreateDeformer(nil, "capShape", "")
	assert.Error(t, err, "no influences")

	name, err = s.CreateDeformer([]string{"Root"}, "capShape", "")
	require.NoError(t, err)
	assert.Equal(t, "skinCluster3", name)
}

func TestDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.scene.toml")
	require.NoError(t, sampleScene().Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleScene(), loaded)
}

func TestDecodeFillsEmptyBuffers(t *testing.T) {
	doc := `
selection = ["body"]
joints = ["Root"]

[[meshes]]
name = "bodyShape"
transform = "body"
vertices = 2

[[skinClusters]]
name = "skinCluster1"
shape = "bodyShape"
influences = ["Root"]
`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	sc := s.SkinCluster("skinCluster1")
	assert.Equal(t, []float64{0, 0}, sc.Weights)
	assert.Equal(t, []float64{0, 0}, sc.BlendWeights)
}

func TestDecodeRejectsInconsistentDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown key", doc: "cameras = []\n"},
		{name: "duplicate joint", doc: "joints = [\"Root\", \"Root\"]\n"},
		{name: "unbound shape", doc: `
joints = ["Root"]
[[skinClusters]]
name = "skinCluster1"
shape = "ghostShape"
influences = ["Root"]
`},
		{name: "unknown joint", doc: `
[[meshes]]
name = "bodyShape"
vertices = 1
[[skinClusters]]
name = "skinCluster1"
shape = "bodyShape"
influences = ["Root"]
`},
		{name: "weights size", doc: `
joints = ["Root"]
[[meshes]]
name = "bodyShape"
vertices = 2
[[skinClusters]]
name = "skinCluster1"
shape = "bodyShape"
influences = ["Root"]
weights = [1.0]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncodeIsReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleScene().Encode(&buf))
	assert.Contains(t, buf.String(), "Root|Spine")
	assert.Contains(t, buf.String(), "[[skinClusters]]")
}
