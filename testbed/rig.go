// Package testbed builds sample scenes used to try out and test weight transfer.
package testbed

import (
	"fmt"
	"path/filepath"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets/loaders"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/scene"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

const (
	SourceSceneFile = "hero_rig" + ".scene.toml"
	TargetSceneFile = "hero_anim" + ".scene.toml"
	RemapFile       = "hero" + ".remap.toml"
)

var (
	// RigJoints is the namespaced chain of the source character.
	RigJoints = []string{
		"rig:Root",
		"rig:Root|rig:Spine",
		"rig:Root|rig:Spine|rig:Head",
	}
	// AnimJoints is the same chain without namespace and with the head renamed.
	AnimJoints = []string{
		"Root",
		"Root|Spine",
		"Root|Spine|Neck",
	}
)

// NewSkinnedScene returns a character whose mesh 'bodyShape' (under transform 'body')
// is bound to RigJoints. Weights fade from root to head along the vertices and
// every vertex sums to one.
func NewSkinnedScene(vertices int) *scene.Scene {
	numInfluences := len(RigJoints)
	weights := make([]float64, numInfluences*vertices)
	blend := make([]float64, vertices)
	for v := 0; v < vertices; v++ {
		t := 0.0
		if vertices > 1 {
			t = float64(v) / float64(vertices-1)
		}
		// piecewise linear ramp over the three joints
		root, spine, head := 0.0, 0.0, 0.0
		if t < 0.5 {
			root = 1 - 2*t
			spine = 2 * t
		} else {
			spine = 2 - 2*t
			head = 2*t - 1
		}
		weights[0+numInfluences*v] = root
		weights[1+numInfluences*v] = spine
		weights[2+numInfluences*v] = head
		blend[v] = t
	}

	return &scene.Scene{
		Selection: []string{"body"},
		Skeleton:  append([]string{}, RigJoints...),
		Meshes: []*scene.Mesh{
			{Name: "bodyShape", Transform: "body", Vertices: vertices},
			{Name: "bodyShapeOrig", Transform: "body", Vertices: vertices, Intermediate: true},
		},
		SkinClusters: []*scene.SkinCluster{
			{
				Name:             "skinCluster1",
				Shape:            "bodyShape",
				Influences:       append([]string{}, RigJoints...),
				Weights:          weights,
				BlendWeights:     blend,
				SkinningMethod:   int(skin.SkinningMethodWeightBlended),
				NormalizeWeights: int(skin.NormalizeWeightsInteractive),
			},
		},
	}
}

// NewUnboundScene returns the same character bound to nothing, rigged with AnimJoints.
func NewUnboundScene(vertices int) *scene.Scene {
	return &scene.Scene{
		Selection: []string{"body"},
		Skeleton:  append([]string{}, AnimJoints...),
		Meshes: []*scene.Mesh{
			{Name: "bodyShape", Transform: "body", Vertices: vertices},
		},
	}
}

// WriteSamples writes both scenes and a remap table for the renamed joint into dir.
func WriteSamples(dir string, vertices int) ([]string, error) {
	if vertices <= 0 {
		return nil, fmt.Errorf("vertex count must be positive, got %d", vertices)
	}
	source := filepath.Join(dir, SourceSceneFile)
	if err := NewSkinnedScene(vertices).Save(source); err != nil {
		return nil, err
	}
	target := filepath.Join(dir, TargetSceneFile)
	if err := NewUnboundScene(vertices).Save(target); err != nil {
		return nil, err
	}
	remap := filepath.Join(dir, RemapFile)
	if err := loaders.SaveRemapTable(remap, skin.StaticRemap{RigJoints[2]: AnimJoints[2]}); err != nil {
		return nil, err
	}
	return []string{source, target, remap}, nil
}
