// Package scene is a file backed stand-in for the modeling application. A scene
// document lists joints, mesh shapes and the skin clusters binding them, which is
// all weight transfer needs to see of a host.
package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
	"golang.org/x/exp/slices"
)

var _ engine.Host = (*Scene)(nil)

type Mesh struct {
	// Name of the shape node.
	Name string `toml:"name"`
	// Transform is the parent transform node.
	Transform string `toml:"transform"`
	Vertices  int    `toml:"vertices"`
	// Intermediate shapes feed deformation history and are never selected.
	Intermediate bool `toml:"intermediate,omitempty"`
}

type SkinCluster struct {
	Name       string   `toml:"name"`
	Shape      string   `toml:"shape"`
	Influences []string `toml:"influences"`
	// Weights is the flat buffer, weights[influence + len(influences)*vertex].
	Weights          []float64 `toml:"weights"`
	BlendWeights     []float64 `toml:"blendWeights"`
	SkinningMethod   int       `toml:"skinningMethod"`
	NormalizeWeights int       `toml:"normalizeWeights"`
}

type Scene struct {
	Selection    []string       `toml:"selection"`
	Skeleton     []string       `toml:"joints"`
	Meshes       []*Mesh        `toml:"meshes"`
	SkinClusters []*SkinCluster `toml:"skinClusters"`
}

func New() *Scene {
	return &Scene{}
}

// Shape resolves a transform or shape name, or the first selected node when
// selection is empty, to a non-intermediate mesh shape.
func (s *Scene) Shape(selection string) (string, error) {
	if selection == "" {
		if len(s.Selection) == 0 {
			return "", &core.NoSelectionError{}
		}
		selection = s.Selection[0]
	}
	for _, m := range s.Meshes {
		if m.Name == selection && !m.Intermediate {
			return m.Name, nil
		}
	}
	for _, m := range s.Meshes {
		if m.Transform == selection && !m.Intermediate {
			return m.Name, nil
		}
	}
	return s.shapeByShortName(selection)
}

// shapeByShortName matches the leaf of a namespaced or partial path such as
// "rig:body" or "|grp|body". More than one candidate is an error.
func (s *Scene) shapeByShortName(selection string) (string, error) {
	short := skin.ShortName(selection)
	var candidates []string
	for _, m := range s.Meshes {
		if m.Intermediate {
			continue
		}
		if skin.ShortName(m.Name) == short || (m.Transform != "" && skin.ShortName(m.Transform) == short) {
			candidates = append(candidates, m.Name)
		}
	}
	switch len(candidates) {
	case 0:
		return "", &core.NoSelectionError{Selection: selection}
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: '%s' matches shapes %s", core.ErrNoSelection, selection, strings.Join(candidates, ", "))
	}
}

func (s *Scene) DeformerFor(shape string) (string, bool, error) {
	if s.mesh(shape) == nil {
		return "", false, &core.NoSelectionError{Selection: shape}
	}
	for _, sc := range s.SkinClusters {
		if sc.Shape == shape {
			return sc.Name, true, nil
		}
	}
	return "", false, nil
}

// CreateDeformer binds the influences to the shape with zero weights. The name is
// made unique by bumping its trailing number.
func (s *Scene) CreateDeformer(influences []string, shape, name string) (string, error) {
	m := s.mesh(shape)
	if m == nil {
		return "", &core.NoSelectionError{Selection: shape}
	}
	if _, ok, _ := s.DeformerFor(shape); ok {
		return "", fmt.Errorf("shape '%s' already has a deformer", shape)
	}
	if len(influences) == 0 {
		return "", fmt.Errorf("a deformer needs at least one influence")
	}
	for _, influence := range influences {
		if !slices.Contains(s.Skeleton, influence) {
			return "", fmt.Errorf("influence '%s' is not a joint of the scene", influence)
		}
	}
	if name == "" {
		name = "skinCluster1"
	}
	name = s.uniqueName(name)
	s.SkinClusters = append(s.SkinClusters, &SkinCluster{
		Name:         name,
		Shape:        shape,
		Influences:   slices.Clone(influences),
		Weights:      make([]float64, len(influences)*m.Vertices),
		BlendWeights: make([]float64, m.Vertices),
	})
	core.LogDebug("Created deformer '%s' on '%s' with %d influences.", name, shape, len(influences))
	return name, nil
}

func (s *Scene) ReadDeformerWeights(deformer string) ([]string, []float64, []float64, error) {
	sc := s.skinCluster(deformer)
	if sc == nil {
		return nil, nil, nil, fmt.Errorf("no deformer named '%s'", deformer)
	}
	return slices.Clone(sc.Influences), slices.Clone(sc.Weights), slices.Clone(sc.BlendWeights), nil
}

func (s *Scene) WriteDeformerWeights(deformer string, weights []float64, blendWeights []float64) error {
	sc := s.skinCluster(deformer)
	if sc == nil {
		return fmt.Errorf("no deformer named '%s'", deformer)
	}
	m := s.mesh(sc.Shape)
	if m == nil {
		return fmt.Errorf("deformer '%s' is bound to missing shape '%s'", deformer, sc.Shape)
	}
	if len(weights) != len(sc.Influences)*m.Vertices {
		return fmt.Errorf("deformer '%s' expects %d weights, got %d", deformer, len(sc.Influences)*m.Vertices, len(weights))
	}
	if len(blendWeights) != m.Vertices {
		return fmt.Errorf("deformer '%s' expects %d blend weights, got %d", deformer, m.Vertices, len(blendWeights))
	}
	sc.Weights = slices.Clone(weights)
	sc.BlendWeights = slices.Clone(blendWeights)
	return nil
}

func (s *Scene) Setting(deformer, key string) (int, error) {
	sc := s.skinCluster(deformer)
	if sc == nil {
		return 0, fmt.Errorf("no deformer named '%s'", deformer)
	}
	switch key {
	case skin.SettingSkinningMethod:
		return sc.SkinningMethod, nil
	case skin.SettingNormalizeWeights:
		return sc.NormalizeWeights, nil
	default:
		return 0, fmt.Errorf("deformer '%s' has no setting '%s'", deformer, key)
	}
}

func (s *Scene) SetSetting(deformer, key string, value int) error {
	sc := s.skinCluster(deformer)
	if sc == nil {
		return fmt.Errorf("no deformer named '%s'", deformer)
	}
	switch key {
	case skin.SettingSkinningMethod:
		sc.SkinningMethod = value
	case skin.SettingNormalizeWeights:
		sc.NormalizeWeights = value
	default:
		return fmt.Errorf("deformer '%s' has no setting '%s'", deformer, key)
	}
	return nil
}

func (s *Scene) VertexCount(shape string) (int, error) {
	m := s.mesh(shape)
	if m == nil {
		return 0, &core.NoSelectionError{Selection: shape}
	}
	return m.Vertices, nil
}

func (s *Scene) Joints() ([]string, error) {
	return slices.Clone(s.Skeleton), nil
}

// SkinCluster returns the named skin cluster or nil.
func (s *Scene) SkinCluster(name string) *SkinCluster {
	return s.skinCluster(name)
}

func (s *Scene) mesh(name string) *Mesh {
	for _, m := range s.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (s *Scene) skinCluster(name string) *SkinCluster {
	for _, sc := range s.SkinClusters {
		if sc.Name == name {
			return sc
		}
	}
	return nil
}

func (s *Scene) uniqueName(name string) string {
	if s.skinCluster(name) == nil {
		return name
	}
	base := name
	for len(base) > 0 && base[len(base)-1] >= '0' && base[len(base)-1] <= '9' {
		base = base[:len(base)-1]
	}
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if s.skinCluster(candidate) == nil {
			return candidate
		}
	}
}
