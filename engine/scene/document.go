package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
)

// Load reads a scene document from disk.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load scene '%s': %w", path, err)
	}
	return s, nil
}

// Save writes the scene document to disk.
func (s *Scene) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func Decode(r io.Reader) (*Scene, error) {
	s := New()
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) Encode(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	encoder.SetIndentTables(true)
	return encoder.Encode(s)
}

// Validate checks the document is consistent: unique names, skin clusters bound to
// existing shapes and joints, and weight buffers sized to match.
func (s *Scene) Validate() error {
	for i, joint := range s.Skeleton {
		if joint == "" {
			return fmt.Errorf("joint %d has no name", i)
		}
		if slices.Index(s.Skeleton, joint) != i {
			return fmt.Errorf("joint '%s' is listed twice", joint)
		}
	}
	for i, m := range s.Meshes {
		if m.Name == "" {
			return fmt.Errorf("mesh %d has no name", i)
		}
		if m.Vertices < 0 {
			return fmt.Errorf("mesh '%s' has a negative vertex count", m.Name)
		}
		if s.mesh(m.Name) != m {
			return fmt.Errorf("mesh '%s' is listed twice", m.Name)
		}
	}
	bound := make(map[string]string, len(s.SkinClusters))
	for i, sc := range s.SkinClusters {
		if sc.Name == "" {
			return fmt.Errorf("skin cluster %d has no name", i)
		}
		if s.skinCluster(sc.Name) != sc {
			return fmt.Errorf("skin cluster '%s' is listed twice", sc.Name)
		}
		m := s.mesh(sc.Shape)
		if m == nil {
			return fmt.Errorf("skin cluster '%s' is bound to unknown shape '%s'", sc.Name, sc.Shape)
		}
		if other, ok := bound[sc.Shape]; ok {
			return fmt.Errorf("shape '%s' is bound to both '%s' and '%s'", sc.Shape, other, sc.Name)
		}
		bound[sc.Shape] = sc.Name
		for _, influence := range sc.Influences {
			if !slices.Contains(s.Skeleton, influence) {
				return fmt.Errorf("skin cluster '%s' uses unknown joint '%s'", sc.Name, influence)
			}
		}
		if sc.Weights == nil {
			sc.Weights = make([]float64, len(sc.Influences)*m.Vertices)
		}
		if sc.BlendWeights == nil {
			sc.BlendWeights = make([]float64, m.Vertices)
		}
		if len(sc.Weights) != len(sc.Influences)*m.Vertices {
			return fmt.Errorf("skin cluster '%s' has %d weights, expected %d influences x %d vertices", sc.Name, len(sc.Weights), len(sc.Influences), m.Vertices)
		}
		if len(sc.BlendWeights) != m.Vertices {
			return fmt.Errorf("skin cluster '%s' has %d blend weights, expected %d", sc.Name, len(sc.BlendWeights), m.Vertices)
		}
	}
	return nil
}
