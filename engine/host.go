package engine

import "github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"

// Host is the modeling application seen through the few calls weight transfer needs.
// Shapes and deformers are referred to by node name.
type Host interface {
	// Shape resolves a selection or node name to a mesh shape. An empty selection
	// means the current selection. Fails with core.NoSelectionError.
	Shape(selection string) (string, error)
	// DeformerFor finds the deformer bound to a shape.
	DeformerFor(shape string) (deformer string, ok bool, err error)
	CreateDeformer(influences []string, shape, name string) (string, error)
	// ReadDeformerWeights returns the influences in deformer index order, the flat
	// weight buffer and the per-vertex blend weights.
	ReadDeformerWeights(deformer string) (influences []string, weights []float64, blendWeights []float64, err error)
	WriteDeformerWeights(deformer string, weights []float64, blendWeights []float64) error
	Setting(deformer, key string) (int, error)
	SetSetting(deformer, key string, value int) error
	VertexCount(shape string) (int, error)
	// Joints lists every joint of the scene.
	Joints() ([]string, error)
}

// RemapPrompt lets a user pair unmatched influences during import.
type RemapPrompt = skin.RemapPrompt

// FileChooser picks weight files when no path was given. An empty path
// with a nil error means the user cancelled.
type FileChooser interface {
	ChooseOpen(startDir string) (string, error)
	ChooseSave(startDir string) (string, error)
}
