// Package skin holds the skin weight data model and the algorithms that move
// weights between a saved record and a deformer: namespace normalization,
// influence reconciliation and the flat weight buffer layout.
package skin

import (
	"fmt"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"golang.org/x/exp/slices"
)

/** @brief How the deformer blends the influence transforms. */
type SkinningMethod int32

const (
	/** @brief Classic linear blend skinning. */
	SkinningMethodLinear SkinningMethod = iota
	/** @brief Dual quaternion skinning. */
	SkinningMethodDualQuaternion
	/** @brief Per-vertex blend between linear and dual quaternion, driven by the blend weights. */
	SkinningMethodWeightBlended
)

func (s SkinningMethod) String() string {
	switch s {
	case SkinningMethodLinear:
		return "classic linear"
	case SkinningMethodDualQuaternion:
		return "dual quaternion"
	case SkinningMethodWeightBlended:
		return "weight blended"
	default:
		return fmt.Sprintf("SkinningMethod(%d)", int32(s))
	}
}

func (s SkinningMethod) Valid() bool {
	return s >= SkinningMethodLinear && s <= SkinningMethodWeightBlended
}

/** @brief Whether and when the deformer normalizes weights on its own. */
type NormalizeWeights int32

const (
	NormalizeWeightsNone NormalizeWeights = iota
	NormalizeWeightsInteractive
	NormalizeWeightsPost
)

func (n NormalizeWeights) String() string {
	switch n {
	case NormalizeWeightsNone:
		return "none"
	case NormalizeWeightsInteractive:
		return "interactive"
	case NormalizeWeightsPost:
		return "post"
	default:
		return fmt.Sprintf("NormalizeWeights(%d)", int32(n))
	}
}

func (n NormalizeWeights) Valid() bool {
	return n >= NormalizeWeightsNone && n <= NormalizeWeightsPost
}

// Setting keys understood by hosts.
const (
	SettingSkinningMethod   = "skinningMethod"
	SettingNormalizeWeights = "normalizeWeights"
)

// WeightRecord is the unit written to and read from a weight file.
type WeightRecord struct {
	// InfluenceWeights maps an influence name to one weight per vertex.
	InfluenceWeights map[string][]float64
	// BlendWeights holds one value per vertex. Its length is the vertex count.
	BlendWeights     []float64
	DeformerName     string
	SkinningMethod   SkinningMethod
	NormalizeWeights NormalizeWeights
}

func NewWeightRecord(deformerName string) *WeightRecord {
	return &WeightRecord{
		InfluenceWeights: make(map[string][]float64),
		BlendWeights:     []float64{},
		DeformerName:     deformerName,
	}
}

// VertexCount returns the number of vertices the record covers.
func (r *WeightRecord) VertexCount() int {
	return len(r.BlendWeights)
}

// InfluenceNames returns the influence names in ascending order.
func (r *WeightRecord) InfluenceNames() []string {
	names := make([]string, 0, len(r.InfluenceWeights))
	for name := range r.InfluenceWeights {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Validate checks the record invariants and reports every violation at once.
func (r *WeightRecord) Validate() error {
	var problems []error
	if r.InfluenceWeights == nil {
		problems = append(problems, fmt.Errorf("influence weight table is missing"))
	}
	if r.DeformerName == "" {
		problems = append(problems, fmt.Errorf("deformer name is empty"))
	}
	if !r.SkinningMethod.Valid() {
		problems = append(problems, fmt.Errorf("unknown skinning method %d", int32(r.SkinningMethod)))
	}
	if !r.NormalizeWeights.Valid() {
		problems = append(problems, fmt.Errorf("unknown normalize weights mode %d", int32(r.NormalizeWeights)))
	}
	numVertices := r.VertexCount()
	normalized := make(map[string]string, len(r.InfluenceWeights))
	for _, name := range r.InfluenceNames() {
		if name == "" {
			problems = append(problems, fmt.Errorf("influence with empty name"))
			continue
		}
		if n := len(r.InfluenceWeights[name]); n != numVertices {
			problems = append(problems, fmt.Errorf("influence '%s' has %d weights, expected %d", name, n, numVertices))
		}
		short := NormalizeName(name)
		if other, ok := normalized[short]; ok {
			problems = append(problems, fmt.Errorf("influences '%s' and '%s' collide as '%s'", other, name, short))
			continue
		}
		normalized[short] = name
	}
	return core.NewMalformedRecordError(r.DeformerName, problems...)
}

// Clone returns a deep copy so callers can remap without touching the original.
func (r *WeightRecord) Clone() *WeightRecord {
	c := &WeightRecord{
		InfluenceWeights: make(map[string][]float64, len(r.InfluenceWeights)),
		BlendWeights:     slices.Clone(r.BlendWeights),
		DeformerName:     r.DeformerName,
		SkinningMethod:   r.SkinningMethod,
		NormalizeWeights: r.NormalizeWeights,
	}
	for name, weights := range r.InfluenceWeights {
		c.InfluenceWeights[name] = slices.Clone(weights)
	}
	return c
}
