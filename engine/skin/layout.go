package skin

import "fmt"

// The deformer stores weights in one flat buffer grouped per vertex:
// buffer[influenceIndex + numInfluences*vertexIndex].

// GatherInfluenceWeights splits a flat deformer buffer into one weight sequence per influence.
func GatherInfluenceWeights(influences []string, buffer []float64, numVertices int) (map[string][]float64, error) {
	numInfluences := len(influences)
	if len(buffer) != numInfluences*numVertices {
		return nil, fmt.Errorf("weight buffer holds %d values, expected %d influences x %d vertices", len(buffer), numInfluences, numVertices)
	}
	out := make(map[string][]float64, numInfluences)
	for i, name := range influences {
		if _, ok := out[name]; ok {
			return nil, fmt.Errorf("influence '%s' is listed twice", name)
		}
		weights := make([]float64, numVertices)
		for v := 0; v < numVertices; v++ {
			weights[v] = buffer[i+numInfluences*v]
		}
		out[name] = weights
	}
	return out, nil
}

// ScatterInfluenceWeights writes each influence's sequence into `buffer`, which must hold
// len(influences)*numVertices values. Influences of the deformer with no entry in `weights`
// keep whatever `buffer` already holds; entries of `weights` that name no deformer influence
// are ignored. It returns the deformer influences that had no entry.
func ScatterInfluenceWeights(influences []string, weights map[string][]float64, buffer []float64, numVertices int) ([]string, error) {
	numInfluences := len(influences)
	if len(buffer) != numInfluences*numVertices {
		return nil, fmt.Errorf("weight buffer holds %d values, expected %d influences x %d vertices", len(buffer), numInfluences, numVertices)
	}
	var missing []string
	for i, name := range influences {
		values, ok := weights[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if len(values) != numVertices {
			return nil, fmt.Errorf("influence '%s' has %d weights, expected %d", name, len(values), numVertices)
		}
		for v := 0; v < numVertices; v++ {
			buffer[i+numInfluences*v] = values[v]
		}
	}
	return missing, nil
}
