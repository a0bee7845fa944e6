package platform

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/math"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
	"golang.org/x/exp/slices"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(20)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func row(key string, value interface{}) string {
	return keyStyle.Render(key) + fmt.Sprint(value)
}

func RenderExportReport(r *engine.ExportReport) string {
	lines := []string{
		titleStyle.Render("Exported skin weights"),
		row("deformer", r.Deformer),
		row("shape", r.Shape),
		row("influences", r.Influences),
		row("vertices", r.Vertices),
		row("file", r.Path),
	}
	return strings.Join(lines, "\n")
}

func RenderImportReport(r *engine.ImportReport) string {
	deformer := r.Deformer
	if r.Created {
		deformer += " (created)"
	}
	lines := []string{
		titleStyle.Render("Imported skin weights"),
		row("deformer", deformer),
		row("shape", r.Shape),
		row("influences", r.Influences),
		row("vertices", r.Vertices),
	}
	if len(r.Remapped) > 0 {
		pairs := make([]string, 0, len(r.Remapped))
		for src, dst := range r.Remapped {
			pairs = append(pairs, src+" -> "+dst)
		}
		slices.Sort(pairs)
		lines = append(lines, row("remapped", strings.Join(pairs, ", ")))
	}
	if len(r.Dropped) > 0 {
		lines = append(lines, warnStyle.Render(row("dropped", strings.Join(r.Dropped, ", "))))
	}
	if len(r.Unused) > 0 {
		lines = append(lines, row("unused", strings.Join(r.Unused, ", ")))
	}
	if len(r.Missing) > 0 {
		lines = append(lines, row("not in file", strings.Join(r.Missing, ", ")))
	}
	return strings.Join(lines, "\n")
}

// RenderRecord summarizes a weight record, flagging vertices whose weights do not sum to one.
func RenderRecord(path string, record *skin.WeightRecord) string {
	numVertices := record.VertexCount()
	sums := make([]float64, numVertices)
	for _, weights := range record.InfluenceWeights {
		for v, w := range weights {
			sums[v] += w
		}
	}
	unnormalized := 0
	for _, sum := range sums {
		if !math.NearlyEqual(sum, 1.0, math.K_WEIGHT_EPSILON) {
			unnormalized++
		}
	}
	lines := []string{
		titleStyle.Render(path),
		row("deformer", record.DeformerName),
		row("skinning method", record.SkinningMethod),
		row("normalize weights", record.NormalizeWeights),
		row("vertices", numVertices),
		row("influences", len(record.InfluenceWeights)),
	}
	for _, name := range record.InfluenceNames() {
		lines = append(lines, row("  "+name, fmt.Sprintf("%.4f", math.Sum(record.InfluenceWeights[name]))))
	}
	status := row("unnormalized", unnormalized)
	if unnormalized > 0 {
		status = warnStyle.Render(status)
	}
	return strings.Join(append(lines, status), "\n")
}
