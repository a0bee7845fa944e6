package skin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
)

// recordingPrompt remembers what it was asked and answers with a fixed mapping.
type recordingPrompt struct {
	answer   map[string]string
	err      error
	calls    int
	scene    []string
	imported []string
}

func (p *recordingPrompt) PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	p.calls++
	p.scene = unmatchedScene
	p.imported = unmatchedImported
	return p.answer, p.err
}

func TestReconcileDropsUnmatchedWithoutPrompt(t *testing.T) {
	r := NewReconciler(nil, false, UnresolvedDrop)

	result, err := r.Reconcile([]string{"A", "B", "X"}, []string{"A", "B", "C"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "A", "B": "B"}, result.Matches)
	assert.Equal(t, []string{"X"}, result.Dropped)
	assert.Equal(t, []string{"C"}, result.UnusedScene)
	assert.Empty(t, result.Remapped)
}

func TestReconcileMatchesAcrossNamespaces(t *testing.T) {
	r := NewReconciler(nil, false, UnresolvedDrop)

	result, err := r.Reconcile(
		[]string{"rig:Root", "rig:Root|rig:Spine"},
		[]string{"Root|Spine", "anim:Root"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"rig:Root":           "anim:Root",
		"rig:Root|rig:Spine": "Root|Spine",
	}, result.Matches)
	assert.Empty(t, result.Dropped)
	assert.Empty(t, result.UnusedScene)
}

func TestReconcilePrefersRawNameMatch(t *testing.T) {
	r := NewReconciler(nil, false, UnresolvedDrop)

	result, err := r.Reconcile([]string{"a:Jnt", "Jnt"}, []string{"b:Jnt", "a:Jnt"})
	require.NoError(t, err)
	assert.Equal(t, "a:Jnt", result.Matches["a:Jnt"])
	assert.Equal(t, "b:Jnt", result.Matches["Jnt"])
}

func TestReconcileAmbiguousNormalizedName(t *testing.T) {
	r := NewReconciler(nil, false, UnresolvedDrop)

	_, err := r.Reconcile([]string{"Jnt"}, []string{"a:Jnt", "b:Jnt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAmbiguousInfluence))

	var ambiguous *core.AmbiguousInfluenceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "Jnt", ambiguous.Influence)
	assert.Equal(t, []string{"a:Jnt", "b:Jnt"}, ambiguous.Candidates)
}

func TestReconcileUsesPrompt(t *testing.T) {
	prompt := &recordingPrompt{answer: map[string]string{"X": "C"}}
	r := NewReconciler(prompt, true, UnresolvedDrop)

	result, err := r.Reconcile([]string{"A", "X", "Y"}, []string{"A", "C", "D"})
	require.NoError(t, err)

	assert.Equal(t, 1, prompt.calls)
	assert.Equal(t, []string{"C", "D"}, prompt.scene)
	assert.Equal(t, []string{"X", "Y"}, prompt.imported)

	assert.Equal(t, map[string]string{"A": "A", "X": "C"}, result.Matches)
	assert.Equal(t, map[string]string{"X": "C"}, result.Remapped)
	assert.Equal(t, []string{"Y"}, result.Dropped)
	assert.Equal(t, []string{"D"}, result.UnusedScene)
}

func TestReconcileSkipsPromptWhenNothingToPair(t *testing.T) {
	tests := []struct {
		name     string
		imported []string
		scene    []string
	}{
		{name: "all matched", imported: []string{"A"}, scene: []string{"A"}},
		{name: "no spare scene influence", imported: []string{"A", "X"}, scene: []string{"A"}},
		{name: "no spare imported influence", imported: []string{"A"}, scene: []string{"A", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := &recordingPrompt{}
			r := NewReconciler(prompt, true, UnresolvedDrop)
			_, err := r.Reconcile(tt.imported, tt.scene)
			require.NoError(t, err)
			assert.Zero(t, prompt.calls)
		})
	}
}

func TestReconcileNonInteractiveNeverPrompts(t *testing.T) {
	prompt := &recordingPrompt{answer: map[string]string{"X": "C"}}
	r := NewReconciler(prompt, false, UnresolvedDrop)

	result, err := r.Reconcile([]string{"X"}, []string{"C"})
	require.NoError(t, err)
	assert.Zero(t, prompt.calls)
	assert.Equal(t, []string{"X"}, result.Dropped)
}

func TestReconcileInvalidRemap(t *testing.T) {
	tests := []struct {
		name   string
		answer map[string]string
	}{
		{name: "unknown source", answer: map[string]string{"A": "C"}},
		{name: "unknown destination", answer: map[string]string{"X": "A"}},
		{name: "destination used twice", answer: map[string]string{"X": "C", "Y": "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler(&recordingPrompt{answer: tt.answer}, true, UnresolvedDrop)
			_, err := r.Reconcile([]string{"A", "X", "Y"}, []string{"A", "C", "D"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidRemap))
		})
	}
}

func TestReconcileAbortedPromptDrops(t *testing.T) {
	prompt := &recordingPrompt{answer: map[string]string{"X": "C"}, err: core.ErrPromptAborted}
	r := NewReconciler(prompt, true, UnresolvedDrop)

	result, err := r.Reconcile([]string{"X"}, []string{"C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, result.Dropped)
	assert.Empty(t, result.Matches)
}

func TestReconcilePromptError(t *testing.T) {
	boom := errors.New("terminal closed")
	r := NewReconciler(&recordingPrompt{err: boom}, true, UnresolvedDrop)

	_, err := r.Reconcile([]string{"X"}, []string{"C"})
	assert.ErrorIs(t, err, boom)
}

func TestReconcileFailPolicy(t *testing.T) {
	r := NewReconciler(nil, false, UnresolvedFail)

	_, err := r.Reconcile([]string{"A", "X", "Y"}, []string{"A"})
	require.Error(t, err)

	var unresolved *core.UnresolvedInfluenceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, []string{"X", "Y"}, unresolved.Influences)
	assert.True(t, errors.Is(err, core.ErrUnresolvedInfluence))
}

func TestStaticRemap(t *testing.T) {
	table := StaticRemap{
		"rig:Head": "Neck",
		"Tail":     "anim:Tail1",
		"Arm":      "Missing",
	}
	got, err := table.PromptRemap(
		[]string{"Neck", "anim:Tail1", "Leg"},
		[]string{"rig:Head", "old:Tail", "Arm", "Foot"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"rig:Head": "Neck",
		"old:Tail": "anim:Tail1",
	}, got)
}

func TestReconciliationApply(t *testing.T) {
	record := NewWeightRecord("skinCluster1")
	record.BlendWeights = []float64{0, 0}
	record.InfluenceWeights = map[string][]float64{
		"A": {1, 0},
		"X": {0, 1},
		"Z": {0, 0},
	}

	rc := &Reconciliation{
		Matches: map[string]string{"A": "rig:A", "X": "C"},
		Dropped: []string{"Z"},
	}
	rc.Apply(record)

	assert.Equal(t, map[string][]float64{
		"rig:A": {1, 0},
		"C":     {0, 1},
	}, record.InfluenceWeights)
	assert.Equal(t, []string{"rig:A", "C"}, rc.SceneInfluences())
}

func TestParseUnresolvedPolicy(t *testing.T) {
	p, err := ParseUnresolvedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnresolvedDrop, p)

	p, err = ParseUnresolvedPolicy(" FAIL ")
	require.NoError(t, err)
	assert.Equal(t, UnresolvedFail, p)

	_, err = ParseUnresolvedPolicy("ask")
	assert.Error(t, err)
}

func TestChainedRemapAsksForTheRemainder(t *testing.T) {
	table := StaticRemap{"rig:Head": "Neck"}
	user := &recordingPrompt{answer: map[string]string{"rig:Wing": "Arm"}}

	got, err := ChainedRemap{table, user}.PromptRemap(
		[]string{"Arm", "Neck"},
		[]string{"rig:Head", "rig:Wing"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"rig:Head": "Neck", "rig:Wing": "Arm"}, got)
	assert.Equal(t, []string{"Arm"}, user.scene)
	assert.Equal(t, []string{"rig:Wing"}, user.imported)
}

func TestChainedRemapSkipsPromptWhenTableAnswersAll(t *testing.T) {
	user := &recordingPrompt{}
	got, err := ChainedRemap{StaticRemap{"rig:Head": "Neck"}, user}.PromptRemap(
		[]string{"Neck"},
		[]string{"rig:Head"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"rig:Head": "Neck"}, got)
	assert.Zero(t, user.calls)
}

func TestChainedRemapAbort(t *testing.T) {
	aborted := &recordingPrompt{err: core.ErrPromptAborted}

	got, err := ChainedRemap{StaticRemap{"rig:Head": "Neck"}, aborted}.PromptRemap(
		[]string{"Arm", "Neck"},
		[]string{"rig:Head", "rig:Wing"},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"rig:Head": "Neck"}, got)

	_, err = ChainedRemap{aborted}.PromptRemap([]string{"Arm"}, []string{"rig:Wing"})
	assert.True(t, errors.Is(err, core.ErrPromptAborted))
}

func TestReconcileWithChainedRemap(t *testing.T) {
	user := &recordingPrompt{answer: map[string]string{"Wing": "Arm"}}
	r := NewReconciler(ChainedRemap{StaticRemap{"Head": "Neck"}, user}, true, UnresolvedDrop)

	result, err := r.Reconcile([]string{"Head", "Root", "Wing"}, []string{"Arm", "Neck", "Root"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Head": "Neck", "Wing": "Arm"}, result.Remapped)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, 1, user.calls)
}
