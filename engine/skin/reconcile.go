package skin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"golang.org/x/exp/slices"
)

// RemapPrompt asks someone to pair imported influences with scene influences.
// It blocks until answered and may resolve only part of the names. Returning
// core.ErrPromptAborted means the user walked away; nothing gets remapped.
type RemapPrompt interface {
	PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error)
}

// RemapFunc adapts a plain function to RemapPrompt.
type RemapFunc func(unmatchedScene, unmatchedImported []string) (map[string]string, error)

func (f RemapFunc) PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	return f(unmatchedScene, unmatchedImported)
}

// NoRemap resolves nothing. Used in batch mode and tests.
type NoRemap struct{}

func (NoRemap) PromptRemap([]string, []string) (map[string]string, error) {
	return nil, nil
}

// StaticRemap answers the prompt from a fixed table of imported name -> scene name.
// Both sides are also tried with namespaces stripped.
type StaticRemap map[string]string

func (s StaticRemap) PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, imported := range unmatchedImported {
		want, ok := s[imported]
		if !ok {
			want, ok = s[NormalizeName(imported)]
		}
		if !ok {
			continue
		}
		if dst, found := findSceneName(want, unmatchedScene); found {
			out[imported] = dst
		}
	}
	return out, nil
}

func findSceneName(want string, scene []string) (string, bool) {
	if slices.Contains(scene, want) {
		return want, true
	}
	match := ""
	for _, name := range scene {
		if NormalizeName(name) == NormalizeName(want) {
			if match != "" {
				return "", false
			}
			match = name
		}
	}
	return match, match != ""
}

// ChainedRemap asks each prompt in turn about the names the previous ones left
// unmapped. A later prompt that aborts keeps the answers collected so far.
type ChainedRemap []RemapPrompt

func (c ChainedRemap) PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	scene := slices.Clone(unmatchedScene)
	imported := slices.Clone(unmatchedImported)
	out := make(map[string]string)
	for _, prompt := range c {
		if len(scene) == 0 || len(imported) == 0 {
			break
		}
		remap, err := prompt.PromptRemap(slices.Clone(scene), slices.Clone(imported))
		if err != nil {
			if errors.Is(err, core.ErrPromptAborted) && len(out) > 0 {
				core.LogWarn("influence remapping was abandoned, keeping %d remapped influences", len(out))
				return out, nil
			}
			return nil, err
		}
		for src, dst := range remap {
			if !slices.Contains(imported, src) || !slices.Contains(scene, dst) {
				continue
			}
			out[src] = dst
			imported = slices.DeleteFunc(imported, func(name string) bool { return name == src })
			scene = slices.DeleteFunc(scene, func(name string) bool { return name == dst })
		}
	}
	return out, nil
}

/** @brief What happens to imported influences nobody could pair with the scene. */
type UnresolvedPolicy string

const (
	// UnresolvedDrop drops their weights and logs a warning.
	UnresolvedDrop UnresolvedPolicy = "drop"
	// UnresolvedFail aborts the import.
	UnresolvedFail UnresolvedPolicy = "fail"
)

func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch p := UnresolvedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UnresolvedDrop, UnresolvedFail:
		return p, nil
	case "":
		return UnresolvedDrop, nil
	default:
		return "", fmt.Errorf("unknown unresolved influence policy '%s' (expected drop or fail)", s)
	}
}

type Reconciler struct {
	// Prompt is only called when Interactive is set.
	Prompt      RemapPrompt
	Interactive bool
	Unresolved  UnresolvedPolicy
}

func NewReconciler(prompt RemapPrompt, interactive bool, unresolved UnresolvedPolicy) *Reconciler {
	if prompt == nil {
		prompt = NoRemap{}
	}
	if unresolved == "" {
		unresolved = UnresolvedDrop
	}
	return &Reconciler{
		Prompt:      prompt,
		Interactive: interactive,
		Unresolved:  unresolved,
	}
}

// Reconciliation is the outcome of pairing imported influences with scene influences.
type Reconciliation struct {
	// Matches maps every kept imported influence to its scene influence.
	Matches map[string]string
	// Remapped is the subset of Matches chosen through the prompt.
	Remapped map[string]string
	// Dropped lists imported influences whose weights are discarded.
	Dropped []string
	// UnusedScene lists scene influences nothing was imported for.
	UnusedScene []string
}

// SceneInfluences returns the matched scene influences, ordered by imported name.
func (rc *Reconciliation) SceneInfluences() []string {
	imported := make([]string, 0, len(rc.Matches))
	for name := range rc.Matches {
		imported = append(imported, name)
	}
	slices.Sort(imported)
	out := make([]string, len(imported))
	for i, name := range imported {
		out[i] = rc.Matches[name]
	}
	return out
}

// Apply rekeys the record's weight table by scene influence and removes dropped influences.
func (rc *Reconciliation) Apply(record *WeightRecord) {
	table := make(map[string][]float64, len(rc.Matches))
	for imported, scene := range rc.Matches {
		if weights, ok := record.InfluenceWeights[imported]; ok {
			table[scene] = weights
		}
	}
	record.InfluenceWeights = table
}

// Reconcile pairs imported influence names with scene influence names. Raw names
// match first, then names with namespaces stripped. Whatever is left on both sides
// goes to the prompt.
func (r *Reconciler) Reconcile(imported, scene []string) (*Reconciliation, error) {
	importedNames := slices.Clone(imported)
	slices.Sort(importedNames)
	importedNames = slices.Compact(importedNames)

	// candidate pool, in scene order
	var pool []string
	seen := make(map[string]bool, len(scene))
	byNormalized := make(map[string][]string, len(scene))
	for _, name := range scene {
		if seen[name] {
			continue
		}
		seen[name] = true
		pool = append(pool, name)
		short := NormalizeName(name)
		byNormalized[short] = append(byNormalized[short], name)
	}

	consumed := make(map[string]bool, len(pool))
	matches := make(map[string]string, len(importedNames))
	for _, name := range importedNames {
		if seen[name] {
			matches[name] = name
			consumed[name] = true
		}
	}
	for _, name := range importedNames {
		if _, ok := matches[name]; ok {
			continue
		}
		var candidates []string
		for _, candidate := range byNormalized[NormalizeName(name)] {
			if !consumed[candidate] {
				candidates = append(candidates, candidate)
			}
		}
		switch len(candidates) {
		case 0:
		case 1:
			matches[name] = candidates[0]
			consumed[candidates[0]] = true
		default:
			return nil, &core.AmbiguousInfluenceError{Influence: name, Candidates: candidates}
		}
	}

	var unmatchedImported, unmatchedScene []string
	for _, name := range importedNames {
		if _, ok := matches[name]; !ok {
			unmatchedImported = append(unmatchedImported, name)
		}
	}
	for _, name := range pool {
		if !consumed[name] {
			unmatchedScene = append(unmatchedScene, name)
		}
	}
	slices.Sort(unmatchedScene)

	result := &Reconciliation{
		Matches:  matches,
		Remapped: make(map[string]string),
	}

	if len(unmatchedImported) > 0 && len(unmatchedScene) > 0 && r.Interactive {
		remap, err := r.prompt(unmatchedScene, unmatchedImported)
		if err != nil {
			return nil, err
		}
		for src, dst := range remap {
			matches[src] = dst
			result.Remapped[src] = dst
			consumed[dst] = true
		}
		unmatchedImported = slices.DeleteFunc(unmatchedImported, func(name string) bool {
			_, ok := remap[name]
			return ok
		})
		unmatchedScene = slices.DeleteFunc(unmatchedScene, func(name string) bool {
			return consumed[name]
		})
	}

	result.Dropped = unmatchedImported
	result.UnusedScene = unmatchedScene

	if len(result.Dropped) > 0 {
		if r.Unresolved == UnresolvedFail {
			return nil, &core.UnresolvedInfluenceError{Influences: result.Dropped}
		}
		for _, name := range result.Dropped {
			core.LogWarn("influence '%s' has no counterpart in the scene, its weights are dropped", name)
		}
	}

	return result, nil
}

// prompt asks for a mapping and checks every entry against the unmatched names.
func (r *Reconciler) prompt(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	remap, err := r.Prompt.PromptRemap(slices.Clone(unmatchedScene), slices.Clone(unmatchedImported))
	if err != nil {
		if errors.Is(err, core.ErrPromptAborted) {
			core.LogWarn("influence remapping was abandoned, unmatched influences are left unresolved")
			return nil, nil
		}
		return nil, err
	}

	used := make(map[string]string, len(remap))
	for src, dst := range remap {
		if !slices.Contains(unmatchedImported, src) {
			return nil, &core.InvalidRemapError{Source: src, Destination: dst, Reason: "source is not an unmatched imported influence"}
		}
		if !slices.Contains(unmatchedScene, dst) {
			return nil, &core.InvalidRemapError{Source: src, Destination: dst, Reason: "destination is not an unmatched scene influence"}
		}
		if other, ok := used[dst]; ok {
			return nil, &core.InvalidRemapError{Source: src, Destination: dst, Reason: fmt.Sprintf("destination already taken by '%s'", other)}
		}
		used[dst] = src
	}
	return remap, nil
}
