package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/math"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
)

const skipOption = "(skip)"

var (
	_ engine.RemapPrompt = (*Platform)(nil)
	_ engine.FileChooser = (*Platform)(nil)
)

// Platform is the terminal front end: it asks the remap questions and picks files.
type Platform struct {
	Name         string
	assetManager *assets.AssetManager
	input        io.Reader
	output       io.Writer
	accessible   bool
}

type Option func(*Platform)

func WithIO(input io.Reader, output io.Writer) Option {
	return func(p *Platform) {
		p.input = input
		p.output = output
	}
}

// WithAccessible switches the forms to plain line based prompts.
func WithAccessible(accessible bool) Option {
	return func(p *Platform) {
		p.accessible = accessible
	}
}

func New(name string, am *assets.AssetManager, options ...Option) *Platform {
	p := &Platform{
		Name:         name,
		assetManager: am,
		input:        os.Stdin,
		output:       os.Stderr,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// PromptRemap asks, one imported influence at a time, which unmatched scene
// influence should receive its weights. A chosen scene influence is taken off
// the list. Skipped influences stay unmapped.
func (p *Platform) PromptRemap(unmatchedScene, unmatchedImported []string) (map[string]string, error) {
	available := append([]string{}, unmatchedScene...)
	mapping := make(map[string]string)

	for _, imported := range unmatchedImported {
		if len(available) == 0 {
			break
		}
		options := make([]huh.Option[string], 0, len(available)+1)
		options = append(options, huh.NewOption(skipOption, ""))
		for _, name := range available {
			options = append(options, huh.NewOption(name, name))
		}

		choice := ""
		form := p.form(huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Remap imported influence '%s'", imported)).
				Description("The following influence has no counterpart in the scene. Pick one or skip it.").
				Options(options...).
				Height(math.Clamp(len(options)+2, 5, 15)).
				Value(&choice),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil, core.ErrPromptAborted
			}
			return nil, err
		}
		if choice == "" {
			continue
		}
		mapping[imported] = choice
		available = removeName(available, choice)
	}
	return mapping, nil
}

// ChooseOpen lets the user pick one of the weight files indexed in the workspace,
// or type a path when there are none.
func (p *Platform) ChooseOpen(startDir string) (string, error) {
	var files []assets.AssetInfo
	if p.assetManager != nil {
		files = p.assetManager.List(resources.ResourceTypeWeights)
	}
	path := ""
	var field huh.Field
	if len(files) == 0 {
		field = huh.NewInput().
			Title("Import Skin Data").
			Description(fmt.Sprintf("Path of a skin file (*%s)", resources.WeightFileExtension)).
			Value(&path).
			Validate(func(s string) error {
				if _, err := os.Stat(resolve(startDir, s)); err != nil {
					return err
				}
				return nil
			})
	} else {
		options := make([]huh.Option[string], len(files))
		for i, f := range files {
			label := f.Path
			if rel, err := filepath.Rel(startDir, f.Path); err == nil {
				label = rel
			}
			options[i] = huh.NewOption(label, f.Path)
		}
		field = huh.NewSelect[string]().
			Title("Import Skin Data").
			Options(options...).
			Height(math.Clamp(len(options)+2, 5, 15)).
			Value(&path)
	}
	if err := p.form(huh.NewGroup(field)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", core.ErrPromptAborted
		}
		return "", err
	}
	if path == "" {
		return "", nil
	}
	return resolve(startDir, path), nil
}

// ChooseSave asks where to write the weight file.
func (p *Platform) ChooseSave(startDir string) (string, error) {
	path := "skinCluster" + resources.WeightFileExtension
	input := huh.NewInput().
		Title("Export Skin Data").
		Description(fmt.Sprintf("Skin files (*%s), relative to %s", resources.WeightFileExtension, startDir)).
		Value(&path)
	if err := p.form(huh.NewGroup(input)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", core.ErrPromptAborted
		}
		return "", err
	}
	if path == "" {
		return "", nil
	}
	return resolve(startDir, path), nil
}

func (p *Platform) form(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).
		WithInput(p.input).
		WithOutput(p.output).
		WithAccessible(p.accessible)
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
