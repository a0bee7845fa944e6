package cmd

import (
	"github.com/pkg/errors"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/platform"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/scene"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

// runtime bundles what a transfer command needs: the scene acting as host,
// the workspace index and the engine.
type runtime struct {
	config       *engine.ApplicationConfig
	scene        *scene.Scene
	assetManager *assets.AssetManager
	platform     *platform.Platform
	engine       *engine.Engine
}

func newRuntime(config *engine.ApplicationConfig, scenePath string) (*runtime, error) {
	s, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset manager")
	}
	if err := am.Initialize(config.Workspace); err != nil {
		_ = am.Shutdown()
		return nil, errors.Wrapf(err, "failed to index workspace '%s'", config.Workspace)
	}

	p := platform.New(config.Name, am)
	options := []engine.Option{engine.WithAssetManager(am)}
	var prompt engine.RemapPrompt
	if config.RemapFile != "" {
		table, err := am.LoadRemapTable(config.RemapFile)
		if err != nil {
			_ = am.Shutdown()
			return nil, errors.Wrapf(err, "failed to load remap table '%s'", config.RemapFile)
		}
		prompt = table
	}
	if config.Interactive {
		options = append(options, engine.WithFileChooser(p))
		if prompt != nil {
			// the table answers first, the user is asked about the rest
			prompt = skin.ChainedRemap{prompt, p}
		} else {
			prompt = p
		}
	}
	if prompt != nil {
		options = append(options, engine.WithRemapPrompt(prompt))
	}

	e, err := engine.New(config, s, options...)
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}

	return &runtime{
		config:       config,
		scene:        s,
		assetManager: am,
		platform:     p,
		engine:       e,
	}, nil
}

func (r *runtime) Shutdown() error {
	return r.engine.Shutdown()
}
