package loaders

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

// remapDocument is the on-disk shape of a remap table:
//
//	[influences]
//	"Jnt_old" = "rig:Jnt_new"
type remapDocument struct {
	Influences map[string]string `toml:"influences"`
}

// RemapLoader reads influence remap tables used to answer the remap prompt in batch mode.
type RemapLoader struct{}

func (rl *RemapLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	if assetType != resources.ResourceTypeRemap {
		return nil, fmt.Errorf("remap loader cannot load resource type '%s'", assetType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	table, err := ParseRemapTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remap table '%s': %w", path, err)
	}
	return &resources.Resource{
		Type:     resources.ResourceTypeRemap,
		Name:     path,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     table,
	}, nil
}

func (rl *RemapLoader) Unload(resource *resources.Resource) error {
	if resource != nil {
		resource.Data = nil
	}
	return nil
}

func ParseRemapTable(data []byte) (skin.StaticRemap, error) {
	var doc remapDocument
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	table := make(skin.StaticRemap, len(doc.Influences))
	for src, dst := range doc.Influences {
		if src == "" || dst == "" {
			return nil, fmt.Errorf("remap entry '%s' -> '%s' has an empty name", src, dst)
		}
		table[src] = dst
	}
	return table, nil
}

// SaveRemapTable writes a remap table readable by RemapLoader.
func SaveRemapTable(path string, table skin.StaticRemap) error {
	data, err := toml.Marshal(remapDocument{Influences: table})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
