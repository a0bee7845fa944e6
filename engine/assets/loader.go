package assets

import "github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"

type Loader interface {
	Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) // `interface{}` here allows loaders to return various asset types
	Unload(*resources.Resource) error
}
