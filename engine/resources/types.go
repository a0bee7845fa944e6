package resources

type ResourceType uint8

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or unsupported resource. */
	ResourceTypeNone ResourceType = iota
	/** @brief Binary skin weight record. */
	ResourceTypeWeights
	/** @brief Scene description document (TOML). */
	ResourceTypeScene
	/** @brief Influence remap table (TOML). */
	ResourceTypeRemap
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeWeights:
		return "weights"
	case ResourceTypeScene:
		return "scene"
	case ResourceTypeRemap:
		return "remap"
	default:
		return "none"
	}
}

const (
	/** @brief The reserved suffix of skin weight files. */
	WeightFileExtension = ".weight"
	/** @brief The suffix of scene documents. */
	SceneFileExtension = ".scene.toml"
	/** @brief The suffix of remap tables. */
	RemapFileExtension = ".remap.toml"
)

/** @brief A magic number indicating the file as a skin weight binary file ("SKWT"). */
const ResourceMagic uint32 = 0x534b5754

/** @brief The current binary format version. */
const ResourceVersion uint8 = 1

/** @brief Size in bytes of an encoded ResourceHeader. */
const ResourceHeaderSize = 8

/**
 * @brief The header data for binary resource types.
 */
type ResourceHeader struct {
	/** @brief A magic number indicating the file as a skin weight binary file. */
	MagicNumber uint32
	/** @brief The resource type. Maps to the enum ResourceType. */
	ResourceType ResourceType
	/** @brief The format version this resource uses. */
	Version uint8
	/** @brief Reserved for future header data. */
	Reserved uint16
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}
