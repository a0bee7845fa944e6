package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets/loaders"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/resources"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
	"golang.org/x/exp/slices"
)

type AssetInfo struct {
	Path     string
	Type     resources.ResourceType
	Modified time.Time
}

// AssetManager indexes the weight files, scenes and remap tables below a workspace
// root and keeps the index current while the workspace is watched.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[resources.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(resources.ResourceTypeWeights, &loaders.WeightLoader{})
	am.registerLoader(resources.ResourceTypeRemap, &loaders.RemapLoader{})

	return am, nil
}

// Initialize indexes the workspace root and starts watching it.
func (am *AssetManager) Initialize(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	am.root = abs

	if err := am.addRecursive(abs); err != nil {
		return err
	}
	am.started = true
	go am.start()

	core.LogDebug("Asset manager watching workspace '%s' (%d assets).", abs, len(am.List(resources.ResourceTypeNone)))
	return nil
}

// Root returns the workspace root, the default location for weight files.
func (am *AssetManager) Root() string {
	return am.root
}

// Shutdown stops watching the workspace.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.started {
		<-am.stopped
		return nil
	}
	return am.fsnotify.Close()
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// List returns the indexed assets of the given type sorted by path. ResourceTypeNone lists all.
func (am *AssetManager) List(assetType resources.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		if assetType == resources.ResourceTypeNone || info.Type == assetType {
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b AssetInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(path string) (*resources.Resource, error) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return nil, fmt.Errorf("unknown resource type for '%s'", path)
	}

	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}

	res, err := loader.Load(path, assetType, nil)
	if err != nil {
		return nil, err
	}
	am.handleFileEvent(path)
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *resources.Resource) error {
	if asset == nil {
		return nil
	}
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// LoadWeights loads a weight file and hands back its record. Relative paths are
// resolved against the workspace root.
func (am *AssetManager) LoadWeights(path string) (*skin.WeightRecord, error) {
	res, err := am.LoadAsset(am.resolve(loaders.WithWeightExtension(path)))
	if err != nil {
		return nil, err
	}
	defer am.release(res)
	record, ok := res.Data.(*skin.WeightRecord)
	if !ok {
		return nil, fmt.Errorf("failed to cast resource data of '%s' to a weight record", path)
	}
	return record, nil
}

// SaveWeights writes a weight file. Relative paths are resolved against the workspace root.
func (am *AssetManager) SaveWeights(path string, record *skin.WeightRecord) (string, error) {
	path = am.resolve(path)
	loader, ok := am.loaders[resources.ResourceTypeWeights].(*loaders.WeightLoader)
	if !ok {
		return "", fmt.Errorf("no weight loader registered")
	}
	written, err := loader.Save(path, record)
	if err != nil {
		return "", err
	}
	am.handleFileEvent(written)
	return written, nil
}

// LoadRemapTable loads a remap table usable as a non-interactive remap prompt.
// Relative paths are resolved against the workspace root.
func (am *AssetManager) LoadRemapTable(path string) (skin.StaticRemap, error) {
	res, err := am.LoadAsset(am.resolve(path))
	if err != nil {
		return nil, err
	}
	defer am.release(res)
	table, ok := res.Data.(skin.StaticRemap)
	if !ok {
		return nil, fmt.Errorf("'%s' is not a remap table", path)
	}
	return table, nil
}

// release hands a resource back to its loader once its data was taken over.
func (am *AssetManager) release(res *resources.Resource) {
	if err := am.UnloadAsset(res); err != nil {
		core.LogWarn("failed to unload '%s': %s", res.FullPath, err)
	}
}

func (am *AssetManager) resolve(path string) string {
	if filepath.IsAbs(path) || am.root == "" {
		return path
	}
	return filepath.Join(am.root, path)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	modified := time.Now()
	if fi, err := os.Stat(abs); err == nil {
		modified = fi.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[abs] = AssetInfo{
		Path:     abs,
		Type:     assetType,
		Modified: modified,
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, abs)
}

func determineAssetType(path string) resources.ResourceType {
	switch {
	case strings.HasSuffix(path, resources.WeightFileExtension):
		return resources.ResourceTypeWeights
	case strings.HasSuffix(path, resources.SceneFileExtension):
		return resources.ResourceTypeScene
	case strings.HasSuffix(path, resources.RemapFileExtension):
		return resources.ResourceTypeRemap
	default:
		return resources.ResourceTypeNone
	}
}
