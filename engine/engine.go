package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/assets"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
	"golang.org/x/exp/slices"
)

// Engine moves skin weights between a host deformer and weight files.
type Engine struct {
	config       *ApplicationConfig
	host         Host
	assetManager *assets.AssetManager
	chooser      FileChooser
	reconciler   *skin.Reconciler
}

type Option func(*Engine)

// WithRemapPrompt sets who answers remap questions when the config is interactive
// or names a remap table.
func WithRemapPrompt(prompt RemapPrompt) Option {
	return func(e *Engine) {
		e.reconciler.Prompt = prompt
	}
}

func WithFileChooser(chooser FileChooser) Option {
	return func(e *Engine) {
		e.chooser = chooser
	}
}

func WithAssetManager(am *assets.AssetManager) Option {
	return func(e *Engine) {
		e.assetManager = am
	}
}

func New(config *ApplicationConfig, host Host, options ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if host == nil {
		return nil, fmt.Errorf("engine needs a host")
	}
	unresolved, err := skin.ParseUnresolvedPolicy(string(config.UnresolvedPolicy))
	if err != nil {
		return nil, err
	}
	missing, err := ParseMissingInfluencePolicy(string(config.MissingInfluencePolicy))
	if err != nil {
		return nil, err
	}
	config.UnresolvedPolicy = unresolved
	config.MissingInfluencePolicy = missing
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:     config,
		host:       host,
		reconciler: skin.NewReconciler(skin.NoRemap{}, config.Interactive || config.RemapFile != "", unresolved),
	}
	for _, o := range options {
		o(e)
	}
	if e.reconciler.Prompt == nil {
		e.reconciler.Prompt = skin.NoRemap{}
	}
	return e, nil
}

// Initialize starts the asset manager on the workspace when none was supplied.
func (e *Engine) Initialize() error {
	if e.assetManager != nil {
		return nil
	}
	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := am.Initialize(e.config.Workspace); err != nil {
		_ = am.Shutdown()
		return err
	}
	e.assetManager = am
	return nil
}

func (e *Engine) Shutdown() error {
	if e.assetManager == nil {
		return nil
	}
	return e.assetManager.Shutdown()
}

func (e *Engine) AssetManager() *assets.AssetManager {
	return e.assetManager
}

type ExportReport struct {
	SessionID  string
	Shape      string
	Deformer   string
	Path       string
	Influences int
	Vertices   int
	Elapsed    time.Duration
}

type ImportReport struct {
	SessionID string
	Shape     string
	Deformer  string
	// Created is set when the deformer did not exist and was built from the record.
	Created    bool
	Influences int
	Vertices   int
	// Remapped holds the pairs chosen through the remap prompt.
	Remapped map[string]string
	// Dropped lists imported influences whose weights were discarded.
	Dropped []string
	// Unused lists deformer influences nothing was imported for.
	Unused []string
	// Missing lists deformer influences handled by the missing influence policy.
	Missing []string
	Elapsed time.Duration
}

// Export reads the deformer of the selected shape into a new record.
// The deformer is only read.
func (e *Engine) Export(ctx context.Context, selection string) (*skin.WeightRecord, *ExportReport, error) {
	s := newSession("export")
	if err := s.enter(ctx, StageValidate); err != nil {
		return nil, nil, err
	}
	shape, err := e.host.Shape(selection)
	if err != nil {
		return nil, nil, err
	}
	deformer, ok, err := e.host.DeformerFor(shape)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &core.NoDeformerError{Shape: shape}
	}
	numVertices, err := e.host.VertexCount(shape)
	if err != nil {
		return nil, nil, err
	}

	if err := s.enter(ctx, StageTransform); err != nil {
		return nil, nil, err
	}
	influences, buffer, blendWeights, err := e.host.ReadDeformerWeights(deformer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read weights of '%s': %w", deformer, err)
	}
	if len(blendWeights) != numVertices {
		return nil, nil, &core.VertexCountMismatchError{Shape: shape, Expected: numVertices, Actual: len(blendWeights)}
	}
	weights, err := skin.GatherInfluenceWeights(influences, buffer, len(blendWeights))
	if err != nil {
		return nil, nil, fmt.Errorf("deformer '%s': %w", deformer, err)
	}
	method, err := e.host.Setting(deformer, skin.SettingSkinningMethod)
	if err != nil {
		return nil, nil, err
	}
	normalize, err := e.host.Setting(deformer, skin.SettingNormalizeWeights)
	if err != nil {
		return nil, nil, err
	}

	record := &skin.WeightRecord{
		InfluenceWeights: weights,
		BlendWeights:     append([]float64{}, blendWeights...),
		DeformerName:     deformer,
		SkinningMethod:   skin.SkinningMethod(method),
		NormalizeWeights: skin.NormalizeWeights(normalize),
	}
	if err := record.Validate(); err != nil {
		return nil, nil, err
	}

	report := &ExportReport{
		SessionID:  s.ID,
		Shape:      shape,
		Deformer:   deformer,
		Influences: len(record.InfluenceWeights),
		Vertices:   record.VertexCount(),
	}
	report.Elapsed = s.done()
	return record, report, nil
}

// ExportToFile exports and writes the record. An empty path asks the file chooser,
// starting in the workspace root; the .weight suffix is appended when missing.
func (e *Engine) ExportToFile(ctx context.Context, selection, path string) (*ExportReport, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	if path == "" {
		chosen, err := e.choose(false)
		if err != nil {
			return nil, err
		}
		path = chosen
	}

	record, report, err := e.Export(ctx, selection)
	if err != nil {
		return nil, err
	}
	written, err := e.assetManager.SaveWeights(path, record)
	if err != nil {
		return nil, fmt.Errorf("failed to write '%s': %w", path, err)
	}
	report.Path = written
	core.LogInfo("Exported deformer '%s' (%d influences, %d vertices) %s", report.Deformer, report.Influences, report.Vertices, written)
	return report, nil
}

// ImportFromFile loads a weight file and imports it onto the selected shape.
func (e *Engine) ImportFromFile(ctx context.Context, selection, path string) (*ImportReport, error) {
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	if path == "" {
		chosen, err := e.choose(true)
		if err != nil {
			return nil, err
		}
		path = chosen
	}
	record, err := e.assetManager.LoadWeights(path)
	if err != nil {
		return nil, err
	}
	report, err := e.Import(ctx, selection, record)
	if err != nil {
		return nil, err
	}
	core.LogInfo("Imported '%s' onto deformer '%s' (%d influences, %d vertices, %d dropped)", path, report.Deformer, report.Influences, report.Vertices, len(report.Dropped))
	return report, nil
}

// Import applies a record to the selected shape: validate, reconcile, transform, commit.
// Nothing is written to the host before the commit stage. A failure inside commit may
// leave a newly created deformer without weights. The record is not modified.
func (e *Engine) Import(ctx context.Context, selection string, record *skin.WeightRecord) (*ImportReport, error) {
	s := newSession("import")

	// Validate
	if err := s.enter(ctx, StageValidate); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	shape, err := e.host.Shape(selection)
	if err != nil {
		return nil, err
	}
	numVertices, err := e.host.VertexCount(shape)
	if err != nil {
		return nil, err
	}
	if numVertices != record.VertexCount() {
		return nil, &core.VertexCountMismatchError{Shape: shape, Expected: numVertices, Actual: record.VertexCount()}
	}

	// Reconcile
	if err := s.enter(ctx, StageReconcile); err != nil {
		return nil, err
	}
	deformer, exists, err := e.host.DeformerFor(shape)
	if err != nil {
		return nil, err
	}
	var targetInfluences []string
	var existing []float64
	if exists {
		influences, buffer, _, err := e.host.ReadDeformerWeights(deformer)
		if err != nil {
			return nil, fmt.Errorf("failed to read weights of '%s': %w", deformer, err)
		}
		targetInfluences = influences
		existing = buffer
	} else {
		joints, err := e.host.Joints()
		if err != nil {
			return nil, err
		}
		targetInfluences = joints
	}

	reconciliation, err := e.reconciler.Reconcile(record.InfluenceNames(), targetInfluences)
	if err != nil {
		return nil, err
	}
	working := record.Clone()
	reconciliation.Apply(working)

	if !exists {
		// a new deformer binds exactly the reconciled influences
		targetInfluences = reconciliation.SceneInfluences()
		if len(targetInfluences) == 0 {
			return nil, &core.NoDeformerError{Shape: shape, Reason: "no imported influence matches a scene joint"}
		}
		deformer = record.DeformerName
	}

	// Transform
	if err := s.enter(ctx, StageTransform); err != nil {
		return nil, err
	}
	buffer, missing, err := e.transform(deformer, targetInfluences, working, existing)
	if err != nil {
		return nil, err
	}

	// Commit
	if err := s.enter(ctx, StageCommit); err != nil {
		return nil, err
	}
	if !exists {
		created, err := e.host.CreateDeformer(targetInfluences, shape, record.DeformerName)
		if err != nil {
			return nil, &core.NoDeformerError{Shape: shape, Reason: err.Error()}
		}
		deformer = created
		bound, _, _, err := e.host.ReadDeformerWeights(deformer)
		if err != nil {
			return nil, fmt.Errorf("failed to read weights of '%s': %w", deformer, err)
		}
		if !slices.Equal(bound, targetInfluences) {
			// the host reordered the influences, lay the buffer out again
			targetInfluences = bound
			buffer, missing, err = e.transform(deformer, targetInfluences, working, nil)
			if err != nil {
				return nil, err
			}
		}
	}
	if err := e.host.WriteDeformerWeights(deformer, buffer, working.BlendWeights); err != nil {
		return nil, fmt.Errorf("failed to write weights of '%s': %w", deformer, err)
	}
	if err := e.host.SetSetting(deformer, skin.SettingSkinningMethod, int(working.SkinningMethod)); err != nil {
		return nil, err
	}
	if err := e.host.SetSetting(deformer, skin.SettingNormalizeWeights, int(working.NormalizeWeights)); err != nil {
		return nil, err
	}

	report := &ImportReport{
		SessionID:  s.ID,
		Shape:      shape,
		Deformer:   deformer,
		Created:    !exists,
		Influences: len(targetInfluences),
		Vertices:   numVertices,
		Remapped:   reconciliation.Remapped,
		Dropped:    reconciliation.Dropped,
		Unused:     reconciliation.UnusedScene,
		Missing:    missing,
	}
	report.Elapsed = s.done()
	return report, nil
}

// transform lays the record's weights out in the deformer's flat buffer.
func (e *Engine) transform(deformer string, influences []string, record *skin.WeightRecord, existing []float64) ([]float64, []string, error) {
	numVertices := record.VertexCount()
	buffer := make([]float64, len(influences)*numVertices)

	policy := e.config.MissingInfluencePolicy
	if policy == MissingInfluencePreserve && existing != nil {
		if len(existing) != len(buffer) {
			return nil, nil, fmt.Errorf("deformer '%s' holds %d weights, expected %d", deformer, len(existing), len(buffer))
		}
		copy(buffer, existing)
	}

	missing, err := skin.ScatterInfluenceWeights(influences, record.InfluenceWeights, buffer, numVertices)
	if err != nil {
		return nil, nil, err
	}
	if len(missing) > 0 {
		switch policy {
		case MissingInfluenceError:
			return nil, nil, &core.MissingInfluenceError{Deformer: deformer, Influences: missing}
		case MissingInfluencePreserve:
			core.LogDebug("deformer '%s' keeps its weights for %v", deformer, missing)
		default:
			core.LogDebug("deformer '%s' gets zero weights for %v", deformer, missing)
		}
	}
	return buffer, missing, nil
}

func (e *Engine) choose(open bool) (string, error) {
	if e.chooser == nil {
		return "", fmt.Errorf("no weight file given and no file chooser available")
	}
	var (
		path string
		err  error
	)
	if open {
		path, err = e.chooser.ChooseOpen(e.assetManager.Root())
	} else {
		path, err = e.chooser.ChooseSave(e.assetManager.Root())
	}
	if err != nil {
		if errors.Is(err, core.ErrPromptAborted) {
			return "", core.ErrCancelled
		}
		return "", err
	}
	if path == "" {
		return "", core.ErrCancelled
	}
	return path, nil
}
