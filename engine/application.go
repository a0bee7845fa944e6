package engine

import (
	"fmt"
	"strings"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/skin"
)

/** @brief What import does with deformer influences the weight file says nothing about. */
type MissingInfluencePolicy string

const (
	// MissingInfluenceZero gives them zero weight on every vertex.
	MissingInfluenceZero MissingInfluencePolicy = "zero"
	// MissingInfluencePreserve keeps the weights the deformer already holds.
	MissingInfluencePreserve MissingInfluencePolicy = "preserve"
	// MissingInfluenceError aborts the import.
	MissingInfluenceError MissingInfluencePolicy = "error"
)

func ParseMissingInfluencePolicy(s string) (MissingInfluencePolicy, error) {
	switch p := MissingInfluencePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MissingInfluenceZero, MissingInfluencePreserve, MissingInfluenceError:
		return p, nil
	case "":
		return MissingInfluenceZero, nil
	default:
		return "", fmt.Errorf("unknown missing influence policy '%s' (expected zero, preserve or error)", s)
	}
}

type ApplicationConfig struct {
	// The application name used in log prefixes and prompts.
	Name     string
	LogLevel string
	// Workspace root, the default directory for weight files.
	Workspace string
	// Interactive enables the remap prompt. Off means identity plus drop.
	Interactive bool
	// RemapFile is an optional remap table answering the prompt without a user.
	RemapFile              string
	UnresolvedPolicy       skin.UnresolvedPolicy
	MissingInfluencePolicy MissingInfluencePolicy
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:                   "Vertex Based Skin Weight IO",
		LogLevel:               "info",
		Workspace:              ".",
		Interactive:            false,
		UnresolvedPolicy:       skin.UnresolvedDrop,
		MissingInfluencePolicy: MissingInfluenceZero,
	}
}

func (c *ApplicationConfig) Validate() error {
	if _, err := skin.ParseUnresolvedPolicy(string(c.UnresolvedPolicy)); err != nil {
		return err
	}
	if _, err := ParseMissingInfluencePolicy(string(c.MissingInfluencePolicy)); err != nil {
		return err
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace directory is empty")
	}
	return nil
}
