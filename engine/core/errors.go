package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNoSelection         = errors.New("no shape selected")
	ErrNoDeformer          = errors.New("no deformer bound to shape")
	ErrVertexCountMismatch = errors.New("vertex counts do not match")
	ErrMalformedRecord     = errors.New("malformed weight record")
	ErrUnresolvedInfluence = errors.New("unresolved influences")
	ErrAmbiguousInfluence  = errors.New("ambiguous influence name")
	ErrInvalidRemap        = errors.New("invalid influence remap")
	ErrMissingInfluence    = errors.New("deformer influence missing from weight record")
	ErrPromptAborted       = errors.New("remap prompt aborted")
	ErrCancelled           = errors.New("cancelled by user")
)

// NoSelectionError reports that nothing resolvable to a shape was given.
type NoSelectionError struct {
	Selection string
}

func (e *NoSelectionError) Error() string {
	if e.Selection == "" {
		return ErrNoSelection.Error()
	}
	return fmt.Sprintf("no shape connected to '%s'", e.Selection)
}

func (e *NoSelectionError) Unwrap() error { return ErrNoSelection }

// NoDeformerError reports a shape without a deformer, or one that could not be created.
type NoDeformerError struct {
	Shape  string
	Reason string
}

func (e *NoDeformerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("no deformer attached to '%s': %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("no deformer attached to '%s'", e.Shape)
}

func (e *NoDeformerError) Unwrap() error { return ErrNoDeformer }

type VertexCountMismatchError struct {
	Shape    string
	Expected int // vertex count of the target shape
	Actual   int // vertex count stored in the record
}

func (e *VertexCountMismatchError) Error() string {
	return fmt.Sprintf("vertex counts do not match: selected mesh '%s' %d, imported mesh %d", e.Shape, e.Expected, e.Actual)
}

func (e *VertexCountMismatchError) Unwrap() error { return ErrVertexCountMismatch }

// MalformedRecordError collects every problem found while decoding or validating a record.
type MalformedRecordError struct {
	Source string
	Errs   *multierror.Error
}

// NewMalformedRecordError wraps the given problems. It returns nil when there are none.
func NewMalformedRecordError(source string, errs ...error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr.ErrorOrNil() == nil {
		return nil
	}
	merr.ErrorFormat = func(es []error) string {
		msgs := make([]string, len(es))
		for i, err := range es {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return &MalformedRecordError{Source: source, Errs: merr}
}

func (e *MalformedRecordError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedRecord, e.Errs.Error())
	}
	return fmt.Sprintf("%s '%s': %s", ErrMalformedRecord, e.Source, e.Errs.Error())
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// Problems returns the individual decoding or validation failures.
func (e *MalformedRecordError) Problems() []error {
	return e.Errs.WrappedErrors()
}

type UnresolvedInfluenceError struct {
	Influences []string
}

func (e *UnresolvedInfluenceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedInfluence, strings.Join(e.Influences, ", "))
}

func (e *UnresolvedInfluenceError) Unwrap() error { return ErrUnresolvedInfluence }

// AmbiguousInfluenceError is returned when an imported name matches more than one
// scene influence once namespaces are stripped.
type AmbiguousInfluenceError struct {
	Influence  string
	Candidates []string
}

func (e *AmbiguousInfluenceError) Error() string {
	return fmt.Sprintf("%s '%s' matches %s", ErrAmbiguousInfluence, e.Influence, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousInfluenceError) Unwrap() error { return ErrAmbiguousInfluence }

type InvalidRemapError struct {
	Source      string
	Destination string
	Reason      string
}

func (e *InvalidRemapError) Error() string {
	return fmt.Sprintf("%s '%s' -> '%s': %s", ErrInvalidRemap, e.Source, e.Destination, e.Reason)
}

func (e *InvalidRemapError) Unwrap() error { return ErrInvalidRemap }

type MissingInfluenceError struct {
	Deformer   string
	Influences []string
}

func (e *MissingInfluenceError) Error() string {
	return fmt.Sprintf("%s '%s': %s", ErrMissingInfluence, e.Deformer, strings.Join(e.Influences, ", "))
}

func (e *MissingInfluenceError) Unwrap() error { return ErrMissingInfluence }
