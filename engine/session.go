package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
)

type Stage uint8

const (
	// Session created, nothing checked yet
	StageUninitialized Stage = iota
	// Record and target shape are being checked
	StageValidate
	// Influence names are being paired
	StageReconcile
	// Flat weight buffer is being built
	StageTransform
	// Deformer is being written
	StageCommit
	// Every stage completed
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageReconcile:
		return "reconcile"
	case StageTransform:
		return "transform"
	case StageCommit:
		return "commit"
	case StageDone:
		return "done"
	default:
		return "uninitialized"
	}
}

// session carries the state of one export or import call.
type session struct {
	ID     string
	Action string
	stage  Stage
	clock  *core.Clock
	total  *core.Clock
	log    *log.Logger
}

func newSession(action string) *session {
	id := core.NewSessionID()
	s := &session{
		ID:     id,
		Action: action,
		stage:  StageUninitialized,
		clock:  core.NewClock(),
		total:  core.NewClock(),
		log:    core.Logger().With("session", id, "action", action),
	}
	s.total.Start()
	return s
}

// enter moves to the next stage, logging how long the previous one took.
// It refuses to go on when ctx is done.
func (s *session) enter(ctx context.Context, stage Stage) error {
	s.finishStage()
	if err := ctx.Err(); err != nil {
		s.log.Warn("aborted", "before", stage.String(), "err", err)
		return err
	}
	s.stage = stage
	s.clock.Start()
	return nil
}

func (s *session) finishStage() {
	if s.stage == StageUninitialized || s.stage == StageDone {
		return
	}
	s.clock.Stop()
	s.log.Debug("stage finished", "stage", s.stage.String(), "elapsed", s.clock.Elapsed().Round(time.Microsecond))
}

func (s *session) done() time.Duration {
	s.finishStage()
	s.stage = StageDone
	s.total.Stop()
	return s.total.Elapsed()
}
