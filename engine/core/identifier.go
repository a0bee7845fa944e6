package core

import "github.com/google/uuid"

// NewSessionID returns a fresh identifier for one export or import session.
// It only tags log lines, nothing is keyed on it across calls.
func NewSessionID() string {
	return uuid.NewString()
}
