package service

import (
	"fmt"
	"time"

	appErr "github.com/xxxsen/curio/internal/pkg/errors"
)

type State string

const (
	StateIdle       State = "idle"
	StateSearching  State = "searching"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateError      State = "error"
)

var transitions = map[State][]State{
	StateIdle:       {StateSearching},
	StateSearching:  {StateGenerating, StateError},
	StateGenerating: {StateDone, StateError},
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Run tracks one submitted question through the answer pipeline.
type Run struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Run) moveTo(next State, now time.Time) error {
	if !r.State.canMoveTo(next) {
		return fmt.Errorf("run %s: %s -> %s: %w", r.ID, r.State, next, appErr.ErrInvalid)
	}
	r.State = next
	r.UpdatedAt = now
	return nil
}
