package session

import (
	"fmt"

	"github.com/lionking1994/moodsart/internal/model"
)

// ErrSessionComplete is returned by phase operations once every phase has
// reached a terminal status.
var ErrSessionComplete = fmt.Errorf("session complete: all phases are done")

// Done reports whether every phase is terminal.
func (s *Session) Done() bool {
	for _, st := range s.State.PhaseStatuses {
		if !model.IsPhaseTerminal(st) {
			return false
		}
	}
	return true
}

// Current returns the index and descriptor of the phase the session is on.
func (s *Session) Current() (int, *model.Phase, error) {
	if s.Done() {
		return 0, nil, ErrSessionComplete
	}
	i := s.State.CurrentPhase
	if i < 0 || i >= len(s.Plan.Phases) {
		return 0, nil, fmt.Errorf("current phase index %d out of range", i)
	}
	return i, &s.Plan.Phases[i], nil
}

// Begin moves the current phase from pending to active.
func (s *Session) Begin() error {
	return s.transition(model.PhaseStatusActive, false)
}

// Complete finishes the current phase and advances to the next pending one.
func (s *Session) Complete() error {
	return s.transition(model.PhaseStatusCompleted, true)
}

// Skip marks the current phase skipped and advances. Used when the
// experimenter aborts a phase at the keyboard.
func (s *Session) Skip() error {
	return s.transition(model.PhaseStatusSkipped, true)
}

// Backout returns an active phase to pending without advancing, so the
// presentation layer can restart it after a display problem.
func (s *Session) Backout() error {
	return s.transition(model.PhaseStatusPending, false)
}

func (s *Session) transition(to model.PhaseStatus, advance bool) error {
	i, _, err := s.Current()
	if err != nil {
		return err
	}
	from := s.State.PhaseStatuses[i]
	if err := model.ValidatePhaseTransition(from, to); err != nil {
		return fmt.Errorf("phase %d (%s): %w", i, s.Plan.Phases[i].Label, err)
	}
	s.State.PhaseStatuses[i] = to

	if advance {
		for j := i + 1; j < len(s.State.PhaseStatuses); j++ {
			if !model.IsPhaseTerminal(s.State.PhaseStatuses[j]) {
				s.State.CurrentPhase = j
				break
			}
		}
	}
	return s.SaveState()
}

// Progress summarizes phase completion for status reporting.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
}

func (s *Session) Progress() Progress {
	p := Progress{Total: len(s.State.PhaseStatuses)}
	for _, st := range s.State.PhaseStatuses {
		switch st {
		case model.PhaseStatusCompleted:
			p.Completed++
		case model.PhaseStatusSkipped:
			p.Skipped++
		}
	}
	return p
}
