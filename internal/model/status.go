package model

import "fmt"

// PhaseStatus tracks one plan phase through the session. Phases are
// independently resumable and skippable: any non-terminal phase may be
// activated or skipped regardless of what happened to its predecessors.
type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "pending"
	PhaseStatusActive    PhaseStatus = "active"
	PhaseStatusCompleted PhaseStatus = "completed"
	PhaseStatusSkipped   PhaseStatus = "skipped"
)

var terminalPhaseStatuses = map[PhaseStatus]bool{
	PhaseStatusCompleted: true,
	PhaseStatusSkipped:   true,
}

var validPhaseTransitions = map[PhaseStatus]map[PhaseStatus]bool{
	PhaseStatusPending: {
		PhaseStatusActive:  true,
		PhaseStatusSkipped: true,
	},
	PhaseStatusActive: {
		PhaseStatusCompleted: true,
		PhaseStatusSkipped:   true,
		// presentation layer may back out of a phase it never finished
		PhaseStatusPending: true,
	},
}

func IsPhaseTerminal(s PhaseStatus) bool {
	return terminalPhaseStatuses[s]
}

func ValidatePhaseTransition(from, to PhaseStatus) error {
	if validPhaseTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
}
