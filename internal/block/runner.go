// Package block implements the per-SART-block state machine the
// presentation layer drives. The runner enforces legal transitions and
// decides when a mind-wandering probe interrupts the trial stream; it owns
// no timing, rendering, or input state.
package block

import (
	"fmt"

	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/schedule"
)

// State is the runner's position within a block.
type State string

const (
	StateIdle             State = "idle"
	StatePresentingTrial  State = "presenting_trial"
	StateAwaitingResponse State = "awaiting_response"
	StatePresentingProbe  State = "presenting_probe"
	StateBlockComplete    State = "block_complete"
)

var validTransitions = map[State]map[State]bool{
	StateIdle: {
		StatePresentingTrial: true,
	},
	StatePresentingTrial: {
		StateAwaitingResponse: true,
	},
	StateAwaitingResponse: {
		StatePresentingProbe: true,
		StatePresentingTrial: true,
		StateBlockComplete:   true,
	},
	StatePresentingProbe: {
		StatePresentingTrial: true,
		StateBlockComplete:   true,
	},
}

// TransitionError reports an illegal state machine step.
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid block transition: %s -> %s", e.From, e.To)
}

// Runner walks one SART block. Probe indices come from the plan; the
// runner never invents or drops probes.
type Runner struct {
	trialCount int
	probes     map[int]bool
	state      State
	trialIndex int // 0-based index of the trial currently on screen
}

// NewRunner validates the probe schedule against the trial count and
// returns a runner in Idle.
func NewRunner(sart *model.SartBlockPhase) (*Runner, error) {
	if sart == nil {
		return nil, model.NewConfigurationError("sart", "nil block phase")
	}
	if err := schedule.CheckProbes(sart.ProbeIndices, sart.TrialCount); err != nil {
		return nil, err
	}
	probes := make(map[int]bool, len(sart.ProbeIndices))
	for _, idx := range sart.ProbeIndices {
		probes[idx] = true
	}
	return &Runner{
		trialCount: sart.TrialCount,
		probes:     probes,
		state:      StateIdle,
	}, nil
}

// State returns the current state.
func (r *Runner) State() State { return r.state }

// TrialIndex returns the 0-based index of the current trial. Meaningless
// in Idle and BlockComplete.
func (r *Runner) TrialIndex() int { return r.trialIndex }

// Start begins the block: Idle -> PresentingTrial for trial 0.
func (r *Runner) Start() error {
	if err := r.transition(StatePresentingTrial); err != nil {
		return err
	}
	r.trialIndex = 0
	return nil
}

// StimulusOnset marks the stimulus appearing: PresentingTrial ->
// AwaitingResponse.
func (r *Runner) StimulusOnset() error {
	return r.transition(StateAwaitingResponse)
}

// Respond consumes the participant's response (or timeout) for the current
// trial. If the current trial index is a probe index the runner moves to
// PresentingProbe; otherwise it advances to the next trial, or completes
// the block after the last one.
func (r *Runner) Respond() error {
	if r.state != StateAwaitingResponse {
		return &TransitionError{From: r.state, To: StatePresentingTrial}
	}
	if r.probes[r.trialIndex] {
		return r.transition(StatePresentingProbe)
	}
	return r.advance()
}

// ProbeDone resumes the trial stream after a probe response or probe
// timeout.
func (r *Runner) ProbeDone() error {
	if r.state != StatePresentingProbe {
		return &TransitionError{From: r.state, To: StatePresentingTrial}
	}
	return r.advance()
}

func (r *Runner) advance() error {
	if r.trialIndex >= r.trialCount-1 {
		return r.transition(StateBlockComplete)
	}
	if err := r.transition(StatePresentingTrial); err != nil {
		return err
	}
	r.trialIndex++
	return nil
}

func (r *Runner) transition(to State) error {
	if !validTransitions[r.state][to] {
		return &TransitionError{From: r.state, To: to}
	}
	r.state = to
	return nil
}
