package plan

import (
	"fmt"

	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/schedule"
)

// Validate re-checks every structural invariant of a finished plan. Build
// calls it before returning; the daemon calls it again on plans loaded
// from disk, since a malformed plan corrupts the interpretability of all
// data collected under it.
func Validate(p *model.SessionPlan) error {
	if p == nil {
		return model.NewConfigurationError("plan", "is nil")
	}
	if p.ParticipantID == "" {
		return model.NewConfigurationError("plan.participant_id", "must not be empty")
	}
	if err := p.Condition.Validate(); err != nil {
		return err
	}
	if p.ConditionID != p.Condition.ID {
		return model.NewConfigurationError("plan.condition_id",
			"%d does not match embedded condition %d", p.ConditionID, p.Condition.ID)
	}
	if err := p.Params.Validate(); err != nil {
		return err
	}
	if len(p.Phases) == 0 {
		return model.NewConfigurationError("plan.phases", "empty plan")
	}

	first := p.Phases[0]
	if first.Kind != model.PhaseMoodRating || first.Label != "baseline" {
		return model.NewConfigurationError("plan.phases[0]",
			"plan must open with the baseline mood rating, got %s %q", first.Kind, first.Label)
	}

	for i, ph := range p.Phases {
		if err := validatePhase(i, ph); err != nil {
			return err
		}
	}

	if got := p.CountKind(model.PhaseInduction); got != model.BlocksPerSession {
		return model.NewConfigurationError("plan.phases",
			"expected %d induction phases, got %d", model.BlocksPerSession, got)
	}
	if got := p.CountKind(model.PhaseSartBlock); got != model.BlocksPerSession {
		return model.NewConfigurationError("plan.phases",
			"expected %d SART blocks, got %d", model.BlocksPerSession, got)
	}
	repairs := p.CountKind(model.PhaseMoodRepair)
	if p.Condition.MoodRepair && repairs != 1 {
		return model.NewConfigurationError("plan.phases",
			"condition %d requires exactly one mood repair phase, got %d", p.ConditionID, repairs)
	}
	if !p.Condition.MoodRepair && repairs != 0 {
		return model.NewConfigurationError("plan.phases",
			"condition %d must not contain a mood repair phase, got %d", p.ConditionID, repairs)
	}

	for _, sart := range p.SartBlocks() {
		if sart.TrialCount != p.Params.SARTTrialsPerBlock {
			return model.NewConfigurationError("plan.sart.trial_count",
				"block %d has %d trials, params say %d",
				sart.BlockNumber, sart.TrialCount, p.Params.SARTTrialsPerBlock)
		}
		if err := schedule.CheckProbes(sart.ProbeIndices, sart.TrialCount); err != nil {
			return err
		}
	}
	return nil
}

// validatePhase checks that exactly the variant matching Kind is populated.
func validatePhase(i int, ph model.Phase) error {
	field := fmt.Sprintf("plan.phases[%d]", i)
	set := 0
	if ph.Induction != nil {
		set++
	}
	if ph.Sart != nil {
		set++
	}
	if ph.Washout != nil {
		set++
	}
	if ph.MoodRepair != nil {
		set++
	}

	switch ph.Kind {
	case model.PhaseMoodRating:
		if set != 0 {
			return model.NewConfigurationError(field, "mood rating carries variant payload")
		}
	case model.PhaseInduction:
		if ph.Induction == nil || set != 1 {
			return model.NewConfigurationError(field, "induction payload mismatch")
		}
		ind := ph.Induction
		switch ind.Spec.Modality {
		case model.ModalityVeltenMusic:
			if ind.StatementCount <= 0 || len(ind.Statements) != ind.StatementCount {
				return model.NewConfigurationError(field,
					"velten induction carries %d statements, declared %d",
					len(ind.Statements), ind.StatementCount)
			}
			if ind.MusicClip == "" {
				return model.NewConfigurationError(field, "velten induction missing music clip")
			}
		case model.ModalityVideo:
			if ind.VideoClip == "" {
				return model.NewConfigurationError(field, "video induction missing clip")
			}
		}
	case model.PhaseSartBlock:
		if ph.Sart == nil || set != 1 {
			return model.NewConfigurationError(field, "sart payload mismatch")
		}
	case model.PhaseWashout:
		if ph.Washout == nil || set != 1 {
			return model.NewConfigurationError(field, "washout payload mismatch")
		}
	case model.PhaseMoodRepair:
		if ph.MoodRepair == nil || set != 1 {
			return model.NewConfigurationError(field, "mood repair payload mismatch")
		}
	default:
		return model.NewConfigurationError(field, "unknown phase kind %q", ph.Kind)
	}
	return nil
}
