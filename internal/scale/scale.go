// Package scale maps the nominal parameter set to the per-mode parameter
// set used to instantiate a session plan. Scaling happens exactly once,
// before any dependent message or structure is built.
package scale

import (
	"fmt"
	"time"

	"github.com/lionking1994/moodsart/internal/model"
)

// Canonical parameter policy. Demo values are fixed constants, not derived
// from the nominal set by a formula.
const (
	FullSARTTrialsPerBlock       = 120
	FullVeltenStatementsPerPhase = 12

	DemoSARTTrialsPerBlock       = 10
	DemoVeltenStatementsPerPhase = 3
)

// Duration estimate constants, in seconds. Coarse by design; the status
// line promises an estimate, not a schedule.
const (
	secPerSARTTrial       = 1.9 // fixation 0.5 + stimulus 0.5 + ISI 0.9
	secPerVeltenStatement = 10.0
	secPerVideoInduction  = 180.0
	secPerMoodRating      = 15.0
	secPerProbe           = 20.0
	secWashout            = 150.0
	secMoodRepair         = 120.0
)

// Nominal returns the full-protocol parameter set.
func Nominal() model.Params {
	return model.Params{
		Mode:                     model.ModeFull,
		SARTTrialsPerBlock:       FullSARTTrialsPerBlock,
		VeltenStatementsPerPhase: FullVeltenStatementsPerPhase,
	}
}

// Scale returns the parameter set for the given mode. Full mode is the
// identity transform over the nominal set; demo mode returns the fixed
// shortened set regardless of the nominal values.
func Scale(nominal model.Params, mode model.Mode) (model.Params, error) {
	switch mode {
	case model.ModeFull:
		out := nominal
		out.Mode = model.ModeFull
		if err := out.Validate(); err != nil {
			return model.Params{}, err
		}
		return out, nil
	case model.ModeDemo:
		return model.Params{
			Mode:                     model.ModeDemo,
			SARTTrialsPerBlock:       DemoSARTTrialsPerBlock,
			VeltenStatementsPerPhase: DemoVeltenStatementsPerPhase,
		}, nil
	default:
		return model.Params{}, model.NewConfigurationError("mode", "invalid mode %q", string(mode))
	}
}

// StatusLine renders the one-line operator summary for the active mode.
// It accepts only the already-scaled parameter set, so the reported counts
// cannot regress to pre-scaling values.
func StatusLine(scaled model.Params, cond model.Condition) string {
	return fmt.Sprintf(
		"mode=%s condition=%d sart_trials_per_block=%d velten_statements_per_phase=%d est_duration=%s",
		scaled.Mode, cond.ID, scaled.SARTTrialsPerBlock, scaled.VeltenStatementsPerPhase,
		formatDuration(EstimateDuration(scaled, cond)))
}

// EstimateDuration approximates the wall-clock length of a session built
// from the scaled parameters and condition.
func EstimateDuration(scaled model.Params, cond model.Condition) time.Duration {
	sec := secPerMoodRating // baseline rating
	for _, spec := range cond.InductionSequence {
		if spec.Modality == model.ModalityVeltenMusic {
			sec += float64(scaled.VeltenStatementsPerPhase) * secPerVeltenStatement
		} else {
			sec += secPerVideoInduction
		}
		sec += secPerMoodRating // post-induction rating
		sec += float64(scaled.SARTTrialsPerBlock) * secPerSARTTrial
		sec += secPerProbe // at least one probe per block
	}
	sec += secWashout + secPerMoodRating
	if cond.MoodRepair {
		sec += secMoodRepair + secPerMoodRating
	}
	return time.Duration(sec * float64(time.Second))
}

func formatDuration(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		m = 1
	}
	return fmt.Sprintf("~%dm", m)
}
