// Package schedule computes the deterministic within-block schedules: mind-
// wandering probe insertion points and the SART digit sequence.
package schedule

import (
	"github.com/lionking1994/moodsart/internal/model"
)

// nominalProbeSpacing is the midpoint of the 13-17 trial inter-probe
// interval from the full design. Probe counts derive from it so that demo
// blocks get proportionally fewer probes, rounded down, floor of one.
const nominalProbeSpacing = 15

// Probes returns the trial indices at which a mind-wandering probe
// interrupts the block. The policy is a pure function of (trialCount, mode):
// indices are strictly inside the block (never before the first trial),
// strictly increasing, and never adjacent. The result is validated before
// being returned; a violation fails the build rather than being clamped.
func Probes(trialCount int, mode model.Mode) ([]int, error) {
	if !mode.Valid() {
		return nil, model.NewConfigurationError("mode", "invalid mode %q", string(mode))
	}
	if trialCount < 2 {
		return nil, model.NewConfigurationError("trial_count",
			"need at least 2 trials to place a probe, got %d", trialCount)
	}

	count := trialCount / nominalProbeSpacing
	if count < 1 {
		count = 1
	}
	spacing := trialCount / (count + 1)

	indices := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		indices = append(indices, i*spacing)
	}

	if err := CheckProbes(indices, trialCount); err != nil {
		return nil, err
	}
	return indices, nil
}

// CheckProbes verifies the probe insertion invariants: at least one probe,
// all indices in [1, trialCount), strictly increasing, no two consecutive.
func CheckProbes(indices []int, trialCount int) error {
	if len(indices) == 0 {
		return &model.ScheduleViolation{
			TrialCount: trialCount,
			Indices:    indices,
			Message:    "no probes scheduled (floor is 1 per block)",
		}
	}
	prev := -2
	for _, idx := range indices {
		if idx < 1 || idx >= trialCount {
			return &model.ScheduleViolation{
				TrialCount: trialCount,
				Indices:    indices,
				Message:    "probe index outside the block",
			}
		}
		if idx <= prev {
			return &model.ScheduleViolation{
				TrialCount: trialCount,
				Indices:    indices,
				Message:    "probe indices not strictly increasing",
			}
		}
		if idx == prev+1 {
			return &model.ScheduleViolation{
				TrialCount: trialCount,
				Indices:    indices,
				Message:    "two consecutive probe indices",
			}
		}
		prev = idx
	}
	return nil
}
