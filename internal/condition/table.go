// Package condition holds the static counterbalancing table and condition
// selection. Four conditions exist for the lifetime of the process; the
// table is never mutated and scaling never touches it.
package condition

import (
	"math/rand"

	"github.com/lionking1994/moodsart/internal/model"
)

// MinID and MaxID bound the closed condition id range.
const (
	MinID = 1
	MaxID = 4
)

var (
	ri  = model.BlockResponseInhibition
	nri = model.BlockNonResponseInhibition

	vPos = model.InductionSpec{Modality: model.ModalityVeltenMusic, Valence: model.ValencePositive}
	vNeg = model.InductionSpec{Modality: model.ModalityVeltenMusic, Valence: model.ValenceNegative}
	mPos = model.InductionSpec{Modality: model.ModalityVideo, Valence: model.ValencePositive}
	mNeg = model.InductionSpec{Modality: model.ModalityVideo, Valence: model.ValenceNegative}
)

// table encodes the experimental design. Conditions ending on a negative
// induction carry the mood repair flag.
var table = map[int]model.Condition{
	1: {
		ID:                1,
		SARTOrder:         []model.BlockType{ri, nri, ri, nri},
		InductionSequence: []model.InductionSpec{vPos, vPos, vNeg, vNeg},
		MoodRepair:        true,
	},
	2: {
		ID:                2,
		SARTOrder:         []model.BlockType{ri, nri, ri, nri},
		InductionSequence: []model.InductionSpec{vNeg, vNeg, vPos, vPos},
		MoodRepair:        false,
	},
	3: {
		ID:                3,
		SARTOrder:         []model.BlockType{nri, ri, nri, ri},
		InductionSequence: []model.InductionSpec{mPos, mPos, mNeg, mNeg},
		MoodRepair:        true,
	},
	4: {
		ID:                4,
		SARTOrder:         []model.BlockType{nri, ri, nri, ri},
		InductionSequence: []model.InductionSpec{mNeg, mNeg, mPos, mPos},
		MoodRepair:        false,
	},
}

// Get returns the condition for an id in [MinID, MaxID]. It is a total
// function over the closed table; any other id is a ConfigurationError.
// The returned value has copied slices so callers cannot mutate the table.
func Get(id int) (model.Condition, error) {
	c, ok := table[id]
	if !ok {
		return model.Condition{}, model.NewConfigurationError(
			"condition.id", "unknown condition %d (valid: %d..%d)", id, MinID, MaxID)
	}
	if err := c.Validate(); err != nil {
		return model.Condition{}, err
	}
	out := c
	out.SARTOrder = append([]model.BlockType(nil), c.SARTOrder...)
	out.InductionSequence = append([]model.InductionSpec(nil), c.InductionSequence...)
	return out, nil
}

// Select resolves the condition for a participant. A non-zero explicit id
// is used as-is; zero draws uniformly from the table, seeded so that test
// runs are reproducible.
func Select(explicit int, seed int64) (model.Condition, error) {
	if explicit != 0 {
		return Get(explicit)
	}
	rng := rand.New(rand.NewSource(seed))
	return Get(MinID + rng.Intn(MaxID-MinID+1))
}
