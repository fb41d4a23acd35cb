package plan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionking1994/moodsart/internal/condition"
	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/scale"
)

func demoParams(t *testing.T) model.Params {
	t.Helper()
	p, err := scale.Scale(scale.Nominal(), model.ModeDemo)
	require.NoError(t, err)
	return p
}

func mustCondition(t *testing.T, id int) model.Condition {
	t.Helper()
	c, err := condition.Get(id)
	require.NoError(t, err)
	return c
}

func TestBuildDemoCondition1Scenario(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 1), demoParams(t))
	require.NoError(t, err)

	// Opens with exactly one baseline mood rating.
	assert.Equal(t, model.PhaseMoodRating, p.Phases[0].Kind)
	assert.Equal(t, "baseline", p.Phases[0].Label)

	var inductions []*model.InductionPhase
	var sarts []*model.SartBlockPhase
	for _, ph := range p.Phases {
		switch ph.Kind {
		case model.PhaseInduction:
			inductions = append(inductions, ph.Induction)
		case model.PhaseSartBlock:
			sarts = append(sarts, ph.Sart)
		}
	}

	require.Len(t, inductions, 4)
	wantValence := []model.Valence{
		model.ValencePositive, model.ValencePositive,
		model.ValenceNegative, model.ValenceNegative,
	}
	for i, ind := range inductions {
		assert.Equal(t, model.ModalityVeltenMusic, ind.Spec.Modality, "induction %d", i+1)
		assert.Equal(t, wantValence[i], ind.Spec.Valence, "induction %d", i+1)
		assert.Equal(t, 3, ind.StatementCount, "induction %d", i+1)
		assert.Len(t, ind.Statements, 3, "induction %d", i+1)
	}

	require.Len(t, sarts, 4)
	wantBlocks := []model.BlockType{"RI", "NRI", "RI", "NRI"}
	for i, s := range sarts {
		assert.Equal(t, wantBlocks[i], s.BlockType, "block %d", i+1)
		assert.Equal(t, 10, s.TrialCount, "block %d", i+1)
		assert.Equal(t, i+1, s.BlockNumber)
	}

	// Exactly one mood repair, and the plan ends repair -> final rating.
	assert.Equal(t, 1, p.CountKind(model.PhaseMoodRepair))
	last := p.Phases[len(p.Phases)-1]
	assert.Equal(t, model.PhaseMoodRating, last.Kind)
	assert.Equal(t, "post_repair", last.Label)
	secondLast := p.Phases[len(p.Phases)-2]
	assert.Equal(t, model.PhaseMoodRepair, secondLast.Kind)
}

func TestBuildCondition2HasNoMoodRepair(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 2), demoParams(t))
	require.NoError(t, err)
	assert.Equal(t, 0, p.CountKind(model.PhaseMoodRepair))
	last := p.Phases[len(p.Phases)-1]
	assert.Equal(t, model.PhaseSartBlock, last.Kind, "without repair the plan ends on the last block")
}

func TestBuildWashoutAfterSecondBlock(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 1), demoParams(t))
	require.NoError(t, err)

	washoutIdx := -1
	secondBlockIdx := -1
	thirdInductionIdx := -1
	for i, ph := range p.Phases {
		if ph.Kind == model.PhaseWashout {
			washoutIdx = i
		}
		if ph.Kind == model.PhaseSartBlock && ph.Sart.BlockNumber == 2 {
			secondBlockIdx = i
		}
		if ph.Kind == model.PhaseInduction && ph.Induction.PhaseNumber == 3 {
			thirdInductionIdx = i
		}
	}
	require.NotEqual(t, -1, washoutIdx, "plan missing washout")
	assert.Greater(t, washoutIdx, secondBlockIdx)
	assert.Less(t, washoutIdx, thirdInductionIdx)
	// Washout is followed by its own mood rating.
	assert.Equal(t, model.PhaseMoodRating, p.Phases[washoutIdx+1].Kind)
	assert.Equal(t, "post_washout", p.Phases[washoutIdx+1].Label)
}

func TestBuildVeltenSetRotation(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 1), demoParams(t))
	require.NoError(t, err)

	var sets []string
	for _, ph := range p.Phases {
		if ph.Kind == model.PhaseInduction {
			sets = append(sets, ph.Induction.VeltenSet)
		}
	}
	assert.Equal(t, []string{
		"positive_set_a", "positive_set_b",
		"negative_set_a", "negative_set_b",
	}, sets)
}

func TestBuildVideoClipRotation(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 3), demoParams(t))
	require.NoError(t, err)

	var clips []string
	for _, ph := range p.Phases {
		if ph.Kind == model.PhaseInduction {
			require.Equal(t, model.ModalityVideo, ph.Induction.Spec.Modality)
			clips = append(clips, ph.Induction.VideoClip)
		}
	}
	assert.Equal(t, []string{
		"positive_clip", "positive_clip2",
		"negative_clip", "negative_clip2",
	}, clips)
}

func TestBuildDeterministic(t *testing.T) {
	cond := mustCondition(t, 1)
	params := demoParams(t)

	a, err := Build("p001", cond, params)
	require.NoError(t, err)
	b, err := Build("p001", cond, params)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(a, b), "identical inputs must produce structurally equal plans")

	c, err := Build("p002", cond, params)
	require.NoError(t, err)
	assert.NotEqual(t, a.Phases, c.Phases, "trial seeds differ across participants")
}

func TestBuildRejectsBadInputs(t *testing.T) {
	cond := mustCondition(t, 1)
	params := demoParams(t)

	_, err := Build("", cond, params)
	require.Error(t, err)

	bad := params
	bad.SARTTrialsPerBlock = 0
	_, err = Build("p001", cond, bad)
	require.Error(t, err)
	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	short := cond
	short.InductionSequence = short.InductionSequence[:2]
	_, err = Build("p001", short, params)
	require.Error(t, err)
}

func TestBuildFullModeCounts(t *testing.T) {
	full, err := scale.Scale(scale.Nominal(), model.ModeFull)
	require.NoError(t, err)
	p, err := Build("p001", mustCondition(t, 1), full)
	require.NoError(t, err)

	for _, s := range p.SartBlocks() {
		assert.Equal(t, 120, s.TrialCount)
		assert.Len(t, s.ProbeIndices, 8)
	}
	for _, ph := range p.Phases {
		if ph.Kind == model.PhaseInduction {
			assert.Equal(t, 12, ph.Induction.StatementCount)
		}
	}
}

func TestValidateCatchesTampering(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 1), demoParams(t))
	require.NoError(t, err)
	require.NoError(t, Validate(p))

	// Clamp-style corruption: probe outside the block.
	p.SartBlocks()[0].ProbeIndices[0] = 10
	err = Validate(p)
	require.Error(t, err)
	var sv *model.ScheduleViolation
	assert.True(t, errors.As(err, &sv), "got %T", err)
}

func TestValidateRepairMismatch(t *testing.T) {
	p, err := Build("p001", mustCondition(t, 2), demoParams(t))
	require.NoError(t, err)

	// A plan for a no-repair condition must not acquire a repair phase.
	p.Phases = append(p.Phases, model.Phase{
		Kind:       model.PhaseMoodRepair,
		Label:      "mood_repair",
		MoodRepair: &model.MoodRepairPhase{ClipDefault: "repair_clip", ClipAnimal: "repair_clip_animal"},
	})
	require.Error(t, Validate(p))
}
