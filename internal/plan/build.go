// Package plan builds and validates session plans. A plan is the sole
// artifact the presentation layer consumes; construction is a pure,
// deterministic computation with no I/O.
package plan

import (
	"fmt"

	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/schedule"
	"github.com/lionking1994/moodsart/internal/stimuli"
	"github.com/lionking1994/moodsart/internal/velten"
)

// repairSeedSlot sits outside the 1..4 block numbers so the repair draw
// never shares a seed with a trial sequence.
const repairSeedSlot = 9

// Build resolves the full ordered phase sequence for one session:
// baseline mood rating, then four paired induction / post-induction rating
// / SART block runs, a neutral washout with rating after the second block,
// and a closing mood repair with final rating when the condition calls for
// it. For fixed arguments the output is identical across runs; every seed
// the plan needs is derived here, at construction time.
func Build(participantID string, cond model.Condition, scaled model.Params) (*model.SessionPlan, error) {
	if participantID == "" {
		return nil, model.NewConfigurationError("participant_id", "must not be empty")
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	if err := scaled.Validate(); err != nil {
		return nil, err
	}

	phases := []model.Phase{moodRating("baseline")}

	occurrence := map[model.Valence]int{}
	for i, spec := range cond.InductionSequence {
		phaseNumber := i + 1
		occ := occurrence[spec.Valence]
		occurrence[spec.Valence]++

		induction, err := buildInduction(spec, phaseNumber, occ, scaled)
		if err != nil {
			return nil, err
		}
		phases = append(phases, induction)
		phases = append(phases, moodRating(fmt.Sprintf("post_induction_%d", phaseNumber)))

		sart, err := buildSartBlock(participantID, cond.SARTOrder[i], phaseNumber, scaled)
		if err != nil {
			return nil, err
		}
		phases = append(phases, sart)

		// Neutral washout separates the first induction pair from the second.
		if phaseNumber == 2 {
			phases = append(phases, model.Phase{
				Kind:           model.PhaseWashout,
				Label:          "washout",
				InstructionKey: "neutral_washout",
				Washout:        &model.WashoutPhase{VideoClip: string(stimuli.ClipNeutral)},
			})
			phases = append(phases, moodRating("post_washout"))
		}
	}

	if cond.MoodRepair {
		phases = append(phases, model.Phase{
			Kind:           model.PhaseMoodRepair,
			Label:          "mood_repair",
			InstructionKey: "mood_repair",
			MoodRepair: &model.MoodRepairPhase{
				ClipDefault: string(stimuli.ClipRepair),
				ClipAnimal:  string(stimuli.ClipRepairAnimal),
				ChoiceSeed:  schedule.DeriveSeed(participantID, repairSeedSlot),
			},
		})
		phases = append(phases, moodRating("post_repair"))
	}

	p := &model.SessionPlan{
		ParticipantID: participantID,
		ConditionID:   cond.ID,
		Condition:     cond,
		Params:        scaled,
		Phases:        phases,
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func moodRating(label string) model.Phase {
	return model.Phase{
		Kind:           model.PhaseMoodRating,
		Label:          label,
		InstructionKey: "mood_rating",
	}
}

func buildInduction(spec model.InductionSpec, phaseNumber, occurrence int, scaled model.Params) (model.Phase, error) {
	ind := &model.InductionPhase{
		Spec:        spec,
		PhaseNumber: phaseNumber,
	}
	instructionKey := ""

	switch spec.Modality {
	case model.ModalityVeltenMusic:
		setName, statements, err := velten.Statements(
			spec.Valence, occurrence, scaled.VeltenStatementsPerPhase)
		if err != nil {
			return model.Phase{}, err
		}
		ind.StatementCount = scaled.VeltenStatementsPerPhase
		ind.VeltenSet = string(setName)
		ind.Statements = statements
		ind.MusicClip = string(stimuli.MusicFor(spec.Valence))
		instructionKey = "velten_intro"
	case model.ModalityVideo:
		clip, err := stimuli.ClipFor(spec.Valence, occurrence)
		if err != nil {
			return model.Phase{}, err
		}
		ind.VideoClip = string(clip)
		instructionKey = instructionKeyForClip(clip)
	default:
		return model.Phase{}, model.NewConfigurationError("induction.modality",
			"unknown modality %q", spec.Modality)
	}

	return model.Phase{
		Kind:           model.PhaseInduction,
		Label:          fmt.Sprintf("induction_%d", phaseNumber),
		InstructionKey: instructionKey,
		Induction:      ind,
	}, nil
}

func buildSartBlock(participantID string, blockType model.BlockType, blockNumber int, scaled model.Params) (model.Phase, error) {
	probes, err := schedule.Probes(scaled.SARTTrialsPerBlock, scaled.Mode)
	if err != nil {
		return model.Phase{}, err
	}
	instructionKey := "sart_non_inhibition"
	if blockType == model.BlockResponseInhibition {
		instructionKey = "sart_inhibition"
	}
	return model.Phase{
		Kind:           model.PhaseSartBlock,
		Label:          fmt.Sprintf("sart_block_%d", blockNumber),
		InstructionKey: instructionKey,
		Sart: &model.SartBlockPhase{
			BlockType:    blockType,
			BlockNumber:  blockNumber,
			TrialCount:   scaled.SARTTrialsPerBlock,
			ProbeIndices: probes,
			TrialSeed:    schedule.DeriveSeed(participantID, blockNumber),
		},
	}, nil
}

func instructionKeyForClip(clip stimuli.ClipKey) string {
	switch clip {
	case stimuli.ClipPositive1:
		return "film_positive_clip1"
	case stimuli.ClipPositive2:
		return "film_positive_clip2"
	default:
		return "film_general"
	}
}
