package model

// PhaseKind discriminates the phase descriptor variants.
type PhaseKind string

const (
	PhaseMoodRating PhaseKind = "mood_rating"
	PhaseInduction  PhaseKind = "induction"
	PhaseSartBlock  PhaseKind = "sart_block"
	PhaseWashout    PhaseKind = "washout"
	PhaseMoodRepair PhaseKind = "mood_repair"
)

// Phase is a single entry in a session plan. Exactly one of the variant
// pointers is set, matching Kind. A phase carries only the parameters the
// presentation layer needs to drive it; it owns no UI or device state, and
// no phase depends on state accumulated by executing prior phases.
type Phase struct {
	Kind           PhaseKind        `yaml:"kind" json:"kind"`
	Label          string           `yaml:"label" json:"label"`
	InstructionKey string           `yaml:"instruction_key,omitempty" json:"instruction_key,omitempty"`
	Induction      *InductionPhase  `yaml:"induction,omitempty" json:"induction,omitempty"`
	Sart           *SartBlockPhase  `yaml:"sart,omitempty" json:"sart,omitempty"`
	Washout        *WashoutPhase    `yaml:"washout,omitempty" json:"washout,omitempty"`
	MoodRepair     *MoodRepairPhase `yaml:"mood_repair,omitempty" json:"mood_repair,omitempty"`
}

// InductionPhase drives one mood induction. Velten inductions carry the
// resolved statement texts so the plan is self-contained for out-of-process
// presentation clients; video inductions carry the clip key instead.
type InductionPhase struct {
	Spec           InductionSpec `yaml:"spec" json:"spec"`
	PhaseNumber    int           `yaml:"phase_number" json:"phase_number"`
	StatementCount int           `yaml:"statement_count,omitempty" json:"statement_count,omitempty"`
	VeltenSet      string        `yaml:"velten_set,omitempty" json:"velten_set,omitempty"`
	Statements     []string      `yaml:"statements,omitempty" json:"statements,omitempty"`
	MusicClip      string        `yaml:"music_clip,omitempty" json:"music_clip,omitempty"`
	VideoClip      string        `yaml:"video_clip,omitempty" json:"video_clip,omitempty"`
}

// SartBlockPhase drives one SART block. TrialSeed fixes the digit sequence
// for the block so that a rebuilt plan reproduces it exactly.
type SartBlockPhase struct {
	BlockType    BlockType `yaml:"block_type" json:"block_type"`
	BlockNumber  int       `yaml:"block_number" json:"block_number"`
	TrialCount   int       `yaml:"trial_count" json:"trial_count"`
	ProbeIndices []int     `yaml:"probe_indices" json:"probe_indices"`
	TrialSeed    int64     `yaml:"trial_seed" json:"trial_seed"`
}

// WashoutPhase plays a neutral clip to return mood toward baseline between
// induction pairs.
type WashoutPhase struct {
	VideoClip string `yaml:"video_clip" json:"video_clip"`
}

// MoodRepairPhase closes sessions whose final induction was negative. The
// participant chooses between two uplifting clips; ChoiceSeed fixes the
// draw used when they state no preference.
type MoodRepairPhase struct {
	ClipDefault string `yaml:"clip_default" json:"clip_default"`
	ClipAnimal  string `yaml:"clip_animal" json:"clip_animal"`
	ChoiceSeed  int64  `yaml:"choice_seed" json:"choice_seed"`
}

// SessionPlan is the fully resolved, ordered plan for one session. It is
// created once at setup time and consumed read-only; all cross-phase data
// (condition, scaled params, seeds) is captured at construction.
type SessionPlan struct {
	ParticipantID string    `yaml:"participant_id" json:"participant_id"`
	ConditionID   int       `yaml:"condition_id" json:"condition_id"`
	Condition     Condition `yaml:"condition" json:"condition"`
	Params        Params    `yaml:"params" json:"params"`
	Phases        []Phase   `yaml:"phases" json:"phases"`
}

// CountKind returns how many phases of the given kind the plan contains.
func (p *SessionPlan) CountKind(kind PhaseKind) int {
	n := 0
	for _, ph := range p.Phases {
		if ph.Kind == kind {
			n++
		}
	}
	return n
}

// SartBlocks returns the SART block phases in presentation order.
func (p *SessionPlan) SartBlocks() []*SartBlockPhase {
	var blocks []*SartBlockPhase
	for i := range p.Phases {
		if p.Phases[i].Kind == PhaseSartBlock {
			blocks = append(blocks, p.Phases[i].Sart)
		}
	}
	return blocks
}
