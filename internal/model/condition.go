package model

import "fmt"

// BlockType distinguishes the two SART block variants. In a response
// inhibition block the target digit is a no-go stimulus; in a
// non-response-inhibition block every digit requires a response.
type BlockType string

const (
	BlockResponseInhibition    BlockType = "RI"
	BlockNonResponseInhibition BlockType = "NRI"
)

// Modality is the mood induction delivery mechanism.
type Modality string

const (
	ModalityVeltenMusic Modality = "velten_music"
	ModalityVideo       Modality = "video"
)

// Valence is the target mood direction of an induction.
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
)

// InductionSpec pairs a modality with a target valence. Immutable value.
type InductionSpec struct {
	Modality Modality `yaml:"modality" json:"modality"`
	Valence  Valence  `yaml:"valence" json:"valence"`
}

// Label renders the compact notation used in the counterbalancing
// literature: V+ / V- for Velten, M+ / M- for movie clips.
func (s InductionSpec) Label() string {
	m := "M"
	if s.Modality == ModalityVeltenMusic {
		m = "V"
	}
	v := "-"
	if s.Valence == ValencePositive {
		v = "+"
	}
	return m + v
}

// BlocksPerSession is the number of paired induction/SART blocks in the
// counterbalanced design.
const BlocksPerSession = 4

// Condition is one of the four counterbalancing conditions. Instances are
// defined once in the condition table and never mutated.
type Condition struct {
	ID                int             `yaml:"id" json:"id"`
	SARTOrder         []BlockType     `yaml:"sart_order" json:"sart_order"`
	InductionSequence []InductionSpec `yaml:"induction_sequence" json:"induction_sequence"`
	MoodRepair        bool            `yaml:"mood_repair" json:"mood_repair"`
}

// Validate checks the structural invariant every table entry must satisfy:
// both sequences describe the same number of alternating blocks.
func (c Condition) Validate() error {
	if len(c.SARTOrder) != BlocksPerSession {
		return NewConfigurationError(
			fmt.Sprintf("condition[%d].sart_order", c.ID),
			"expected %d entries, got %d", BlocksPerSession, len(c.SARTOrder))
	}
	if len(c.InductionSequence) != BlocksPerSession {
		return NewConfigurationError(
			fmt.Sprintf("condition[%d].induction_sequence", c.ID),
			"expected %d entries, got %d", BlocksPerSession, len(c.InductionSequence))
	}
	return nil
}
