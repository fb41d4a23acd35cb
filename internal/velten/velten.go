// Package velten holds the mood-induction statement sets from the study's
// supplementary material. Two distinct sets exist per valence so that a
// re-induction of the same valence never repeats statements.
package velten

import (
	"github.com/lionking1994/moodsart/internal/model"
)

// SetName identifies one of the four statement sets.
type SetName string

const (
	PositiveSetA SetName = "positive_set_a"
	PositiveSetB SetName = "positive_set_b"
	NegativeSetA SetName = "negative_set_a"
	NegativeSetB SetName = "negative_set_b"
)

// StatementsPerSet is the size of every full statement set.
const StatementsPerSet = 12

var sets = map[SetName][]string{
	PositiveSetA: {
		"I am proud of my abilities.",
		"I feel strong and capable.",
		"I often accomplish the things I set out to do.",
		"I am a good person.",
		"I can handle challenges that come my way.",
		"People respect me.",
		"I have achieved things I'm proud of.",
		"I usually feel satisfied with my work.",
		"I know that I can rely on myself.",
		"I feel motivated and ready to take on new tasks.",
		"I have done many things well.",
		"I believe in myself.",
	},
	PositiveSetB: {
		"I feel confident and capable.",
		"I've grown a lot as a person.",
		"I make a difference in the lives of others.",
		"I have many strengths.",
		"I am improving all the time.",
		"People appreciate me.",
		"I usually find a way to succeed.",
		"I like the person I am becoming.",
		"I am in control of my life.",
		"I feel calm and focused.",
		"I have a positive impact on the world around me.",
		"I'm proud of how far I've come.",
	},
	NegativeSetA: {
		"I feel like a failure.",
		"I don't do anything right.",
		"Nothing I try ever works.",
		"I mess things up more than I fix them.",
		"I feel overwhelmed and hopeless.",
		"People don't notice me or care.",
		"I let people down.",
		"I don't have what it takes.",
		"I am not proud of myself.",
		"I feel stuck.",
		"I make too many mistakes.",
		"I feel like giving up.",
	},
	NegativeSetB: {
		"Nothing I do turns out right.",
		"I can't handle the pressure.",
		"I'm not good at anything.",
		"I don't like who I am.",
		"I avoid trying because I'll probably fail.",
		"I feel like a burden to others.",
		"I don't have control over my life.",
		"I often feel anxious and unsure.",
		"I'm falling behind everyone else.",
		"I feel like I'm not going anywhere.",
		"I keep making the same mistakes.",
		"I'm just not good enough.",
	},
}

// SetFor maps a valence and induction occurrence to a statement set: the
// first induction of a valence uses set A, the re-induction set B.
func SetFor(valence model.Valence, occurrence int) (SetName, error) {
	switch {
	case valence == model.ValencePositive && occurrence == 0:
		return PositiveSetA, nil
	case valence == model.ValencePositive && occurrence == 1:
		return PositiveSetB, nil
	case valence == model.ValenceNegative && occurrence == 0:
		return NegativeSetA, nil
	case valence == model.ValenceNegative && occurrence == 1:
		return NegativeSetB, nil
	default:
		return "", model.NewConfigurationError("velten.occurrence",
			"no statement set for valence %q occurrence %d", valence, occurrence)
	}
}

// Statements returns the first count statements of the set for the given
// valence and occurrence. count is the scaled per-phase statement count.
func Statements(valence model.Valence, occurrence, count int) (SetName, []string, error) {
	name, err := SetFor(valence, occurrence)
	if err != nil {
		return "", nil, err
	}
	if count < 1 || count > StatementsPerSet {
		return "", nil, model.NewConfigurationError("velten.statement_count",
			"count %d outside [1, %d]", count, StatementsPerSet)
	}
	out := append([]string(nil), sets[name][:count]...)
	return name, out, nil
}
