package model

import (
	"fmt"
	"strconv"
	"time"
)

// TrialRecord is the flat per-event record handed to the persistence layer.
// One row is written per SART trial, mood rating, mind-wandering probe,
// Velten statement rating, and mood repair choice. Empty fields stay empty
// in the CSV rather than being zero-filled, so analysis scripts can
// distinguish "not applicable" from a real zero.
type TrialRecord struct {
	ParticipantCode string
	ConditionID     int
	SessionStart    time.Time
	Timestamp       time.Time
	Phase           string
	BlockType       BlockType
	BlockNumber     int
	TrialNumber     int
	Stimulus        string
	Position        string
	Response        string
	CorrectResponse string
	Accuracy        *int
	ReactionTime    *float64
	MoodRating      *int
	TUTRating       *int
	FMTRating       *int
	VeltenRating    *int
	VeltenStatement string
	VideoFile       string
	AudioFile       string
	RepairChoice    string
}

// RecordHeader is the CSV column set, matching the layout the analysis
// pipeline expects.
var RecordHeader = []string{
	"participant_code", "condition", "session_start", "timestamp",
	"phase", "block_type", "block_number", "trial_number",
	"stimulus", "stimulus_position", "response", "correct_response",
	"accuracy", "reaction_time",
	"mood_rating", "mw_tut_rating", "mw_fmt_rating",
	"velten_rating", "velten_statement",
	"video_file", "audio_file", "mood_repair_choice",
}

// Validate checks the fields every record must carry regardless of phase.
func (r *TrialRecord) Validate() error {
	if r.ParticipantCode == "" {
		return fmt.Errorf("record missing participant_code")
	}
	if r.Phase == "" {
		return fmt.Errorf("record missing phase")
	}
	if r.ConditionID < 1 {
		return fmt.Errorf("record has invalid condition id %d", r.ConditionID)
	}
	return nil
}

// Row renders the record in RecordHeader column order.
func (r *TrialRecord) Row() []string {
	return []string{
		r.ParticipantCode,
		strconv.Itoa(r.ConditionID),
		r.SessionStart.Format(time.RFC3339),
		r.Timestamp.Format(time.RFC3339),
		r.Phase,
		string(r.BlockType),
		intField(r.BlockNumber),
		intField(r.TrialNumber),
		r.Stimulus,
		r.Position,
		r.Response,
		r.CorrectResponse,
		intPtrField(r.Accuracy),
		floatPtrField(r.ReactionTime),
		intPtrField(r.MoodRating),
		intPtrField(r.TUTRating),
		intPtrField(r.FMTRating),
		intPtrField(r.VeltenRating),
		r.VeltenStatement,
		r.VideoFile,
		r.AudioFile,
		r.RepairChoice,
	}
}

func intField(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func intPtrField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatPtrField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
