package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/session"
	atomicyaml "github.com/lionking1994/moodsart/internal/yaml"
)

// recordPayload is the wire form of a trial record, shared by result.submit
// frames and YAML drop files in the spool directory. Optional ratings stay
// pointers so absent and zero are distinguishable.
type recordPayload struct {
	ParticipantCode string    `json:"participant_code,omitempty" yaml:"participant_code,omitempty"`
	Timestamp       time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Phase           string    `json:"phase" yaml:"phase"`
	BlockType       string    `json:"block_type,omitempty" yaml:"block_type,omitempty"`
	BlockNumber     int       `json:"block_number,omitempty" yaml:"block_number,omitempty"`
	TrialNumber     int       `json:"trial_number,omitempty" yaml:"trial_number,omitempty"`
	Stimulus        string    `json:"stimulus,omitempty" yaml:"stimulus,omitempty"`
	Position        string    `json:"stimulus_position,omitempty" yaml:"stimulus_position,omitempty"`
	Response        string    `json:"response,omitempty" yaml:"response,omitempty"`
	CorrectResponse string    `json:"correct_response,omitempty" yaml:"correct_response,omitempty"`
	Accuracy        *int      `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	ReactionTime    *float64  `json:"reaction_time,omitempty" yaml:"reaction_time,omitempty"`
	MoodRating      *int      `json:"mood_rating,omitempty" yaml:"mood_rating,omitempty"`
	TUTRating       *int      `json:"mw_tut_rating,omitempty" yaml:"mw_tut_rating,omitempty"`
	FMTRating       *int      `json:"mw_fmt_rating,omitempty" yaml:"mw_fmt_rating,omitempty"`
	VeltenRating    *int      `json:"velten_rating,omitempty" yaml:"velten_rating,omitempty"`
	VeltenStatement string    `json:"velten_statement,omitempty" yaml:"velten_statement,omitempty"`
	VideoFile       string    `json:"video_file,omitempty" yaml:"video_file,omitempty"`
	AudioFile       string    `json:"audio_file,omitempty" yaml:"audio_file,omitempty"`
	RepairChoice    string    `json:"mood_repair_choice,omitempty" yaml:"mood_repair_choice,omitempty"`
}

// toModel fills session-owned identity fields the presentation layer may
// omit: participant code, condition, session start, and the timestamp.
func (p *recordPayload) toModel(s *session.Session) *model.TrialRecord {
	rec := &model.TrialRecord{
		ParticipantCode: p.ParticipantCode,
		ConditionID:     s.State.ConditionID,
		SessionStart:    s.State.StartedAt,
		Timestamp:       p.Timestamp,
		Phase:           p.Phase,
		BlockType:       model.BlockType(p.BlockType),
		BlockNumber:     p.BlockNumber,
		TrialNumber:     p.TrialNumber,
		Stimulus:        p.Stimulus,
		Position:        p.Position,
		Response:        p.Response,
		CorrectResponse: p.CorrectResponse,
		Accuracy:        p.Accuracy,
		ReactionTime:    p.ReactionTime,
		MoodRating:      p.MoodRating,
		TUTRating:       p.TUTRating,
		FMTRating:       p.FMTRating,
		VeltenRating:    p.VeltenRating,
		VeltenStatement: p.VeltenStatement,
		VideoFile:       p.VideoFile,
		AudioFile:       p.AudioFile,
		RepairChoice:    p.RepairChoice,
	}
	if rec.ParticipantCode == "" {
		rec.ParticipantCode = s.State.ParticipantCode
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return rec
}

// scanSpool processes record files that accumulated while the daemon was
// not watching.
func (d *Daemon) scanSpool() {
	entries, err := os.ReadDir(d.sess.Paths.SpoolDir)
	if err != nil {
		d.log(LogLevelError, "scan spool: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		d.processSpoolFile(filepath.Join(d.sess.Paths.SpoolDir, e.Name()))
	}
}

// processSpoolFile ingests one dropped record file. Good records move into
// the CSV and the file is removed; malformed files are quarantined so the
// session keeps running.
func (d *Daemon) processSpoolFile(path string) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		return
	}
	// Writers drop temp files first and rename into place.
	if strings.HasPrefix(name, ".") {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	var payload recordPayload
	if err := atomicyaml.Read(path, &payload); err != nil {
		d.log(LogLevelWarn, "malformed spool file %s: %v", name, err)
		if qerr := atomicyaml.Quarantine(d.sess.Paths.Root, path); qerr != nil {
			d.log(LogLevelError, "quarantine %s: %v", name, qerr)
		}
		return
	}

	rec := payload.toModel(d.sess)
	if err := d.appendRecord(rec); err != nil {
		d.log(LogLevelWarn, "rejected spool record %s: %v", name, err)
		if qerr := atomicyaml.Quarantine(d.sess.Paths.Root, path); qerr != nil {
			d.log(LogLevelError, "quarantine %s: %v", name, qerr)
		}
		return
	}

	if err := os.Remove(path); err != nil {
		d.log(LogLevelError, "remove ingested spool file %s: %v", name, err)
	}
	d.log(LogLevelDebug, "ingested spool record %s phase=%s", name, rec.Phase)
}
