package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lionking1994/moodsart/internal/events"
	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/schedule"
	"github.com/lionking1994/moodsart/internal/session"
	"github.com/lionking1994/moodsart/internal/stimuli"
	"github.com/lionking1994/moodsart/internal/uds"
)

func (d *Daemon) registerHandlers() {
	d.server.Handle("ping", func(req *uds.Request) *uds.Response {
		return uds.SuccessResponse(map[string]string{"status": "ok"})
	})
	d.server.Handle("shutdown", func(req *uds.Request) *uds.Response {
		d.log(LogLevelInfo, "shutdown requested via UDS")
		go d.Shutdown()
		return uds.SuccessResponse(map[string]string{"status": "shutdown_accepted"})
	})

	d.server.Handle(uds.CmdPlanGet, d.handlePlanGet)
	d.server.Handle(uds.CmdTrialsGet, d.handleTrialsGet)
	d.server.Handle(uds.CmdPhaseAdvance, d.handlePhaseAdvance)
	d.server.Handle(uds.CmdResultSubmit, d.handleResultSubmit)
	d.server.Handle(uds.CmdProbeResult, d.handleProbeResult)
	d.server.Handle(uds.CmdRepairResolve, d.handleRepairResolve)
	d.server.Handle(uds.CmdSessionStatus, d.handleSessionStatus)
}

func (d *Daemon) handlePlanGet(req *uds.Request) *uds.Response {
	key := d.sess.State.SessionID
	data, err, _ := d.planGroup.Do(key, func() (any, error) {
		return json.Marshal(map[string]any{
			"session_id":       d.sess.State.SessionID,
			"participant_code": d.sess.State.ParticipantCode,
			"plan":             d.sess.Plan,
		})
	})
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeInternal, fmt.Sprintf("marshal plan: %v", err))
	}
	return &uds.Response{Success: true, Data: data.([]byte)}
}

type trialsGetParams struct {
	BlockNumber int `json:"block_number"`
}

func (d *Daemon) handleTrialsGet(req *uds.Request) *uds.Response {
	var params trialsGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("parse params: %v", err))
	}

	var block *model.SartBlockPhase
	for _, b := range d.sess.Plan.SartBlocks() {
		if b.BlockNumber == params.BlockNumber {
			block = b
			break
		}
	}
	if block == nil {
		return uds.ErrorResponse(uds.ErrCodeNotFound,
			fmt.Sprintf("no SART block numbered %d", params.BlockNumber))
	}

	trials, err := schedule.Trials(block.TrialCount, block.BlockType, block.TrialSeed)
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}

	out := make([]trialPayload, len(trials))
	for i, tr := range trials {
		out[i] = trialPayload{
			Number:   tr.Number,
			Digit:    tr.Digit,
			Position: tr.Position,
			NoGo:     tr.NoGo,
		}
	}
	return uds.SuccessResponse(map[string]any{
		"block_number":  block.BlockNumber,
		"block_type":    block.BlockType,
		"probe_indices": block.ProbeIndices,
		"trials":        out,
	})
}

type trialPayload struct {
	Number   int    `json:"number"`
	Digit    int    `json:"digit"`
	Position string `json:"position"`
	NoGo     bool   `json:"no_go"`
}

type phaseAdvanceParams struct {
	Action string `json:"action"`
}

func (d *Daemon) handlePhaseAdvance(req *uds.Request) *uds.Response {
	var params phaseAdvanceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("parse params: %v", err))
	}

	d.lockMap.Lock(d.sess.State.ParticipantCode)
	defer d.lockMap.Unlock(d.sess.State.ParticipantCode)

	idx, phase, err := d.sess.Current()
	if err != nil {
		if errors.Is(err, session.ErrSessionComplete) {
			return uds.ErrorResponse(uds.ErrCodeSessionComplete, err.Error())
		}
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}
	label := phase.Label

	switch params.Action {
	case "begin":
		err = d.sess.Begin()
	case "complete":
		err = d.sess.Complete()
	case "skip":
		err = d.sess.Skip()
	case "backout":
		err = d.sess.Backout()
	default:
		return uds.ErrorResponse(uds.ErrCodeValidation,
			fmt.Sprintf("unknown action %q (want begin, complete, skip or backout)", params.Action))
	}
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}

	eventData := map[string]any{
		"session_id": d.sess.State.SessionID,
		"phase":      label,
		"action":     params.Action,
	}
	switch params.Action {
	case "begin":
		d.bus.Publish(events.PhaseStarted, eventData)
	case "complete", "skip":
		d.bus.Publish(events.PhaseCompleted, eventData)
	}
	d.log(LogLevelInfo, "phase %d (%s): %s", idx, label, params.Action)

	if d.sess.Done() {
		d.bus.Publish(events.SessionCompleted, map[string]any{
			"session_id":       d.sess.State.SessionID,
			"participant_code": d.sess.State.ParticipantCode,
		})
		d.log(LogLevelInfo, "session complete")
		return uds.SuccessResponse(map[string]any{"done": true})
	}

	next, nextPhase, err := d.sess.Current()
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}
	return uds.SuccessResponse(map[string]any{
		"done":            false,
		"phase_index":     next,
		"phase_kind":      nextPhase.Kind,
		"phase_label":     nextPhase.Label,
		"instruction_key": nextPhase.InstructionKey,
	})
}

func (d *Daemon) handleResultSubmit(req *uds.Request) *uds.Response {
	var payload recordPayload
	if err := json.Unmarshal(req.Params, &payload); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("parse record: %v", err))
	}

	if err := d.appendRecord(payload.toModel(d.sess)); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	return uds.SuccessResponse(map[string]any{"rows": d.sess.Results.Rows()})
}

type probeResultParams struct {
	BlockNumber int  `json:"block_number"`
	TrialNumber int  `json:"trial_number"`
	TUTRating   *int `json:"tut_rating"`
	FMTRating   *int `json:"fmt_rating"`
}

func (d *Daemon) handleProbeResult(req *uds.Request) *uds.Response {
	var params probeResultParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("parse params: %v", err))
	}
	if params.TUTRating == nil || params.FMTRating == nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, "probe result requires tut_rating and fmt_rating")
	}

	var blockType model.BlockType
	found := false
	for _, b := range d.sess.Plan.SartBlocks() {
		if b.BlockNumber == params.BlockNumber {
			blockType = b.BlockType
			found = true
			break
		}
	}
	if !found {
		return uds.ErrorResponse(uds.ErrCodeNotFound,
			fmt.Sprintf("no SART block numbered %d", params.BlockNumber))
	}

	rec := &model.TrialRecord{
		ParticipantCode: d.sess.State.ParticipantCode,
		ConditionID:     d.sess.State.ConditionID,
		SessionStart:    d.sess.State.StartedAt,
		Timestamp:       time.Now().UTC(),
		Phase:           "mind_wandering_probe",
		BlockType:       blockType,
		BlockNumber:     params.BlockNumber,
		TrialNumber:     params.TrialNumber,
		TUTRating:       params.TUTRating,
		FMTRating:       params.FMTRating,
	}
	if err := d.appendRecord(rec); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}

	d.bus.Publish(events.ProbePresented, map[string]any{
		"session_id":   d.sess.State.SessionID,
		"phase":        "mind_wandering_probe",
		"block_number": params.BlockNumber,
		"trial_number": params.TrialNumber,
	})
	return uds.SuccessResponse(nil)
}

type repairResolveParams struct {
	Preference string `json:"preference"`
}

func (d *Daemon) handleRepairResolve(req *uds.Request) *uds.Response {
	var params repairResolveParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, fmt.Sprintf("parse params: %v", err))
	}

	var repair *model.MoodRepairPhase
	for i := range d.sess.Plan.Phases {
		if d.sess.Plan.Phases[i].Kind == model.PhaseMoodRepair {
			repair = d.sess.Plan.Phases[i].MoodRepair
			break
		}
	}
	if repair == nil {
		return uds.ErrorResponse(uds.ErrCodeNotFound, "this session has no mood repair phase")
	}

	clip, err := stimuli.RepairClip(stimuli.RepairPreference(params.Preference), repair.ChoiceSeed)
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeValidation, err.Error())
	}
	path, err := stimuli.NewRegistry(d.sess.Config.Paths.StimuliDir).VideoPath(clip)
	if err != nil {
		return uds.ErrorResponse(uds.ErrCodeInternal, err.Error())
	}
	return uds.SuccessResponse(map[string]any{
		"clip":       clip,
		"video_file": path,
	})
}

func (d *Daemon) handleSessionStatus(req *uds.Request) *uds.Response {
	d.lockMap.Lock(d.sess.State.ParticipantCode)
	defer d.lockMap.Unlock(d.sess.State.ParticipantCode)

	progress := d.sess.Progress()
	status := map[string]any{
		"session_id":       d.sess.State.SessionID,
		"participant_code": d.sess.State.ParticipantCode,
		"mode":             d.sess.State.Mode,
		"condition_id":     d.sess.State.ConditionID,
		"started_at":       d.sess.State.StartedAt.Format(time.RFC3339),
		"status_line":      d.sess.StatusLine(),
		"progress":         progress,
		"records":          d.sess.Results.Rows(),
		"done":             d.sess.Done(),
	}
	if _, phase, err := d.sess.Current(); err == nil {
		status["current_phase"] = phase.Label
	}
	return uds.SuccessResponse(status)
}

// appendRecord writes one record to the CSV under the participant mutex
// and announces it on the bus.
func (d *Daemon) appendRecord(rec *model.TrialRecord) error {
	d.lockMap.Lock(rec.ParticipantCode)
	defer d.lockMap.Unlock(rec.ParticipantCode)

	if rec.ParticipantCode != d.sess.State.ParticipantCode {
		return fmt.Errorf("record names participant %q, session is %q",
			rec.ParticipantCode, d.sess.State.ParticipantCode)
	}
	if err := d.sess.Results.Append(rec); err != nil {
		return err
	}

	d.bus.Publish(events.RecordWritten, map[string]any{
		"session_id":   d.sess.State.SessionID,
		"phase":        rec.Phase,
		"block_number": rec.BlockNumber,
		"trial_number": rec.TrialNumber,
	})
	return nil
}
