// Package status reports on a session directory: live through the daemon
// socket when one is running, otherwise from the persisted state files.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/session"
	"github.com/lionking1994/moodsart/internal/uds"
	atomicyaml "github.com/lionking1994/moodsart/internal/yaml"
)

// Report is the status snapshot for one session directory.
type Report struct {
	Live            bool       `json:"live"`
	SessionID       string     `json:"session_id,omitempty"`
	ParticipantCode string     `json:"participant_code,omitempty"`
	Mode            model.Mode `json:"mode,omitempty"`
	ConditionID     int        `json:"condition_id,omitempty"`
	StartedAt       string     `json:"started_at,omitempty"`
	StatusLine      string     `json:"status_line,omitempty"`
	CurrentPhase    string     `json:"current_phase,omitempty"`
	Done            bool       `json:"done"`
	Records         int        `json:"records,omitempty"`
	Progress        Progress   `json:"progress"`
}

type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
}

// Run gathers the report for dir and writes it to w.
func Run(dir string, cfg *model.Config, jsonOutput bool, w io.Writer) error {
	report, err := Gather(dir, cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(w, report)
	return nil
}

// Gather queries the daemon if its socket answers, then falls back to the
// session files on disk.
func Gather(dir string, cfg *model.Config) (*Report, error) {
	if r, ok := gatherLive(dir, cfg); ok {
		return r, nil
	}
	return gatherFromDisk(dir, cfg)
}

func gatherLive(dir string, cfg *model.Config) (*Report, bool) {
	client := uds.NewClient(filepath.Join(dir, cfg.Daemon.SocketName))
	timeout := 2 * time.Second
	if t := cfg.Daemon.ConnTimeoutSec; t > 0 && time.Duration(t)*time.Second < timeout {
		timeout = time.Duration(t) * time.Second
	}
	client.SetTimeout(timeout)

	resp, err := client.SendCommand(uds.CmdSessionStatus, nil)
	if err != nil || !resp.Success {
		return nil, false
	}

	var data struct {
		SessionID       string     `json:"session_id"`
		ParticipantCode string     `json:"participant_code"`
		Mode            model.Mode `json:"mode"`
		ConditionID     int        `json:"condition_id"`
		StartedAt       string     `json:"started_at"`
		StatusLine      string     `json:"status_line"`
		CurrentPhase    string     `json:"current_phase"`
		Records         int        `json:"records"`
		Done            bool       `json:"done"`
		Progress        Progress   `json:"progress"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, false
	}

	return &Report{
		Live:            true,
		SessionID:       data.SessionID,
		ParticipantCode: data.ParticipantCode,
		Mode:            data.Mode,
		ConditionID:     data.ConditionID,
		StartedAt:       data.StartedAt,
		StatusLine:      data.StatusLine,
		CurrentPhase:    data.CurrentPhase,
		Records:         data.Records,
		Done:            data.Done,
		Progress:        data.Progress,
	}, true
}

func gatherFromDisk(dir string, cfg *model.Config) (*Report, error) {
	paths := session.PathsFor(dir, cfg)

	var st session.State
	if err := atomicyaml.Read(paths.StateFile, &st); err != nil {
		return nil, fmt.Errorf("no running daemon and no session state in %s", dir)
	}

	report := &Report{
		Live:            false,
		SessionID:       st.SessionID,
		ParticipantCode: st.ParticipantCode,
		Mode:            st.Mode,
		ConditionID:     st.ConditionID,
		StartedAt:       st.StartedAt.Format(time.RFC3339),
		Progress:        Progress{Total: len(st.PhaseStatuses)},
	}
	done := true
	for _, ps := range st.PhaseStatuses {
		switch ps {
		case model.PhaseStatusCompleted:
			report.Progress.Completed++
		case model.PhaseStatusSkipped:
			report.Progress.Skipped++
		default:
			done = false
		}
	}
	report.Done = done
	return report, nil
}

func printReport(w io.Writer, r *Report) {
	if r.Live {
		fmt.Fprintln(w, "Daemon: running")
	} else {
		fmt.Fprintln(w, "Daemon: stopped (reading persisted state)")
	}

	fmt.Fprintf(w, "participant: %s\n", r.ParticipantCode)
	if r.StatusLine != "" {
		fmt.Fprintln(w, r.StatusLine)
	} else {
		fmt.Fprintf(w, "mode=%s condition=%d\n", r.Mode, r.ConditionID)
	}

	fmt.Fprintf(w, "phases: %d/%d completed", r.Progress.Completed, r.Progress.Total)
	if r.Progress.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", r.Progress.Skipped)
	}
	fmt.Fprintln(w)

	if r.Done {
		fmt.Fprintln(w, "session complete")
	} else if r.CurrentPhase != "" {
		fmt.Fprintf(w, "current phase: %s\n", r.CurrentPhase)
	}
	if r.Live {
		fmt.Fprintf(w, "records written: %d\n", r.Records)
	}
}
