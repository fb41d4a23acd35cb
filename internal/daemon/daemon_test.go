package daemon

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionking1994/moodsart/internal/config"
	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/session"
	"github.com/lionking1994/moodsart/internal/uds"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	cfg := config.Default()
	cfg.Session.Mode = model.ModeDemo
	cfg.Session.Condition = 1

	sess, err := session.Setup(t.TempDir(), cfg, time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC))
	require.NoError(t, err)

	d, err := newDaemon(sess, io.Discard, nil)
	require.NoError(t, err)
	t.Cleanup(d.cleanup)
	return d
}

func call(t *testing.T, handler func(*uds.Request) *uds.Response, command string, params any) *uds.Response {
	t.Helper()
	req, err := uds.NewRequest(command, params)
	require.NoError(t, err)
	return handler(req)
}

func TestPlanGetReturnsFullPlan(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handlePlanGet, uds.CmdPlanGet, nil)
	require.True(t, resp.Success, "plan.get failed: %+v", resp.Error)

	var data struct {
		SessionID       string             `json:"session_id"`
		ParticipantCode string             `json:"participant_code"`
		Plan            *model.SessionPlan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, d.sess.State.SessionID, data.SessionID)
	require.NotNil(t, data.Plan)
	assert.Len(t, data.Plan.SartBlocks(), 4)
	assert.Equal(t, d.sess.Plan.Params, data.Plan.Params)
}

func TestTrialsGetMatchesPlanSeed(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleTrialsGet, uds.CmdTrialsGet, map[string]int{"block_number": 1})
	require.True(t, resp.Success, "trials.get failed: %+v", resp.Error)

	var data struct {
		BlockNumber  int             `json:"block_number"`
		BlockType    model.BlockType `json:"block_type"`
		ProbeIndices []int           `json:"probe_indices"`
		Trials       []trialPayload  `json:"trials"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, model.BlockResponseInhibition, data.BlockType)
	assert.Len(t, data.Trials, 10)
	assert.Equal(t, []int{5}, data.ProbeIndices)

	// The same request yields the same sequence: trials come from the seed
	// in the stored plan, not a fresh draw.
	again := call(t, d.handleTrialsGet, uds.CmdTrialsGet, map[string]int{"block_number": 1})
	require.True(t, again.Success)
	assert.JSONEq(t, string(resp.Data), string(again.Data))
}

func TestTrialsGetUnknownBlock(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleTrialsGet, uds.CmdTrialsGet, map[string]int{"block_number": 7})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeNotFound, resp.Error.Code)
}

func TestPhaseAdvanceLifecycle(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "begin"})
	require.True(t, resp.Success, "begin failed: %+v", resp.Error)

	// Completing a phase reports the next one.
	resp = call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "complete"})
	require.True(t, resp.Success)
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, false, data["done"])
	assert.Equal(t, float64(1), data["phase_index"])
	assert.Equal(t, string(model.PhaseInduction), data["phase_kind"])
}

func TestPhaseAdvanceRejectsBadTransition(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "complete"})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)

	resp = call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "teleport"})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestPhaseAdvanceToCompletion(t *testing.T) {
	d := newTestDaemon(t)

	var last map[string]any
	for i := 0; i < 2*len(d.sess.Plan.Phases); i++ {
		resp := call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "begin"})
		require.True(t, resp.Success)
		resp = call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "complete"})
		require.True(t, resp.Success)
		require.NoError(t, json.Unmarshal(resp.Data, &last))
		if last["done"] == true {
			break
		}
	}
	assert.Equal(t, true, last["done"])

	// Further advances are refused with a dedicated code.
	resp := call(t, d.handlePhaseAdvance, uds.CmdPhaseAdvance, map[string]string{"action": "begin"})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeSessionComplete, resp.Error.Code)
}

func TestResultSubmitAppendsToCSV(t *testing.T) {
	d := newTestDaemon(t)

	acc := 1
	rt := 0.388
	resp := call(t, d.handleResultSubmit, uds.CmdResultSubmit, recordPayload{
		Phase:        "sart_block",
		BlockType:    "RI",
		BlockNumber:  1,
		TrialNumber:  4,
		Stimulus:     "7",
		Position:     "right",
		Response:     "space",
		Accuracy:     &acc,
		ReactionTime: &rt,
	})
	require.True(t, resp.Success, "result.submit failed: %+v", resp.Error)

	f, err := os.Open(d.sess.State.DataFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, d.sess.State.ParticipantCode, rows[1][0], "identity filled from session")
	assert.Equal(t, "7", rows[1][8])
}

func TestResultSubmitRejectsForeignParticipant(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleResultSubmit, uds.CmdResultSubmit, recordPayload{
		ParticipantCode: "MOOD_SART_19990101_000000",
		Phase:           "sart_block",
	})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestProbeResultRecordsRatings(t *testing.T) {
	d := newTestDaemon(t)

	tut, fmtRating := 3, 5
	resp := call(t, d.handleProbeResult, uds.CmdProbeResult, probeResultParams{
		BlockNumber: 2,
		TrialNumber: 5,
		TUTRating:   &tut,
		FMTRating:   &fmtRating,
	})
	require.True(t, resp.Success, "probe.result failed: %+v", resp.Error)

	f, err := os.Open(d.sess.State.DataFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "mind_wandering_probe", rows[1][4])
	assert.Equal(t, "NRI", rows[1][5])
	assert.Equal(t, "3", rows[1][15])
	assert.Equal(t, "5", rows[1][16])
}

func TestProbeResultRequiresRatings(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleProbeResult, uds.CmdProbeResult, probeResultParams{BlockNumber: 1, TrialNumber: 5})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestSessionStatusReportsScaledCounts(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleSessionStatus, uds.CmdSessionStatus, nil)
	require.True(t, resp.Success)

	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "demo", data["mode"])
	assert.Equal(t, float64(1), data["condition_id"])
	assert.Contains(t, data["status_line"], "=10")
	assert.NotContains(t, data["status_line"], "=120")
	assert.Equal(t, false, data["done"])
}

func TestProcessSpoolFileIngestsRecord(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.MkdirAll(d.sess.Paths.SpoolDir, 0o755))

	path := filepath.Join(d.sess.Paths.SpoolDir, "rec_0001.yaml")
	raw := "phase: mood_rating\nmood_rating: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	d.processSpoolFile(path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "ingested file is removed")

	f, err := os.Open(d.sess.State.DataFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "mood_rating", rows[1][4])
	assert.Equal(t, "7", rows[1][14])
}

func TestProcessSpoolFileQuarantinesMalformed(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.MkdirAll(d.sess.Paths.SpoolDir, 0o755))

	path := filepath.Join(d.sess.Paths.SpoolDir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phase: [unclosed"), 0o644))

	d.processSpoolFile(path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "malformed file leaves the spool")

	quarantined, err := filepath.Glob(filepath.Join(d.sess.Paths.Root, "quarantine", "broken.yaml.*.corrupt"))
	require.NoError(t, err)
	assert.Len(t, quarantined, 1)
}

func TestProcessSpoolFileSkipsTempAndForeignFiles(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.MkdirAll(d.sess.Paths.SpoolDir, 0o755))

	for _, name := range []string{".tmp-rec.yaml", "notes.txt"} {
		path := filepath.Join(d.sess.Paths.SpoolDir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		d.processSpoolFile(path)
		_, err := os.Stat(path)
		assert.NoError(t, err, "%s must be left alone", name)
	}
	assert.Equal(t, 0, d.sess.Results.Rows())
}

func TestScanSpoolPicksUpBacklog(t *testing.T) {
	d := newTestDaemon(t)
	require.NoError(t, os.MkdirAll(d.sess.Paths.SpoolDir, 0o755))

	for i, phase := range []string{"mood_rating", "velten_rating"} {
		raw := "phase: " + phase + "\n"
		path := filepath.Join(d.sess.Paths.SpoolDir, "rec_"+string(rune('a'+i))+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	}

	d.scanSpool()
	assert.Equal(t, 2, d.sess.Results.Rows())
}

func TestRepairResolveHonorsPreference(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleRepairResolve, uds.CmdRepairResolve,
		map[string]string{"preference": "with_animals"})
	require.True(t, resp.Success, "repair.resolve failed: %+v", resp.Error)

	var data struct {
		Clip      string `json:"clip"`
		VideoFile string `json:"video_file"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "repair_clip_animal", data.Clip)
	assert.Contains(t, data.VideoFile, "repair_clip_animal.mp4")

	resp = call(t, d.handleRepairResolve, uds.CmdRepairResolve,
		map[string]string{"preference": "without_animals"})
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "repair_clip", data.Clip)
}

func TestRepairResolveNoPreferenceIsDeterministic(t *testing.T) {
	d := newTestDaemon(t)

	var first string
	for i := 0; i < 3; i++ {
		resp := call(t, d.handleRepairResolve, uds.CmdRepairResolve,
			map[string]string{"preference": "no_preference"})
		require.True(t, resp.Success, "repair.resolve failed: %+v", resp.Error)
		var data struct {
			Clip string `json:"clip"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		if i == 0 {
			first = data.Clip
			continue
		}
		assert.Equal(t, first, data.Clip, "choice seed must fix the draw")
	}
}

func TestRepairResolveRejectsUnknownPreference(t *testing.T) {
	d := newTestDaemon(t)

	resp := call(t, d.handleRepairResolve, uds.CmdRepairResolve,
		map[string]string{"preference": "maybe"})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeValidation, resp.Error.Code)
}

func TestRepairResolveWithoutRepairPhase(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Mode = model.ModeDemo
	cfg.Session.Condition = 2 // ends on a positive induction, no repair

	sess, err := session.Setup(t.TempDir(), cfg, time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC))
	require.NoError(t, err)
	d, err := newDaemon(sess, io.Discard, nil)
	require.NoError(t, err)
	t.Cleanup(d.cleanup)

	resp := call(t, d.handleRepairResolve, uds.CmdRepairResolve,
		map[string]string{"preference": "with_animals"})
	require.False(t, resp.Success)
	assert.Equal(t, uds.ErrCodeNotFound, resp.Error.Code)
}
