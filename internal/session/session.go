// Package session owns the on-disk layout and lifecycle of one experiment
// session: identity, condition assignment, the resolved plan, phase
// progress, and the data file.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lionking1994/moodsart/internal/condition"
	"github.com/lionking1994/moodsart/internal/lock"
	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/plan"
	"github.com/lionking1994/moodsart/internal/results"
	"github.com/lionking1994/moodsart/internal/scale"
	"github.com/lionking1994/moodsart/internal/schedule"
	atomicyaml "github.com/lionking1994/moodsart/internal/yaml"
)

const (
	stateFileName = "session.yaml"
	planFileName  = "plan.yaml"
	lockFileName  = "session.lock"
	eventLogName  = "events.jsonl"
)

// Paths resolves every file a session touches under its directory.
type Paths struct {
	Root      string
	StateFile string
	PlanFile  string
	LockFile  string
	DataDir   string
	SpoolDir  string
	EventLog  string
	Socket    string
}

// PathsFor lays out a session under root using the configured names.
func PathsFor(root string, cfg *model.Config) Paths {
	return Paths{
		Root:      root,
		StateFile: filepath.Join(root, stateFileName),
		PlanFile:  filepath.Join(root, planFileName),
		LockFile:  filepath.Join(root, lockFileName),
		DataDir:   filepath.Join(root, cfg.Paths.DataDir),
		SpoolDir:  filepath.Join(root, cfg.Daemon.SpoolDirName),
		EventLog:  filepath.Join(root, eventLogName),
		Socket:    filepath.Join(root, cfg.Daemon.SocketName),
	}
}

// State is the persisted progress record, written atomically after every
// phase transition so an interrupted session can resume.
type State struct {
	SessionID       string              `yaml:"session_id"`
	ParticipantCode string              `yaml:"participant_code"`
	Mode            model.Mode          `yaml:"mode"`
	ConditionID     int                 `yaml:"condition_id"`
	StartedAt       time.Time           `yaml:"started_at"`
	DataFile        string              `yaml:"data_file"`
	CurrentPhase    int                 `yaml:"current_phase"`
	PhaseStatuses   []model.PhaseStatus `yaml:"phase_statuses"`
}

// Session is a live session: the immutable plan plus mutable progress.
// Callers serialize access; Session itself holds no internal locking
// beyond the file lock guarding the directory.
type Session struct {
	Paths   Paths
	Config  *model.Config
	Plan    *model.SessionPlan
	State   *State
	Results *results.Writer

	fileLock *lock.FileLock
}

// Setup creates a new session under root: assigns identity, selects the
// condition, scales the parameters, builds the plan, and persists
// everything. The directory lock is held until Close.
func Setup(root string, cfg *model.Config, now time.Time) (*Session, error) {
	scaled, err := scale.Scale(scale.Nominal(), cfg.Session.Mode)
	if err != nil {
		return nil, err
	}

	participantCode := model.NewParticipantCode(now)

	// An explicit seed reproduces a session exactly; otherwise the draw is
	// tied to the participant code so re-running setup for the same code
	// lands on the same condition.
	seed := cfg.Session.Seed
	if seed == 0 {
		seed = schedule.DeriveSeed(participantCode, 0)
	}
	cond, err := condition.Select(cfg.Session.Condition, seed)
	if err != nil {
		return nil, err
	}

	p, err := plan.Build(participantCode, cond, scaled)
	if err != nil {
		return nil, err
	}

	paths := PathsFor(root, cfg)
	for _, dir := range []string{paths.Root, paths.DataDir, paths.SpoolDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	fl := lock.NewFileLock(paths.LockFile)
	if err := fl.TryLock(); err != nil {
		return nil, err
	}

	s := &Session{
		Paths:  paths,
		Config: cfg,
		Plan:   p,
		State: &State{
			SessionID:       model.NewSessionID(),
			ParticipantCode: participantCode,
			Mode:            cfg.Session.Mode,
			ConditionID:     cond.ID,
			StartedAt:       now.UTC(),
			PhaseStatuses:   make([]model.PhaseStatus, len(p.Phases)),
		},
		fileLock: fl,
	}
	for i := range s.State.PhaseStatuses {
		s.State.PhaseStatuses[i] = model.PhaseStatusPending
	}

	w, err := results.NewWriter(paths.DataDir, participantCode, s.State.StartedAt)
	if err != nil {
		fl.Unlock()
		return nil, err
	}
	s.Results = w
	s.State.DataFile = w.Path()

	if err := atomicyaml.AtomicWrite(paths.PlanFile, p); err != nil {
		s.Close()
		return nil, fmt.Errorf("write plan: %w", err)
	}
	if err := s.SaveState(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Load resumes the session persisted under root, reacquiring the lock and
// reopening the data file for append.
func Load(root string, cfg *model.Config) (*Session, error) {
	paths := PathsFor(root, cfg)

	var st State
	if err := atomicyaml.Read(paths.StateFile, &st); err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	var p model.SessionPlan
	if err := atomicyaml.Read(paths.PlanFile, &p); err != nil {
		return nil, fmt.Errorf("load session plan: %w", err)
	}
	if err := plan.Validate(&p); err != nil {
		return nil, fmt.Errorf("stored plan is invalid: %w", err)
	}
	if len(st.PhaseStatuses) != len(p.Phases) {
		return nil, fmt.Errorf("session state lists %d phases, plan has %d",
			len(st.PhaseStatuses), len(p.Phases))
	}

	fl := lock.NewFileLock(paths.LockFile)
	if err := fl.TryLock(); err != nil {
		return nil, err
	}

	w, err := results.Open(st.DataFile)
	if err != nil {
		fl.Unlock()
		return nil, err
	}

	return &Session{
		Paths:    paths,
		Config:   cfg,
		Plan:     &p,
		State:    &st,
		Results:  w,
		fileLock: fl,
	}, nil
}

// SaveState persists the progress record.
func (s *Session) SaveState() error {
	if err := atomicyaml.AtomicWrite(s.Paths.StateFile, s.State); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// StatusLine renders the one-line session summary shown at startup and by
// `moodsart status`.
func (s *Session) StatusLine() string {
	return scale.StatusLine(s.Plan.Params, s.Plan.Condition)
}

// Close releases the data file and the directory lock.
func (s *Session) Close() error {
	var firstErr error
	if s.Results != nil {
		if err := s.Results.Close(); err != nil {
			firstErr = err
		}
	}
	if s.fileLock != nil {
		if err := s.fileLock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
