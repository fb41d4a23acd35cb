package model

import (
	"fmt"
	"strings"
)

// ConfigurationError reports invalid session configuration: an unknown
// condition id, non-positive scaled counts, or a malformed condition table
// entry. It is always fatal to session setup and is raised before any phase
// is presented, never mid-session.
type ConfigurationError struct {
	FieldPath string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.FieldPath, e.Message)
}

func NewConfigurationError(fieldPath, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		FieldPath: fieldPath,
		Message:   fmt.Sprintf(format, args...),
	}
}

// ScheduleViolation reports a probe schedule that breaks the insertion
// policy: an index outside [0, trial_count), a non-increasing sequence, or
// two consecutive indices. It indicates a defect in the scheduler and fails
// the plan build rather than silently clamping.
type ScheduleViolation struct {
	TrialCount int
	Indices    []int
	Message    string
}

func (e *ScheduleViolation) Error() string {
	idx := make([]string, len(e.Indices))
	for i, v := range e.Indices {
		idx[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("schedule violation (trial_count=%d, indices=[%s]): %s",
		e.TrialCount, strings.Join(idx, ","), e.Message)
}
