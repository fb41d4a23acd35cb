package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ParticipantCodePrefix matches the code scheme used by the lab's analysis
// scripts.
const ParticipantCodePrefix = "MOOD_SART_"

var participantCodeRegex = regexp.MustCompile(`^MOOD_SART_[0-9]{8}_[0-9]{6}$`)

// NewParticipantCode generates a participant code from the session start
// time, e.g. MOOD_SART_20260829_142233.
func NewParticipantCode(t time.Time) string {
	return ParticipantCodePrefix + t.Format("20060102_150405")
}

// ValidateParticipantCode reports whether a code matches the expected shape.
func ValidateParticipantCode(code string) bool {
	return participantCodeRegex.MatchString(code)
}

// NewSessionID returns a unique identifier for one session instance. The
// participant code identifies the person; the session ID identifies the
// run, so a restarted session never collides with its predecessor's spool
// or audit entries.
func NewSessionID() string {
	return fmt.Sprintf("ses_%s", uuid.New().String())
}
