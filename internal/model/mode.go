package model

import "fmt"

// Mode selects between the full experimental protocol and the shortened
// demo protocol. It is fixed at startup and never changes mid-session.
type Mode string

const (
	ModeFull Mode = "full"
	ModeDemo Mode = "demo"
)

var validModes = map[Mode]bool{
	ModeFull: true,
	ModeDemo: true,
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !validModes[m] {
		return "", fmt.Errorf("invalid mode %q (expected %q or %q)", s, ModeFull, ModeDemo)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	return validModes[m]
}
