// Package templates embeds the participant-facing instruction texts. The
// presentation layer looks them up by the instruction key carried on each
// plan phase.
package templates

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed instructions
var FS embed.FS

// Instruction returns the text for an instruction key.
func Instruction(key string) (string, error) {
	data, err := FS.ReadFile("instructions/" + key + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown instruction key %q", key)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// Keys lists the available instruction keys.
func Keys() ([]string, error) {
	entries, err := FS.ReadDir("instructions")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".txt") {
			keys = append(keys, strings.TrimSuffix(name, ".txt"))
		}
	}
	return keys, nil
}
