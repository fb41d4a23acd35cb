package yaml

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Quarantine moves a malformed file out of the session directory into
// quarantine/ so it can be inspected without blocking the session. The
// original name and a timestamp are preserved in the quarantined name.
func Quarantine(sessionDir, filePath string) error {
	quarantineDir := filepath.Join(sessionDir, "quarantine")
	if err := os.MkdirAll(quarantineDir, 0755); err != nil {
		return fmt.Errorf("create quarantine dir: %w", err)
	}

	baseName := filepath.Base(filePath)
	timestamp := time.Now().Format("20060102T150405")
	quarantinePath := filepath.Join(quarantineDir, fmt.Sprintf("%s.%s.corrupt", baseName, timestamp))

	if err := os.Rename(filePath, quarantinePath); err != nil {
		return fmt.Errorf("move to quarantine: %w", err)
	}

	log.Printf("quarantined malformed file: %s -> %s", filePath, quarantinePath)
	return nil
}
