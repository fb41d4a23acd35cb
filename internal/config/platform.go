package config

import "github.com/lionking1994/moodsart/internal/model"

// PlatformFor returns the presentation capability profile for an OS. The
// selection happens exactly once, at startup; downstream code only reads
// the resulting value and never branches on the OS again.
func PlatformFor(goos string) model.PlatformProfile {
	switch goos {
	case "darwin":
		return model.PlatformProfile{
			Font:            "Helvetica",
			FontBold:        "Helvetica-Bold",
			AudioBufferSize: 256,
			WarningFilters: []string{
				"ApplePersistenceIgnoreState",
			},
			FrameToleranceMS: 1.0,
		}
	case "windows":
		return model.PlatformProfile{
			Font:             "Arial",
			FontBold:         "Arial Bold",
			AudioBufferSize:  128,
			FrameToleranceMS: 2.0,
		}
	default:
		return model.PlatformProfile{
			Font:             "DejaVu Sans",
			FontBold:         "DejaVu Sans Bold",
			AudioBufferSize:  512,
			FrameToleranceMS: 2.0,
		}
	}
}
