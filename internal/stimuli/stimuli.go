// Package stimuli maps induction specs to concrete clip and audio assets.
// The registry only names files; loading and playback belong to the
// presentation layer.
package stimuli

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/lionking1994/moodsart/internal/model"
)

// ClipKey identifies a video asset.
type ClipKey string

const (
	ClipPositive1    ClipKey = "positive_clip"
	ClipPositive2    ClipKey = "positive_clip2"
	ClipNegative1    ClipKey = "negative_clip"
	ClipNegative2    ClipKey = "negative_clip2"
	ClipNeutral      ClipKey = "neutral_clip"
	ClipRepair       ClipKey = "repair_clip"
	ClipRepairAnimal ClipKey = "repair_clip_animal"
)

// AudioKey identifies a music asset for Velten inductions.
type AudioKey string

const (
	AudioPositiveMusic AudioKey = "positive_music"
	AudioNegativeMusic AudioKey = "negative_music"
)

var videoFiles = map[ClipKey]string{
	ClipPositive1:    "positive_clip.mp4",
	ClipPositive2:    "positive_clip2.mp4",
	ClipNegative1:    "negative_clip.mp4",
	ClipNegative2:    "negative_clip2.mp4",
	ClipNeutral:      "neutral_clip.mp4",
	ClipRepair:       "repair_clip.mp4",
	ClipRepairAnimal: "repair_clip_animal.mp4",
}

var audioFiles = map[AudioKey]string{
	AudioPositiveMusic: "positive_music.wav",
	AudioNegativeMusic: "negative_music.wav",
}

// RepairPreference is the participant's answer to the mood repair clip
// question.
type RepairPreference string

const (
	PreferWithAnimals    RepairPreference = "with_animals"
	PreferWithoutAnimals RepairPreference = "without_animals"
	PreferNone           RepairPreference = "no_preference"
)

// ClipFor selects the video clip for a video induction. The first
// occurrence of a valence uses the primary clip, the re-induction the
// secondary one, mirroring the statement set rotation.
func ClipFor(valence model.Valence, occurrence int) (ClipKey, error) {
	switch {
	case valence == model.ValencePositive && occurrence == 0:
		return ClipPositive1, nil
	case valence == model.ValencePositive && occurrence == 1:
		return ClipPositive2, nil
	case valence == model.ValenceNegative && occurrence == 0:
		return ClipNegative1, nil
	case valence == model.ValenceNegative && occurrence == 1:
		return ClipNegative2, nil
	default:
		return "", model.NewConfigurationError("stimuli.occurrence",
			"no clip for valence %q occurrence %d", valence, occurrence)
	}
}

// MusicFor returns the music track for a Velten induction of the given
// valence.
func MusicFor(valence model.Valence) AudioKey {
	if valence == model.ValencePositive {
		return AudioPositiveMusic
	}
	return AudioNegativeMusic
}

// RepairClip resolves the mood repair clip from the participant's stated
// preference. No preference draws 50/50 with the given seed so that the
// resolution is reproducible.
func RepairClip(pref RepairPreference, seed int64) (ClipKey, error) {
	switch pref {
	case PreferWithAnimals:
		return ClipRepairAnimal, nil
	case PreferWithoutAnimals:
		return ClipRepair, nil
	case PreferNone:
		rng := rand.New(rand.NewSource(seed))
		if rng.Intn(2) == 0 {
			return ClipRepairAnimal, nil
		}
		return ClipRepair, nil
	default:
		return "", fmt.Errorf("unknown mood repair preference %q", pref)
	}
}

// Registry resolves asset keys to paths under a stimuli root.
type Registry struct {
	root string
}

func NewRegistry(root string) *Registry {
	return &Registry{root: root}
}

func (r *Registry) VideoPath(key ClipKey) (string, error) {
	name, ok := videoFiles[key]
	if !ok {
		return "", fmt.Errorf("unknown video clip %q", key)
	}
	return filepath.Join(r.root, "videos", name), nil
}

func (r *Registry) AudioPath(key AudioKey) (string, error) {
	name, ok := audioFiles[key]
	if !ok {
		return "", fmt.Errorf("unknown audio track %q", key)
	}
	return filepath.Join(r.root, "audio", name), nil
}

// Check reports every registered asset missing on disk. An empty result
// means the stimuli directory is complete.
func (r *Registry) Check() []error {
	var errs []error
	for key := range videoFiles {
		path, _ := r.VideoPath(key)
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("video %s: %w", key, err))
		}
	}
	for key := range audioFiles {
		path, _ := r.AudioPath(key)
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("audio %s: %w", key, err))
		}
	}
	return errs
}
