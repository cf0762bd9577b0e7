package models

import (
	"fmt"

	"github.com/desertthunder/hifisync/internal/shared"
)

// SourceTrack is a track as reported by the source service.
// Immutable once fetched; identified by its catalog ID.
type SourceTrack struct {
	ID         string
	Title      string
	Artist     string // primary artist only
	DurationMS int
	ArtURL     string // album art reference, may be empty
}

// Validate checks the required fields delivered by the source API.
// Album art is optional; everything else must be present.
func (t SourceTrack) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: source track missing id", shared.ErrInvalidSnapshot)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: source track %s missing title", shared.ErrInvalidSnapshot, t.ID)
	}
	if t.Artist == "" {
		return fmt.Errorf("%w: source track %s missing artist", shared.ErrInvalidSnapshot, t.ID)
	}
	if t.DurationMS <= 0 {
		return fmt.Errorf("%w: source track %s has no duration", shared.ErrInvalidSnapshot, t.ID)
	}
	return nil
}

// TargetTrack is a track on the target service. Identity is immutable;
// the playable stream URL is resolved separately per playback attempt.
type TargetTrack struct {
	ID          string
	Title       string
	Artist      string
	DurationSec int
}

// DurationMS returns the track duration in milliseconds for comparison
// against source durations.
func (t TargetTrack) DurationMS() int {
	return t.DurationSec * 1000
}

// Validate checks the required fields delivered by the target API.
func (t TargetTrack) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: target track missing id", shared.ErrInvalidInput)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: target track %s missing title", shared.ErrInvalidInput, t.ID)
	}
	return nil
}

// PlaybackSnapshot is a point-in-time read of the source service's playback
// state. Captured fresh every tick; compared, never mutated.
type PlaybackSnapshot struct {
	IsPlaying     bool
	ProgressMS    int
	VolumePercent int
	Item          *SourceTrack // nil when nothing is active
}

// Validate checks snapshot consistency at the service boundary. A snapshot
// without an item is valid (source idle); a present item must be complete.
func (s PlaybackSnapshot) Validate() error {
	if s.Item == nil {
		return nil
	}
	if s.ProgressMS < 0 {
		return fmt.Errorf("%w: negative progress", shared.ErrInvalidSnapshot)
	}
	return s.Item.Validate()
}

// Quality is a stream encoding tier on the target service.
type Quality string

const (
	QualityHiResLossless Quality = "HI_RES_LOSSLESS"
	QualityHighLossless  Quality = "HIGH_LOSSLESS"
	QualityLossless      Quality = "LOSSLESS"
	QualityHigh          Quality = "HIGH"
	QualityLow           Quality = "LOW"
)

// QualityLadder returns every quality tier in descending preference order.
func QualityLadder() []Quality {
	return []Quality{
		QualityHiResLossless,
		QualityHighLossless,
		QualityLossless,
		QualityHigh,
		QualityLow,
	}
}
