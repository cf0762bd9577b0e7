// package services defines the contracts for the two streaming services the
// sync engine reconciles
//
// Spotify (source), Tidal (target)
package services

import (
	"context"

	"github.com/desertthunder/hifisync/internal/models"
)

// SourceService is the reference playback service whose currently playing
// track and transport state drive synchronization. The engine only ever reads
// its state and nudges its transport; it never plays audio through it.
type SourceService interface {
	// CurrentPlayback captures a fresh snapshot of the source transport.
	// A snapshot with a nil Item means the source is idle, not an error.
	CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error)

	// SetVolume sets the source device volume (0-100).
	SetVolume(ctx context.Context, percent int) error

	// Pause pauses the source transport.
	Pause(ctx context.Context) error

	// Resume resumes the source transport.
	Resume(ctx context.Context) error

	// SeekToStart rewinds the source's current track to position 0.
	SeekToStart(ctx context.Context) error

	// SkipNext advances the source transport to its next track.
	SkipNext(ctx context.Context) error
	// SkipPrevious moves the source transport back to the previous track.
	SkipPrevious(ctx context.Context) error

	// Name returns the service name (e.g. "Spotify")
	Name() string
}

// TargetService is the streaming service actually providing the audible
// stream.
type TargetService interface {
	// SearchTracks queries the target catalog, returning up to limit results
	// in the service's own relevance order.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.TargetTrack, error)

	// TrackByID fetches a track by catalog id.
	// Returns shared.ErrTrackNotFound when the id does not resolve.
	TrackByID(ctx context.Context, id string) (*models.TargetTrack, error)

	// StreamURL resolves a playable URL for the track at the given quality
	// tier. Resolution happens per playback attempt; URLs are never cached.
	StreamURL(ctx context.Context, trackID string, quality models.Quality) (string, error)

	// MarkFavorite adds the track to the user's favorites.
	MarkFavorite(ctx context.Context, trackID string) error

	// SessionValid reports whether the current session can resolve streams.
	SessionValid(ctx context.Context) bool

	// RefreshSession attempts one session refresh, reporting success.
	RefreshSession(ctx context.Context) bool

	// SupportedQualities returns the quality tiers this session advertises,
	// descending preference, negotiated once at session start.
	SupportedQualities() []models.Quality

	// Name returns the service name (e.g. "Tidal")
	Name() string
}
