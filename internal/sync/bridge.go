package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifisync/internal/audio"
	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
)

// Bridge drives the local audio engine with streams resolved from the target
// service, walking the quality ladder on each playback attempt.
type Bridge struct {
	target services.TargetService
	engine audio.Engine
	guard  *SessionGuard
	logger *log.Logger

	quality models.Quality
}

// NewBridge creates a Bridge over the given engine and target service.
func NewBridge(target services.TargetService, engine audio.Engine, guard *SessionGuard, logger *log.Logger) *Bridge {
	return &Bridge{target: target, engine: engine, guard: guard, logger: logger}
}

// ResolveAndPlay resolves a stream URL for track at the highest quality tier
// the session supports and starts it, replacing the current stream. A tier
// that fails to resolve or decode drops to the next one; when every tier
// fails the engine is left stopped and [shared.ErrUnplayable] is returned.
func (b *Bridge) ResolveAndPlay(ctx context.Context, track *models.TargetTrack) error {
	if err := b.guard.Ensure(ctx); err != nil {
		b.engine.Stop()
		return err
	}

	for _, tier := range b.target.SupportedQualities() {
		url, err := b.target.StreamURL(ctx, track.ID, tier)
		if err != nil {
			b.logger.Debug("stream resolution failed", "track", track.ID, "quality", tier, "error", err)
			continue
		}

		if err := b.engine.Play(ctx, url); err != nil {
			b.logger.Debug("playback start failed", "track", track.ID, "quality", tier, "error", err)
			continue
		}

		b.quality = tier
		b.logger.Info("playing", "track", track.Title, "artist", track.Artist, "quality", tier)
		return nil
	}

	b.engine.Stop()
	return fmt.Errorf("%w: every quality tier failed for track %s", shared.ErrUnplayable, track.ID)
}

// Pause suspends local playback. Idempotent.
func (b *Bridge) Pause() { b.engine.Pause() }

// Resume continues paused local playback. Idempotent.
func (b *Bridge) Resume() { b.engine.Resume() }

// Stop tears down local playback. Idempotent.
func (b *Bridge) Stop() { b.engine.Stop() }

// Playing reports whether the local engine is producing audio.
func (b *Bridge) Playing() bool { return b.engine.Playing() }

// ElapsedMS is the local engine's playback position.
func (b *Bridge) ElapsedMS() int { return b.engine.ElapsedMS() }

// DurationMS is the local engine's current stream length, 0 when unknown.
func (b *Bridge) DurationMS() int { return b.engine.DurationMS() }

// RemainingMS is the playtime left on the current stream, negative or zero
// when no stream length is known.
func (b *Bridge) RemainingMS() int {
	duration := b.engine.DurationMS()
	if duration <= 0 {
		return 0
	}
	return duration - b.engine.ElapsedMS()
}

// Quality is the tier of the last successful play.
func (b *Bridge) Quality() models.Quality { return b.quality }
