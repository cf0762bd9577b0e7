package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
)

const (
	// flickerGuardMS suppresses a source track switch while the local stream
	// is this close to its own end; near boundaries the source briefly
	// reports the next track during crossfade.
	flickerGuardMS = 5000
	// resumeGuardMS skips a mirror resume this close to the stream's natural
	// end to avoid racing completion.
	resumeGuardMS = 500
	// holdSourceRemainingMS and holdTargetRemainingMS bound the buffering
	// hold: the source is paused when its track ends materially sooner than
	// the target stream.
	holdSourceRemainingMS = 3000
	holdTargetRemainingMS = 5000
	// holdReleaseMS advances the held source once the target stream is this
	// close to done.
	holdReleaseMS = 1000
	// favoriteThreshold is the elapsed/duration ratio past which a playing
	// track is auto-favorited.
	favoriteThreshold = 0.90
)

// ManualMatchRequest is emitted when no catalog match is found; an external
// picker resolves it by submitting an override or ignoring it.
type ManualMatchRequest struct {
	Track models.SourceTrack
}

// Options configure an Engine beyond its collaborators.
type Options struct {
	// PollInterval is the tick period. Zero means one second.
	PollInterval time.Duration
	// MuteSource forces the source transport's volume to zero every tick.
	MuteSource bool
	// AutoFavorite marks a target track favorite once it has mostly played.
	AutoFavorite bool
}

// Engine is the synchronization control loop. One goroutine owns all session
// state; overrides arrive over a channel and are applied between ticks.
type Engine struct {
	source   services.SourceService
	target   services.TargetService
	matcher  *Matcher
	bridge   *Bridge
	mappings MappingStore
	logger   *log.Logger
	opts     Options

	status    chan<- Status
	requests  chan ManualMatchRequest
	overrides chan models.TargetTrack

	// session state, touched only from the loop goroutine
	sourceTrack   *models.SourceTrack
	targetTrack   *models.TargetTrack
	state         State
	waiting       bool
	holding       bool
	favorited     bool
	sourcePlaying bool
	artURL        string
	detail        string
}

// NewEngine creates an Engine. status may be nil; updates are then dropped.
func NewEngine(
	source services.SourceService,
	target services.TargetService,
	matcher *Matcher,
	bridge *Bridge,
	mappings MappingStore,
	status chan<- Status,
	logger *log.Logger,
	opts Options,
) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &Engine{
		source:    source,
		target:    target,
		matcher:   matcher,
		bridge:    bridge,
		mappings:  mappings,
		logger:    logger,
		opts:      opts,
		status:    status,
		requests:  make(chan ManualMatchRequest, 1),
		overrides: make(chan models.TargetTrack, 4),
	}
}

// MatchRequests is the stream of unmatched tracks awaiting a user decision.
func (e *Engine) MatchRequests() <-chan ManualMatchRequest {
	return e.requests
}

// SubmitOverride hands a user-chosen target track to the loop. The mapping is
// persisted and playback starts between ticks, never concurrently with one.
func (e *Engine) SubmitOverride(track models.TargetTrack) {
	e.overrides <- track
}

// Run executes ticks until ctx is cancelled. Shutdown always pauses the
// source transport and stops the local engine, whatever the loop was doing.
func (e *Engine) Run(ctx context.Context) {
	defer func() {
		if err := e.source.Pause(context.Background()); err != nil {
			e.logger.Debug("source pause on shutdown", "error", err)
		}
		e.bridge.Stop()
		e.logger.Info("sync loop stopped")
	}()

	e.logger.Info("sync loop started", "interval", e.opts.PollInterval)

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case track := <-e.overrides:
			e.safely(func() { e.applyOverride(ctx, track) })
		case <-ticker.C:
			e.safely(func() { e.tick(ctx) })
			e.publish()
		}
	}
}

// safely confines a panic to the tick that raised it. No single tick's
// failure may terminate the loop.
func (e *Engine) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tick panicked", "panic", r)
			e.detail = fmt.Sprintf("internal error: %v", r)
		}
	}()
	fn()
}

func (e *Engine) tick(ctx context.Context) {
	snapshot, err := e.source.CurrentPlayback(ctx)
	if err != nil {
		e.state = StateSourceError
		e.detail = err.Error()
		return
	}
	e.detail = ""

	if snapshot.Item == nil {
		e.state = StateIdle
		return
	}
	e.sourcePlaying = snapshot.IsPlaying

	// Evaluated fresh every tick, not just on change; the user can raise the
	// source volume at any time.
	if e.opts.MuteSource && snapshot.VolumePercent != 0 {
		if err := e.source.SetVolume(ctx, 0); err != nil {
			e.logger.Debug("mute source", "error", err)
		}
	}

	if snapshot.Item.ArtURL != "" {
		e.artURL = snapshot.Item.ArtURL
	}

	if e.sourceTrack == nil || e.sourceTrack.ID != snapshot.Item.ID {
		if e.bridge.Playing() && e.bridge.DurationMS() > 0 && e.bridge.RemainingMS() < flickerGuardMS {
			// The snapshot belongs to the next track; reconciling it against
			// the held pair would misfire, so the tick ends here.
			e.logger.Debug("suppressing track switch near stream end",
				"reported", snapshot.Item.ID, "remaining_ms", e.bridge.RemainingMS())
			return
		}
		e.switchTrack(ctx, *snapshot.Item)
		return
	}

	e.monitor(ctx, snapshot)
}

// switchTrack commits a new source track and resolves playback for it.
func (e *Engine) switchTrack(ctx context.Context, item models.SourceTrack) {
	e.logger.Info("source track changed", "title", item.Title, "artist", item.Artist)

	e.sourceTrack = &item
	e.favorited = false
	e.waiting = false
	e.holding = false

	match, err := e.matcher.Resolve(ctx, item)
	if err != nil {
		e.logger.Warn("no match", "title", item.Title, "error", err)
		e.state = StateAwaitingMatch
		e.waiting = true
		e.targetTrack = nil
		e.bridge.Stop()
		select {
		case e.requests <- ManualMatchRequest{Track: item}:
		default:
		}
		return
	}

	e.state = StateLoading
	e.startPlayback(ctx, match)
}

// startPlayback drives the bridge for a resolved track and aligns the source
// transport on success. Shared by the tick path and the override path.
func (e *Engine) startPlayback(ctx context.Context, track *models.TargetTrack) {
	if err := e.bridge.ResolveAndPlay(ctx, track); err != nil {
		e.logger.Error("playback failed", "track", track.Title, "error", err)
		e.state = StatePlaybackError
		e.detail = err.Error()
		e.targetTrack = nil
		return
	}

	// The source keeps displaying the track while the target provides the
	// audio, so both transports restart together. A paused source is resumed
	// first; seeking alone would leave it stopped while the target plays.
	if !e.sourcePlaying {
		if err := e.source.Resume(ctx); err != nil {
			e.logger.Debug("source resume on playback start", "error", err)
		} else {
			e.sourcePlaying = true
		}
	}
	if err := e.source.SeekToStart(ctx); err != nil {
		e.logger.Debug("source seek to start", "error", err)
	}

	e.targetTrack = track
	e.state = StatePlaying
}

// monitor reconciles the two transports while a target track is active.
func (e *Engine) monitor(ctx context.Context, snapshot *models.PlaybackSnapshot) {
	if e.targetTrack == nil || e.state == StateAwaitingMatch {
		return
	}

	// Pause/resume mirroring. Skipped while holding: the source was paused
	// deliberately and the target must play on.
	if !e.holding {
		switch {
		case snapshot.IsPlaying && !e.bridge.Playing():
			if e.bridge.DurationMS() > 0 && e.bridge.RemainingMS() < resumeGuardMS {
				break
			}
			e.bridge.Resume()
			e.state = StatePlaying
		case !snapshot.IsPlaying && e.bridge.Playing():
			e.bridge.Pause()
			e.state = StatePausedMirroring
		}
	}

	if e.opts.AutoFavorite && !e.favorited && e.bridge.Playing() {
		duration := e.bridge.DurationMS()
		if duration > 0 && float64(e.bridge.ElapsedMS())/float64(duration) >= favoriteThreshold {
			if err := e.target.MarkFavorite(ctx, e.targetTrack.ID); err != nil {
				e.logger.Warn("auto-favorite failed", "track", e.targetTrack.ID, "error", err)
			} else {
				e.logger.Info("favorited", "track", e.targetTrack.Title)
			}
			e.favorited = true
		}
	}

	e.handoff(ctx, snapshot)
}

// handoff keeps the shorter source track from auto-advancing while target
// audio is still mid-stream, then advances it once the stream is nearly done.
func (e *Engine) handoff(ctx context.Context, snapshot *models.PlaybackSnapshot) {
	sourceRemaining := e.sourceTrack.DurationMS - snapshot.ProgressMS
	targetRemaining := e.bridge.RemainingMS()

	if !e.holding && sourceRemaining < holdSourceRemainingMS && targetRemaining > holdTargetRemainingMS {
		if err := e.source.Pause(ctx); err != nil {
			e.logger.Warn("source pause for hold failed", "error", err)
			return
		}
		e.holding = true
		e.state = StateBufferingHold
		e.logger.Debug("buffering hold", "source_remaining_ms", sourceRemaining, "target_remaining_ms", targetRemaining)
		return
	}

	if e.holding && (targetRemaining < holdReleaseMS || !e.bridge.Playing()) {
		if err := e.source.SkipNext(ctx); err != nil {
			e.logger.Warn("source advance failed", "error", err)
		}
		e.holding = false
		e.state = StatePlaying
		e.logger.Debug("hold released, source advanced")
	}
}

// applyOverride persists a user-chosen mapping and starts playback for it.
// Runs on the loop goroutine, serialized with ticks.
func (e *Engine) applyOverride(ctx context.Context, track models.TargetTrack) {
	if e.sourceTrack == nil {
		e.logger.Warn("override with no active source track", "target", track.ID)
		return
	}

	if e.mappings != nil {
		mapping := models.NewMapping(e.sourceTrack.ID, track.ID, e.sourceTrack.Title, track.Title)
		if err := e.mappings.Put(mapping); err != nil {
			e.logger.Error("failed to persist mapping", "error", err)
		}
	}

	e.waiting = false
	e.state = StateLoading
	e.startPlayback(ctx, &track)
	if e.state == StatePlaybackError {
		e.detail = fmt.Sprintf("manual match failed: %s", e.detail)
	}
	e.publish()
}

// publish pushes the current status projection without blocking the loop.
func (e *Engine) publish() {
	if e.status == nil {
		return
	}

	update := Status{
		State:      e.state,
		SourceArt:  e.artURL,
		Quality:    e.bridge.Quality(),
		ElapsedMS:  e.bridge.ElapsedMS(),
		DurationMS: e.bridge.DurationMS(),
		Detail:     e.detail,
	}
	if e.sourceTrack != nil {
		update.SourceTitle = fmt.Sprintf("%s - %s", e.sourceTrack.Title, e.sourceTrack.Artist)
	}
	if e.targetTrack != nil {
		update.TargetTitle = fmt.Sprintf("%s - %s", e.targetTrack.Title, e.targetTrack.Artist)
		update.TargetID = e.targetTrack.ID
	}

	select {
	case e.status <- update:
	default:
	}
}

// OptionsFromConfig maps the sync section of the config file onto engine
// options.
func OptionsFromConfig(cfg shared.SyncConfig) Options {
	return Options{
		PollInterval: cfg.PollInterval(),
		MuteSource:   cfg.MuteSource,
		AutoFavorite: cfg.AutoFavorite,
	}
}
