package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hifisync/internal/audio"
	"github.com/desertthunder/hifisync/internal/repositories"
	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
	"github.com/desertthunder/hifisync/internal/sync"
	"github.com/desertthunder/hifisync/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Sync runs the playback mirroring loop until interrupted. By default the
// interactive monitor owns the terminal; --no-tui runs headless with logs.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	headless := cmd.Bool("no-tui")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal client_id must be set in config.toml", shared.ErrMissingCredentials)
	}

	var logs *ui.LogRing
	if !headless {
		// Redirect logs to file to avoid interfering with TUI rendering;
		// the ring feeds the monitor's log tail.
		logs = ui.NewLogRing(100)
		fileLogger, err := shared.NewFileLogger("./tmp/hifisync.log", logs)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)
	if err := r.restoreSessions(ctx, sessions); err != nil {
		return err
	}

	engineAudio := audio.NewBeepEngine(r.logger)
	settings := repositories.NewSettingsRepository(db)
	device := r.config.Audio.Device
	if device == "" {
		device, _ = settings.Get(repositories.SettingLastDeviceID, "default")
	}
	if err := engineAudio.SelectDevice(device); err != nil {
		r.logger.Warn("falling back to default output device", "device", device, "error", err)
	}

	mappings := repositories.NewMappingRepository(db)
	matcher := sync.NewMatcher(r.tidal, mappings, r.logger)
	guard := sync.NewSessionGuard(r.tidal, r.logger)
	bridge := sync.NewBridge(r.tidal, engineAudio, guard, r.logger)
	opts := sync.OptionsFromConfig(r.config.Sync)

	if headless {
		engine := sync.NewEngine(r.spotify, r.tidal, matcher, bridge, mappings, nil, r.logger, opts)
		engine.Run(ctx)
		return nil
	}

	status := make(chan sync.Status, 8)
	engine := sync.NewEngine(r.spotify, r.tidal, matcher, bridge, mappings, status, r.logger, opts)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		engine.Run(runCtx)
		close(done)
	}()

	model := ui.NewModel(runCtx, r.spotify, r.tidal, engine, status, logs)
	p := tea.NewProgram(model)

	_, uiErr := p.Run()
	cancel()
	<-done

	if uiErr != nil {
		return fmt.Errorf("error running TUI: %w", uiErr)
	}
	return nil
}

// restoreSessions installs both persisted logins on their services. Either
// one missing is a hard error pointing at the auth commands.
func (r *Runner) restoreSessions(ctx context.Context, sessions *repositories.SessionRepository) error {
	spotifySession, err := sessions.Get("spotify")
	if err != nil {
		return fmt.Errorf("%w: run 'hifisync auth spotify' first", shared.ErrSessionExpired)
	}
	r.spotify.SetToken(ctx, &oauth2.Token{
		TokenType:    spotifySession.TokenType,
		AccessToken:  spotifySession.AccessToken,
		RefreshToken: spotifySession.RefreshToken,
		Expiry:       spotifySession.ExpiresAt,
	})

	tidalSession, err := sessions.Get("tidal")
	if err != nil {
		return fmt.Errorf("%w: run 'hifisync auth tidal' first", shared.ErrSessionExpired)
	}
	r.tidal.RestoreSession(ctx, services.TidalSession{
		TokenType:    tidalSession.TokenType,
		AccessToken:  tidalSession.AccessToken,
		RefreshToken: tidalSession.RefreshToken,
		ExpiresAt:    tidalSession.ExpiresAt,
		UserID:       tidalSession.UserID,
		CountryCode:  tidalSession.CountryCode,
	})

	return nil
}
