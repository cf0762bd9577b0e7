package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/hifisync/internal/repositories"
	"github.com/desertthunder/hifisync/internal/server"
	"github.com/desertthunder/hifisync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthSpotify performs the OAuth2 authorization-code flow for Spotify.
//
// Starts a loopback HTTP server, opens the browser for user authorization,
// and persists the exchanged tokens to the session store.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth("authorization")
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)
	if err := sessions.Save(repositories.Session{
		Service:      "spotify",
		TokenType:    token.TokenType,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	r.spotify.SetToken(ctx, token)

	r.writePlainln("✓ Spotify authorization successful")
	r.writePlain("You can now use: hifisync sync\n")

	return nil
}

// AuthTidal links a Tidal account through the device-authorization flow.
//
// The user approves the link in a browser; polling completes when the
// approval lands and the session is persisted.
func (r *Runner) AuthTidal(ctx context.Context, cmd *cli.Command) error {
	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal client_id must be set in config.toml", shared.ErrMissingCredentials)
	}

	auth, err := r.tidal.BeginDeviceAuth(ctx)
	if err != nil {
		return err
	}

	verifyURL := auth.VerificationURIComplete
	if !strings.HasPrefix(verifyURL, "http") {
		verifyURL = "https://" + verifyURL
	}

	r.writePlain("→ Opening browser to link your Tidal account...\n")
	if err := shared.OpenBrowser(verifyURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
	}
	r.writePlain("Visit %s and enter code: %s\n", verifyURL, auth.UserCode)
	r.writePlain("→ Waiting for approval (expires in %ds)...\n", auth.ExpiresIn)

	if err := r.tidal.CompleteDeviceAuth(ctx, auth); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	session := r.tidal.Session()
	sessions := repositories.NewSessionRepository(db)
	if err := sessions.Save(repositories.Session{
		Service:      "tidal",
		TokenType:    session.TokenType,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		UserID:       session.UserID,
		CountryCode:  session.CountryCode,
	}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	r.writePlainln("✓ Tidal account linked")
	r.writePlain("  User: %d (%s)\n", session.UserID, session.CountryCode)

	return nil
}

// AuthStatus reports which services have a stored session and whether the
// stored tokens have expired.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repositories.NewSessionRepository(db)
	r.writePlainHeader("Linked accounts")

	for _, service := range []string{"spotify", "tidal"} {
		session, err := sessions.Get(service)
		if err != nil {
			r.writePlain("%-8s ✗ not linked\n", service)
			continue
		}

		state := "✓ linked"
		if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(time.Now()) {
			state = "⚠ token expired, will refresh on next sync"
		}
		r.writePlain("%-8s %s\n", service, state)
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a loopback HTTP server.
// The listen address is derived from the configured redirect URI.
func (r *Runner) doOAuth(prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := r.spotify.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(r.spotify.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := "127.0.0.1:8888"
	if redirect, err := url.Parse(r.spotify.OAuthConfig().RedirectURL); err == nil && redirect.Host != "" {
		serverAddr = redirect.Host
	}

	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
