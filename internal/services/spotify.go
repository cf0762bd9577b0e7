// Spotify API implementation of [SourceService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type spotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	VolumePercent int    `json:"volume_percent"`
}

// SpotifyPlayback represents the /me/player response.
type SpotifyPlayback struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Device     spotifyDevice `json:"device"`
	Item       *SpotifyTrack `json:"item"`
}

// SpotifyService implements [SourceService] against the Spotify Web API.
// Uses [oauth2] for authentication; the token-refreshing client keeps the
// session alive across the sync loop's lifetime.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-playback-state",
			"user-modify-playback-state",
			"user-read-currently-playing",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate installs a token from an "access_token", "auth_code", or
// "refresh_token" credential, whichever is present.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		s.SetToken(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return nil
	}

	return fmt.Errorf("%w: missing access_token, auth_code, or refresh_token", shared.ErrMissingCredentials)
}

// SetToken installs an OAuth token and a refreshing HTTP client for it.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Token returns the currently installed OAuth token, nil before Authenticate.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the oauth2 config for the loopback callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated request against the Spotify API.
// Transport endpoints answer 204 No Content; result may be nil for those.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrAuthFailed)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SourceService implementation

// CurrentPlayback captures a typed snapshot of the source transport.
// A 204 from /me/player (no active device) maps to an idle snapshot.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	var playback SpotifyPlayback
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", &playback); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}

	snapshot := &models.PlaybackSnapshot{
		IsPlaying:     playback.IsPlaying,
		ProgressMS:    playback.ProgressMS,
		VolumePercent: playback.Device.VolumePercent,
	}

	if playback.Item != nil {
		track := &models.SourceTrack{
			ID:         playback.Item.ID,
			Title:      playback.Item.Name,
			DurationMS: playback.Item.DurationMS,
		}
		if len(playback.Item.Artists) > 0 {
			track.Artist = playback.Item.Artists[0].Name
		}
		if len(playback.Item.Album.Images) > 0 {
			track.ArtURL = playback.Item.Album.Images[0].URL
		}
		snapshot.Item = track
	}

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// SetVolume sets the active device volume.
func (s *SpotifyService) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume %d out of range", shared.ErrInvalidArgument, percent)
	}
	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil)
}

// Pause pauses the source transport.
func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil)
}

// Resume resumes the source transport.
func (s *SpotifyService) Resume(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", nil)
}

// SeekToStart rewinds the current source track to position 0.
func (s *SpotifyService) SeekToStart(ctx context.Context) error {
	endpoint := "/me/player/seek?" + url.Values{"position_ms": {"0"}}.Encode()
	return s.doRequest(ctx, http.MethodPut, endpoint, nil)
}

// SkipNext advances the source transport to its next track.
func (s *SpotifyService) SkipNext(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", nil)
}

// SkipPrevious moves the source transport back to the previous track.
func (s *SpotifyService) SkipPrevious(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil)
}

var _ SourceService = (*SpotifyService)(nil)
