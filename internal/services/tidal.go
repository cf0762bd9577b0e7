// Tidal API implementation of [TargetService]
//
// Uses the device-authorization flow for login and the post-paywall playback
// endpoint for stream resolution. All catalog calls go through a shared rate
// limiter so a fast tick loop cannot trip the API's request budget.
package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	tidalAuthBaseURL = "https://auth.tidal.com/v1/oauth2"
	tidalAPIBaseURL  = "https://api.tidal.com/v1"

	tidalDeviceGrant = "urn:ietf:params:oauth:grant-type:device_code"
	tidalScope       = "r_usr w_usr"
)

// TidalArtist represents an artist in Tidal responses.
type TidalArtist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TidalAlbum represents an album in Tidal responses.
type TidalAlbum struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Cover string `json:"cover"`
}

// TidalTrack represents a track in Tidal responses.
type TidalTrack struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Duration     int         `json:"duration"` // seconds
	Artist       TidalArtist `json:"artist"`
	Album        TidalAlbum  `json:"album"`
	AudioQuality string      `json:"audioQuality"`
	StreamReady  bool        `json:"streamReady"`
}

type tidalSearchResponse struct {
	Items []TidalTrack `json:"items"`
}

// TidalDeviceAuth is the device-authorization handshake response.
type TidalDeviceAuth struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int    `json:"interval"`
}

type tidalTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		UserID      int    `json:"userId"`
		CountryCode string `json:"countryCode"`
	} `json:"user"`
	Error string `json:"error"`
}

type tidalPlaybackInfo struct {
	TrackID          int    `json:"trackId"`
	AudioQuality     string `json:"audioQuality"`
	ManifestMimeType string `json:"manifestMimeType"`
	Manifest         string `json:"manifest"`
}

type tidalManifest struct {
	URLs []string `json:"urls"`
}

type tidalSubscription struct {
	HighestSoundQuality string `json:"highestSoundQuality"`
}

// TidalSession carries the tokens and identity of a logged-in Tidal session,
// in the shape the session repository persists.
type TidalSession struct {
	TokenType    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       int
	CountryCode  string
}

// TidalService implements [TargetService] against the Tidal API.
type TidalService struct {
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter

	authBaseURL string
	apiBaseURL  string

	session   TidalSession
	qualities []models.Quality
}

// NewTidalService creates a Tidal client for the given application client id.
func NewTidalService(clientID string) *TidalService {
	return &TidalService{
		clientID:    clientID,
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
		authBaseURL: tidalAuthBaseURL,
		apiBaseURL:  tidalAPIBaseURL,
	}
}

func (t *TidalService) Name() string {
	return "Tidal"
}

// Session returns the current session for persistence.
func (t *TidalService) Session() TidalSession {
	return t.session
}

// RestoreSession installs a previously persisted session and negotiates the
// quality ladder for it.
func (t *TidalService) RestoreSession(ctx context.Context, session TidalSession) {
	t.session = session
	t.negotiateQualities(ctx)
}

// BeginDeviceAuth starts the device-authorization handshake. The returned
// verification URI is shown to the user; CompleteDeviceAuth polls for the
// approval.
func (t *TidalService) BeginDeviceAuth(ctx context.Context) (*TidalDeviceAuth, error) {
	form := url.Values{
		"client_id": {t.clientID},
		"scope":     {tidalScope},
	}

	var auth TidalDeviceAuth
	if err := t.postForm(ctx, t.authBaseURL+"/device_authorization", form, &auth); err != nil {
		return nil, fmt.Errorf("%w: device authorization: %v", shared.ErrAuthFailed, err)
	}

	if auth.DeviceCode == "" {
		return nil, fmt.Errorf("%w: empty device code", shared.ErrAuthFailed)
	}

	return &auth, nil
}

// CompleteDeviceAuth polls the token endpoint until the user approves the
// link, the device code expires, or ctx is cancelled.
func (t *TidalService) CompleteDeviceAuth(ctx context.Context, auth *TidalDeviceAuth) error {
	interval := time.Duration(auth.Interval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	form := url.Values{
		"client_id":   {t.clientID},
		"device_code": {auth.DeviceCode},
		"grant_type":  {tidalDeviceGrant},
		"scope":       {tidalScope},
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		var token tidalTokenResponse
		err := t.postForm(ctx, t.authBaseURL+"/token", form, &token)
		if err == nil && token.AccessToken != "" {
			t.installToken(ctx, token)
			return nil
		}
		if token.Error != "" && token.Error != "authorization_pending" {
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, token.Error)
		}
	}

	return fmt.Errorf("%w: device link expired before approval", shared.ErrAuthFailed)
}

func (t *TidalService) installToken(ctx context.Context, token tidalTokenResponse) {
	t.session = TidalSession{
		TokenType:    "Bearer",
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
		UserID:       token.User.UserID,
		CountryCode:  token.User.CountryCode,
	}
	if t.session.CountryCode == "" {
		t.session.CountryCode = "US"
	}
	t.negotiateQualities(ctx)
}

// negotiateQualities determines the quality ladder once per session from the
// subscription's advertised ceiling. Unknown or unreachable subscription info
// falls back to the full ladder; per-track failures are handled by the
// playback bridge walking the ladder, not by re-probing here.
func (t *TidalService) negotiateQualities(ctx context.Context) {
	t.qualities = models.QualityLadder()

	var sub tidalSubscription
	endpoint := fmt.Sprintf("/users/%d/subscription", t.session.UserID)
	if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &sub); err != nil {
		return
	}

	ceiling := models.Quality(sub.HighestSoundQuality)
	for i, q := range models.QualityLadder() {
		if q == ceiling {
			t.qualities = models.QualityLadder()[i:]
			return
		}
	}
}

// SupportedQualities returns the ladder negotiated at session start.
func (t *TidalService) SupportedQualities() []models.Quality {
	if len(t.qualities) == 0 {
		return models.QualityLadder()
	}
	return t.qualities
}

// SessionValid reports whether the API accepts the current session.
func (t *TidalService) SessionValid(ctx context.Context) bool {
	if t.session.AccessToken == "" {
		return false
	}
	var result map[string]any
	return t.doRequest(ctx, http.MethodGet, "/sessions", nil, &result) == nil
}

// RefreshSession exchanges the refresh token for a new access token.
func (t *TidalService) RefreshSession(ctx context.Context) bool {
	if t.session.RefreshToken == "" {
		return false
	}

	form := url.Values{
		"client_id":     {t.clientID},
		"refresh_token": {t.session.RefreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {tidalScope},
	}

	var token tidalTokenResponse
	if err := t.postForm(ctx, t.authBaseURL+"/token", form, &token); err != nil || token.AccessToken == "" {
		return false
	}

	// The refresh grant does not always echo the refresh token or the user
	// identity back; carry them over before installing so quality negotiation
	// runs against the right account.
	if token.RefreshToken == "" {
		token.RefreshToken = t.session.RefreshToken
	}
	if token.User.UserID == 0 {
		token.User.UserID = t.session.UserID
	}
	if token.User.CountryCode == "" {
		token.User.CountryCode = t.session.CountryCode
	}
	t.installToken(ctx, token)
	return true
}

// SearchTracks queries the catalog for tracks matching query.
func (t *TidalService) SearchTracks(ctx context.Context, query string, limit int) ([]models.TargetTrack, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query": {query},
		"limit": {strconv.Itoa(limit)},
	}

	var response tidalSearchResponse
	if err := t.doRequest(ctx, http.MethodGet, "/search/tracks?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.TargetTrack, 0, len(response.Items))
	for _, item := range response.Items {
		track := toTargetTrack(item)
		if err := track.Validate(); err != nil {
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// TrackByID fetches a single track by catalog id.
func (t *TidalService) TrackByID(ctx context.Context, id string) (*models.TargetTrack, error) {
	var item TidalTrack
	if err := t.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(id), nil, &item); err != nil {
		if strings.Contains(err.Error(), "status 404") {
			return nil, fmt.Errorf("%w: tidal track %s", shared.ErrTrackNotFound, id)
		}
		return nil, err
	}

	track := toTargetTrack(item)
	if err := track.Validate(); err != nil {
		return nil, err
	}
	return &track, nil
}

// StreamURL resolves a playable URL for the track at the given quality tier.
func (t *TidalService) StreamURL(ctx context.Context, trackID string, quality models.Quality) (string, error) {
	params := url.Values{
		"audioquality":      {string(quality)},
		"playbackmode":      {"STREAM"},
		"assetpresentation": {"FULL"},
	}
	endpoint := fmt.Sprintf("/tracks/%s/playbackinfopostpaywall?%s", url.PathEscape(trackID), params.Encode())

	var info tidalPlaybackInfo
	if err := t.doRequest(ctx, http.MethodGet, endpoint, nil, &info); err != nil {
		return "", err
	}

	if !strings.Contains(info.ManifestMimeType, "vnd.tidal.bts") {
		return "", fmt.Errorf("%w: unsupported manifest type %q", shared.ErrAPIRequest, info.ManifestMimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(info.Manifest)
	if err != nil {
		return "", fmt.Errorf("%w: manifest decode: %v", shared.ErrAPIRequest, err)
	}

	var manifest tidalManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return "", fmt.Errorf("%w: manifest parse: %v", shared.ErrAPIRequest, err)
	}

	if len(manifest.URLs) == 0 {
		return "", fmt.Errorf("%w: manifest has no urls", shared.ErrAPIRequest)
	}

	return manifest.URLs[0], nil
}

// MarkFavorite adds the track to the session user's favorites.
func (t *TidalService) MarkFavorite(ctx context.Context, trackID string) error {
	endpoint := fmt.Sprintf("/users/%d/favorites/tracks", t.session.UserID)
	form := url.Values{"trackIds": {trackID}}
	return t.doRequest(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), nil)
}

// doRequest performs an authenticated, rate-limited request against the API.
func (t *TidalService) doRequest(ctx context.Context, method, endpoint string, body *strings.Reader, result any) error {
	if t.session.AccessToken == "" {
		return fmt.Errorf("%w: no tidal session", shared.ErrAuthFailed)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := t.apiBaseURL + endpoint
	if !strings.Contains(endpoint, "countryCode=") {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		apiURL += sep + "countryCode=" + t.session.CountryCode
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, body)
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+t.session.AccessToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: tidal status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// postForm posts an unauthenticated form to the auth endpoints.
func (t *TidalService) postForm(ctx context.Context, endpoint string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	// Auth endpoints report pending authorization as 400 with an error body;
	// callers inspect the decoded payload, so only transport-level failures
	// are errors here.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: auth status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}

func toTargetTrack(item TidalTrack) models.TargetTrack {
	return models.TargetTrack{
		ID:          strconv.Itoa(item.ID),
		Title:       item.Title,
		Artist:      item.Artist.Name,
		DurationSec: item.Duration,
	}
}

var _ TargetService = (*TidalService)(nil)
