// Package services implements the typed HTTP clients for both streaming
// services and the contracts the sync engine consumes.
//
// # Contracts
//
// [SourceService] is the reference transport (Spotify): the engine reads its
// playback snapshot every tick and nudges its transport (volume, pause,
// resume, seek, skip) to keep it aligned with the audible stream. It never
// plays audio.
//
// [TargetService] is the audible catalog (Tidal): track search and lookup,
// per-attempt stream URL resolution at an explicit [models.Quality] tier,
// favorites, and session validity/refresh for the session guard.
//
// # Implementations
//
// [SpotifyService] authenticates through [golang.org/x/oauth2] with the
// playback-state scopes and converts the loosely-typed /me/player payload
// into a validated [models.PlaybackSnapshot] at the boundary.
//
// [TidalService] uses the device-authorization flow, persists its session
// through the repositories layer, negotiates the quality ladder once per
// session, and rate-limits all catalog calls with [golang.org/x/time/rate].
package services
