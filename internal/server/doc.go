// Package server runs the loopback HTTP server for the Spotify OAuth flow.
//
// The auth command starts a short-lived server on the configured redirect
// address, registers an [OAuthHandler] on its [Router], and shuts the server
// down after the callback delivers exactly one [OAuthResult].
//
// [Middleware] wraps handlers in reverse order (last added executes first).
package server
