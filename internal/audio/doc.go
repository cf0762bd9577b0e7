// Package audio drives local playback of resolved stream URLs.
//
// The [Engine] interface is what the sync loop talks to; [BeepEngine] is the
// production implementation on top of the beep speaker. Streams are fetched
// to a temporary file before decoding because the FLAC decoder needs to seek.
package audio
