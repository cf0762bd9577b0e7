// Package models defines the domain types shared across the sync engine.
//
// [SourceTrack] and [PlaybackSnapshot] are the typed view of the source
// service's loosely-structured playback payloads; both carry required-field
// validation so schema problems surface at the service boundary instead of
// deep inside the tick loop. [TargetTrack] is the immutable identity of a
// track on the target service; its stream URL is resolved per playback
// attempt, never stored. [Mapping] is the persisted user-confirmed
// association between the two catalogs.
//
// [Quality] enumerates the target's stream encodings; [QualityLadder] is the
// full descending-preference order the playback bridge intersects with what a
// session actually advertises.
package models
