package audio

import "context"

// Device identifies an output device the engine can play through.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// Engine is the playback surface the sync loop drives. Implementations own
// one stream at a time; Play replaces whatever was playing before.
type Engine interface {
	// Play fetches and starts the stream at url, replacing the current one.
	Play(ctx context.Context, url string) error
	// Pause suspends output. No-op when nothing is playing.
	Pause()
	// Resume continues a paused stream. No-op otherwise.
	Resume()
	// Stop tears down the current stream and releases its resources.
	Stop()

	// Playing reports whether a stream is loaded and not paused.
	Playing() bool
	// ElapsedMS is the playback position of the current stream.
	ElapsedMS() int
	// DurationMS is the total length of the current stream, 0 when unknown.
	DurationMS() int

	// Devices lists the available output devices.
	Devices() []Device
	// SelectDevice routes output to the device with the given id.
	SelectDevice(id string) error
}
