package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"

	"github.com/desertthunder/hifisync/internal/shared"
)

// speaker.Init can only run once per process; every subsequent stream is
// resampled to this rate.
var (
	speakerOnce       sync.Once
	speakerSampleRate beep.SampleRate
	speakerErr        error
)

const defaultDeviceID = "default"

// BeepEngine plays fetched streams through the system's default output via
// the beep speaker.
type BeepEngine struct {
	mu sync.Mutex

	httpClient *http.Client
	logger     *log.Logger

	ctrl     *beep.Ctrl
	streamer beep.StreamSeekCloser
	format   beep.Format
	tmpFile  *os.File
	loaded   bool
}

// NewBeepEngine creates an engine playing through the default output device.
func NewBeepEngine(logger *log.Logger) *BeepEngine {
	return &BeepEngine{
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// Play fetches the stream at url into a temporary file, decodes it, and
// starts playback, replacing any current stream.
func (e *BeepEngine) Play(ctx context.Context, url string) error {
	e.Stop()

	f, contentType, err := e.fetch(ctx, url)
	if err != nil {
		return err
	}

	streamer, format, err := decode(f, sniffFormat(contentType, url))
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	speakerOnce.Do(func() {
		speakerSampleRate = format.SampleRate
		speakerErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("%w: speaker init: %v", shared.ErrUnplayable, speakerErr)
	}

	e.mu.Lock()
	e.tmpFile = f
	e.streamer = streamer
	e.format = format
	e.loaded = true

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != speakerSampleRate {
		playStreamer = beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)
	}
	e.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: false}
	ctrl := e.ctrl
	e.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(e.finishCallback(ctrl))))

	e.logger.Debug("stream started", "sample_rate", int(format.SampleRate), "duration_ms", e.DurationMS())
	return nil
}

// finishCallback fires when a stream reaches its natural end. It runs inside
// the mixer with the speaker mutex already held, so it must not acquire e.mu
// or call back into the speaker package.
func (e *BeepEngine) finishCallback(ctrl *beep.Ctrl) func() {
	return func() {
		ctrl.Paused = true
	}
}

// fetch downloads the stream to a temporary file so the decoders can seek.
func (e *BeepEngine) fetch(ctx context.Context, url string) (*os.File, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrUnplayable, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: stream fetch: %v", shared.ErrUnplayable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: stream status %d", shared.ErrUnplayable, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "hifisync-stream-*")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrUnplayable, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", fmt.Errorf("%w: stream download: %v", shared.ErrUnplayable, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, "", fmt.Errorf("%w: %v", shared.ErrUnplayable, err)
	}

	return f, resp.Header.Get("Content-Type"), nil
}

// sniffFormat picks a decoder from the response content type, falling back
// to the URL path's extension.
func sniffFormat(contentType, url string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "flac"):
		return "flac"
	case strings.Contains(contentType, "mpeg") || strings.Contains(contentType, "mp3"):
		return "mp3"
	case strings.Contains(contentType, "ogg") || strings.Contains(contentType, "vorbis"):
		return "ogg"
	}

	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	switch strings.ToLower(path.Ext(url)) {
	case ".flac":
		return "flac"
	case ".mp3":
		return "mp3"
	case ".ogg", ".oga":
		return "ogg"
	}
	return ""
}

func decode(f *os.File, kind string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch kind {
	case "flac":
		streamer, format, err = flac.Decode(f)
	case "mp3":
		streamer, format, err = mp3.Decode(f)
	case "ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: unrecognized stream format", shared.ErrUnplayable)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %s decode: %v", shared.ErrUnplayable, kind, err)
	}

	return streamer, format, nil
}

// Stop tears down the current stream and removes its temporary file.
//
// The speaker mutex is never taken while e.mu is held: the end-of-stream
// callback fires under the speaker mutex, so nesting the locks the other
// way deadlocks the mixer.
func (e *BeepEngine) Stop() {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return
	}
	streamer := e.streamer
	tmpFile := e.tmpFile
	e.streamer = nil
	e.tmpFile = nil
	e.ctrl = nil
	e.loaded = false
	e.mu.Unlock()

	speaker.Clear()

	if streamer != nil {
		streamer.Close()
	}
	if tmpFile != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}
}

// Pause suspends output without releasing the stream.
func (e *BeepEngine) Pause() {
	e.mu.Lock()
	ctrl := e.ctrl
	e.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()
}

// Resume continues a paused stream.
func (e *BeepEngine) Resume() {
	e.mu.Lock()
	ctrl := e.ctrl
	e.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Paused = false
	speaker.Unlock()
}

// Playing reports whether a stream is loaded and not paused.
func (e *BeepEngine) Playing() bool {
	e.mu.Lock()
	loaded := e.loaded
	ctrl := e.ctrl
	e.mu.Unlock()
	if !loaded || ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := ctrl.Paused
	speaker.Unlock()
	return !paused
}

// ElapsedMS is the playback position of the current stream in milliseconds.
func (e *BeepEngine) ElapsedMS() int {
	e.mu.Lock()
	streamer := e.streamer
	format := e.format
	e.mu.Unlock()
	if streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := format.SampleRate.D(streamer.Position())
	speaker.Unlock()
	return int(pos.Milliseconds())
}

// DurationMS is the total length of the current stream in milliseconds.
func (e *BeepEngine) DurationMS() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return int(e.format.SampleRate.D(e.streamer.Len()).Milliseconds())
}

// Devices lists the outputs the engine can play through. The beep speaker
// always routes to the system default, so exactly one device is reported.
func (e *BeepEngine) Devices() []Device {
	return []Device{{ID: defaultDeviceID, Name: "System default output", Default: true}}
}

// SelectDevice accepts only the default device id.
func (e *BeepEngine) SelectDevice(id string) error {
	if id != defaultDeviceID && id != "" {
		return fmt.Errorf("%w: unknown audio device %q", shared.ErrInvalidArgument, id)
	}
	return nil
}

var _ Engine = (*BeepEngine)(nil)
