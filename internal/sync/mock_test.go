package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/hifisync/internal/audio"
	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/shared"
)

// mockSource implements services.SourceService, recording transport calls.
type mockSource struct {
	mu sync.Mutex

	snapshot    *models.PlaybackSnapshot
	snapshotErr error

	volumeCalls []int
	pauseCalls  int
	resumeCalls int
	seekCalls   int
	skipCalls   int
	prevCalls   int
}

func (m *mockSource) CurrentPlayback(ctx context.Context) (*models.PlaybackSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	return m.snapshot, nil
}

func (m *mockSource) SetVolume(ctx context.Context, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, percent)
	return nil
}

func (m *mockSource) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	return nil
}

func (m *mockSource) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeCalls++
	return nil
}

func (m *mockSource) SeekToStart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls++
	return nil
}

func (m *mockSource) SkipNext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipCalls++
	return nil
}

func (m *mockSource) SkipPrevious(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prevCalls++
	return nil
}

func (m *mockSource) Name() string { return "mock source" }

func (m *mockSource) counts() (pause, seek, skip int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls, m.seekCalls, m.skipCalls
}

// mockTarget implements services.TargetService.
type mockTarget struct {
	searchResults []models.TargetTrack
	searchErr     error
	searchQueries []string

	tracks map[string]*models.TargetTrack

	streamFn func(trackID string, quality models.Quality) (string, error)

	favorites []string

	valid     bool
	refreshOK bool
	// refreshRestores controls whether a successful refresh flips valid.
	refreshRestores bool

	qualities []models.Quality
}

func (m *mockTarget) SearchTracks(ctx context.Context, query string, limit int) ([]models.TargetTrack, error) {
	m.searchQueries = append(m.searchQueries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.searchResults) {
		return m.searchResults[:limit], nil
	}
	return m.searchResults, nil
}

func (m *mockTarget) TrackByID(ctx context.Context, id string) (*models.TargetTrack, error) {
	if track, ok := m.tracks[id]; ok {
		return track, nil
	}
	return nil, shared.ErrTrackNotFound
}

func (m *mockTarget) StreamURL(ctx context.Context, trackID string, quality models.Quality) (string, error) {
	if m.streamFn != nil {
		return m.streamFn(trackID, quality)
	}
	return "https://stream.test/" + trackID, nil
}

func (m *mockTarget) MarkFavorite(ctx context.Context, trackID string) error {
	m.favorites = append(m.favorites, trackID)
	return nil
}

func (m *mockTarget) SessionValid(ctx context.Context) bool { return m.valid }

func (m *mockTarget) RefreshSession(ctx context.Context) bool {
	if m.refreshOK && m.refreshRestores {
		m.valid = true
	}
	return m.refreshOK
}

func (m *mockTarget) SupportedQualities() []models.Quality {
	if m.qualities == nil {
		return models.QualityLadder()
	}
	return m.qualities
}

func (m *mockTarget) Name() string { return "mock target" }

// mockAudio implements audio.Engine without a speaker.
type mockAudio struct {
	mu sync.Mutex

	playing  bool
	loaded   bool
	elapsed  int
	duration int

	played    []string
	playErr   error
	stopCalls int
}

func (m *mockAudio) Play(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, url)
	m.playing = true
	m.loaded = true
	return nil
}

func (m *mockAudio) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *mockAudio) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.playing = true
	}
}

func (m *mockAudio) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.loaded = false
	m.stopCalls++
}

func (m *mockAudio) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *mockAudio) ElapsedMS() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

func (m *mockAudio) DurationMS() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *mockAudio) Devices() []audio.Device {
	return []audio.Device{{ID: "default", Name: "mock output", Default: true}}
}

func (m *mockAudio) SelectDevice(id string) error { return nil }

// setPosition adjusts the simulated stream clock.
func (m *mockAudio) setPosition(elapsed, duration int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elapsed = elapsed
	m.duration = duration
}

func (m *mockAudio) stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// memoryMappings implements MappingStore in memory.
type memoryMappings struct {
	bySource map[string]*models.Mapping
	putErr   error
}

func newMemoryMappings() *memoryMappings {
	return &memoryMappings{bySource: make(map[string]*models.Mapping)}
}

func (m *memoryMappings) GetBySourceID(sourceID string) (*models.Mapping, error) {
	if mapping, ok := m.bySource[sourceID]; ok {
		return mapping, nil
	}
	return nil, errors.New("not found")
}

func (m *memoryMappings) Put(mapping *models.Mapping) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.bySource[mapping.SourceID()] = mapping
	return nil
}
