package sync

import "github.com/desertthunder/hifisync/internal/models"

// State identifies the engine's position in the sync lifecycle. There is no
// terminal state; the loop only stops on an external shutdown.
type State int

const (
	StateIdle State = iota
	StateSourceError
	StateAwaitingMatch
	StateLoading
	StatePlaying
	StatePausedMirroring
	StateBufferingHold
	StatePlaybackError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSourceError:
		return "source error"
	case StateAwaitingMatch:
		return "awaiting match"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePausedMirroring:
		return "paused"
	case StateBufferingHold:
		return "buffering hold"
	case StatePlaybackError:
		return "playback error"
	default:
		return "unknown"
	}
}

// Status is the read-only projection published once per tick. It is a value
// copy of loop state; consumers never see live session fields.
type Status struct {
	State       State
	SourceTitle string
	SourceArt   string
	TargetTitle string
	TargetID    string
	Quality     models.Quality
	ElapsedMS   int
	DurationMS  int
	Detail      string
}
