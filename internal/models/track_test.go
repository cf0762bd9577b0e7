package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/hifisync/internal/shared"
)

func TestSourceTrackValidate(t *testing.T) {
	tc := []struct {
		name    string
		track   SourceTrack
		wantErr bool
	}{
		{
			name:  "complete track",
			track: SourceTrack{ID: "sp1", Title: "Song", Artist: "Artist", DurationMS: 200000},
		},
		{
			name:  "art is optional",
			track: SourceTrack{ID: "sp1", Title: "Song", Artist: "Artist", DurationMS: 200000, ArtURL: ""},
		},
		{
			name:    "missing id",
			track:   SourceTrack{Title: "Song", Artist: "Artist", DurationMS: 200000},
			wantErr: true,
		},
		{
			name:    "missing title",
			track:   SourceTrack{ID: "sp1", Artist: "Artist", DurationMS: 200000},
			wantErr: true,
		},
		{
			name:    "missing artist",
			track:   SourceTrack{ID: "sp1", Title: "Song", DurationMS: 200000},
			wantErr: true,
		},
		{
			name:    "zero duration",
			track:   SourceTrack{ID: "sp1", Title: "Song", Artist: "Artist"},
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.track.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, shared.ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestPlaybackSnapshotValidate(t *testing.T) {
	t.Run("idle snapshot is valid", func(t *testing.T) {
		s := PlaybackSnapshot{IsPlaying: false}
		if err := s.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("incomplete item rejected", func(t *testing.T) {
		s := PlaybackSnapshot{Item: &SourceTrack{ID: "sp1"}}
		if err := s.Validate(); !errors.Is(err, shared.ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("negative progress rejected", func(t *testing.T) {
		s := PlaybackSnapshot{
			ProgressMS: -1,
			Item:       &SourceTrack{ID: "sp1", Title: "Song", Artist: "Artist", DurationMS: 1000},
		}
		if err := s.Validate(); !errors.Is(err, shared.ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})
}

func TestTargetTrackDurationMS(t *testing.T) {
	track := TargetTrack{ID: "t1", Title: "Song", DurationSec: 198}
	if got := track.DurationMS(); got != 198000 {
		t.Errorf("DurationMS() = %d, want 198000", got)
	}
}

func TestQualityLadder(t *testing.T) {
	ladder := QualityLadder()

	if len(ladder) != 5 {
		t.Fatalf("expected 5 tiers, got %d", len(ladder))
	}
	if ladder[0] != QualityHiResLossless {
		t.Errorf("expected hi-res lossless first, got %s", ladder[0])
	}
	if ladder[len(ladder)-1] != QualityLow {
		t.Errorf("expected low last, got %s", ladder[len(ladder)-1])
	}
}

func TestMapping(t *testing.T) {
	m := NewMapping("sp1", "t1", "Song", "Song (Tidal)")

	if err := m.Validate(); err == nil {
		t.Error("expected validation error before id assignment")
	}

	m.SetID("generated")
	m.SetSequence(1)
	if err := m.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	before := m.UpdatedAt()
	m.Retarget("t2", "Other")
	if m.TargetID() != "t2" {
		t.Errorf("expected retargeted id t2, got %s", m.TargetID())
	}
	if m.UpdatedAt().Before(before) {
		t.Error("expected updated_at to advance on retarget")
	}
}
