package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
)

const (
	// searchLimit is how many candidates one catalog search requests.
	searchLimit = 10
	// matchToleranceMS is the maximum duration difference for a search
	// candidate to qualify.
	matchToleranceMS = 5000
)

// MappingStore is the persisted mapping surface the matcher and engine
// consult. A stored mapping bypasses search unconditionally.
type MappingStore interface {
	GetBySourceID(sourceID string) (*models.Mapping, error)
	Put(mapping *models.Mapping) error
}

// Matcher resolves a source track to a target catalog track, mapping store
// first, fuzzy search second.
type Matcher struct {
	target   services.TargetService
	mappings MappingStore
	logger   *log.Logger
}

// NewMatcher creates a Matcher. mappings may be nil, disabling the bypass.
func NewMatcher(target services.TargetService, mappings MappingStore, logger *log.Logger) *Matcher {
	return &Matcher{target: target, mappings: mappings, logger: logger}
}

// Resolve finds the target track for source. A stored mapping wins; a stale
// mapping whose target no longer fetches falls through to search for this
// call only. Transport failures are downgraded to [shared.ErrNoMatch] so the
// caller can solicit a manual override instead of crashing the loop.
func (m *Matcher) Resolve(ctx context.Context, source models.SourceTrack) (*models.TargetTrack, error) {
	if m.mappings != nil {
		if mapping, err := m.mappings.GetBySourceID(source.ID); err == nil {
			track, err := m.target.TrackByID(ctx, mapping.TargetID())
			if err == nil {
				return track, nil
			}
			m.logger.Warn("stale mapping, falling through to search",
				"source_id", source.ID, "target_id", mapping.TargetID(), "error", err)
		}
	}

	query := CleanTitle(source.Title) + " " + source.Artist
	candidates, err := m.target.SearchTracks(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", shared.ErrNoMatch, err)
	}

	// First fit in result order, not closest fit.
	for _, candidate := range candidates {
		diff := candidate.DurationMS() - source.DurationMS
		if diff < 0 {
			diff = -diff
		}
		if diff <= matchToleranceMS {
			match := candidate
			return &match, nil
		}
	}

	return nil, fmt.Errorf("%w: no candidate within %dms for %q", shared.ErrNoMatch, matchToleranceMS, query)
}

// CleanTitle truncates a track title at the first '(' or '-' and trims the
// result. Parenthesized suffixes and dash-separated version labels hurt
// search recall on the target catalog.
func CleanTitle(title string) string {
	if i := strings.IndexAny(title, "(-"); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}
