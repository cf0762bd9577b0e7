package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/hifisync/internal/shared"
)

// Mapping is a persisted, user-confirmed source-track-to-target-track
// association. A present mapping bypasses search unconditionally; it is only
// ever replaced by an explicit user override.
type Mapping struct {
	id          string
	sequence    int
	sourceID    string
	targetID    string
	sourceTitle string
	targetTitle string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewMapping creates a Mapping for persistence. The ID and sequence are
// assigned by the repository on insert.
func NewMapping(sourceID, targetID, sourceTitle, targetTitle string) *Mapping {
	now := time.Now().UTC()
	return &Mapping{
		sourceID:    sourceID,
		targetID:    targetID,
		sourceTitle: sourceTitle,
		targetTitle: targetTitle,
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreMapping rebuilds a Mapping from persisted columns.
func RestoreMapping(id string, sequence int, sourceID, targetID, sourceTitle, targetTitle string, createdAt, updatedAt time.Time) *Mapping {
	return &Mapping{
		id:          id,
		sequence:    sequence,
		sourceID:    sourceID,
		targetID:    targetID,
		sourceTitle: sourceTitle,
		targetTitle: targetTitle,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (m *Mapping) ID() string           { return m.id }
func (m *Mapping) Sequence() int        { return m.sequence }
func (m *Mapping) SourceID() string     { return m.sourceID }
func (m *Mapping) TargetID() string     { return m.targetID }
func (m *Mapping) SourceTitle() string  { return m.sourceTitle }
func (m *Mapping) TargetTitle() string  { return m.targetTitle }
func (m *Mapping) CreatedAt() time.Time { return m.createdAt }
func (m *Mapping) UpdatedAt() time.Time { return m.updatedAt }

// SetID assigns the generated row id on insert.
func (m *Mapping) SetID(id string) { m.id = id }

// SetSequence assigns the generated sequence number on insert.
func (m *Mapping) SetSequence(seq int) { m.sequence = seq }

// Retarget points the mapping at a different target track (user override).
func (m *Mapping) Retarget(targetID, targetTitle string) {
	m.targetID = targetID
	m.targetTitle = targetTitle
	m.updatedAt = time.Now().UTC()
}

// Validate implements [Model].
func (m *Mapping) Validate() error {
	if m.id == "" {
		return fmt.Errorf("%w: mapping missing id", shared.ErrInvalidInput)
	}
	if m.sourceID == "" {
		return fmt.Errorf("%w: mapping missing source id", shared.ErrInvalidInput)
	}
	if m.targetID == "" {
		return fmt.Errorf("%w: mapping missing target id", shared.ErrInvalidInput)
	}
	return nil
}
