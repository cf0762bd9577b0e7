package ui

import (
	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/sync"
)

// statusMsg carries one status frame published by the engine tick.
type statusMsg sync.Status

// matchRequestMsg carries a source track the engine could not match.
type matchRequestMsg sync.ManualMatchRequest

// searchResultsMsg carries candidate target tracks for the match picker.
type searchResultsMsg struct {
	tracks []models.TargetTrack
	err    error
}

// transportMsg reports the outcome of a transport key (pause/resume/skip).
type transportMsg struct {
	action string
	err    error
}
