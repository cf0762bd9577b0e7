package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/shared"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TargetTrack] to implement [list.Item].
type trackItem struct {
	track models.TargetTrack
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.DurationSec > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatMS(i.track.DurationMS()))
	}
	return desc
}
