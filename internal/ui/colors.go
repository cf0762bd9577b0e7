package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/hifisync/internal/sync"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// stateStyle maps an engine state to the palette entry used to render it.
func stateStyle(s sync.State) lipgloss.Style {
	switch s {
	case sync.StatePlaying:
		return styles.ok
	case sync.StateSourceError, sync.StatePlaybackError:
		return styles.err
	case sync.StateAwaitingMatch, sync.StateBufferingHold, sync.StatePausedMirroring:
		return styles.warn
	default:
		return styles.help
	}
}
