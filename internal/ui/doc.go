// Package ui implements the interactive sync monitor using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [MonitorView] : Live playback state, one status frame per engine tick
//  2. [MatchView] : Resolve an unmatched source track by searching the target catalog
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Status frames and manual-match requests flow through channels from the sync
// engine; each is pumped back into the update loop via a recursive tea.Cmd so
// the loop never blocks the render path.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) plus
// transport keys (space to pause/resume, n to skip) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
