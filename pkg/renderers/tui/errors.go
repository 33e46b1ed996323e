package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoPanels is returned when the page has nothing to edit.
	ErrNoPanels = errors.New("tui: page has no panels")
)
