package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
)

// Status is the window's status line. Its methods may be called from any
// goroutine.
type Status struct {
	label *widget.Label
}

func NewStatus() *Status {
	return &Status{label: widget.NewLabel("Connecting...")}
}

func (s *Status) Set(text string) {
	fyne.Do(func() { s.label.SetText(text) })
}

func (s *Status) Text() string {
	return s.label.Text
}

// Connected is the sync client's OnStatus hook.
func (s *Status) Connected(up bool) {
	if up {
		s.Set("Connected")
		return
	}
	s.Set("Offline, reconnecting...")
}

// Error is the board's OnError hook.
func (s *Status) Error(err error) {
	s.Set(fmt.Sprintf("Sync error: %v", err))
}

// NewWindow lays out a board window: toolbar, canvas and a footer with the
// status line and the share link.
func NewWindow(a fyne.App, view *BoardWidget, status *Status, b *board.Board, shareLink string) fyne.Window {
	win := a.NewWindow("LiveBoard - " + b.ID())
	win.Resize(fyne.NewSize(1024, 768))
	view.Bind(b)

	toolbar := NewToolbar(b, exportDialog(win, b, status.Set))

	footer := container.NewBorder(nil, nil, status.label, nil)
	if shareLink != "" {
		share := widget.NewEntry()
		share.SetText(shareLink)
		share.Disable()
		copyLink := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			win.Clipboard().SetContent(shareLink)
			status.Set("Link copied")
		})
		footer = container.NewBorder(nil, nil, status.label, copyLink, share)
	}

	win.SetContent(container.NewBorder(toolbar, footer, nil, nil, view))
	return win
}

// RunApp opens the board window on a and blocks until it is closed. It
// must be called from the main goroutine.
func RunApp(a fyne.App, view *BoardWidget, status *Status, b *board.Board, shareLink string) {
	NewWindow(a, view, status, b, shareLink).ShowAndRun()
}
