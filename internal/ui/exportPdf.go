package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"LiveBoard/internal/board"
	"LiveBoard/internal/export"
)

// SavePDF writes the board's current strokes to writer and closes it.
func SavePDF(writer fyne.URIWriteCloser, b *board.Board) error {
	strokes := b.Strokes()
	err := export.WritePDF(writer, b.ID(), strokes)
	if cerr := writer.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", writer.URI().Name(), err)
	}
	slog.Info("[EXPORT] pdf written", "board", b.ID(), "strokes", len(strokes), "uri", writer.URI().String())
	return nil
}

// exportDialog asks for a destination and saves the board there.
func exportDialog(win fyne.Window, b *board.Board, status func(string)) func() {
	return func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if writer == nil {
				return
			}
			if err := SavePDF(writer, b); err != nil {
				slog.Warn("[EXPORT] pdf failed", "err", err)
				dialog.ShowError(err, win)
				return
			}
			status("Exported " + writer.URI().Name())
		}, win)
		d.SetFileName(b.ID() + ".pdf")
		d.Show()
	}
}
