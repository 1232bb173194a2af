package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
)

// Pin toggles the pin of a board.
func (a *App) Pin(ctx context.Context, rawID string) error {
	id, err := parseBoardID(rawID)
	if err != nil {
		return err
	}

	switch a.prefs.TogglePinBoard(ctx, id) {
	case prefs.PinAdded:
		printlnFn(fmt.Sprintf("Pinned board #%d", id))
	case prefs.PinRemoved:
		printlnFn(fmt.Sprintf("Unpinned board #%d", id))
	case prefs.PinRejected:
		printlnFn(fmt.Sprintf("You can pin at most %d boards, unpin one first", prefs.MaxPinned))
	}
	return nil
}

func (a *App) Unpin(ctx context.Context, rawID string) error {
	id, err := parseBoardID(rawID)
	if err != nil {
		return err
	}

	if a.prefs.UnpinBoard(ctx, id) {
		printlnFn(fmt.Sprintf("Unpinned board #%d", id))
	} else {
		printlnFn(fmt.Sprintf("Board #%d is not pinned", id))
	}
	return nil
}

// Pins prints the pinned boards in pin order. Names come from the board
// list when it can be loaded.
func (a *App) Pins(ctx context.Context) error {
	ids := a.prefs.Pinned()
	if len(ids) == 0 {
		printlnFn("No pinned boards")
		return nil
	}

	names := make(map[int64]string)
	if a.isLoggedIn() {
		page, err := a.boards.List(ctx)
		if err != nil {
			a.log.Debug(ctx, "pins without names", "error", err)
		}
		for _, b := range page.Content {
			names[b.ID] = b.Name
		}
	}

	for _, id := range ids {
		printlnFn(strings.TrimSpace(fmt.Sprintf("%s #%d %s", pinMark, id, names[id])))
	}
	return nil
}

func (a *App) View(ctx context.Context, rawMode string) error {
	mode, err := prefs.ParseViewMode(strings.ToLower(rawMode))
	if err != nil {
		return err
	}
	if err := a.prefs.SetViewMode(ctx, mode); err != nil {
		return err
	}
	printlnFn("View mode set to", mode)
	return nil
}

func (a *App) Sort(ctx context.Context, rawField, rawDirection string) error {
	field, err := prefs.ParseSortField(rawField)
	if err != nil {
		return err
	}
	dir, err := prefs.ParseSortDirection(strings.ToLower(rawDirection))
	if err != nil {
		return err
	}
	if err := a.prefs.SetSort(ctx, field, dir); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Sorting by %s %s", field, dir))
	return nil
}

// Panel toggles the summary panel under the board list.
func (a *App) Panel(ctx context.Context) error {
	if a.prefs.TogglePanel(ctx) {
		printlnFn("Panel open")
	} else {
		printlnFn("Panel closed")
	}
	return nil
}
