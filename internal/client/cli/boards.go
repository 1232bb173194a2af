package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/common"
)

const deadlineLayout = "2006-01-02"

func parseBoardID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: board id %q", common.ErrInvalidInput, s)
	}
	return id, nil
}

func parseBoardType(s string) (models.BoardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "individual":
		return models.BoardTypeIndividual, nil
	case "team":
		return models.BoardTypeTeam, nil
	}
	return "", fmt.Errorf("%w: board type %q", common.ErrInvalidInput, s)
}

// Boards lists the current user's boards.
func (a *App) Boards(ctx context.Context) error {
	page, err := a.boards.List(ctx)
	if err != nil {
		return err
	}
	printlnFn(renderBoards(page, a.prefs.Preferences()))
	return nil
}

func (a *App) Show(ctx context.Context, slug string) error {
	b, err := a.boards.Get(ctx, slug)
	if err != nil {
		return err
	}
	printlnFn(renderBoard(b, a.prefs.IsPinned(b.ID)))
	return nil
}

// Create prompts for the board fields and creates it.
func (a *App) Create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter board name", a.out)
	if err != nil {
		return err
	}

	description, err := getMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}

	deadline, err := getSimpleText(a.reader, "Enter deadline as YYYY-MM-DD (empty for none)", a.out)
	if err != nil {
		return err
	}
	if deadline != "" {
		if _, err := time.Parse(deadlineLayout, deadline); err != nil {
			return fmt.Errorf("%w: deadline %q", common.ErrInvalidInput, deadline)
		}
	}

	kind, err := getSimpleText(a.reader, "Board type, individual or team [individual]", a.out)
	if err != nil {
		return err
	}
	boardType, err := parseBoardType(kind)
	if err != nil {
		return err
	}

	b, err := a.boards.Create(ctx, models.NewBoard{
		Name:        name,
		Status:      models.BoardStatusPlanned,
		Description: description,
		Deadline:    deadline,
		BoardType:   boardType,
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Created board #%d %q (%s)", b.ID, b.Name, b.Slug))
	return nil
}

func (a *App) Rename(ctx context.Context, rawID string) error {
	id, err := parseBoardID(rawID)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter new board name", a.out)
	if err != nil {
		return err
	}

	b, err := a.boards.Update(ctx, id, models.BoardPatch{Name: &name})
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Renamed board #%d to %q", b.ID, b.Name))
	return nil
}

func (a *App) Status(ctx context.Context, rawID, rawStatus string) error {
	id, err := parseBoardID(rawID)
	if err != nil {
		return err
	}
	status, err := models.ParseBoardStatus(rawStatus)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	b, err := a.boards.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Board #%d is now %s", b.ID, b.Status))
	return nil
}

// Delete removes a board after confirmation. A deleted board is also unpinned.
func (a *App) Delete(ctx context.Context, rawID string) error {
	id, err := parseBoardID(rawID)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete board #%d?", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.boards.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Deleted board #%d", id))
	return nil
}
