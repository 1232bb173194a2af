package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
)

const (
	cardWidth   = 30
	gridColumns = 3
	pinMark     = "*"
)

var statusOrder = []models.BoardStatus{
	models.BoardStatusPlanned,
	models.BoardStatusInProgress,
	models.BoardStatusDone,
	models.BoardStatusStopped,
	models.BoardStatusAbandoned,
}

var statusColors = map[models.BoardStatus]lipgloss.Color{
	models.BoardStatusPlanned:    lipgloss.Color("#7aa2f7"),
	models.BoardStatusInProgress: lipgloss.Color("#e0af68"),
	models.BoardStatusDone:       lipgloss.Color("#9ece6a"),
	models.BoardStatusStopped:    lipgloss.Color("#f7768e"),
	models.BoardStatusAbandoned:  lipgloss.Color("#565f89"),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#737aa2"))
	pinStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b4261")).
			Padding(0, 1).
			Width(cardWidth)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#3b4261"))
)

func statusStyle(s models.BoardStatus) lipgloss.Style {
	c, ok := statusColors[s]
	if !ok {
		return mutedStyle
	}
	return lipgloss.NewStyle().Foreground(c)
}

// sortBoards orders boards by the preferred field and direction. Pinned
// boards come first in the order they were pinned. Boards without a deadline
// sort last either way.
func sortBoards(boards []models.Board, p prefs.Preferences) []models.Board {
	pinRank := make(map[int64]int, len(p.PinnedBoardIDs))
	for i, id := range p.PinnedBoardIDs {
		pinRank[id] = i
	}

	out := slices.Clone(boards)
	slices.SortStableFunc(out, func(x, y models.Board) int {
		rx, px := pinRank[x.ID]
		ry, py := pinRank[y.ID]
		switch {
		case px && py:
			return cmp.Compare(rx, ry)
		case px:
			return -1
		case py:
			return 1
		}

		if p.SortField == prefs.SortByDeadline && (x.Deadline == "") != (y.Deadline == "") {
			if x.Deadline == "" {
				return 1
			}
			return -1
		}

		c := compareBy(p.SortField, x, y)
		if c == 0 {
			c = cmp.Compare(x.ID, y.ID)
		}
		if p.SortDirection == prefs.Desc {
			c = -c
		}
		return c
	})
	return out
}

func compareBy(field prefs.SortField, x, y models.Board) int {
	switch field {
	case prefs.SortByName:
		return strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name))
	case prefs.SortByStatus:
		return cmp.Compare(slices.Index(statusOrder, x.Status), slices.Index(statusOrder, y.Status))
	case prefs.SortByDeadline:
		return strings.Compare(x.Deadline, y.Deadline)
	default:
		// ids are assigned in creation order
		return cmp.Compare(x.ID, y.ID)
	}
}

// renderBoards lays out a page of boards per the view preferences and adds
// the summary panel when it is open.
func renderBoards(page models.BoardPage, p prefs.Preferences) string {
	if len(page.Content) == 0 {
		return "No boards yet"
	}

	boards := sortBoards(page.Content, p)
	pinned := make(map[int64]bool, len(p.PinnedBoardIDs))
	for _, id := range p.PinnedBoardIDs {
		pinned[id] = true
	}

	var body string
	if p.ViewMode == prefs.ViewList {
		body = renderList(boards, pinned)
	} else {
		body = renderGrid(boards, pinned)
	}

	if p.IsPanelOpen {
		body += "\n" + renderPanel(page, pinned)
	}
	return body
}

func renderList(boards []models.Board, pinned map[int64]bool) string {
	lines := make([]string, 0, len(boards))
	for _, b := range boards {
		mark := " "
		if pinned[b.ID] {
			mark = pinStyle.Render(pinMark)
		}
		line := fmt.Sprintf("%s #%-5d %-28s %s", mark, b.ID, b.Name, statusStyle(b.Status).Render(string(b.Status)))
		if b.Deadline != "" {
			line += " " + mutedStyle.Render("due "+b.Deadline)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderGrid(boards []models.Board, pinned map[int64]bool) string {
	var rows []string
	for chunk := range slices.Chunk(boards, gridColumns) {
		cards := make([]string, 0, len(chunk))
		for _, b := range chunk {
			cards = append(cards, renderCard(b, pinned[b.ID]))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(b models.Board, pinned bool) string {
	title := titleStyle.Render(b.Name)
	if pinned {
		title = pinStyle.Render(pinMark) + " " + title
	}
	lines := []string{
		title,
		mutedStyle.Render(fmt.Sprintf("#%d %s", b.ID, b.Slug)),
		statusStyle(b.Status).Render(string(b.Status)),
	}
	if b.Deadline != "" {
		lines = append(lines, mutedStyle.Render("due "+b.Deadline))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderPanel(page models.BoardPage, pinned map[int64]bool) string {
	counts := make(map[models.BoardStatus]int)
	pins := 0
	for _, b := range page.Content {
		counts[b.Status]++
		if pinned[b.ID] {
			pins++
		}
	}

	parts := []string{fmt.Sprintf("%d boards, %d/%d pinned", page.TotalElements, pins, prefs.MaxPinned)}
	for _, s := range statusOrder {
		if n := counts[s]; n > 0 {
			parts = append(parts, statusStyle(s).Render(fmt.Sprintf("%s %d", s, n)))
		}
	}
	return panelStyle.Render(strings.Join(parts, "  "))
}

// renderBoard is the detail view of a single board.
func renderBoard(b models.Board, pinned bool) string {
	title := titleStyle.Render(b.Name)
	if pinned {
		title = pinStyle.Render(pinMark) + " " + title
	}
	lines := []string{
		title,
		fmt.Sprintf("ID:       %d", b.ID),
		fmt.Sprintf("Slug:     %s", b.Slug),
		fmt.Sprintf("Status:   %s", statusStyle(b.Status).Render(string(b.Status))),
	}
	optional := []struct{ label, value string }{
		{"Type", string(b.BoardType)},
		{"Category", b.Category},
		{"Deadline", b.Deadline},
		{"Link", b.Link},
	}
	for _, o := range optional {
		if o.value != "" {
			lines = append(lines, fmt.Sprintf("%-9s %s", o.label+":", o.value))
		}
	}
	if b.Description != "" {
		lines = append(lines, "", b.Description)
	}
	return strings.Join(lines, "\n")
}
