package models

import (
	"fmt"
	"strings"
)

// BoardStatus is the lifecycle state of a board.
type BoardStatus string

const (
	BoardStatusPlanned    BoardStatus = "PLANNED"
	BoardStatusInProgress BoardStatus = "IN_PROGRESS"
	BoardStatusDone       BoardStatus = "DONE"
	BoardStatusStopped    BoardStatus = "STOPPED"
	BoardStatusAbandoned  BoardStatus = "ABANDONED"
)

var boardStatuses = []BoardStatus{
	BoardStatusPlanned, BoardStatusInProgress, BoardStatusDone, BoardStatusStopped, BoardStatusAbandoned,
}

// ParseBoardStatus accepts any letter case.
func ParseBoardStatus(s string) (BoardStatus, error) {
	candidate := BoardStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range boardStatuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown board status %q", s)
}

// BoardType tells individual boards from team boards.
type BoardType string

const (
	BoardTypeIndividual BoardType = "INDIVIDUAL"
	BoardTypeTeam       BoardType = "TEAM"
)

// Board mirrors the backend board resource. ID is server-assigned and
// immutable; Slug is the stable alias used for detail lookups.
type Board struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Status      BoardStatus `json:"status"`
	Link        string      `json:"link,omitempty"`
	Description string      `json:"description,omitempty"`
	Deadline    string      `json:"deadline,omitempty"`
	Category    string      `json:"category,omitempty"`
	BoardType   BoardType   `json:"boardType,omitempty"`
	Slug        string      `json:"slug"`
}

// CloneValue implements cache.Cloner. Board has only value fields.
func (b Board) CloneValue() any { return b }

// BoardPage is the GET /boards payload.
type BoardPage struct {
	Content       []Board `json:"content"`
	TotalElements int     `json:"totalElements"`
}

// Clone returns a deep copy.
func (p BoardPage) Clone() BoardPage {
	out := BoardPage{TotalElements: p.TotalElements}
	if p.Content != nil {
		out.Content = make([]Board, len(p.Content))
		copy(out.Content, p.Content)
	}
	return out
}

// CloneValue implements cache.Cloner.
func (p BoardPage) CloneValue() any { return p.Clone() }

// Index returns the position of the board with id, or -1.
func (p BoardPage) Index(id int64) int {
	for i, b := range p.Content {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// NewBoard is the POST /boards body.
type NewBoard struct {
	Name        string      `json:"name"`
	Status      BoardStatus `json:"status,omitempty"`
	Link        string      `json:"link,omitempty"`
	Description string      `json:"description,omitempty"`
	Deadline    string      `json:"deadline,omitempty"`
	Category    string      `json:"category,omitempty"`
	BoardType   BoardType   `json:"boardType,omitempty"`
}

// BoardPatch is the PATCH /boards/{id} body; nil fields are left unchanged.
type BoardPatch struct {
	Name        *string      `json:"name,omitempty"`
	Status      *BoardStatus `json:"status,omitempty"`
	Link        *string      `json:"link,omitempty"`
	Description *string      `json:"description,omitempty"`
	Deadline    *string      `json:"deadline,omitempty"`
	Category    *string      `json:"category,omitempty"`
	BoardType   *BoardType   `json:"boardType,omitempty"`
}

// Apply merges the set fields of p into b.
func (p BoardPatch) Apply(b Board) Board {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Link != nil {
		b.Link = *p.Link
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Deadline != nil {
		b.Deadline = *p.Deadline
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.BoardType != nil {
		b.BoardType = *p.BoardType
	}
	return b
}

// IsEmpty reports whether no field is set.
func (p BoardPatch) IsEmpty() bool {
	return p == BoardPatch{}
}
