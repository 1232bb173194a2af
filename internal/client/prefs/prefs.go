// Package prefs keeps user-local UI preferences that never reach the server:
// view mode, sort order, panel state and the bounded set of pinned boards.
package prefs

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

// MaxPinned bounds the pinned set. Pins beyond it are rejected, never truncated.
const MaxPinned = 5

const blobVersion = 1

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

type SortField string

const (
	SortByName      SortField = "name"
	SortByStatus    SortField = "status"
	SortByDeadline  SortField = "deadline"
	SortByCreatedAt SortField = "createdAt"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(s); v {
	case ViewGrid, ViewList:
		return v, nil
	}
	return "", fmt.Errorf("%w: view mode %q", common.ErrInvalidInput, s)
}

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByName, SortByStatus, SortByDeadline, SortByCreatedAt:
		return f, nil
	}
	return "", fmt.Errorf("%w: sort field %q", common.ErrInvalidInput, s)
}

func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(s); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("%w: sort direction %q", common.ErrInvalidInput, s)
}

// Preferences is the persisted blob.
type Preferences struct {
	ViewMode       ViewMode      `json:"viewMode"`
	SortField      SortField     `json:"sortField"`
	SortDirection  SortDirection `json:"sortDirection"`
	PinnedBoardIDs []int64       `json:"pinnedBoardIds"`
	IsPanelOpen    bool          `json:"isPanelOpen"`
}

func Defaults() Preferences {
	return Preferences{
		ViewMode:       ViewGrid,
		SortField:      SortByCreatedAt,
		SortDirection:  Desc,
		PinnedBoardIDs: []int64{},
		IsPanelOpen:    true,
	}
}

func (p Preferences) clone() Preferences {
	p.PinnedBoardIDs = slices.Clone(p.PinnedBoardIDs)
	if p.PinnedBoardIDs == nil {
		p.PinnedBoardIDs = []int64{}
	}
	return p
}

// PinResult says what TogglePinBoard did.
type PinResult int

const (
	PinAdded PinResult = iota
	PinRemoved
	PinRejected
)

func (r PinResult) String() string {
	switch r {
	case PinAdded:
		return "pinned"
	case PinRemoved:
		return "unpinned"
	default:
		return "rejected"
	}
}

// Store is safe for concurrent use. Every change is saved immediately; a
// failed save is logged and the in-memory change is kept.
type Store struct {
	repo kv.Repository
	log  logging.Logger

	mu    sync.Mutex
	prefs Preferences
}

func New(repo kv.Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log.With("module", "prefs"), prefs: Defaults()}
}

// Load replaces the in-memory preferences with the persisted ones. Invalid
// fields fall back to their defaults.
func (s *Store) Load(ctx context.Context) error {
	loaded := Defaults()
	_, found, err := kv.LoadJSON(ctx, s.repo, common.PreferencesKey, &loaded)
	if err != nil && !found {
		return err
	}
	if err != nil {
		s.log.Warn(ctx, "discarding unreadable preferences", "error", err)
		loaded = Defaults()
	}

	s.mu.Lock()
	s.prefs = s.sanitize(ctx, loaded)
	s.mu.Unlock()
	return nil
}

func (s *Store) sanitize(ctx context.Context, p Preferences) Preferences {
	def := Defaults()
	if _, err := ParseViewMode(string(p.ViewMode)); err != nil {
		p.ViewMode = def.ViewMode
	}
	if _, err := ParseSortField(string(p.SortField)); err != nil {
		p.SortField = def.SortField
	}
	if _, err := ParseSortDirection(string(p.SortDirection)); err != nil {
		p.SortDirection = def.SortDirection
	}

	pins := make([]int64, 0, MaxPinned)
	for _, id := range p.PinnedBoardIDs {
		if id <= 0 || slices.Contains(pins, id) {
			continue
		}
		if len(pins) == MaxPinned {
			s.log.Warn(ctx, "dropping pins above the limit", "limit", MaxPinned)
			break
		}
		pins = append(pins, id)
	}
	p.PinnedBoardIDs = pins
	return p
}

func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.clone()
}

// Pinned returns the pinned ids in the order they were pinned.
func (s *Store) Pinned() []int64 {
	return s.Preferences().PinnedBoardIDs
}

func (s *Store) IsPinned(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.prefs.PinnedBoardIDs, id)
}

// TogglePinBoard unpins a pinned board, or pins it if there is room.
func (s *Store) TogglePinBoard(ctx context.Context, id int64) PinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	pins := s.prefs.PinnedBoardIDs
	if i := slices.Index(pins, id); i >= 0 {
		s.prefs.PinnedBoardIDs = slices.Delete(slices.Clone(pins), i, i+1)
		s.saveLocked(ctx)
		return PinRemoved
	}
	if id <= 0 || len(pins) >= MaxPinned {
		return PinRejected
	}
	s.prefs.PinnedBoardIDs = append(slices.Clone(pins), id)
	s.saveLocked(ctx)
	return PinAdded
}

// UnpinBoard removes id if present and reports whether it was.
func (s *Store) UnpinBoard(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.prefs.PinnedBoardIDs, id)
	if i < 0 {
		return false
	}
	s.prefs.PinnedBoardIDs = slices.Delete(slices.Clone(s.prefs.PinnedBoardIDs), i, i+1)
	s.saveLocked(ctx)
	return true
}

func (s *Store) SetViewMode(ctx context.Context, mode ViewMode) error {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.ViewMode = mode
	s.saveLocked(ctx)
	return nil
}

func (s *Store) SetSort(ctx context.Context, field SortField, dir SortDirection) error {
	if _, err := ParseSortField(string(field)); err != nil {
		return err
	}
	if _, err := ParseSortDirection(string(dir)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SortField = field
	s.prefs.SortDirection = dir
	s.saveLocked(ctx)
	return nil
}

func (s *Store) SetPanelOpen(ctx context.Context, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.IsPanelOpen = open
	s.saveLocked(ctx)
}

// TogglePanel flips the panel state and returns the new one.
func (s *Store) TogglePanel(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.IsPanelOpen = !s.prefs.IsPanelOpen
	s.saveLocked(ctx)
	return s.prefs.IsPanelOpen
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := kv.SaveJSON(ctx, s.repo, common.PreferencesKey, blobVersion, s.prefs); err != nil {
		s.log.Warn(ctx, "failed to persist preferences", "error", err)
	}
}
