package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/mutation"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

// BoardAPI is the part of the backend the board service needs.
// *backend.Client implements it.
type BoardAPI interface {
	ListBoards(ctx context.Context, userID int64) (models.BoardPage, error)
	GetBoard(ctx context.Context, slug string) (models.Board, error)
	CreateBoard(ctx context.Context, nb models.NewBoard) (models.Board, error)
	UpdateBoard(ctx context.Context, id int64, patch models.BoardPatch) (models.Board, error)
	UpdateBoardStatus(ctx context.Context, id int64, status models.BoardStatus) (models.Board, error)
	DeleteBoard(ctx context.Context, id int64) error
}

// IdentitySource yields the identity queries and mutations are scoped to.
type IdentitySource interface {
	Identity() models.Identity
}

// Unpinner is told about deleted boards.
type Unpinner interface {
	UnpinBoard(ctx context.Context, id int64) bool
}

// BoardService reads boards through the entity cache and writes them
// through the mutation engine. Mutation errors are *mutation.Error.
type BoardService interface {
	List(ctx context.Context) (models.BoardPage, error)
	Get(ctx context.Context, slug string) (models.Board, error)
	Create(ctx context.Context, nb models.NewBoard) (models.Board, error)
	Update(ctx context.Context, id int64, patch models.BoardPatch) (models.Board, error)
	UpdateStatus(ctx context.Context, id int64, status models.BoardStatus) (models.Board, error)
	Delete(ctx context.Context, id int64) error
}

type createVars struct {
	UserID int64
	Board  models.NewBoard
}

type updateVars struct {
	UserID  int64
	BoardID int64
	Patch   models.BoardPatch
}

type statusVars struct {
	UserID  int64
	BoardID int64
	Status  models.BoardStatus
}

type deleteVars struct {
	UserID  int64
	BoardID int64
}

type boardService struct {
	api      BoardAPI
	identity IdentitySource
	cache    *cache.Cache
	log      logging.Logger

	create       *mutation.Mutation[createVars, models.Board]
	update       *mutation.Mutation[updateVars, models.Board]
	updateStatus *mutation.Mutation[statusVars, models.Board]
	remove       *mutation.Mutation[deleteVars, struct{}]
}

func NewBoardService(api BoardAPI, identity IdentitySource, engine *mutation.Engine, pins Unpinner, log logging.Logger) BoardService {
	s := &boardService{api: api, identity: identity, cache: engine.Cache(), log: log.With("module", "boards")}

	s.create = mutation.New(engine, mutation.Definition[createVars, models.Board]{
		Op: "create board",
		Validate: func(v createVars) error {
			if err := requireUser(v.UserID); err != nil {
				return err
			}
			if strings.TrimSpace(v.Board.Name) == "" {
				return fmt.Errorf("%w: board name is required", common.ErrInvalidInput)
			}
			return nil
		},
		Execute: func(ctx context.Context, v createVars) (models.Board, error) {
			return s.api.CreateBoard(ctx, v.Board)
		},
		Confirm: func(c *cache.Cache, v createVars, b models.Board) {
			if b.Slug != "" {
				c.Set(cache.BoardDetail(v.UserID, b.Slug), b)
			}
		},
		Invalidate: func(v createVars) []cache.Predicate { return boardScope(v.UserID) },
		Current:    func(v createVars) bool { return s.userID() == v.UserID },
	})

	s.update = mutation.New(engine, mutation.Definition[updateVars, models.Board]{
		Op: "update board",
		Validate: func(v updateVars) error {
			if err := requireBoard(v.UserID, v.BoardID); err != nil {
				return err
			}
			if v.Patch.IsEmpty() {
				return fmt.Errorf("%w: nothing to update", common.ErrInvalidInput)
			}
			if v.Patch.Name != nil && strings.TrimSpace(*v.Patch.Name) == "" {
				return fmt.Errorf("%w: board name is required", common.ErrInvalidInput)
			}
			return nil
		},
		Optimistic: func(v updateVars) []mutation.Patch {
			return []mutation.Patch{patchBoard(v.UserID, v.BoardID, v.Patch.Apply)}
		},
		Execute: func(ctx context.Context, v updateVars) (models.Board, error) {
			return s.api.UpdateBoard(ctx, v.BoardID, v.Patch)
		},
		Confirm: func(c *cache.Cache, v updateVars, b models.Board) {
			confirmBoard(c, v.UserID, b)
		},
		Invalidate: func(v updateVars) []cache.Predicate { return boardScope(v.UserID) },
		Current:    func(v updateVars) bool { return s.userID() == v.UserID },
	})

	s.updateStatus = mutation.New(engine, mutation.Definition[statusVars, models.Board]{
		Op: "update board status",
		Validate: func(v statusVars) error {
			if err := requireBoard(v.UserID, v.BoardID); err != nil {
				return err
			}
			if _, err := models.ParseBoardStatus(string(v.Status)); err != nil {
				return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
			}
			return nil
		},
		Optimistic: func(v statusVars) []mutation.Patch {
			return []mutation.Patch{patchBoard(v.UserID, v.BoardID, func(b models.Board) models.Board {
				b.Status = v.Status
				return b
			})}
		},
		Execute: func(ctx context.Context, v statusVars) (models.Board, error) {
			return s.api.UpdateBoardStatus(ctx, v.BoardID, v.Status)
		},
		Confirm: func(c *cache.Cache, v statusVars, b models.Board) {
			confirmBoard(c, v.UserID, b)
		},
		Invalidate: func(v statusVars) []cache.Predicate { return boardScope(v.UserID) },
		Current:    func(v statusVars) bool { return s.userID() == v.UserID },
	})

	s.remove = mutation.New(engine, mutation.Definition[deleteVars, struct{}]{
		Op: "delete board",
		Validate: func(v deleteVars) error {
			return requireBoard(v.UserID, v.BoardID)
		},
		Optimistic: func(v deleteVars) []mutation.Patch {
			return []mutation.Patch{{
				Match: cache.Exact(cache.BoardsList(v.UserID)),
				Apply: func(cur cache.Entry) (any, bool) {
					page, ok := cur.Data.(models.BoardPage)
					if !ok {
						return nil, false
					}
					i := page.Index(v.BoardID)
					if i < 0 {
						return nil, false
					}
					page.Content = append(page.Content[:i], page.Content[i+1:]...)
					page.TotalElements--
					return page, true
				},
			}}
		},
		Execute: func(ctx context.Context, v deleteVars) (struct{}, error) {
			return struct{}{}, s.api.DeleteBoard(ctx, v.BoardID)
		},
		Settle: func(ctx context.Context, v deleteVars, err error) {
			if pins == nil {
				return
			}
			if err == nil || errors.Is(err, backend.ErrNotFound) {
				if pins.UnpinBoard(ctx, v.BoardID) {
					s.log.Debug(ctx, "unpinned deleted board", "board_id", v.BoardID)
				}
			}
		},
		Invalidate: func(v deleteVars) []cache.Predicate { return boardScope(v.UserID) },
		Current:    func(v deleteVars) bool { return s.userID() == v.UserID },
	})

	return s
}

func (s *boardService) userID() int64 {
	id := s.identity.Identity()
	if !id.IsAuthenticated {
		return 0
	}
	return id.UserID
}

// List returns the user's boards, from the cache while it is fresh.
func (s *boardService) List(ctx context.Context) (models.BoardPage, error) {
	uid := s.userID()
	if uid == 0 {
		return models.BoardPage{}, common.ErrNotAuthenticated
	}
	e, err := s.query(ctx, cache.BoardsList(uid), func(ctx context.Context) (any, error) {
		return s.api.ListBoards(ctx, uid)
	})
	if err != nil {
		return models.BoardPage{}, err
	}
	return e.Data.(models.BoardPage), nil
}

// Get returns one board by slug, from the cache while it is fresh.
func (s *boardService) Get(ctx context.Context, slug string) (models.Board, error) {
	uid := s.userID()
	if uid == 0 {
		return models.Board{}, common.ErrNotAuthenticated
	}
	if slug == "" {
		return models.Board{}, fmt.Errorf("%w: board slug is required", common.ErrInvalidInput)
	}
	e, err := s.query(ctx, cache.BoardDetail(uid, slug), func(ctx context.Context) (any, error) {
		return s.api.GetBoard(ctx, slug)
	})
	if err != nil {
		return models.Board{}, err
	}
	return e.Data.(models.Board), nil
}

// query serves fresh entries from the cache and fetches otherwise. A fetch
// superseded by a mutation yields whatever the mutation left in the cache.
func (s *boardService) query(ctx context.Context, key cache.QueryKey, fn cache.Fetcher) (cache.Entry, error) {
	if e, ok := s.cache.Get(key); ok && e.Fresh() {
		return e, nil
	}
	e, err := s.cache.Fetch(ctx, key, fn)
	if errors.Is(err, cache.ErrFetchCancelled) {
		if cur, ok := s.cache.Get(key); ok && cur.Data != nil {
			return cur, nil
		}
	}
	if err != nil {
		return cache.Entry{}, fmt.Errorf("fetch %s: %w", key, err)
	}
	return e, nil
}

func (s *boardService) Create(ctx context.Context, nb models.NewBoard) (models.Board, error) {
	return s.create.Mutate(ctx, createVars{UserID: s.userID(), Board: nb})
}

func (s *boardService) Update(ctx context.Context, id int64, patch models.BoardPatch) (models.Board, error) {
	return s.update.Mutate(ctx, updateVars{UserID: s.userID(), BoardID: id, Patch: patch})
}

func (s *boardService) UpdateStatus(ctx context.Context, id int64, status models.BoardStatus) (models.Board, error) {
	return s.updateStatus.Mutate(ctx, statusVars{UserID: s.userID(), BoardID: id, Status: status})
}

func (s *boardService) Delete(ctx context.Context, id int64) error {
	_, err := s.remove.Mutate(ctx, deleteVars{UserID: s.userID(), BoardID: id})
	return err
}

func requireUser(userID int64) error {
	if userID == 0 {
		return common.ErrNotAuthenticated
	}
	return nil
}

func requireBoard(userID, boardID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if boardID <= 0 {
		return fmt.Errorf("%w: board id must be positive", common.ErrInvalidInput)
	}
	return nil
}

func boardScope(userID int64) []cache.Predicate {
	return []cache.Predicate{
		cache.Exact(cache.BoardsList(userID)),
		cache.Prefix(cache.BoardDetails(userID)),
	}
}

// patchBoard rewrites board id wherever it appears in the user's list and
// detail entries.
func patchBoard(userID, boardID int64, fn func(models.Board) models.Board) mutation.Patch {
	return mutation.Patch{
		Match: cache.AnyOf(boardScope(userID)...),
		Apply: func(cur cache.Entry) (any, bool) {
			switch data := cur.Data.(type) {
			case models.BoardPage:
				i := data.Index(boardID)
				if i < 0 {
					return nil, false
				}
				data.Content[i] = fn(data.Content[i])
				return data, true
			case models.Board:
				if data.ID != boardID {
					return nil, false
				}
				return fn(data), true
			}
			return nil, false
		},
	}
}

// confirmBoard replaces the optimistic guess with the server's board.
func confirmBoard(c *cache.Cache, userID int64, b models.Board) {
	c.Patch(cache.AnyOf(boardScope(userID)...), patchBoard(userID, b.ID, func(models.Board) models.Board {
		return b
	}).Apply)
}
