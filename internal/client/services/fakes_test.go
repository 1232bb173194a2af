package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/client/localdb"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/mutation"
	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/client/session"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements AuthAPI and BoardAPI for unit tests.
type fakeAPI struct {
	LoginRet  models.LoginResult
	LoginErr  error
	LogoutErr error
	MeRet     *models.Profile
	MeErr     error

	ListRet   models.BoardPage
	ListErr   error
	GetRet    models.Board
	GetErr    error
	CreateRet models.Board
	CreateErr error
	UpdateRet models.Board
	UpdateErr error
	StatusRet models.Board
	StatusErr error
	DeleteErr error

	// beforeReturn runs inside every board call, after the optimistic patch.
	beforeReturn func()

	calls        map[string]int
	access       string
	refresh      string
	onTokens     func(access, refresh string)
	lastPatch    models.BoardPatch
	lastNewBoard models.NewBoard
}

func (f *fakeAPI) hit(name string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (models.LoginResult, error) {
	f.hit("login")
	return f.LoginRet, f.LoginErr
}

func (f *fakeAPI) Logout(ctx context.Context, refreshToken string) error {
	f.hit("logout")
	return f.LogoutErr
}

func (f *fakeAPI) Me(ctx context.Context) (*models.Profile, error) {
	f.hit("me")
	return f.MeRet, f.MeErr
}

func (f *fakeAPI) SetTokens(access, refresh string) { f.access, f.refresh = access, refresh }

func (f *fakeAPI) OnTokens(fn func(access, refresh string)) { f.onTokens = fn }

func (f *fakeAPI) ListBoards(ctx context.Context, userID int64) (models.BoardPage, error) {
	f.hit("list")
	return f.ListRet.Clone(), f.ListErr
}

func (f *fakeAPI) GetBoard(ctx context.Context, slug string) (models.Board, error) {
	f.hit("get")
	return f.GetRet, f.GetErr
}

func (f *fakeAPI) CreateBoard(ctx context.Context, nb models.NewBoard) (models.Board, error) {
	f.hit("create")
	f.lastNewBoard = nb
	return f.CreateRet, f.CreateErr
}

func (f *fakeAPI) UpdateBoard(ctx context.Context, id int64, patch models.BoardPatch) (models.Board, error) {
	f.hit("update")
	f.lastPatch = patch
	return f.UpdateRet, f.UpdateErr
}

func (f *fakeAPI) UpdateBoardStatus(ctx context.Context, id int64, status models.BoardStatus) (models.Board, error) {
	f.hit("status")
	return f.StatusRet, f.StatusErr
}

func (f *fakeAPI) DeleteBoard(ctx context.Context, id int64) error {
	f.hit("delete")
	return f.DeleteErr
}

type harness struct {
	api     *fakeAPI
	db      *sql.DB
	repo    kv.Repository
	cache   *cache.Cache
	session *session.Store
	prefs   *prefs.Store
	auth    AuthService
	boards  BoardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.Discard()
	h := &harness{api: &fakeAPI{}, db: db, repo: kv.NewSQLiteRepository(db), cache: cache.New()}
	h.session = session.New(h.api, h.repo, h.cache, log)
	h.prefs = prefs.New(h.repo, log)
	h.auth = NewAuthService(h.api, h.session, h.prefs, nil, h.repo, log)
	h.boards = NewBoardService(h.api, h.session, mutation.NewEngine(h.cache, log), h.prefs, log)
	return h
}

// newHarnessOn builds a second client over the same database, as after a restart.
func newHarnessOn(t *testing.T, prev *harness) *harness {
	t.Helper()
	log := nopLog()
	h := &harness{api: &fakeAPI{}, db: prev.db, repo: prev.repo, cache: cache.New()}
	h.session = session.New(h.api, h.repo, h.cache, log)
	h.prefs = prefs.New(h.repo, log)
	h.auth = NewAuthService(h.api, h.session, h.prefs, nil, h.repo, log)
	h.boards = NewBoardService(h.api, h.session, mutation.NewEngine(h.cache, log), h.prefs, log)
	return h
}

func nopLog() logging.Logger { return logging.Discard() }

func (h *harness) loginAs(t *testing.T, id int64, name string) {
	t.Helper()
	h.api.LoginRet = models.LoginResult{Token: "tok-" + name, RefreshToken: "ref-" + name, ID: id, Username: name}
	_, err := h.auth.Login(context.Background(), name, "pw")
	require.NoError(t, err)
}

func twoBoards() models.BoardPage {
	return models.BoardPage{
		Content: []models.Board{
			{ID: 1, Name: "A", Status: models.BoardStatusPlanned, Slug: "a"},
			{ID: 2, Name: "B", Status: models.BoardStatusInProgress, Slug: "b"},
		},
		TotalElements: 2,
	}
}
