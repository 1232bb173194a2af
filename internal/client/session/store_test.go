package session

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/client/localdb"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	MeResp    *models.Profile
	MeErr     error
	LogoutErr error

	meCalls     int
	logoutCalls int
	gotRefresh  string
	onMe        func()
}

func (f *fakeRemote) Me(ctx context.Context) (*models.Profile, error) {
	f.meCalls++
	if f.onMe != nil {
		f.onMe()
	}
	return f.MeResp, f.MeErr
}

func (f *fakeRemote) Logout(ctx context.Context, refreshToken string) error {
	f.logoutCalls++
	f.gotRefresh = refreshToken
	return f.LogoutErr
}

func setup(t *testing.T) (*Store, *fakeRemote, *cache.Cache, kv.Repository) {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := kv.NewSQLiteRepository(db)
	remote := &fakeRemote{}
	c := cache.New()
	return New(remote, repo, c, logging.Discard()), remote, c, repo
}

func alice() models.Identity {
	return models.Identity{UserID: 1, Username: "alice", Token: "t1", RefreshToken: "r1"}
}

func TestLogin(t *testing.T) {
	s, _, _, _ := setup(t)
	assert.Equal(t, StateAnonymous, s.State())

	s.Login(context.Background(), alice())

	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "alice", s.Identity().Username)
	assert.False(t, s.IsValidating())
}

func TestLogout_ClearsEvenWhenRemoteFails(t *testing.T) {
	s, remote, c, _ := setup(t)
	ctx := context.Background()
	s.Login(ctx, alice())
	c.Set(cache.BoardsList(1), models.BoardPage{TotalElements: 1})
	remote.LogoutErr = backend.ErrUnavailable

	s.Logout(ctx)

	assert.Equal(t, 1, remote.logoutCalls)
	assert.Equal(t, "r1", remote.gotRefresh)
	assert.Equal(t, models.Identity{}, s.Identity())
	_, ok := c.Get(cache.BoardsList(1))
	assert.False(t, ok, "old user's scope is evicted")
}

func TestLogout_AnonymousSkipsRemote(t *testing.T) {
	s, remote, _, _ := setup(t)
	s.Logout(context.Background())
	assert.Zero(t, remote.logoutCalls)
}

func TestValidateSession(t *testing.T) {
	cases := []struct {
		name    string
		resp    *models.Profile
		err     error
		outcome Outcome
		want    models.Identity
	}{
		{
			name:    "ok merges profile",
			resp:    &models.Profile{ID: 99, Username: "alice2", Email: "a@example.com"},
			outcome: OutcomeValid,
			want: models.Identity{UserID: 1, Username: "alice2", Email: "a@example.com",
				Token: "t1", RefreshToken: "r1", IsAuthenticated: true},
		},
		{name: "401 clears", err: &backend.APIError{StatusCode: 401}, outcome: OutcomeRejected, want: models.Identity{}},
		{name: "403 clears", err: &backend.APIError{StatusCode: 403}, outcome: OutcomeRejected, want: models.Identity{}},
		{
			name:    "network error keeps state",
			err:     errors.New("dial tcp: connection refused"),
			outcome: OutcomeUnreachable,
			want:    models.Identity{UserID: 1, Username: "alice", Token: "t1", RefreshToken: "r1", IsAuthenticated: true},
		},
		{
			name:    "5xx keeps state",
			err:     &backend.APIError{StatusCode: 502},
			outcome: OutcomeUnreachable,
			want:    models.Identity{UserID: 1, Username: "alice", Token: "t1", RefreshToken: "r1", IsAuthenticated: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, remote, _, _ := setup(t)
			s.Login(context.Background(), alice())
			remote.MeResp, remote.MeErr = tc.resp, tc.err

			assert.Equal(t, tc.outcome, s.ValidateSession(context.Background()))
			assert.Equal(t, tc.want, s.Identity())
			assert.Zero(t, remote.logoutCalls, "validation never calls logout")
		})
	}
}

func TestValidateSession_RepeatedNetworkErrorsKeepSession(t *testing.T) {
	s, remote, _, _ := setup(t)
	s.Login(context.Background(), alice())
	before := s.Identity()
	remote.MeErr = backend.ErrUnavailable

	for i := 0; i < 10; i++ {
		s.ValidateSession(context.Background())
		require.True(t, s.IsAuthenticated())
	}
	assert.Equal(t, before, s.Identity())
	assert.Equal(t, 10, remote.meCalls)
}

func TestValidateSession_AnonymousIsNoop(t *testing.T) {
	s, remote, _, _ := setup(t)
	assert.Equal(t, OutcomeSkipped, s.ValidateSession(context.Background()))
	assert.Zero(t, remote.meCalls)
}

func TestValidateSession_EmptyProfileKeepsSession(t *testing.T) {
	s, remote, _, _ := setup(t)
	s.Login(context.Background(), alice())
	remote.MeResp, remote.MeErr = nil, nil

	assert.Equal(t, OutcomeUnreachable, s.ValidateSession(context.Background()))
	assert.Equal(t, alice().Username, s.Identity().Username)
	assert.True(t, s.IsAuthenticated())
}

func TestValidateSession_WithoutRemote(t *testing.T) {
	s := New(nil, nil, nil, logging.Discard())
	s.Login(context.Background(), alice())

	assert.Equal(t, OutcomeSkipped, s.ValidateSession(context.Background()))
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.IsValidating())
}

func TestValidateSession_ResultForReplacedIdentityIsIgnored(t *testing.T) {
	s, remote, _, _ := setup(t)
	ctx := context.Background()
	s.Login(ctx, alice())

	remote.MeErr = &backend.APIError{StatusCode: 401}
	remote.onMe = func() {
		assert.True(t, s.IsValidating())
		s.Logout(ctx)
		s.Login(ctx, models.Identity{UserID: 2, Username: "bob"})
	}

	assert.Equal(t, OutcomeSuperseded, s.ValidateSession(ctx))
	assert.Equal(t, int64(2), s.Identity().UserID)
	assert.False(t, s.IsValidating())
}

func TestIdentityScopedIsolation(t *testing.T) {
	s, _, c, _ := setup(t)
	ctx := context.Background()

	s.Login(ctx, alice())
	c.Set(cache.BoardsList(1), models.BoardPage{Content: []models.Board{{ID: 1, Name: "secret"}}, TotalElements: 1})
	c.Set(cache.BoardDetail(1, "secret"), models.Board{ID: 1, Name: "secret"})

	s.Logout(ctx)
	s.Login(ctx, models.Identity{UserID: 2, Username: "bob"})

	_, ok := c.Get(cache.BoardsList(2))
	assert.False(t, ok)
	for _, k := range []cache.QueryKey{cache.BoardsList(1), cache.BoardDetail(1, "secret")} {
		_, ok := c.Get(k)
		assert.False(t, ok, k.String())
	}
}

func TestLogin_SwitchingUserEvictsPreviousScope(t *testing.T) {
	s, _, c, _ := setup(t)
	ctx := context.Background()

	s.Login(ctx, alice())
	c.Set(cache.BoardsList(1), models.BoardPage{})
	s.Login(ctx, models.Identity{UserID: 2})

	_, ok := c.Get(cache.BoardsList(1))
	assert.False(t, ok)

	c.Set(cache.BoardsList(2), models.BoardPage{})
	s.Login(ctx, models.Identity{UserID: 2, Username: "bob"})
	_, ok = c.Get(cache.BoardsList(2))
	assert.True(t, ok, "re-login as the same user keeps the cache")
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, _, c, repo := setup(t)
	ctx := context.Background()
	s.Login(ctx, alice())
	s.UpdateUsername(ctx, "alicia")
	s.UpdateTokens(ctx, "t2", "r2")

	restored := New(&fakeRemote{}, repo, c, logging.Discard())
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, models.Identity{UserID: 1, Username: "alicia", Token: "t2", RefreshToken: "r2", IsAuthenticated: true},
		restored.Identity())

	var stored models.Identity
	version, found, err := kv.LoadJSON(ctx, repo, common.AuthStateKey, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, version)

	s.Logout(ctx)
	restored = New(&fakeRemote{}, repo, c, logging.Discard())
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, StateAnonymous, restored.State())
}

func TestRestore_CorruptOrMissingBlob(t *testing.T) {
	s, _, _, repo := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, StateAnonymous, s.State())

	require.NoError(t, repo.Set(ctx, common.AuthStateKey, []byte("{not json")))
	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, StateAnonymous, s.State())
}

func TestRestore_LegacyBareBlob(t *testing.T) {
	s, _, _, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, common.AuthStateKey, []byte(`{"userId":5,"username":"old","isAuthenticated":true}`)))

	require.NoError(t, s.Restore(ctx))
	assert.Equal(t, int64(5), s.Identity().UserID)
}

func TestUpdateTokens_IgnoredWhenAnonymous(t *testing.T) {
	s, _, _, _ := setup(t)
	s.UpdateTokens(context.Background(), "a", "b")
	assert.Equal(t, models.Identity{}, s.Identity())
}

func TestSubscribe(t *testing.T) {
	s, _, _, _ := setup(t)
	ctx := context.Background()

	var changes [][2]models.Identity
	unsubscribe := s.Subscribe(func(prev, next models.Identity) {
		changes = append(changes, [2]models.Identity{prev, next})
	})

	s.Login(ctx, alice())
	s.UpdateUsername(ctx, "alice") // unchanged, no event
	s.Logout(ctx)
	unsubscribe()
	s.Login(ctx, alice())

	require.Len(t, changes, 2)
	assert.Equal(t, int64(1), changes[0][1].UserID)
	assert.Equal(t, models.Identity{}, changes[1][1])
}

type failingRepo struct{ kv.Repository }

func (failingRepo) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestLogin_NeverFailsOnPersistenceError(t *testing.T) {
	s := New(&fakeRemote{}, failingRepo{}, cache.New(), logging.Discard())
	s.Login(context.Background(), alice())
	assert.True(t, s.IsAuthenticated())
}
