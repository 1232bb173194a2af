// Package services contains the application services of the board client.
// This file defines the authentication service: login, logout, session
// checks, the liveness probe and the local data wipe.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/health"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/client/session"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

// AuthAPI is the part of the backend the auth service needs.
// *backend.Client implements it.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (models.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*models.Profile, error)
	SetTokens(access, refresh string)
	OnTokens(fn func(access, refresh string))
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Restore: reload the persisted session on start.
//   - Login: authenticate against the server and make the user current.
//   - Logout: revoke server-side (best effort) and clear local identity.
//   - ValidateSession: re-check the current session with the server.
//   - Ping: check server liveness.
//   - ClearLocalData: log out and wipe the persisted auth and preference blobs.
type AuthService interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Logout(ctx context.Context)
	ValidateSession(ctx context.Context) session.Outcome
	Identity() models.Identity
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearLocalData(ctx context.Context) error
}

type authService struct {
	api     AuthAPI
	session *session.Store
	prefs   *prefs.Store
	prober  health.Prober
	repo    kv.Repository
	log     logging.Logger
}

// NewAuthService wires the session store to api: identity changes push the
// session's tokens into api, and tokens rotated by api are saved into the
// session. prober may be nil, in which case the server counts as reachable.
func NewAuthService(api AuthAPI, store *session.Store, pr *prefs.Store, prober health.Prober, repo kv.Repository, log logging.Logger) AuthService {
	a := &authService{api: api, session: store, prefs: pr, prober: prober, repo: repo, log: log.With("module", "auth")}

	store.Subscribe(func(_, next models.Identity) {
		api.SetTokens(next.Token, next.RefreshToken)
	})
	api.OnTokens(func(access, refresh string) {
		store.UpdateTokens(context.Background(), access, refresh)
	})
	cur := store.Identity()
	api.SetTokens(cur.Token, cur.RefreshToken)
	return a
}

func (a *authService) Restore(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if a.prefs != nil {
		if err := a.prefs.Load(ctx); err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
	}
	return nil
}

// Login authenticates and then records the identity in the session store.
func (a *authService) Login(ctx context.Context, username, password string) (models.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Identity{}, fmt.Errorf("%w: username and password are required", common.ErrInvalidInput)
	}

	res, err := a.api.Login(ctx, username, password)
	if err != nil {
		return models.Identity{}, fmt.Errorf("login error: %w", err)
	}

	a.session.Login(ctx, res.Identity())
	return a.session.Identity(), nil
}

func (a *authService) Logout(ctx context.Context) {
	a.session.Logout(ctx)
}

func (a *authService) ValidateSession(ctx context.Context) session.Outcome {
	return a.session.ValidateSession(ctx)
}

func (a *authService) Identity() models.Identity {
	return a.session.Identity()
}

// Ping proxies a liveness check to the prober.
func (a *authService) Ping(ctx context.Context) error {
	if a.prober == nil {
		return nil
	}
	return a.prober.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	if a.prober == nil {
		return nil
	}
	return a.prober.Close()
}

// ClearLocalData logs out and deletes both persisted blobs in one transaction.
func (a *authService) ClearLocalData(ctx context.Context) error {
	a.session.Logout(ctx)

	if err := a.repo.DeleteMany(ctx, common.AuthStateKey, common.PreferencesKey); err != nil {
		return fmt.Errorf("clear local data: %w", err)
	}
	if a.prefs != nil {
		if err := a.prefs.Load(ctx); err != nil {
			return fmt.Errorf("reset preferences: %w", err)
		}
	}
	a.log.Info(ctx, "local data cleared")
	return nil
}
