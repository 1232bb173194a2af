package backend

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/client/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is the body of a successful POST /auth/refresh.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for tokens and starts using them.
func (c *Client) Login(ctx context.Context, username, password string) (models.LoginResult, error) {
	var res models.LoginResult
	req := request{method: http.MethodPost, path: "/auth/login", body: credentials{Username: username, Password: password}}
	if err := c.send(ctx, req, &res); err != nil {
		return models.LoginResult{}, err
	}
	c.SetTokens(res.Token, res.RefreshToken)
	return res, nil
}

// Logout revokes refreshToken server-side. The client's own tokens are
// dropped regardless of the outcome.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	req := request{method: http.MethodPost, path: "/auth/logout", body: refreshRequest{RefreshToken: refreshToken}}
	err := c.send(ctx, req, nil)
	c.SetTokens("", "")
	return err
}

// Refresh rotates the token pair. Concurrent callers share one request.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		_, refresh := c.Tokens()
		if refresh == "" {
			return nil, ErrUnauthorized
		}

		var pair TokenPair
		req := request{method: http.MethodPost, path: "/auth/refresh", body: refreshRequest{RefreshToken: refresh}}
		if err := c.roundTrip(ctx, req, &pair); err != nil {
			return nil, err
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = refresh
		}

		c.mu.Lock()
		c.accessToken = pair.Token
		c.refreshToken = pair.RefreshToken
		notify := c.onTokens
		c.mu.Unlock()

		if notify != nil {
			notify(pair.Token, pair.RefreshToken)
		}
		c.log.Info(ctx, "access token refreshed")
		return nil, nil
	})
	return err
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.send(ctx, request{method: http.MethodGet, path: "/auth/me", refreshable: true}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
