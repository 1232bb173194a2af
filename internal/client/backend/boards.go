package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/common"
)

func boardPath(id int64) string {
	return "/boards/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListBoards(ctx context.Context, userID int64) (models.BoardPage, error) {
	var page models.BoardPage
	req := request{
		method:      http.MethodGet,
		path:        "/boards",
		query:       url.Values{"userId": {strconv.FormatInt(userID, 10)}},
		refreshable: true,
	}
	if err := c.send(ctx, req, &page); err != nil {
		return models.BoardPage{}, err
	}
	return page, nil
}

func (c *Client) GetBoard(ctx context.Context, slug string) (models.Board, error) {
	if slug == "" {
		return models.Board{}, fmt.Errorf("%w: board slug required", common.ErrInvalidInput)
	}
	var b models.Board
	req := request{method: http.MethodGet, path: "/boards/" + url.PathEscape(slug), refreshable: true}
	if err := c.send(ctx, req, &b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

func (c *Client) CreateBoard(ctx context.Context, nb models.NewBoard) (models.Board, error) {
	var b models.Board
	if err := c.send(ctx, request{method: http.MethodPost, path: "/boards", body: nb, refreshable: true}, &b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

func (c *Client) UpdateBoard(ctx context.Context, id int64, patch models.BoardPatch) (models.Board, error) {
	var b models.Board
	if err := c.send(ctx, request{method: http.MethodPatch, path: boardPath(id), body: patch, refreshable: true}, &b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

func (c *Client) UpdateBoardStatus(ctx context.Context, id int64, status models.BoardStatus) (models.Board, error) {
	body := struct {
		Status models.BoardStatus `json:"status"`
	}{Status: status}

	var b models.Board
	req := request{method: http.MethodPatch, path: boardPath(id) + "/status", body: body, refreshable: true}
	if err := c.send(ctx, req, &b); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

func (c *Client) DeleteBoard(ctx context.Context, id int64) error {
	return c.send(ctx, request{method: http.MethodDelete, path: boardPath(id), refreshable: true}, nil)
}
