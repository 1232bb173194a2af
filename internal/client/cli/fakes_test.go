package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/config"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
	"github.com/dmitrijs2005/taskboard/internal/client/session"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

// ---- fake auth service ----

type fakeAuth struct {
	identity models.Identity

	loginUser string
	loginPass string
	loginErr  error

	logoutCalls   int
	validateCalls int
	outcome       session.Outcome
	pingErr       error
	pingCalls     int
	closeCalls    int
	clearCalls    int
	clearErr      error
	restoreErr    error
}

func (f *fakeAuth) Restore(context.Context) error { return f.restoreErr }

func (f *fakeAuth) Login(_ context.Context, user, pass string) (models.Identity, error) {
	f.loginUser, f.loginPass = user, pass
	if f.loginErr != nil {
		return models.Identity{}, f.loginErr
	}
	f.identity = models.Identity{UserID: 7, Username: user, IsAuthenticated: true}
	return f.identity, nil
}

func (f *fakeAuth) Logout(context.Context) {
	f.logoutCalls++
	f.identity = models.Identity{}
}

func (f *fakeAuth) ValidateSession(context.Context) session.Outcome {
	f.validateCalls++
	if f.outcome == "" {
		return session.OutcomeValid
	}
	return f.outcome
}

func (f *fakeAuth) Identity() models.Identity { return f.identity }

func (f *fakeAuth) Ping(context.Context) error {
	f.pingCalls++
	return f.pingErr
}

func (f *fakeAuth) Close(context.Context) error {
	f.closeCalls++
	return nil
}

func (f *fakeAuth) ClearLocalData(context.Context) error {
	f.clearCalls++
	return f.clearErr
}

// ---- fake board service ----

type fakeBoards struct {
	page    models.BoardPage
	listErr error
	board   models.Board
	getErr  error
	err     error // returned by every mutation

	gotSlug   string
	created   models.NewBoard
	updatedID int64
	patch     models.BoardPatch
	statusID  int64
	status    models.BoardStatus
	deleted   []int64
}

func (f *fakeBoards) List(context.Context) (models.BoardPage, error) {
	return f.page, f.listErr
}

func (f *fakeBoards) Get(_ context.Context, slug string) (models.Board, error) {
	f.gotSlug = slug
	return f.board, f.getErr
}

func (f *fakeBoards) Create(_ context.Context, nb models.NewBoard) (models.Board, error) {
	f.created = nb
	if f.err != nil {
		return models.Board{}, f.err
	}
	return models.Board{ID: 42, Name: nb.Name, Status: nb.Status, Slug: "new-board"}, nil
}

func (f *fakeBoards) Update(_ context.Context, id int64, patch models.BoardPatch) (models.Board, error) {
	f.updatedID, f.patch = id, patch
	if f.err != nil {
		return models.Board{}, f.err
	}
	return patch.Apply(models.Board{ID: id}), nil
}

func (f *fakeBoards) UpdateStatus(_ context.Context, id int64, status models.BoardStatus) (models.Board, error) {
	f.statusID, f.status = id, status
	if f.err != nil {
		return models.Board{}, f.err
	}
	return models.Board{ID: id, Status: status}, nil
}

func (f *fakeBoards) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

// ---- helpers ----

func newTestApp(auth *fakeAuth, boards *fakeBoards) *App {
	return &App{
		config: &config.Config{OnlineCheckInterval: time.Second, SessionCheckInterval: time.Minute},
		auth:   auth,
		boards: boards,
		prefs:  prefs.New(nil, logging.Discard()),
		log:    logging.Discard(),
		reader: bufio.NewReader(strings.NewReader("")),
		out:    io.Discard,
	}
}

func signedIn() *fakeAuth {
	return &fakeAuth{identity: models.Identity{UserID: 7, Username: "alice", IsAuthenticated: true}}
}

// captureOutput records everything printed through printlnFn.
func captureOutput(t *testing.T) *output {
	t.Helper()
	o := &output{}
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.lines = append(o.lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return o
}

type output struct {
	mu    sync.Mutex
	lines []string
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}

// stubText answers getSimpleText prompts with the given lines in order.
func stubText(t *testing.T, answers ...string) *[]string {
	t.Helper()
	var prompts []string
	orig := getSimpleText
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
	return &prompts
}

func stubMultiline(t *testing.T, text string) {
	t.Helper()
	orig := getMultiline
	getMultiline = func(*bufio.Reader, string, io.Writer) (string, error) { return text, nil }
	t.Cleanup(func() { getMultiline = orig })
}

func stubPassword(t *testing.T, pw []byte) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return pw, nil }
	t.Cleanup(func() { getPassword = orig })
}
