package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/client/config"
	"github.com/dmitrijs2005/taskboard/internal/client/health"
	"github.com/dmitrijs2005/taskboard/internal/client/localdb"
	"github.com/dmitrijs2005/taskboard/internal/client/mutation"
	"github.com/dmitrijs2005/taskboard/internal/client/prefs"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/client/services"
	"github.com/dmitrijs2005/taskboard/internal/client/session"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single connectivity probe.
const pingTimeout = 3 * time.Second

var timeNow = time.Now

type App struct {
	config *config.Config
	auth   services.AuthService
	boards services.BoardService
	prefs  *prefs.Store
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
	db     *sql.DB

	mu            sync.RWMutex
	mode          Mode
	lastValidated time.Time
}

// NewApp opens the local database and builds the whole client stack.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, os.Stderr)

	db, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	repo := kv.NewSQLiteRepository(db)

	api, err := backend.NewClient(c.ServerBaseURL, c.RequestTimeout, backend.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var prober health.Prober
	if c.HealthEndpointAddr != "" {
		prober, err = health.NewGRPCProber(c.HealthEndpointAddr, "")
	} else {
		prober, err = health.NewHTTPProber(c.ServerBaseURL, nil)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	entities := cache.New()
	store := session.New(api, repo, entities, log)
	pr := prefs.New(repo, log)
	engine := mutation.NewEngine(entities, log)

	as := services.NewAuthService(api, store, pr, prober, repo, log)
	bs := services.NewBoardService(api, store, engine, pr, log)

	return &App{
		config: c,
		auth:   as,
		boards: bs,
		prefs:  pr,
		log:    log.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		db:     db,
	}, nil
}

func (a *App) getMode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity mode changed", "mode", mode)
	}
}

// Run restores local state, runs the REPL and releases resources on exit.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.auth.Close(ctx); err != nil {
			a.log.Warn(ctx, "close prober", "error", err)
		}
		if a.db != nil {
			_ = a.db.Close()
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.auth.Identity().IsAuthenticated
}

// StartOnlineStatusWatcher probes the server every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			a.checkOnline(ctx, now)
		case <-ctx.Done():
			return
		}
	}
}

// checkOnline pings the server and updates the mode. The session is
// validated when the client comes back online and then every
// SessionCheckInterval while it stays online.
func (a *App) checkOnline(ctx context.Context, now time.Time) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.auth.Ping(pctx)
	cancel()

	if err != nil {
		a.log.Debug(ctx, "ping failed", "error", err)
		a.setMode(ModeOffline)
		return
	}

	wasOnline := a.getMode() == ModeOnline
	a.setMode(ModeOnline)

	a.mu.Lock()
	due := !wasOnline || now.Sub(a.lastValidated) >= a.config.SessionCheckInterval
	if due {
		a.lastValidated = now
	}
	a.mu.Unlock()

	if due {
		a.validate(ctx)
	}
}

func (a *App) validate(ctx context.Context) {
	outcome := a.auth.ValidateSession(ctx)
	a.log.Debug(ctx, "session validated", "outcome", outcome)
	if outcome == session.OutcomeRejected {
		printlnFn("Your session has expired, please log in again")
	}
}
