package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if id := a.auth.Identity(); id.IsAuthenticated {
		s = id.Username + " "
	}
	if m := a.getMode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores the persisted session, asks for credentials when there is
// none, starts the connectivity watcher and blocks in the REPL.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the board CLI (type 'help' for commands)")

	if err := a.auth.Restore(ctx); err != nil {
		a.log.Error(ctx, "restore local state", "error", err)
	}

	a.checkOnline(ctx, timeNow())

	if !a.isLoggedIn() {
		if err := a.Login(ctx); err != nil {
			reportError(err)
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
