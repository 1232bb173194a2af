// Package cli provides the interactive command-line client for the board
// service.
//
// It wires configuration, the local SQLite store, the REST backend client,
// the entity cache, the mutation engine and the session and preference
// stores, then runs a REPL on top of the auth and board services. A
// background watcher probes the server and re-validates the session, and the
// prompt always shows the current user and connectivity mode.
//
// Key features:
//   - Login / Logout / session check
//   - List boards (sorted and laid out per local preferences) and show one
//   - Create, rename, change status and delete boards with optimistic updates
//   - Pin up to five boards, switch view mode and sort order
//   - Wipe local data
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
