// Package session holds the client's belief about who the current user is.
//
// The Store is a two-state machine (anonymous, authenticated). Every
// transition is persisted as a versioned blob so a restarted client comes
// back in the same state, and leaving an identity evicts every cache entry
// scoped to it.
package session
