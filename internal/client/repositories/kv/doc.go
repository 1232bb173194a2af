// Package kv is the client's persistent key-value store: durable bytes keyed
// by string that survive restarts. It is backed by the local SQLite database.
//
// Single-key writes are atomic. Multi-key helpers (DeleteMany) run in one
// transaction, but callers must not rely on cross-key consistency otherwise.
//
// Structured state is stored as versioned JSON blobs (see SaveJSON and
// LoadJSON) so readers tolerate blobs written by older or newer builds.
package kv
