// Package models defines the client-side data held by the state layer:
// the authenticated identity and the board entities mirrored from the
// backend.
package models
