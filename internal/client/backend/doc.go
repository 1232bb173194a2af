// Package backend is the HTTP client of the board REST API.
//
// It owns the access and refresh tokens of the current session, refreshes the
// access token when the server (or its exp claim) says it has expired, and
// maps HTTP failures onto the sentinel errors of this package.
package backend
