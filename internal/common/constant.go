// Package common contains constants and sentinel errors shared by the client
// layers.
package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// Persistent store keys.
	AuthStateKey   = "auth"
	PreferencesKey = "ui-preferences"
)
