// Package cache is the client's entity cache: a keyed mapping from a query
// key to the last-known server response for that query, plus per-key status.
//
// Entries are owned by the cache. Readers get copies; values that implement
// Cloner are deep-copied on the way in and on the way out, so no reader can
// observe or cause a half-applied write. All writes to one key are serialised.
//
// Query keys embed the owning identity's scope (see UserScope), so evicting a
// scope on sign-out removes everything that identity could see.
//
// Fetch is the read path used by queries: it de-duplicates concurrent fetches
// of one key and drops results that were cancelled or overtaken by a write.
package cache
