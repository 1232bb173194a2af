package cache

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// QueryKey identifies a cached, fetchable resource as the ordered tuple
// (entity, scope, parts...). Two keys are equal iff every element is equal.
// Use String for hashing.
type QueryKey struct {
	entity string
	scope  string
	parts  []string
}

// NewKey builds a key. scope is the owning identity scope, "" for shared data.
func NewKey(entity, scope string, parts ...string) QueryKey {
	return QueryKey{entity: entity, scope: scope, parts: slices.Clone(parts)}
}

func (k QueryKey) Entity() string { return k.entity }

func (k QueryKey) Scope() string { return k.scope }

func (k QueryKey) Parts() []string { return slices.Clone(k.parts) }

// String is the canonical, unambiguous encoding of k.
func (k QueryKey) String() string {
	elems := make([]string, 0, len(k.parts)+2)
	elems = append(elems, url.PathEscape(k.entity), url.PathEscape(k.scope))
	for _, p := range k.parts {
		elems = append(elems, url.PathEscape(p))
	}
	return strings.Join(elems, "/")
}

func (k QueryKey) Equal(other QueryKey) bool {
	return k.entity == other.entity && k.scope == other.scope && slices.Equal(k.parts, other.parts)
}

// HasPrefix reports whether k starts with prefix: same entity and scope, and
// prefix's parts are a leading run of k's parts.
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if k.entity != prefix.entity || k.scope != prefix.scope || len(prefix.parts) > len(k.parts) {
		return false
	}
	return slices.Equal(k.parts[:len(prefix.parts)], prefix.parts)
}

// Predicate selects keys.
type Predicate func(QueryKey) bool

func Exact(key QueryKey) Predicate {
	return func(k QueryKey) bool { return k.Equal(key) }
}

func Prefix(prefix QueryKey) Predicate {
	return func(k QueryKey) bool { return k.HasPrefix(prefix) }
}

func InScope(scope string) Predicate {
	return func(k QueryKey) bool { return k.scope == scope }
}

// AnyOf matches keys selected by at least one of preds.
func AnyOf(preds ...Predicate) Predicate {
	return func(k QueryKey) bool {
		for _, p := range preds {
			if p != nil && p(k) {
				return true
			}
		}
		return false
	}
}

const EntityBoards = "boards"

// UserScope is the scope string of everything owned by one user.
func UserScope(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// BoardsList is the key of a user's board collection.
func BoardsList(userID int64) QueryKey {
	return NewKey(EntityBoards, UserScope(userID), "list")
}

// BoardDetails is the prefix of all board detail keys of a user.
func BoardDetails(userID int64) QueryKey {
	return NewKey(EntityBoards, UserScope(userID), "detail")
}

// BoardDetail is the key of one board looked up by slug.
func BoardDetail(userID int64, slug string) QueryKey {
	return NewKey(EntityBoards, UserScope(userID), "detail", slug)
}
