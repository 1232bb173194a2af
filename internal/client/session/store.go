package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/client/models"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/kv"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
)

const blobVersion = 1

var errEmptyProfile = errors.New("empty profile response")

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Outcome reports what ValidateSession concluded.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"     // not authenticated
	OutcomeValid       Outcome = "valid"       // profile refreshed
	OutcomeRejected    Outcome = "rejected"    // 401/403, identity cleared
	OutcomeUnreachable Outcome = "unreachable" // kept as is
	OutcomeSuperseded  Outcome = "superseded"  // identity changed during the call
)

// Remote is the part of the backend the store talks to.
type Remote interface {
	Me(ctx context.Context) (*models.Profile, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Evictor drops cache entries; *cache.Cache implements it.
type Evictor interface {
	Evict(pred cache.Predicate) int
}

// Listener is told about every identity change. It runs while the store is
// locked and must not call back into the store.
type Listener func(prev, next models.Identity)

type Store struct {
	remote  Remote
	repo    kv.Repository
	evictor Evictor
	log     logging.Logger

	// op serialises transitions together with their persistence.
	op sync.Mutex

	mu         sync.RWMutex
	identity   models.Identity
	validating int

	subMu     sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func New(remote Remote, repo kv.Repository, evictor Evictor, log logging.Logger) *Store {
	return &Store{
		remote:    remote,
		repo:      repo,
		evictor:   evictor,
		log:       log.With("module", "session"),
		listeners: make(map[int]Listener),
	}
}

func (s *Store) Identity() models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Store) IsAuthenticated() bool {
	return s.Identity().IsAuthenticated
}

func (s *Store) State() State {
	if s.IsAuthenticated() {
		return StateAuthenticated
	}
	return StateAnonymous
}

// IsValidating reports whether a session check is in flight. It is never persisted.
func (s *Store) IsValidating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validating > 0
}

// Subscribe registers l. The returned func removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

// Restore loads the persisted identity on cold start. An unreadable blob
// leaves the store anonymous.
func (s *Store) Restore(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	var id models.Identity
	_, found, err := kv.LoadJSON(ctx, s.repo, common.AuthStateKey, &id)
	switch {
	case err != nil && !found:
		return err
	case err != nil:
		s.log.Warn(ctx, "discarding unreadable auth state", "error", err)
		id = models.Identity{}
	case !found:
		id = models.Identity{}
	}
	if !id.IsAuthenticated {
		id = models.Identity{}
	}

	s.set(id)
	if id.IsAuthenticated {
		s.log.Info(ctx, "session restored", "user_id", id.UserID)
	}
	return nil
}

// Login makes id the current identity. It never fails; a persistence error
// is logged. Logging in as a different user evicts the previous user's
// cache scope.
func (s *Store) Login(ctx context.Context, id models.Identity) {
	s.op.Lock()
	defer s.op.Unlock()

	id.IsAuthenticated = true
	prev := s.Identity()
	if prev.UserID != 0 && prev.UserID != id.UserID {
		s.evict(ctx, prev.UserID)
	}
	s.set(id)
	s.persist(ctx, id)
	s.log.Info(ctx, "logged in", "user_id", id.UserID, "username", id.Username)
}

// Logout tells the backend the refresh token is revoked and then clears the
// identity whatever the backend answered.
func (s *Store) Logout(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	prev := s.Identity()
	if prev.IsAuthenticated && s.remote != nil {
		if err := s.remote.Logout(ctx, prev.RefreshToken); err != nil {
			s.log.Warn(ctx, "remote logout failed", "user_id", prev.UserID, "error", err)
		}
	}
	s.clear(ctx, prev)
}

// ValidateSession asks the backend who the token belongs to. A definitive
// rejection clears the identity without calling logout; any other failure
// keeps the current state.
func (s *Store) ValidateSession(ctx context.Context) Outcome {
	s.mu.Lock()
	if !s.identity.IsAuthenticated || s.remote == nil {
		s.mu.Unlock()
		return OutcomeSkipped
	}
	userID := s.identity.UserID
	s.validating++
	s.mu.Unlock()

	profile, err := s.remote.Me(ctx)

	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	s.validating--
	current := s.identity
	s.mu.Unlock()

	if !current.IsAuthenticated || current.UserID != userID {
		return OutcomeSuperseded
	}

	if err == nil && profile == nil {
		err = errEmptyProfile
	}

	switch {
	case err == nil:
		next := current.MergeProfile(*profile)
		if next != current {
			s.set(next)
			s.persist(ctx, next)
		}
		return OutcomeValid
	case errors.Is(err, backend.ErrUnauthorized):
		s.log.Warn(ctx, "session rejected by server", "user_id", userID, "error", err)
		s.clear(ctx, current)
		return OutcomeRejected
	default:
		s.log.Warn(ctx, "session check failed, keeping session", "user_id", userID, "error", err)
		return OutcomeUnreachable
	}
}

// UpdateUsername changes the username only.
func (s *Store) UpdateUsername(ctx context.Context, name string) {
	s.op.Lock()
	defer s.op.Unlock()

	next := s.Identity()
	if next.Username == name {
		return
	}
	next.Username = name
	s.set(next)
	s.persist(ctx, next)
}

// UpdateTokens stores rotated tokens. It is ignored when nobody is logged in
// so a late refresh cannot resurrect a cleared session.
func (s *Store) UpdateTokens(ctx context.Context, access, refresh string) {
	s.op.Lock()
	defer s.op.Unlock()

	next := s.Identity()
	if !next.IsAuthenticated {
		return
	}
	if next.Token == access && next.RefreshToken == refresh {
		return
	}
	next.Token = access
	next.RefreshToken = refresh
	s.set(next)
	s.persist(ctx, next)
}

func (s *Store) clear(ctx context.Context, prev models.Identity) {
	if prev.UserID != 0 {
		s.evict(ctx, prev.UserID)
	}
	s.set(models.Identity{})
	s.persist(ctx, models.Identity{})
	if prev.IsAuthenticated {
		s.log.Info(ctx, "logged out", "user_id", prev.UserID)
	}
}

func (s *Store) evict(ctx context.Context, userID int64) {
	if s.evictor == nil {
		return
	}
	n := s.evictor.Evict(cache.InScope(cache.UserScope(userID)))
	s.log.Debug(ctx, "evicted user scope", "user_id", userID, "entries", n)
}

// set must be called with op held.
func (s *Store) set(next models.Identity) {
	s.mu.Lock()
	prev := s.identity
	s.identity = next
	s.mu.Unlock()

	if prev == next {
		return
	}
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
}

func (s *Store) persist(ctx context.Context, id models.Identity) {
	if s.repo == nil {
		return
	}
	if err := kv.SaveJSON(ctx, s.repo, common.AuthStateKey, blobVersion, id); err != nil {
		s.log.Warn(ctx, "failed to persist auth state", "error", err)
	}
}
