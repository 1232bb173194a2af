package mutation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/cache"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/google/uuid"
)

// Patch is one optimistic cache change: Apply runs on every entry selected
// by Match and returns the replacement data, or false to leave it alone.
type Patch struct {
	Match cache.Predicate
	Apply func(current cache.Entry) (next any, ok bool)
}

// Definition describes one mutation type. Only Op and Execute are required.
type Definition[V, R any] struct {
	// Op names the mutation in errors and logs, e.g. "delete board".
	Op string

	// Validate rejects variables locally. A failure skips Execute.
	Validate func(v V) error

	// Optimistic returns the patches applied before Execute.
	Optimistic func(v V) []Patch

	Execute func(ctx context.Context, v V) (R, error)

	// Confirm stores server-confirmed data after a successful Execute.
	Confirm func(c *cache.Cache, v V, result R)

	// Settle always runs after Confirm or the rollback.
	Settle func(ctx context.Context, v V, err error)

	// Invalidate selects the keys marked stale when the mutation settles.
	Invalidate func(v V) []cache.Predicate

	// Current reports whether the identity v was issued under is still the
	// active one. When it returns false after Execute, Confirm and
	// Invalidate are skipped so the result cannot reach a cleared scope.
	Current func(v V) bool
}

// Record is the transient state of one in-flight mutation.
type Record struct {
	ID        string
	Op        string
	Variables any
	Snapshots []cache.Entry
	AppliedAt time.Time
}

// Engine is shared by all mutations of one cache.
type Engine struct {
	cache *cache.Cache
	log   logging.Logger
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]Record
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(c *cache.Cache, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		cache:   c,
		log:     log.With("module", "mutation"),
		now:     time.Now,
		pending: make(map[string]Record),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Cache() *cache.Cache { return e.cache }

// Pending lists in-flight mutations, oldest first.
func (e *Engine) Pending() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Record, 0, len(e.pending))
	for _, r := range e.pending {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(out[j].AppliedAt) })
	return out
}

// Mutation binds a Definition to an Engine.
type Mutation[V, R any] struct {
	engine *Engine
	def    Definition[V, R]
}

func New[V, R any](e *Engine, def Definition[V, R]) *Mutation[V, R] {
	return &Mutation[V, R]{engine: e, def: def}
}

// Mutate runs the mutation to completion. Once the backend call has been
// dispatched it is not interrupted by ctx. Errors are always *Error.
func (m *Mutation[V, R]) Mutate(ctx context.Context, v V) (R, error) {
	e := m.engine
	rec := m.prepare(ctx, v)

	e.mu.Lock()
	e.pending[rec.ID] = rec
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.pending, rec.ID)
		e.mu.Unlock()
	}()

	result, err := m.execute(ctx, v)
	current := m.def.Current == nil || m.def.Current(v)
	switch {
	case err != nil:
		m.rollback(ctx, rec, err)
	case !current:
		e.log.Info(ctx, "identity changed during mutation, result not cached", "op", m.def.Op, "mutation_id", rec.ID)
	case m.def.Confirm != nil:
		m.def.Confirm(e.cache, v, result)
	}

	m.finalize(ctx, v, err, current)

	if err != nil {
		var zero R
		return zero, Classify(m.def.Op, err)
	}
	return result, nil
}

func (m *Mutation[V, R]) prepare(ctx context.Context, v V) Record {
	e := m.engine
	rec := Record{ID: uuid.NewString(), Op: m.def.Op, Variables: v, AppliedAt: e.now()}

	var patches []Patch
	if m.def.Optimistic != nil {
		patches = m.def.Optimistic(v)
	}

	affected := make([]cache.Predicate, 0, len(patches)+1)
	for _, p := range patches {
		affected = append(affected, p.Match)
	}
	if pred := m.invalidation(v); pred != nil {
		affected = append(affected, pred)
	}
	if n := e.cache.CancelFetches(cache.AnyOf(affected...)); n > 0 {
		e.log.Debug(ctx, "cancelled refetches", "op", m.def.Op, "mutation_id", rec.ID, "count", n)
	}

	for _, p := range patches {
		if p.Match == nil || p.Apply == nil {
			continue
		}
		rec.Snapshots = append(rec.Snapshots, e.cache.Patch(p.Match, p.Apply)...)
	}
	return rec
}

func (m *Mutation[V, R]) execute(ctx context.Context, v V) (R, error) {
	if m.def.Validate != nil {
		if err := m.def.Validate(v); err != nil {
			var zero R
			return zero, err
		}
	}
	return m.def.Execute(context.WithoutCancel(ctx), v)
}

// rollback restores this mutation's own snapshots, newest first, so an entry
// patched twice ends up as it was before the first patch. Entries evicted
// in the meantime stay evicted.
func (m *Mutation[V, R]) rollback(ctx context.Context, rec Record, err error) {
	restored := 0
	for i := len(rec.Snapshots) - 1; i >= 0; i-- {
		if m.engine.cache.Restore(rec.Snapshots[i]) {
			restored++
		}
	}
	m.engine.log.Warn(ctx, "mutation failed", "op", m.def.Op, "mutation_id", rec.ID,
		"restored", restored, "skipped", len(rec.Snapshots)-restored, "error", err)
}

func (m *Mutation[V, R]) finalize(ctx context.Context, v V, err error, current bool) {
	if m.def.Settle != nil {
		m.def.Settle(ctx, v, err)
	}
	if !current {
		return
	}
	if pred := m.invalidation(v); pred != nil {
		m.engine.cache.Invalidate(pred)
	}
}

func (m *Mutation[V, R]) invalidation(v V) cache.Predicate {
	if m.def.Invalidate == nil {
		return nil
	}
	preds := m.def.Invalidate(v)
	if len(preds) == 0 {
		return nil
	}
	return cache.AnyOf(preds...)
}
