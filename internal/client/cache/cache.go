package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the fetch state of an entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var ErrFetchCancelled = errors.New("fetch cancelled")

// Cloner is implemented by cached values that need a deep copy.
type Cloner interface {
	CloneValue() any
}

// Entry is a read-only view of one cached query.
type Entry struct {
	Key         QueryKey
	Data        any
	Status      Status
	Stale       bool
	Err         error
	LastUpdated time.Time

	// gen identifies the record the entry was read from. A record evicted
	// and later recreated gets a new gen.
	gen uint64
}

// Fresh reports whether the entry holds data that has not been invalidated.
func (e Entry) Fresh() bool {
	return e.Status == StatusSuccess && !e.Stale
}

type EventType string

const (
	EventSet        EventType = "set"
	EventInvalidate EventType = "invalidate"
	EventEvict      EventType = "evict"
	EventRestore    EventType = "restore"
)

// Event is delivered to subscribers after a write has completed.
type Event struct {
	Type EventType
	Key  QueryKey
}

type record struct {
	entry Entry
	// writes counts data writes; a fetch started before a write must not
	// overwrite it.
	writes uint64
}

type fetchHandle struct {
	key        QueryKey
	cancel     context.CancelFunc
	writes     uint64
	prevStatus Status
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*record
	fetches map[string]*fetchHandle
	group   singleflight.Group
	gens    uint64

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	now func() time.Time
}

type Option func(*Cache)

// WithClock overrides time.Now for LastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*record),
		fetches: make(map[string]*fetchHandle),
		subs:    make(map[int]func(Event)),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe registers fn for every event. The returned func unsubscribes.
// Handlers run synchronously after the write and must not block.
func (c *Cache) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	c.subMu.RLock()
	handlers := make([]func(Event), 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.subMu.RUnlock()

	for _, ev := range events {
		for _, h := range handlers {
			h(ev)
		}
	}
}

// Get returns a copy of the entry for key.
func (c *Cache) Get(key QueryKey) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(rec.entry), true
}

// Set replaces the data for key and marks it fresh.
func (c *Cache) Set(key QueryKey, data any) {
	c.mu.Lock()
	rec := c.record(key)
	c.store(rec, data)
	c.mu.Unlock()

	c.emit([]Event{{Type: EventSet, Key: key}})
}

// Patch atomically applies fn to every entry selected by pred that holds
// data. fn receives a copy and returns the replacement and whether to write
// it. The entries as they were before the write are returned as snapshots
// for Restore.
func (c *Cache) Patch(pred Predicate, fn func(current Entry) (next any, ok bool)) []Entry {
	c.mu.Lock()
	var (
		snapshots []Entry
		events    []Event
	)
	for _, k := range c.sortedKeys() {
		rec := c.entries[k]
		if !pred(rec.entry.Key) || rec.entry.Data == nil {
			continue
		}
		next, ok := fn(cloneEntry(rec.entry))
		if !ok {
			continue
		}
		snapshots = append(snapshots, cloneEntry(rec.entry))
		c.store(rec, next)
		events = append(events, Event{Type: EventSet, Key: rec.entry.Key})
	}
	c.mu.Unlock()

	c.emit(events)
	return snapshots
}

// Restore puts snap back exactly as it was captured. It reports false and
// writes nothing when the entry has been evicted since the snapshot was
// taken, so a late rollback cannot bring back data of a cleared scope.
func (c *Cache) Restore(snap Entry) bool {
	c.mu.Lock()
	rec, ok := c.entries[snap.Key.String()]
	if !ok || rec.entry.gen != snap.gen {
		c.mu.Unlock()
		return false
	}
	rec.entry = cloneEntry(snap)
	rec.writes++
	c.mu.Unlock()

	c.emit([]Event{{Type: EventRestore, Key: snap.Key}})
	return true
}

// Invalidate marks the selected entries stale without discarding their data.
// It returns the number of entries marked.
func (c *Cache) Invalidate(pred Predicate) int {
	c.mu.Lock()
	var events []Event
	for _, k := range c.sortedKeys() {
		rec := c.entries[k]
		if pred(rec.entry.Key) {
			rec.entry.Stale = true
			events = append(events, Event{Type: EventInvalidate, Key: rec.entry.Key})
		}
	}
	c.mu.Unlock()

	c.emit(events)
	return len(events)
}

// Evict removes the selected entries and cancels their in-flight fetches.
func (c *Cache) Evict(pred Predicate) int {
	c.mu.Lock()
	c.cancelLocked(pred)
	var events []Event
	for _, k := range c.sortedKeys() {
		rec := c.entries[k]
		if pred(rec.entry.Key) {
			delete(c.entries, k)
			events = append(events, Event{Type: EventEvict, Key: rec.entry.Key})
		}
	}
	c.mu.Unlock()

	c.emit(events)
	return len(events)
}

// CancelFetches cancels in-flight fetches for the selected keys. Their
// results will be discarded. It returns the number cancelled.
func (c *Cache) CancelFetches(pred Predicate) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelLocked(pred)
}

func (c *Cache) cancelLocked(pred Predicate) int {
	n := 0
	for k, h := range c.fetches {
		if !pred(h.key) {
			continue
		}
		h.cancel()
		delete(c.fetches, k)
		c.group.Forget(k)
		if rec, ok := c.entries[k]; ok && rec.entry.Status == StatusLoading {
			rec.entry.Status = h.prevStatus
		}
		n++
	}
	return n
}

func (c *Cache) record(key QueryKey) *record {
	k := key.String()
	rec, ok := c.entries[k]
	if !ok {
		c.gens++
		rec = &record{entry: Entry{Key: key, Status: StatusIdle, gen: c.gens}}
		c.entries[k] = rec
	}
	return rec
}

func (c *Cache) store(rec *record, data any) {
	rec.entry.Data = cloneData(data)
	rec.entry.Status = StatusSuccess
	rec.entry.Stale = false
	rec.entry.Err = nil
	rec.entry.LastUpdated = c.now()
	rec.writes++
}

func (c *Cache) sortedKeys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneData(v any) any {
	if cl, ok := v.(Cloner); ok {
		return cl.CloneValue()
	}
	return v
}

func cloneEntry(e Entry) Entry {
	e.Key = NewKey(e.Key.entity, e.Key.scope, e.Key.parts...)
	e.Data = cloneData(e.Data)
	return e
}
