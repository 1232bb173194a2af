package cache

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// page is a tiny Cloner used to check copy semantics.
type page struct {
	Items []string
	Total int
}

func (p page) CloneValue() any {
	return page{Items: append([]string(nil), p.Items...), Total: p.Total}
}

type recorder struct {
	events []Event
}

func (r *recorder) count(t EventType, key QueryKey) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t && ev.Key.Equal(key) {
			n++
		}
	}
	return n
}

func newTestCache(t *testing.T) (*Cache, *recorder) {
	t.Helper()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	rec := &recorder{}
	t.Cleanup(c.Subscribe(func(ev Event) { rec.events = append(rec.events, ev) }))
	return c, rec
}

func TestSetAndGet(t *testing.T) {
	c, rec := newTestCache(t)
	key := BoardsList(1)

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Set(key, page{Items: []string{"a"}, Total: 1})

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, e.Status)
	assert.True(t, e.Fresh())
	assert.Equal(t, page{Items: []string{"a"}, Total: 1}, e.Data)
	assert.False(t, e.LastUpdated.IsZero())
	assert.Equal(t, 1, rec.count(EventSet, key))
}

func TestGet_ReturnsIsolatedCopies(t *testing.T) {
	c, _ := newTestCache(t)
	key := BoardsList(1)
	in := page{Items: []string{"a"}, Total: 1}
	c.Set(key, in)

	in.Items[0] = "mutated by writer"
	e, _ := c.Get(key)
	e.Data.(page).Items[0] = "mutated by reader"

	again, _ := c.Get(key)
	assert.Equal(t, []string{"a"}, again.Data.(page).Items)
}

func TestPatchAndRestore_AreExact(t *testing.T) {
	c, rec := newTestCache(t)
	key := BoardsList(1)
	c.Set(key, page{Items: []string{"a", "b"}, Total: 2})
	c.Invalidate(Exact(key))
	before, _ := c.Get(key)

	snaps := c.Patch(Exact(key), func(cur Entry) (any, bool) {
		p := cur.Data.(page)
		p.Items = p.Items[1:]
		p.Total--
		return p, true
	})
	require.Len(t, snaps, 1)

	patched, _ := c.Get(key)
	assert.Equal(t, page{Items: []string{"b"}, Total: 1}, patched.Data)
	assert.True(t, patched.Fresh())

	require.True(t, c.Restore(snaps[0]))
	after, _ := c.Get(key)
	if diff := cmp.Diff(before.Data, after.Data); diff != "" {
		t.Fatalf("restored data mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Stale, after.Stale)
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
	assert.Equal(t, 1, rec.count(EventRestore, key))
}

func TestRestore_SkipsEvictedEntries(t *testing.T) {
	c, rec := newTestCache(t)
	key := BoardsList(1)
	c.Set(key, page{Items: []string{"a"}, Total: 1})
	snaps := c.Patch(Exact(key), func(Entry) (any, bool) { return page{}, true })
	require.Len(t, snaps, 1)

	c.Evict(InScope(UserScope(1)))
	assert.False(t, c.Restore(snaps[0]))
	_, ok := c.Get(key)
	assert.False(t, ok, "evicted entry stays gone")

	c.Set(key, page{Items: []string{"fresh"}, Total: 1})
	assert.False(t, c.Restore(snaps[0]), "a recreated entry is not overwritten")
	e, _ := c.Get(key)
	assert.Equal(t, page{Items: []string{"fresh"}, Total: 1}, e.Data)
	assert.Zero(t, rec.count(EventRestore, key))
}

func TestPatch_SkipsEmptyAndDeclined(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set(BoardsList(1), page{Total: 1})
	c.Set(BoardsList(2), page{Total: 2})

	snaps := c.Patch(InScope(UserScope(1)), func(Entry) (any, bool) { return nil, false })
	assert.Empty(t, snaps)

	snaps = c.Patch(Exact(BoardsList(3)), func(Entry) (any, bool) { return page{}, true })
	assert.Empty(t, snaps, "absent keys are not created by Patch")
	_, ok := c.Get(BoardsList(3))
	assert.False(t, ok)
}

func TestInvalidate_KeepsDataAndMarksStale(t *testing.T) {
	c, rec := newTestCache(t)
	c.Set(BoardsList(1), page{Total: 1})
	c.Set(BoardDetail(1, "a"), page{Total: 9})
	c.Set(BoardsList(2), page{Total: 2})

	n := c.Invalidate(InScope(UserScope(1)))
	assert.Equal(t, 2, n)

	e, _ := c.Get(BoardsList(1))
	assert.True(t, e.Stale)
	assert.False(t, e.Fresh())
	assert.Equal(t, page{Total: 1}, e.Data)

	other, _ := c.Get(BoardsList(2))
	assert.False(t, other.Stale)
	assert.Equal(t, 1, rec.count(EventInvalidate, BoardsList(1)))
	assert.Equal(t, 0, rec.count(EventInvalidate, BoardsList(2)))

	c.Set(BoardsList(1), page{Total: 5})
	e, _ = c.Get(BoardsList(1))
	assert.True(t, e.Fresh(), "set clears staleness")
}

func TestEvict_RemovesScope(t *testing.T) {
	c, rec := newTestCache(t)
	c.Set(BoardsList(1), page{Total: 1})
	c.Set(BoardDetail(1, "a"), page{})
	c.Set(BoardsList(2), page{Total: 2})

	assert.Equal(t, 2, c.Evict(InScope(UserScope(1))))

	_, ok := c.Get(BoardsList(1))
	assert.False(t, ok)
	_, ok = c.Get(BoardDetail(1, "a"))
	assert.False(t, ok)
	_, ok = c.Get(BoardsList(2))
	assert.True(t, ok)
	assert.Equal(t, 1, rec.count(EventEvict, BoardsList(1)))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := New()
	n := 0
	unsubscribe := c.Subscribe(func(Event) { n++ })
	c.Set(BoardsList(1), page{})
	unsubscribe()
	c.Set(BoardsList(1), page{})
	assert.Equal(t, 1, n)
}
