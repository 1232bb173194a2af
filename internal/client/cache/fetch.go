package cache

import (
	"context"
	"errors"
)

// Fetcher loads the server response for one key.
type Fetcher func(ctx context.Context) (any, error)

// Fetch runs fn for key and stores its result. Concurrent fetches of the
// same key share one call. While it runs the entry is "loading" and keeps
// its previous data.
//
// The shared call is detached from ctx so that one caller giving up does not
// abort it for the others; CancelFetches and Evict are the ways to stop it.
// If the fetch is cancelled, or key is written while it runs, the result is
// dropped and ErrFetchCancelled is returned. On failure the entry goes to
// "error" with its data kept.
func (c *Cache) Fetch(ctx context.Context, key QueryKey, fn Fetcher) (Entry, error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		h := c.beginFetch(key, cancel)
		data, err := fn(fctx)
		return c.finishFetch(h, data, err)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return cloneEntry(res.Val.(Entry)), nil
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (c *Cache) beginFetch(key QueryKey, cancel context.CancelFunc) *fetchHandle {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.record(key)
	h := &fetchHandle{key: key, cancel: cancel, writes: rec.writes, prevStatus: rec.entry.Status}
	rec.entry.Status = StatusLoading
	c.fetches[key.String()] = h
	return h
}

func (c *Cache) finishFetch(h *fetchHandle, data any, err error) (any, error) {
	c.mu.Lock()

	k := h.key.String()
	current, active := c.fetches[k]
	active = active && current == h
	if active {
		delete(c.fetches, k)
	}

	rec, exists := c.entries[k]
	if !active || !exists || rec.writes != h.writes {
		if active && exists && rec.entry.Status == StatusLoading {
			rec.entry.Status = settledStatus(rec.entry)
		}
		c.mu.Unlock()
		return nil, ErrFetchCancelled
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			rec.entry.Status = h.prevStatus
			c.mu.Unlock()
			return nil, ErrFetchCancelled
		}
		rec.entry.Status = StatusError
		rec.entry.Err = err
		c.mu.Unlock()
		return nil, err
	}

	c.store(rec, data)
	out := cloneEntry(rec.entry)
	c.mu.Unlock()

	c.emit([]Event{{Type: EventSet, Key: h.key}})
	return out, nil
}

func settledStatus(e Entry) Status {
	if e.Data != nil {
		return StatusSuccess
	}
	return StatusIdle
}
