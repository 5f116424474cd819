package docstore

import (
	"context"
	"sync"
)

type queryFunc func(ctx context.Context) ([]*Document, error)

type watcher struct {
	notify chan int64
}

// hub fans write notifications out to watchers of a collection. Each watcher
// re-runs its own query, so a burst of writes collapses into one snapshot.
type hub struct {
	mu       sync.Mutex
	revision int64
	watchers map[string]map[*watcher]struct{}
}

func newHub() *hub {
	return &hub{watchers: make(map[string]map[*watcher]struct{})}
}

func (h *hub) current() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revision
}

// publish bumps the store revision and wakes every watcher of collection.
func (h *hub) publish(collection string) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.revision++
	for w := range h.watchers[collection] {
		offerLatest(w.notify, h.revision)
	}
	return h.revision
}

func (h *hub) add(collection string) *watcher {
	h.mu.Lock()
	defer h.mu.Unlock()

	w := &watcher{notify: make(chan int64, 1)}
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[*watcher]struct{})
	}
	h.watchers[collection][w] = struct{}{}
	return w
}

func (h *hub) remove(collection string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.watchers[collection], w)
	if len(h.watchers[collection]) == 0 {
		delete(h.watchers, collection)
	}
}

// watch emits an initial snapshot, then one per observed write, until ctx is
// done. The returned channel is closed afterwards.
func (h *hub) watch(ctx context.Context, collection string, run queryFunc) <-chan Snapshot {
	w := h.add(collection)
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		defer h.remove(collection, w)

		rev := h.current()
		for {
			docs, err := run(ctx)
			if ctx.Err() != nil {
				return
			}
			offerLatest(out, Snapshot{Documents: docs, Revision: rev, Err: err})
			if err != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case rev = <-w.notify:
			}
		}
	}()

	return out
}

// offerLatest puts v into a 1-buffered channel, replacing any unread value.
// Only safe with a single sender per channel.
func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
