package store

import (
	"strings"
	"sync"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// watchEventBuffer is the per-watcher channel capacity. Events beyond it
// are dropped rather than blocking mutations.
const watchEventBuffer = 64

// watcher is one prefix subscription.
type watcher struct {
	prefix string
	ch     chan v1alpha1.WatchEvent
}

// watchHub fans store mutations out to prefix-matched subscribers. Both
// store implementations embed one so watch semantics stay identical.
type watchHub struct {
	mu       sync.RWMutex
	watchers []*watcher
}

// subscribe registers a watcher and returns its channel plus a cancel
// function that removes it and closes the channel.
func (h *watchHub) subscribe(prefix string) (<-chan v1alpha1.WatchEvent, func()) {
	w := &watcher{
		prefix: prefix,
		ch:     make(chan v1alpha1.WatchEvent, watchEventBuffer),
	}

	h.mu.Lock()
	h.watchers = append(h.watchers, w)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, existing := range h.watchers {
			if existing == w {
				h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}

	return w.ch, cancel
}

// notify delivers evt to every watcher whose prefix matches its key.
// Slow consumers lose events instead of stalling writers.
func (h *watchHub) notify(evt v1alpha1.WatchEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, w := range h.watchers {
		if strings.HasPrefix(evt.Key, w.prefix) {
			select {
			case w.ch <- evt:
			default:
			}
		}
	}
}

// closeAll closes every watcher channel; used by Store.Close.
func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.watchers {
		close(w.ch)
	}
	h.watchers = nil
}

// kindFromKey extracts the Kind segment from a "/{kind}/{project}/{name}" key.
func kindFromKey(key string) string {
	parts := strings.SplitN(strings.TrimPrefix(key, "/"), "/", 3)
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// event builds a WatchEvent for a mutation at key.
func event(typ v1alpha1.EventType, key string, obj interface{}) v1alpha1.WatchEvent {
	return v1alpha1.WatchEvent{
		Type:   typ,
		Kind:   kindFromKey(key),
		Key:    key,
		Object: obj,
	}
}
