package form

import (
	"fmt"
	"sort"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
)

// Change describes one notification batch as seen by a single observer.
// Paths lists the changed field paths the observer cares about, sorted. Form
// is set for form-level transitions (reset, submission state, form errors)
// and is only delivered to broad observers.
type Change struct {
	Paths []string
	Form  bool
}

// watcher is one registered observer. A nil path set means broad
// observation: the callback fires for every batch, at O(all fields) per
// change. Narrow observers fire only for their own paths, which keeps the
// per-change cost independent of form size; prefer narrow subscriptions.
type watcher struct {
	id    uint64
	paths map[string]struct{}
	fn    func(Change)
}

// batch coalesces the paths changed by one logical operation. All mutations
// inside the operation land in a single batch, so observers see one
// notification per operation (a reset touching every field still notifies
// once).
type batch struct {
	paths map[string]struct{}
	form  bool
}

func newBatch() *batch {
	return &batch{paths: make(map[string]struct{})}
}

func (b *batch) add(path string) {
	b.paths[path] = struct{}{}
}

func (b *batch) empty() bool {
	return len(b.paths) == 0 && !b.form
}

// Watch subscribes an observer. With no paths the observer is broad and
// fires on every batch; with paths it fires only when one of those paths
// changes. Subscribed paths must be registered; an orphaned subscription is
// a caller defect and is rejected. The returned unsubscribe function is
// idempotent and safe to call while a notification batch is being delivered.
func (f *Form) Watch(fn func(Change), paths ...string) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("form: watch: callback is nil")
	}

	var filter map[string]struct{}
	if len(paths) > 0 {
		filter = make(map[string]struct{}, len(paths))
		f.mu.Lock()
		for _, path := range paths {
			normalized := internalpath.Normalize(path)
			if _, ok := f.fields[normalized]; !ok {
				f.mu.Unlock()
				return nil, fmt.Errorf("form: watch: path %q is not registered", normalized)
			}
			filter[normalized] = struct{}{}
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	f.watcherSeq++
	id := f.watcherSeq
	f.watchers[id] = &watcher{id: id, paths: filter, fn: fn}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}, nil
}

// publish enqueues a batch and drains the queue unless a delivery is already
// running higher up the stack. Batches are delivered in order, and a batch
// reaches every observer before notifications for mutations made inside
// observer callbacks are processed.
func (f *Form) publish(b *batch) {
	if b == nil || b.empty() {
		return
	}

	f.mu.Lock()
	f.queue = append(f.queue, b)
	if f.delivering {
		f.mu.Unlock()
		return
	}
	f.delivering = true

	for len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		observers := f.observersLocked()
		f.mu.Unlock()

		for _, w := range observers {
			f.mu.Lock()
			_, alive := f.watchers[w.id]
			f.mu.Unlock()
			if !alive {
				// Unsubscribed mid-delivery; skip without disturbing the rest.
				continue
			}
			if change, ok := changeFor(w, next); ok {
				w.fn(change)
			}
		}

		f.mu.Lock()
	}
	f.delivering = false
	f.mu.Unlock()
}

// observersLocked snapshots the current watchers in registration order.
func (f *Form) observersLocked() []*watcher {
	out := make([]*watcher, 0, len(f.watchers))
	for _, w := range f.watchers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// changeFor projects a batch onto one observer's subscription.
func changeFor(w *watcher, b *batch) (Change, bool) {
	if w.paths == nil {
		return Change{Paths: sortedPaths(b.paths), Form: b.form}, true
	}

	var matched []string
	for path := range b.paths {
		if _, ok := w.paths[path]; ok {
			matched = append(matched, path)
		}
	}
	if len(matched) == 0 {
		return Change{}, false
	}
	sortPaths(matched)
	return Change{Paths: matched}, true
}

func sortedPaths(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for path := range set {
		out = append(out, path)
	}
	sortPaths(out)
	return out
}

func sortPaths(paths []string) {
	sort.Strings(paths)
}
