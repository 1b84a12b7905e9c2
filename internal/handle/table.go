// Package handle implements the typed opaque-handle registry shared by
// every entity kind the runtime manages: Instance, Session, Space, and
// Swapchain. Each kind gets its own Table so a handle minted for one kind
// is never mistaken for another — the Go compiler enforces this because
// Table is parameterized per call site, not by a kind tag carried in the
// handle's bit pattern.
//
// Handle values are minted from a monotonically increasing counter starting
// at 1 and are never reused within a process lifetime. Because of that, the
// table itself already gives deterministic use-after-destroy behavior
// (IsValid/Get simply miss) without needing a separate generation counter —
// the "arena + generational index" redesign note collapses to "arena with a
// counter that never wraps back over itself" for this handle space size.
package handle

import (
	"sync"

	"kinectxr/pkg/types"
)

// Table is a typed registry mapping handle values to owned data of type T.
// The zero value is not usable; construct with New.
type Table[T any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[types.Handle]T
}

// New returns an empty table ready for use.
func New[T any]() *Table[T] {
	return &Table[T]{
		nextID:  1,
		entries: make(map[types.Handle]T),
	}
}

// Create allocates a fresh handle, stores data under it, and returns the
// handle. The first handle minted by any table is 1; NullHandle is never
// returned.
func (t *Table[T]) Create(data T) types.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := types.Handle(t.nextID)
	t.nextID++
	t.entries[h] = data
	return h
}

// IsValid reports whether h names a live entry in this table.
func (t *Table[T]) IsValid(h types.Handle) bool {
	if !h.Valid() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[h]
	return ok
}

// Get returns the data stored under h, and whether it was found.
func (t *Table[T]) Get(h types.Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.entries[h]
	return data, ok
}

// Delete removes h from the table and returns the data that was stored
// under it, so the caller can release any nested resources (e.g. a
// Swapchain's texture slots). ok is false if h was not live.
func (t *Table[T]) Delete(h types.Handle) (data T, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok = t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	return data, ok
}

// Update replaces the data stored under h in place, returning false if h is
// not live. Used for in-place state-machine transitions on entries that are
// mutated through pointer fields rather than replaced wholesale; most
// callers instead store a *T and mutate through the returned pointer, in
// which case Update is unnecessary.
func (t *Table[T]) Update(h types.Handle, data T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	t.entries[h] = data
	return true
}

// Len reports the number of live entries. Intended for tests and metrics,
// not for hot-path logic.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Range calls fn for every live entry. fn must not call back into the same
// table (Create/Delete/Get) — Range holds the table mutex for its duration,
// matching the "short critical sections" rule the rest of the handle tables
// follow.
func (t *Table[T]) Range(fn func(types.Handle, T)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, data := range t.entries {
		fn(h, data)
	}
}
