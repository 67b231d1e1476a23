// Package sync keeps locally edited documents and the backend's
// authoritative state from trampling each other: a dirty-tracked binding
// guards unsaved edits against incoming polls, and the poller feeds those
// polls on a fixed interval with stale-response protection.
package sync

import (
	"context"
	"sync"
)

// Binding wraps one server-owned document with a local editable copy and a
// dirty flag. While dirty, Reconcile refuses to overwrite the local copy;
// only a successful Save clears the flag. Dirtiness is per binding, so two
// bindings over different documents never interfere.
//
// T is copied by value in and out; mutators should replace slices and maps
// rather than alias them if the caller keeps references around.
type Binding[T any] struct {
	mu         sync.Mutex
	local      T
	lastSynced *T
	dirty      bool
	rev        uint64
}

// NewBinding returns a binding seeded with an initial local value. The
// initial value is not considered synced; the first Reconcile installs the
// baseline unless an edit lands first.
func NewBinding[T any](initial T) *Binding[T] {
	return &Binding[T]{local: initial}
}

// Edit applies the mutator to the local copy and marks the binding dirty.
// Edits are applied in invocation order.
func (b *Binding[T]) Edit(mutate func(*T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate(&b.local)
	b.dirty = true
	b.rev++
}

// Reconcile installs an incoming authoritative document. While dirty the
// incoming value is discarded and Reconcile reports false; callers may log
// the skip at debug level but must not escalate it.
func (b *Binding[T]) Reconcile(incoming T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirty {
		return false
	}
	b.local = incoming
	synced := incoming
	b.lastSynced = &synced
	return true
}

// Save pushes the current local copy through persist. On success the dirty
// flag clears and the pushed value becomes the last synced revision. If
// another edit landed while persist was in flight the binding stays dirty so
// those edits survive the next poll. On failure the binding is untouched and
// the error is returned.
func (b *Binding[T]) Save(ctx context.Context, persist func(context.Context, T) error) error {
	b.mu.Lock()
	snapshot := b.local
	rev := b.rev
	b.mu.Unlock()

	if err := persist(ctx, snapshot); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	synced := snapshot
	b.lastSynced = &synced
	if b.rev == rev {
		b.dirty = false
	}
	return nil
}

// Local returns the current local copy.
func (b *Binding[T]) Local() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.local
}

// Dirty reports whether unsaved edits exist.
func (b *Binding[T]) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// LastSynced returns the last document acknowledged by the backend, either
// via Reconcile or a successful Save. ok is false before the first sync.
func (b *Binding[T]) LastSynced() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastSynced == nil {
		var zero T
		return zero, false
	}
	return *b.lastSynced, true
}
