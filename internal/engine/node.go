package engine

import (
	"reflect"
	"slices"
)

// Version is a per-node monotonic counter, bumped only when the node's
// observable (value, completion) changes under the equality predicate.
type Version uint64

// node is the engine-internal capability every reactive node must provide
// so that dependency bookkeeping and fanout can operate on it without
// knowing its concrete kind (cell, formula, or subscription).
type node interface {
	ID() NodeID
	// LatestVersion validates the node for the current transaction (if any)
	// and returns its current version. For a cell this is a plain read; for
	// a formula or subscription it may trigger recomputation.
	LatestVersion(rt *Runtime) Version
	addDependent(id NodeID)
	removeDependent(id NodeID)
	// notify is the invalidation entry point invoked when an upstream
	// dependency changes. Implementations must de-duplicate diamond fanout
	// by becoming a no-op on the second and later call until re-validated.
	notify(rt *Runtime)
}

// listenerEntry pairs a listener callback with an identity token used for
// removal. Go function values are not comparable with ==, so identity is
// taken from reflect.ValueOf(fn).Pointer(), the conventional workaround
// used by Go event-emitter style APIs that must support removal by the
// original callback value. Closures created from the same function literal
// share that pointer, so they count as the same listener.
type listenerEntry struct {
	fn  func()
	ptr uintptr
}

func listenerPtr(fn func()) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// base holds the bookkeeping shared by every reactive node: its stable
// identity, the listeners directly attached to it, and the set of
// dependent node IDs to notify on change.
//
// Grounded on AnatoleLucet-sig/sig/tracker.go's reactionTracker (slice of
// reactions, snapshot-before-iterate) and pkg/flimsy/observer.go's
// mapset-backed dependents bookkeeping.
type base struct {
	rt   *Runtime
	id   NodeID
	kind string

	listeners []listenerEntry
	dependent nodeSet

	// onListenedChange fires whenever the "listened-to" predicate
	// (len(listeners) + len(dependent) > 0) flips. Formula and Subscription
	// install this to drive their dependency-listener diff / upstream
	// attach-detach; a Cell leaves it nil since it has nothing upstream.
	onListenedChange func(wasListened, isListened bool)
}

func newBase(rt *Runtime, kind string) base {
	return base{rt: rt, id: rt.newNodeID(), kind: kind, dependent: newNodeSet()}
}

func (b *base) ID() NodeID { return b.id }

func (b *base) isListenedTo() bool {
	return len(b.listeners) > 0 || b.dependent.len() > 0
}

// AddListener registers fn to be invoked (with no arguments) whenever this
// node's fanout runs. Adding a listener while a Notify pass is in progress
// never causes it to fire in that same pass, because Notify snapshots the
// listener slice before iterating.
func (b *base) AddListener(fn func()) {
	was := b.isListenedTo()
	b.listeners = append(b.listeners, listenerEntry{fn: fn, ptr: listenerPtr(fn)})
	b.fireListenedChange(was)
}

// RemoveListener removes the first listener registered with the given
// function identity, tolerating removal mid-fanout.
func (b *base) RemoveListener(fn func()) {
	was := b.isListenedTo()
	ptr := listenerPtr(fn)
	for i, l := range b.listeners {
		if l.ptr == ptr {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			break
		}
	}
	b.fireListenedChange(was)
}

func (b *base) addDependent(id NodeID) {
	was := b.isListenedTo()
	b.dependent.add(id)
	b.fireListenedChange(was)
}

func (b *base) removeDependent(id NodeID) {
	was := b.isListenedTo()
	b.dependent.remove(id)
	b.fireListenedChange(was)
}

func (b *base) fireListenedChange(was bool) {
	is := b.isListenedTo()
	if was != is && b.onListenedChange != nil {
		b.onListenedChange(was, is)
	}
}

// fanout invokes every direct listener exactly once, then recursively
// notifies every dependent, per the Node base fanout contract. Listener
// panics are recovered and re-raised asynchronously on a fresh goroutine,
// never inline, so they cannot abort the write that triggered them and
// cannot prevent remaining listeners/dependents from being reached.
func (b *base) fanout(rt *Runtime) {
	// Cloning avoids mutation during iteration, per
	// AnatoleLucet-sig/sig/tracker.go's reactionTracker.react.
	snapshot := slices.Clone(b.listeners)
	for _, l := range snapshot {
		rt.invokeListenerSafely(l.fn)
	}

	for _, id := range b.dependent.snapshot() {
		if dep, ok := rt.lookup(id); ok {
			dep.notify(rt)
		}
	}
}
