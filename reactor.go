// Package reactor implements a pull-based reactive computation graph:
// mutable Cells, memoized Formulas, and Subscriptions over external push
// sources, wired together by lazy, transaction-scoped invalidation.
//
// The generic types in this package (Cell[T], Formula[T], Subscription[T])
// are thin, typed wrappers over an untyped evaluation engine in
// internal/engine, mirroring AnatoleLucet-sig/sig.go's split between a
// public struct-with-methods facade and an internal/ runtime.
package reactor

import (
	"sync"

	"github.com/reactor-go/reactor/internal/engine"
)

// Runtime owns a reactive graph: every Cell, Formula, and Subscription must
// belong to exactly one Runtime, and nodes from different Runtimes must
// never be read from within each other's formulas.
//
// The engine itself takes no locks: reads, writes, listener add/remove, and
// notify fanouts must all be serialized by the caller (spec.md §5). Schedule
// and Flush below exist precisely so that a genuinely concurrent producer --
// an external push source such as FromChannel's channel-drain goroutine --
// has a safe way to hop its notification back onto whatever single
// goroutine the caller uses to drive this Runtime, instead of calling into
// the engine directly from its own goroutine.
type Runtime struct {
	rt *engine.Runtime

	mu      sync.Mutex
	pending []func()
}

// NewRuntime constructs a fresh, empty reactive graph.
func NewRuntime() *Runtime {
	return &Runtime{rt: engine.NewRuntime()}
}

// Schedule enqueues fn to run on the next call to Flush, made from whatever
// goroutine that happens to be. It is the only part of this package safe to
// call concurrently with everything else -- fn itself must not touch the
// engine except from inside Flush.
//
// Grounded on AnatoleLucet-sig/internal/scheduler.go's Schedule/Flush
// deferred-batching idiom; adapted from that scheduler's single-threaded
// re-entrancy guard to a genuine producer/consumer hand-off, since here the
// producer (a channel-drain goroutine) is truly concurrent with the caller.
func (r *Runtime) Schedule(fn func()) {
	r.mu.Lock()
	r.pending = append(r.pending, fn)
	r.mu.Unlock()
}

// Flush runs every fn enqueued via Schedule since the last Flush, in
// enqueue order, on the calling goroutine. Any external push source built
// on Schedule (FromChannel included) only reaches the engine once its
// caller calls Flush from the single goroutine that owns this Runtime.
func (r *Runtime) Flush() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// OnListenerPanic installs a handler invoked (on a fresh goroutine, never
// inline) whenever a listener callback registered via OnChange panics. The
// default behavior re-panics on that fresh goroutine.
func (r *Runtime) OnListenerPanic(fn func(any)) { r.rt.OnListenerPanic(fn) }

// NodeID is a node's stable identity, re-exported from internal/engine for
// diagnostic use (reactorctl's graph dump, DebugDependencies).
type NodeID = engine.NodeID

// Node is the capability shared by Cell[T], Formula[T], and Subscription[T]:
// change notification via listener callbacks. Read/Peek/Write are not part
// of this interface because their return types differ per T.
type Node interface {
	OnChange(fn func())
	OffChange(fn func())
}
