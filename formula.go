package reactor

import (
	"fmt"

	"github.com/reactor-go/reactor/internal/engine"
)

// Formula is a memoized derived value, recomputed lazily and at most once
// per transaction, the public generic wrapper over internal/engine's
// type-erased Formula.
type Formula[T any] struct {
	rt *Runtime
	f  *engine.Formula
}

// NewFormula constructs a Formula whose value is computed by fn. fn is not
// invoked at construction time -- only when the formula is first read,
// validated (Version), or given its first listener (OnChange). Within
// fn, calling Read on any Cell/Formula/Subscription belonging to the same
// rt records a dependency automatically; no explicit context argument is
// threaded through, mirroring AnatoleLucet-sig/sig.go's NewComputed(func() T).
func NewFormula[T any](rt *Runtime, fn func() (T, error), opts ...FormulaOption[T]) *Formula[T] {
	var cfg formulaConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	eq := cfg.eq
	if eq == nil {
		eq = defaultComparableEqual[T]()
	}

	engineEq := func(a, b any) bool { return eq(a.(T), b.(T)) }
	engineFn := func(_ *engine.Runtime) (any, error) {
		v, err := fn()
		return v, err
	}
	f := &Formula[T]{rt: rt}
	f.f = engine.NewFormula(rt.rt, engineFn, engineEq)
	return f
}

// Read validates this formula (recomputing if any dependency is stale),
// records it as a dependency of the currently active formula evaluation,
// and returns its cached value. Returns ErrOutOfContext if called outside
// of a formula's closure.
func (f *Formula[T]) Read() (T, error) {
	completion, ok := f.f.ReadInside(f.rt.rt)
	if !ok {
		var zero T
		return zero, ErrOutOfContext
	}
	return completionValue[T](f.label(), completion)
}

// Peek validates this formula and returns its cached value without
// recording any dependency.
func (f *Formula[T]) Peek() (T, error) {
	completion := f.f.ReadWithoutListening(f.rt.rt)
	return completionValue[T](f.label(), completion)
}

func (f *Formula[T]) label() string { return fmt.Sprintf("formula#%d", f.f.ID()) }

// OnChange registers fn to be invoked whenever this formula's value
// changes. Registering a listener makes the formula listened-to, which
// causes it to install listeners on its own dependencies (spec.md §4.3.3).
func (f *Formula[T]) OnChange(fn func()) { f.f.AddListener(fn) }

// OffChange removes a listener previously registered with OnChange.
func (f *Formula[T]) OffChange(fn func()) { f.f.RemoveListener(fn) }

// ID returns this formula's stable node identity, for diagnostic use.
func (f *Formula[T]) ID() NodeID { return f.f.ID() }

// Version returns this formula's current version, validating first.
func (f *Formula[T]) Version() uint64 { return uint64(f.f.LatestVersion(f.rt.rt)) }

// DebugDependencies returns diagnostic identifiers for this formula's
// current dependency set, for use by reactorctl's graph dump.
func (f *Formula[T]) DebugDependencies() []NodeID { return f.f.DebugDependencies() }

func completionValue[T any](node string, c engine.Completion) (T, error) {
	if c.IsAbrupt() {
		var zero T
		return zero, &AbruptError{Node: node, Err: c.Err}
	}
	return c.Value.(T), nil
}
