package engine

// TxID is the process-wide (per-Runtime) monotonic transaction identifier
// allocated at the outermost call into the engine; nested engine entries
// reuse the current ID. Zero is the sentinel meaning "no active
// transaction" / "never validated in a real transaction".
type TxID uint64

// evalFrame is the dependency map being built while a formula's closure
// runs. Frames form a LIFO stack via prev, saved and restored around the
// user closure exactly like AnatoleLucet-sig/internal/context.go's
// RunWithNode / AnatoleLucet-sig/sig/tracker.go's RunWithComputation.
type evalFrame struct {
	deps *depSet
	prev *evalFrame
}

// Runtime carries the three scoped locals the spec's concurrency model
// requires (currentTxId, currentEvalFrame, the next-TxId counter) plus the
// dependents registry that realizes weak back-edges.
//
// Unlike AnatoleLucet-sig/internal/runtime_default.go, which keys a global
// table of runtimes by goroutine id so each goroutine gets an implicit
// private instance, Runtime here is an explicit value threaded through
// every call. See DESIGN.md Open Question Decision 3 for why: the spec's
// invariants ("set fails inside formula eval", "no internal locks, caller
// serializes") are properties of a graph, not of a goroutine.
type Runtime struct {
	nextTxID    TxID
	currentTxID TxID
	frame       *evalFrame
	evalDepth   int

	nextNodeSeq uint64
	registry    map[NodeID]node

	onListenerPanic func(any)
}

// NewRuntime constructs a fresh, empty reactive graph.
func NewRuntime() *Runtime {
	return &Runtime{registry: make(map[NodeID]node)}
}

func (rt *Runtime) lookup(id NodeID) (node, bool) {
	n, ok := rt.registry[id]
	return n, ok
}

func (rt *Runtime) register(n node)      { rt.registry[n.ID()] = n }
func (rt *Runtime) unregister(id NodeID) { delete(rt.registry, id) }

// InsideFormulaEval reports whether the runtime is currently in the middle
// of running a formula closure, at any nesting depth -- including while
// that closure is blocked inside a Subscription's suppressed get callback.
// Cell.Write consults this to enforce "set fails inside formula eval".
func (rt *Runtime) InsideFormulaEval() bool { return rt.evalDepth > 0 }

// allocateTx allocates a fresh transaction id if none is active, returning
// the id to use and whether this call owns it (and must therefore clear it
// on the way out). Nested engine entries inherit the currently active id.
func (rt *Runtime) allocateTx() (id TxID, owns bool) {
	if rt.currentTxID != 0 {
		return rt.currentTxID, false
	}
	rt.nextTxID++
	rt.currentTxID = rt.nextTxID
	return rt.currentTxID, true
}

func (rt *Runtime) releaseTx(owns bool) {
	if owns {
		rt.currentTxID = 0
	}
}

// pushFrame installs a fresh dependency map as the current evaluation
// frame and returns a function that restores the previous one. Reads
// performed by the caller's closure land in the new frame via track.
func (rt *Runtime) pushFrame() (restore func()) {
	prev := rt.frame
	rt.frame = &evalFrame{deps: newDepSet(), prev: prev}
	rt.evalDepth++
	return func() {
		rt.frame = prev
		rt.evalDepth--
	}
}

// suppressFrame hides the current frame from track for the duration of an
// external call (used by Subscription.get so a user callback cannot
// spuriously record dependencies), then restores it. evalDepth is left
// untouched: a subscription's get running inside a formula's evaluation is
// still, transitively, formula evaluation for Cell.Write's purposes even
// though it must not itself accrue dependencies.
func (rt *Runtime) suppressFrame() (restore func()) {
	prev := rt.frame
	rt.frame = nil
	return func() { rt.frame = prev }
}

// track records that n was read at version v into the currently active
// evaluation frame, if any. It is a no-op outside of formula evaluation.
func (rt *Runtime) track(n node, v Version) {
	if rt.frame != nil {
		rt.frame.deps.record(n, v)
	}
}
