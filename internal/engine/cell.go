package engine

// Cell is the engine-internal mutable source. It holds (version, value) and
// notifies its dependents via a pluggable "schedule later" hook, defaulting
// to inline invocation.
//
// Grounded on AnatoleLucet-sig/internal/signal.go's Write (equality check,
// version bump, notify-via-scheduler) and pkg/flimsy/signal.go's set
// (equality via reflect.DeepEqual, notify fanout).
type Cell struct {
	base

	version Version
	value   any
	eq      EqualFunc
	// schedule receives the fanout callback for this write. The default,
	// installed by NewCell, invokes it inline.
	schedule func(func())
}

func NewCell(rt *Runtime, initial any, eq EqualFunc, schedule func(func())) *Cell {
	if eq == nil {
		eq = DeepEqual
	}
	if schedule == nil {
		schedule = func(f func()) { f() }
	}
	c := &Cell{
		base:     newBase(rt, "cell"),
		value:    initial,
		eq:       eq,
		schedule: schedule,
	}
	return c
}

func (c *Cell) LatestVersion(rt *Runtime) Version { return c.version }

func (c *Cell) notify(rt *Runtime) { c.fanout(rt) }

// Value returns the cell's current value without any dependency tracking
// or transaction bookkeeping. Used internally by Read/Peek after they've
// done their own bookkeeping.
func (c *Cell) Value() any { return c.value }

// ReadInside records this cell as a dependency of the currently active
// formula-evaluation frame and returns the value. Returns ok=false if
// there is no active frame (OutOfContext, per spec.md §7).
func (c *Cell) ReadInside(rt *Runtime) (value any, ok bool) {
	if rt.frame == nil {
		return nil, false
	}
	rt.track(c, c.version)
	return c.value, true
}

// ReadWithoutListening returns the cell's latest value without touching
// any evaluation frame.
func (c *Cell) ReadWithoutListening(rt *Runtime) any { return c.value }

// Write stores v if it differs from the current value under eq, bumping
// the version and scheduling a fanout. Returns ok=false if called while a
// formula is currently evaluating (OutOfContext, per spec.md §7).
func (c *Cell) Write(rt *Runtime, v any) (ok bool) {
	if rt.InsideFormulaEval() {
		return false
	}
	if c.eq(c.value, v) {
		return true
	}
	c.value = v
	c.version++
	c.schedule(func() { c.fanout(rt) })
	return true
}
