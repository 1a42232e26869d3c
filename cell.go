package reactor

import "github.com/reactor-go/reactor/internal/engine"

// Cell is a mutable reactive source, the public generic wrapper over
// internal/engine's type-erased Cell -- mirrors AnatoleLucet-sig/sig.go's
// Signal[T] struct-with-methods shape, since this spec additionally
// requires AddListener/RemoveListener as first-class Cell operations, not
// just Read/Write.
type Cell[T any] struct {
	rt   *Runtime
	cell *engine.Cell
	eq   EqualFunc[T]
}

// NewCell constructs a Cell holding initial, belonging to rt.
func NewCell[T any](rt *Runtime, initial T, opts ...CellOption[T]) *Cell[T] {
	var cfg cellConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	eq := cfg.eq
	if eq == nil {
		eq = defaultComparableEqual[T]()
	}

	c := &Cell[T]{rt: rt, eq: eq}
	engineEq := func(a, b any) bool { return eq(a.(T), b.(T)) }
	c.cell = engine.NewCell(rt.rt, initial, engineEq, cfg.scheduler)
	return c
}

// Read records this cell as a dependency of the currently active formula
// evaluation and returns its current value. Returns ErrOutOfContext if
// called outside of a formula's closure.
func (c *Cell[T]) Read() (T, error) {
	v, ok := c.cell.ReadInside(c.rt.rt)
	if !ok {
		var zero T
		return zero, ErrOutOfContext
	}
	return v.(T), nil
}

// Peek returns the cell's current value without recording any dependency.
func (c *Cell[T]) Peek() T {
	return c.cell.ReadWithoutListening(c.rt.rt).(T)
}

// Write stores v if it differs from the current value under this cell's
// equality predicate, bumping the version and notifying dependents. Returns
// ErrCellWriteDuringEval if called while a formula is currently evaluating.
func (c *Cell[T]) Write(v T) error {
	if !c.cell.Write(c.rt.rt, v) {
		return ErrCellWriteDuringEval
	}
	return nil
}

// OnChange registers fn to be invoked whenever this cell's value changes.
func (c *Cell[T]) OnChange(fn func()) { c.cell.AddListener(fn) }

// OffChange removes a listener previously registered with OnChange.
func (c *Cell[T]) OffChange(fn func()) { c.cell.RemoveListener(fn) }

// ID returns this cell's stable node identity, for diagnostic use.
func (c *Cell[T]) ID() NodeID { return c.cell.ID() }
