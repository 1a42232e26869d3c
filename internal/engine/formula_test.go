package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newIntCell(rt *Runtime, v int) *Cell {
	return NewCell(rt, v, func(a, b any) bool { return a.(int) == b.(int) }, nil)
}

func TestFormulaCore(t *testing.T) {
	t.Run("two cells", func(t *testing.T) {
		rt := NewRuntime()
		a := newIntCell(rt, 7)
		b := newIntCell(rt, 1)

		callCount := 0
		c := NewFormula(rt, func(rt *Runtime) (any, error) {
			callCount++
			av, _ := a.ReadInside(rt)
			bv, _ := b.ReadInside(rt)
			return av.(int) * bv.(int), nil
		}, nil)

		got := c.ReadWithoutListening(rt)
		assert.Equal(t, 7, got.Value)

		a.Write(rt, 2)
		got = c.ReadWithoutListening(rt)
		assert.Equal(t, 2, got.Value)

		b.Write(rt, 3)
		got = c.ReadWithoutListening(rt)
		assert.Equal(t, 6, got.Value)

		assert.Equal(t, 3, callCount)
		c.ReadWithoutListening(rt)
		assert.Equal(t, 3, callCount)
	})

	t.Run("equality check suppresses recompute", func(t *testing.T) {
		rt := NewRuntime()
		a := newIntCell(rt, 7)
		callCount := 0
		c := NewFormula(rt, func(rt *Runtime) (any, error) {
			callCount++
			v, _ := a.ReadInside(rt)
			return v.(int) + 10, nil
		}, nil)

		c.ReadWithoutListening(rt)
		c.ReadWithoutListening(rt)
		assert.Equal(t, 1, callCount)

		a.Write(rt, 7)
		c.ReadWithoutListening(rt)
		assert.Equal(t, 1, callCount)
	})

	t.Run("diamond with cancellation", func(t *testing.T) {
		rt := NewRuntime()
		c1 := newIntCell(rt, 1)
		c2 := newIntCell(rt, 2)

		f1Count := 0
		f1 := NewFormula(rt, func(rt *Runtime) (any, error) {
			f1Count++
			a, _ := c1.ReadInside(rt)
			b, _ := c2.ReadInside(rt)
			return a.(int) + b.(int), nil
		}, nil)

		f2Count := 0
		f2 := NewFormula(rt, func(rt *Runtime) (any, error) {
			f2Count++
			v, _ := f1.ReadInside(rt)
			return v.Value, nil
		}, nil)

		got := f2.ReadWithoutListening(rt)
		assert.Equal(t, 3, got.Value)
		assert.Equal(t, 1, f1Count)
		assert.Equal(t, 1, f2Count)

		c1.Write(rt, 2)
		c2.Write(rt, 1)

		got = f2.ReadWithoutListening(rt)
		assert.Equal(t, 3, got.Value)
		assert.Equal(t, 2, f1Count) // f1 re-evaluated, inputs changed
		assert.Equal(t, 1, f2Count) // f2 not re-evaluated, f1's version unchanged
	})

	t.Run("branching dependency set drops stale deps", func(t *testing.T) {
		rt := NewRuntime()
		useC2 := newIntCell(rt, 1) // 1 == true
		c2 := newIntCell(rt, 1)

		f := NewFormula(rt, func(rt *Runtime) (any, error) {
			u, _ := useC2.ReadInside(rt)
			if u.(int) != 0 {
				v, _ := c2.ReadInside(rt)
				return v, nil
			}
			return 0, nil
		}, nil)

		fired := 0
		f.AddListener(func() { fired++ })

		got := f.ReadWithoutListening(rt)
		assert.Equal(t, 1, got.Value)

		c2.Write(rt, 2)
		assert.Equal(t, 1, fired)
		got = f.ReadWithoutListening(rt)
		assert.Equal(t, 2, got.Value)

		useC2.Write(rt, 0)
		assert.Equal(t, 2, fired)
		got = f.ReadWithoutListening(rt)
		assert.Equal(t, 0, got.Value)

		c2.Write(rt, 3)
		assert.Equal(t, 2, fired) // c2 no longer in f's dep set
	})

	t.Run("abrupt completion caches the error", func(t *testing.T) {
		rt := NewRuntime()
		boom := errors.New("boom")
		callCount := 0
		f := NewFormula(rt, func(rt *Runtime) (any, error) {
			callCount++
			return nil, boom
		}, nil)

		c1 := f.ReadWithoutListening(rt)
		c2 := f.ReadWithoutListening(rt)
		assert.True(t, c1.IsAbrupt())
		assert.Same(t, boom, c1.Err)
		assert.Equal(t, c1, c2)
		assert.Equal(t, 1, callCount) // cached, not re-run
		assert.Equal(t, Version(1), f.LatestVersion(rt))
	})

	t.Run("panic in closure becomes abrupt", func(t *testing.T) {
		rt := NewRuntime()
		f := NewFormula(rt, func(rt *Runtime) (any, error) {
			panic("kaboom")
		}, nil)

		got := f.ReadWithoutListening(rt)
		assert.True(t, got.IsAbrupt())
		assert.ErrorContains(t, got.Err, "kaboom")
	})

	t.Run("set inside a formula evaluation is rejected", func(t *testing.T) {
		rt := NewRuntime()
		s := newIntCell(rt, 1)
		a := NewFormula(rt, func(rt *Runtime) (any, error) {
			ok := s.Write(rt, 2)
			return ok, nil
		}, nil)

		got := a.ReadWithoutListening(rt)
		assert.Equal(t, false, got.Value) // Write refused, rt is mid-eval
		assert.Equal(t, 1, s.Value())     // value never changed
	})

	t.Run("re-validation short circuit", func(t *testing.T) {
		// chain C -> F1 -> F2 -> F3 = F2+F2+F2+F2+F2 (spec.md §8 scenario 6):
		// F3 reads F2 through five separate calls within one transaction; F1's
		// validation must run exactly once despite being transitively reached
		// five times.
		rt := NewRuntime()
		c := newIntCell(rt, 1)
		f1Validations := 0
		f1 := NewFormula(rt, func(rt *Runtime) (any, error) {
			f1Validations++
			v, _ := c.ReadInside(rt)
			return v, nil
		}, nil)
		f2 := NewFormula(rt, func(rt *Runtime) (any, error) {
			v, _ := f1.ReadInside(rt)
			return v.Value, nil
		}, nil)
		f3 := NewFormula(rt, func(rt *Runtime) (any, error) {
			sum := 0
			for i := 0; i < 5; i++ {
				v, _ := f2.ReadInside(rt)
				sum += v.Value.(int)
			}
			return sum, nil
		}, nil)

		before := f1Validations
		got := f3.ReadWithoutListening(rt)
		assert.Equal(t, 5, got.Value)
		assert.Equal(t, 1, f1Validations-before)
	})
}
