package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionCore(t *testing.T) {
	t.Run("lazy attach: add/remove upstream only follow listened-to transitions", func(t *testing.T) {
		rt := NewRuntime()
		addCalls, removeCalls := 0, 0
		getCalls := 0
		s := NewSubscription(rt, func() (any, error) {
			getCalls++
			return getCalls, nil
		}, func(func()) { addCalls++ }, func(func()) { removeCalls++ }, nil)

		assert.Equal(t, 0, addCalls)
		assert.Equal(t, 0, getCalls)

		fired := 0
		first := func() { fired++ }
		s.AddListener(first)
		assert.Equal(t, 1, addCalls)

		s.ReadWithoutListening(rt)
		assert.Equal(t, 1, getCalls)

		unrelated := 0
		s.RemoveListener(func() { unrelated++ }) // unrelated identity, no-op
		assert.Equal(t, 0, removeCalls)

		secondCount := 0
		second := func() { secondCount++ }
		s.AddListener(second)
		s.RemoveListener(second)
		assert.Equal(t, 1, addCalls) // still listened via the first listener
		assert.Equal(t, 0, removeCalls)

		s.RemoveListener(first)
		assert.Equal(t, 1, removeCalls) // last listener gone, upstream detached
	})

	t.Run("not listened-to always re-fetches", func(t *testing.T) {
		rt := NewRuntime()
		getCalls := 0
		s := NewSubscription(rt, func() (any, error) {
			getCalls++
			return getCalls, nil
		}, func(func()) {}, func(func()) {}, nil)

		s.ReadWithoutListening(rt)
		s.ReadWithoutListening(rt)
		s.ReadWithoutListening(rt)
		assert.Equal(t, 3, getCalls)
	})

	t.Run("listened-to caches until upstream notifies", func(t *testing.T) {
		rt := NewRuntime()
		getCalls := 0
		s := NewSubscription(rt, func() (any, error) {
			getCalls++
			return getCalls, nil
		}, func(func()) {}, func(func()) {}, nil)
		s.AddListener(func() {})

		s.ReadWithoutListening(rt)
		s.ReadWithoutListening(rt)
		assert.Equal(t, 1, getCalls)
	})

	t.Run("upstream notify invalidates cached value", func(t *testing.T) {
		rt := NewRuntime()
		getCalls := 0
		var upstreamCb func()
		s := NewSubscription(rt, func() (any, error) {
			getCalls++
			return getCalls, nil
		}, func(cb func()) { upstreamCb = cb }, func(func()) {}, nil)
		s.AddListener(func() {})

		s.ReadWithoutListening(rt)
		assert.Equal(t, 1, getCalls)

		upstreamCb()
		s.ReadWithoutListening(rt)
		assert.Equal(t, 2, getCalls)
	})

	t.Run("frame is suppressed during get so it never records spurious deps", func(t *testing.T) {
		rt := NewRuntime()
		c := newIntCell(rt, 1)
		s := NewSubscription(rt, func() (any, error) {
			// Reading c here must not register c as a dependency of the
			// enclosing formula's frame -- it happens under a suppressed frame.
			v, ok := c.ReadInside(rt)
			assert.False(t, ok)
			return v, nil
		}, func(func()) {}, func(func()) {}, nil)

		f := NewFormula(rt, func(rt *Runtime) (any, error) {
			completion, _ := s.ReadInside(rt)
			return completion.Value, nil
		}, nil)

		f.ReadWithoutListening(rt)
		// f depends on s itself (tracked outside the suppressed frame), but
		// never on c: c's read happened inside s's suppressed get callback.
		assert.Equal(t, []NodeID{s.ID()}, f.DebugDependencies())
	})

	t.Run("abrupt get result caches the error like a formula", func(t *testing.T) {
		rt := NewRuntime()
		getCalls := 0
		boom := assert.AnError
		s := NewSubscription(rt, func() (any, error) {
			getCalls++
			return nil, boom
		}, func(func()) {}, func(func()) {}, nil)
		s.AddListener(func() {})

		c1 := s.ReadWithoutListening(rt)
		c2 := s.ReadWithoutListening(rt)
		assert.True(t, c1.IsAbrupt())
		assert.Same(t, boom, c1.Err)
		assert.Equal(t, c1, c2)
		assert.Equal(t, 1, getCalls)
	})
}
