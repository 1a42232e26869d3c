package engine

// Formula is the engine-internal memoized derived node. It implements the
// ten-step validation protocol from spec.md §4.3.1, invalidate-without-
// detach from §4.3.2, and the dependency-listener diff from §4.3.3.
//
// Grounded on reactively/reactively.go's updateIfNecessary/update (the
// closest existing analogue to "pull-validate, recompute only if a
// dependency's cached state changed"), generalized from a three-state
// dirty/check/clean flag into a TxId-stamped valid field -- a strictly more
// precise mechanism, since reactively.go's CacheState alone cannot express
// "already validated for this exact read" (spec.md §4.3.1 step 2).
// Dependency diffing is grounded on AnatoleLucet-sig/sig/tracker.go's
// dependencyTracker.clear/add single-pass diff.
type Formula struct {
	base

	fn func(rt *Runtime) (any, error)
	eq EqualFunc

	everEvaluated bool
	validTx       TxID // 0 == Invalid (Fresh, or Invalid-WithCache)
	version       Version
	completion    Completion
	deps          *depSet
}

func NewFormula(rt *Runtime, fn func(rt *Runtime) (any, error), eq EqualFunc) *Formula {
	if eq == nil {
		eq = DeepEqual
	}
	f := &Formula{
		base: newBase(rt, "formula"),
		fn:   fn,
		eq:   eq,
	}
	f.onListenedChange = f.handleListenedChange
	return f
}

func (f *Formula) LatestVersion(rt *Runtime) Version {
	f.validate(rt)
	return f.version
}

// Completion returns the cached completion, validating first.
func (f *Formula) Completion(rt *Runtime) Completion {
	f.validate(rt)
	return f.completion
}

// validate implements spec.md §4.3.1 steps 1-10.
func (f *Formula) validate(rt *Runtime) {
	txID, owns := rt.allocateTx() // step 1
	defer rt.releaseTx(owns)      // step 9

	if f.validTx == txID { // step 2
		return
	}

	recompute := f.decideRecompute(rt) // step 3

	if recompute {
		f.recompute(rt) // steps 4-7
	}

	f.validTx = txID // step 8
}

// decideRecompute implements step 3: recompute is initially (valid ==
// Invalid), i.e. validTx == 0 -- which covers both Fresh (never evaluated,
// deps == nil) and Invalid-WithCache alike, and is returned unconditionally
// without ever touching f.deps. This is also the spec's own fix for the
// source's latent NPE (dereferencing a nil dependency set after deciding to
// recompute): the dependency-iteration loop below only runs once validTx is
// known non-zero, at which point deps is guaranteed non-nil because it was
// populated by the evaluation that produced that validTx. See DESIGN.md
// Open Question Decision 2.
//
// When validTx != 0 the formula was valid as of some earlier transaction
// and must still be pulled through its dependency set: each dependency's
// LatestVersion is queried (recursively validating it) and compared against
// the version observed when this formula last recomputed.
func (f *Formula) decideRecompute(rt *Runtime) bool {
	if f.validTx == 0 {
		return true
	}
	for _, e := range f.deps.entries {
		if e.node.LatestVersion(rt) > e.version {
			return true
		}
	}
	return false
}

// recompute implements steps 4-7: run the closure in a fresh frame, bump
// the version if the outcome changed, swap in the new dependency set, and
// diff dependency-listener registrations if listened-to.
func (f *Formula) recompute(rt *Runtime) {
	restore := rt.pushFrame() // step 4: install fresh frame
	frame := rt.frame

	value, err := f.runClosure(rt)

	restore() // restore outer frame

	var completion Completion
	if err != nil {
		completion = AbruptCompletion(err)
	} else {
		completion = NormalCompletion(value)
	}

	same := f.everEvaluated && SameCompletion(f.completion, completion, f.eq) // step 5
	if !same {
		f.version++
		f.completion = completion
	}
	f.everEvaluated = true

	oldDeps := f.deps // step 6
	f.deps = frame.deps

	if f.isListenedTo() { // step 7
		if oldDeps == nil {
			oldDeps = newDepSet()
		}
		diffDependencySets(f.id, oldDeps, f.deps)
	}
}

// runClosure invokes the user closure, converting a panic into an Abrupt
// completion so a formula can never unwind past its own evaluation
// boundary, per spec.md §9.
func (f *Formula) runClosure(rt *Runtime) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = panicError{r}
			}
			value = nil
		}
	}()
	return f.fn(rt)
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if s, ok := p.v.(string); ok {
		return s
	}
	return "panic in formula"
}

// notify implements spec.md §4.3.2: return immediately if already
// Invalid (diamond de-duplication), otherwise mark Invalid, clear the
// cached value (permitting collection), and fan out. The dependency set
// and dependent registrations are deliberately preserved.
func (f *Formula) notify(rt *Runtime) {
	if f.validTx == 0 {
		return
	}
	f.validTx = 0
	f.completion = Completion{}
	f.fanout(rt)
}

// handleListenedChange implements spec.md §4.3.3's predicate-transition
// cases.
func (f *Formula) handleListenedChange(was, is bool) {
	rt := f.rt
	if !was && is {
		rt.register(f)
		if f.deps == nil {
			f.validate(rt)
		}
		for _, e := range f.deps.entries {
			e.node.addDependent(f.id)
		}
	} else if was && !is {
		for _, e := range f.deps.entries {
			e.node.removeDependent(f.id)
		}
		rt.unregister(f.id)
	}
}

// ReadInside validates the formula, records it as a dependency of the
// currently active evaluation frame, and returns its latest completion.
// Returns ok=false if there is no active frame (OutOfContext).
func (f *Formula) ReadInside(rt *Runtime) (completion Completion, ok bool) {
	if rt.frame == nil {
		return Completion{}, false
	}
	f.validate(rt)
	rt.track(f, f.version)
	return f.completion, true
}

// ReadWithoutListening validates the formula and returns its latest
// completion without touching any evaluation frame.
func (f *Formula) ReadWithoutListening(rt *Runtime) Completion {
	f.validate(rt)
	return f.completion
}

// DebugDependencies returns the node IDs this formula currently depends
// on, for diagnostic/graph-dump use only.
func (f *Formula) DebugDependencies() []NodeID {
	if f.deps == nil {
		return nil
	}
	ids := make([]NodeID, len(f.deps.entries))
	for i, e := range f.deps.entries {
		ids[i] = e.id
	}
	return ids
}
