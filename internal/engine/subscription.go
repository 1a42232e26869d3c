package engine

// subValidity mirrors Formula's validTx sentinel but adds a third state:
// 0 means Invalid, -1 means True (valid outside of any transaction), and
// any positive value is the TxID for which the cached value is valid.
type subValidity int64

const (
	subInvalid subValidity = 0
	subTrue    subValidity = -1
)

// Subscription is the engine-internal adapter over an external
// {get, add, remove} source. It lazily attaches its upstream listener --
// an idle subscription with no observers never subscribes upstream.
//
// Grounded on pkg/flimsy/api.go's Untrack/wrap(tracking=false) for frame
// suppression during the wrapped get, and AnatoleLucet-sig/internal/effect.go's
// effect-as-adapter-over-external-callback shape for upstream install/remove.
type Subscription struct {
	base

	get            func() (any, error)
	addUpstream    func(func())
	removeUpstream func(func())
	upstreamCb     func()

	eq            EqualFunc
	valid         subValidity
	everEvaluated bool
	version       Version
	completion    Completion
}

func NewSubscription(rt *Runtime, get func() (any, error), add, remove func(func()), eq EqualFunc) *Subscription {
	if eq == nil {
		eq = DeepEqual
	}
	s := &Subscription{
		base:           newBase(rt, "subscription"),
		get:            get,
		addUpstream:    add,
		removeUpstream: remove,
		eq:             eq,
	}
	s.upstreamCb = s.onUpstreamChange
	s.onListenedChange = s.handleListenedChange
	return s
}

func (s *Subscription) LatestVersion(rt *Runtime) Version {
	s.refresh(rt)
	return s.version
}

func (s *Subscription) Completion(rt *Runtime) Completion {
	s.refresh(rt)
	return s.completion
}

// refresh implements spec.md §4.4's latest_version rule.
func (s *Subscription) refresh(rt *Runtime) {
	if rt.currentTxID != 0 && s.valid == subValidity(rt.currentTxID) {
		return
	}
	if s.isListenedTo() && s.valid != subInvalid {
		return
	}

	restore := rt.suppressFrame() // dependency-tracking frame must be suppressed
	value, err := s.get()
	restore()

	var completion Completion
	if err != nil {
		completion = AbruptCompletion(err)
	} else {
		completion = NormalCompletion(value)
	}

	same := s.everEvaluated && SameCompletion(s.completion, completion, s.eq)
	if !same {
		s.version++
		s.completion = completion
	}
	s.everEvaluated = true

	if rt.currentTxID != 0 {
		s.valid = subValidity(rt.currentTxID)
	} else {
		s.valid = subTrue
	}
}

// notify is the upstream listener callback: identical in shape to
// Formula.notify -- invalidate once, clear cache, fanout.
func (s *Subscription) notify(rt *Runtime) {
	if s.valid == subInvalid {
		return
	}
	s.valid = subInvalid
	s.completion = Completion{}
	s.fanout(rt)
}

func (s *Subscription) onUpstreamChange() {
	s.notify(s.rt)
}

// handleListenedChange implements spec.md §4.4's listened-to transitions.
func (s *Subscription) handleListenedChange(was, is bool) {
	rt := s.rt
	if !was && is {
		rt.register(s)
		if s.valid != subValidity(rt.currentTxID) || rt.currentTxID == 0 {
			s.valid = subInvalid
		}
		s.addUpstream(s.upstreamCb)
	} else if was && !is {
		s.removeUpstream(s.upstreamCb)
		rt.unregister(s.id)
	}
}

// ReadInside validates the subscription, records it as a dependency of the
// currently active evaluation frame, and returns its latest completion.
func (s *Subscription) ReadInside(rt *Runtime) (completion Completion, ok bool) {
	if rt.frame == nil {
		return Completion{}, false
	}
	s.refresh(rt)
	rt.track(s, s.version)
	return s.completion, true
}

// ReadWithoutListening validates the subscription and returns its latest
// completion without touching any evaluation frame.
func (s *Subscription) ReadWithoutListening(rt *Runtime) Completion {
	s.refresh(rt)
	return s.completion
}
