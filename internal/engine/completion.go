package engine

import "reflect"

// completionKind tags a Completion as either a Normal value or an Abrupt
// (error) result, per spec.md §3.
type completionKind uint8

const (
	Normal completionKind = iota
	Abrupt
)

// Completion is the tagged union a formula or subscription caches so that
// reading a node whose evaluation failed re-raises that failure without
// re-running it. Abrupt completions participate in equality exactly like
// Normal ones: two consecutive equal errors do not bump the version.
type Completion struct {
	Kind  completionKind
	Value any
	Err   error
}

func NormalCompletion(v any) Completion { return Completion{Kind: Normal, Value: v} }
func AbruptCompletion(err error) Completion {
	return Completion{Kind: Abrupt, Err: err}
}

func (c Completion) IsAbrupt() bool { return c.Kind == Abrupt }

// EqualFunc compares two arbitrary values for the purposes of version
// bumping. The engine core is intentionally type-erased (mirroring
// pkg/flimsy/signal.go's `value any` field), so it falls back to
// reflect.DeepEqual by default; the public generic facade narrows this to
// the concrete type's own equality, including NaN-self-equality where the
// type is a float kind.
type EqualFunc func(a, b any) bool

// DeepEqual is the default EqualFunc, grounded on pkg/flimsy/signal.go's
// use of reflect.DeepEqual for its untyped signal value.
func DeepEqual(a, b any) bool { return reflect.DeepEqual(a, b) }

// SameCompletion implements spec.md §4.3.1 step 5's "same" test: both
// completions must share a kind, Normal values must be equal under eq, and
// Abrupt errors must be equal under DeepEqual (eq is only ever handed the
// node's own values, never error payloads).
func SameCompletion(a, b Completion, eq EqualFunc) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == Normal {
		return eq(a.Value, b.Value)
	}
	return DeepEqual(a.Err, b.Err)
}
