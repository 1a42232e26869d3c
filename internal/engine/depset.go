package engine

// depEntry pairs a dependency node with the version that was observed the
// last time this formula (or subscription) evaluated.
type depEntry struct {
	id      NodeID
	node    node
	version Version
}

// depSet is an insertion-ordered mapping from dependency to observed
// version. Order is not semantically meaningful but must be stable under
// iteration, per spec: it makes "first stale wins" validation deterministic.
//
// Grounded on AnatoleLucet-sig/internal/node.go's intrusive doubly-linked
// DependencyLink list, which exists for the same reason (ordered
// registration, O(1) membership test); reimplemented with a slice + index
// map since Go's garbage collector removes the need for the manual
// unlinking an arena-style linked list buys the teacher's design.
type depSet struct {
	entries []depEntry
	index   map[NodeID]int
}

func newDepSet() *depSet {
	return &depSet{index: make(map[NodeID]int)}
}

// record adds n as a dependency observed at version v, or updates the
// observed version in place if n is already present (re-reading the same
// dependency twice in one evaluation does not create a duplicate entry or
// move its position).
func (d *depSet) record(n node, v Version) {
	id := n.ID()
	if i, ok := d.index[id]; ok {
		d.entries[i].version = v
		return
	}
	d.index[id] = len(d.entries)
	d.entries = append(d.entries, depEntry{id: id, node: n, version: v})
}

func (d *depSet) len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// diff registers subID as a dependent of every node newly present in next
// but absent from old, and removes subID from every node present in old but
// absent from next. Implemented as a single destructive pass over a copy
// of old's index followed by a pass over whatever remains, per spec.
func diffDependencySets(subID NodeID, old, next *depSet) {
	remaining := make(map[NodeID]node, old.len())
	for _, e := range old.entries {
		remaining[e.id] = e.node
	}

	for _, e := range next.entries {
		if _, ok := remaining[e.id]; ok {
			delete(remaining, e.id)
			continue
		}
		e.node.addDependent(subID)
	}

	for _, n := range remaining {
		n.removeDependent(subID)
	}
}
