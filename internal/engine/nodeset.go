package engine

import mapset "github.com/deckarep/golang-set/v2"

// nodeSet is the Dependents set from spec.md §3: the formulas that
// currently depend on a node and are in "listened-to" state. Order does
// not matter here (unlike depSet), so an unordered set is the right fit --
// grounded on pkg/flimsy/signal.go's mapset.Set[*observer] observers field.
type nodeSet struct {
	ids mapset.Set[NodeID]
}

func newNodeSet() nodeSet {
	return nodeSet{ids: mapset.NewSet[NodeID]()}
}

func (s *nodeSet) add(id NodeID)      { s.ids.Add(id) }
func (s *nodeSet) remove(id NodeID)   { s.ids.Remove(id) }
func (s *nodeSet) len() int           { return s.ids.Cardinality() }
func (s *nodeSet) snapshot() []NodeID { return s.ids.ToSlice() }
