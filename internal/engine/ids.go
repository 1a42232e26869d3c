package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// NodeID is a stable identifier for a reactive node, used as the key type
// for the dependents registry so that a node's back-edges never hold a
// strong Go pointer to it (see Runtime.registry).
type NodeID uint64

func (rt *Runtime) newNodeID() NodeID {
	rt.nextNodeSeq++

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], rt.nextNodeSeq)
	return NodeID(xxhash.Sum64(buf[:]))
}
