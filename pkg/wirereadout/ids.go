// Package wirereadout numbers the wires of a sorted detector with offline
// channels. TPCs are grouped into TPC sets, the planes of a TPC set into
// readout planes (ROPs), and each ROP receives a contiguous channel range.
package wirereadout

import (
	"fmt"

	"github.com/dune/channelmap_go/pkg/geometry"
)

type TPCSetID struct {
	Cryostat uint32
	TPCSet   uint32
}

func (id TPCSetID) String() string {
	return fmt.Sprintf("C:%d S:%d", id.Cryostat, id.TPCSet)
}

type ROPID struct {
	TPCSetID
	ROP uint32
}

func (id ROPID) String() string {
	return fmt.Sprintf("C:%d S:%d R:%d", id.Cryostat, id.TPCSet, id.ROP)
}

// ChannelRange is the half-open range [First, Next).
type ChannelRange struct {
	First uint32
	Next  uint32
}

func (r ChannelRange) Contains(c uint32) bool {
	return c >= r.First && c < r.Next
}

func (r ChannelRange) Len() uint32 {
	return r.Next - r.First
}

type SignalType int

const (
	MysteryType SignalType = iota
	Induction
	Collection
)

var signalTypeStrings = []string{"mystery", "induction", "collection"}

func (s SignalType) String() string {
	if s < MysteryType || s > Collection {
		return "mystery"
	}
	return signalTypeStrings[s]
}

// signalTypeOfPlane: the first two planes of a TPC induce, the others
// collect.
func signalTypeOfPlane(plane uint32) SignalType {
	if plane < 2 {
		return Induction
	}
	return Collection
}

// PlaneRange is the channel range a wire plane reads.
type PlaneRange struct {
	Plane  geometry.PlaneID
	ROP    ROPID
	View   geometry.View
	NWires uint32
	Range  ChannelRange
}
