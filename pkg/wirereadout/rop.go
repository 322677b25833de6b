package wirereadout

import (
	"fmt"
	"sort"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

type ropEntry struct {
	id     ROPID
	planes []geometry.PlaneID
	rng    ChannelRange
}

type planeEntry struct {
	rop    ROPID
	view   geometry.View
	nWires uint32
	rng    ChannelRange
}

// ROPReadout numbers channels ROP by ROP: cryostat, then TPC set, then ROP.
// It serves the vertical drift variants.
type ROPReadout struct {
	wirePlanes
	sets      [][][]geometry.TPCID
	tpcToSet  map[geometry.TPCID]TPCSetID
	rops      []ropEntry
	ropIndex  map[ROPID]int
	ropCount  map[TPCSetID]int
	planes    map[geometry.PlaneID]planeEntry
	order     []geometry.PlaneID
	nChannels uint32
}

// NewROPReadout groups the TPCs of src with topology and numbers every ROP
// with assigner.
func NewROPReadout(src geometry.Source, topology Topology, assigner Assigner) (*ROPReadout, error) {
	cryostats := src.Cryostats()
	sets, err := topology.Group(cryostats)
	if err != nil {
		return nil, err
	}

	tpcs := make(map[geometry.TPCID]*geometry.TPC)
	for c := range cryostats {
		for t := range cryostats[c].TPCs {
			tpc := &cryostats[c].TPCs[t]
			tpcs[tpc.ID] = tpc
		}
	}

	ro := &ROPReadout{
		wirePlanes: newWirePlanes(cryostats),
		sets:       sets,
		tpcToSet:   make(map[geometry.TPCID]TPCSetID),
		ropIndex:   make(map[ROPID]int),
		ropCount:   make(map[TPCSetID]int),
		planes:     make(map[geometry.PlaneID]planeEntry),
	}

	var next uint32
	for c, cryoSets := range sets {
		for s, set := range cryoSets {
			setID := TPCSetID{Cryostat: uint32(c), TPCSet: uint32(s)}
			members, err := ro.claim(setID, set, tpcs)
			if err != nil {
				return nil, err
			}

			for r := 0; r < members[0].NPlanes(); r++ {
				ropID := ROPID{TPCSetID: setID, ROP: uint32(r)}
				planes := make([]*geometry.Plane, len(members))
				ids := make([]geometry.PlaneID, len(members))
				for i, tpc := range members {
					planes[i] = &tpc.Planes[r]
					ids[i] = planes[i].ID
					if planes[i].NWires() == 0 {
						return nil, channelmap.NewConfigurationError(ids[i].String(), 0, "plane has no wires")
					}
					if _, dup := ro.planes[ids[i]]; dup {
						return nil, channelmap.NewLogicError("plane %s assigned to more than one ROP", ids[i])
					}
				}

				ranges, ropNext, err := assigner.Assign(ropID, planes, next)
				if err != nil {
					return nil, fmt.Errorf("numbering ROP %s: %w", ropID, err)
				}
				for i, plane := range planes {
					ro.planes[ids[i]] = planeEntry{
						rop:    ropID,
						view:   plane.View,
						nWires: uint32(plane.NWires()),
						rng:    ranges[i],
					}
					ro.order = append(ro.order, ids[i])
				}
				ro.ropIndex[ropID] = len(ro.rops)
				ro.ropCount[setID]++
				ro.rops = append(ro.rops, ropEntry{id: ropID, planes: ids, rng: ChannelRange{First: next, Next: ropNext}})
				if channelmap.GetConfiguration().Verbosity > 2 {
					channelmap.GetLogger().Info(fmt.Sprintf("ROP %s: channels [%d, %d)", ropID, next, ropNext), "wirereadout")
				}
				next = ropNext
			}
		}
	}
	ro.nChannels = next
	return ro, nil
}

// claim resolves the TPCs of a set and records their membership.
func (ro *ROPReadout) claim(setID TPCSetID, set []geometry.TPCID, tpcs map[geometry.TPCID]*geometry.TPC) ([]*geometry.TPC, error) {
	if len(set) == 0 {
		return nil, channelmap.NewLogicError("TPC set %s is empty", setID)
	}
	members := make([]*geometry.TPC, len(set))
	for i, id := range set {
		tpc, ok := tpcs[id]
		if !ok {
			return nil, channelmap.NewLogicError("TPC %s of TPC set %s is not in the geometry", id, setID)
		}
		if prev, dup := ro.tpcToSet[id]; dup {
			return nil, channelmap.NewLogicError("TPC %s assigned to TPC sets %s and %s", id, prev, setID)
		}
		if tpc.NPlanes() != tpcs[set[0]].NPlanes() {
			return nil, channelmap.NewConfigurationError(id.String(), 0,
				"TPC has %d planes, TPC set %s expects %d", tpc.NPlanes(), setID, tpcs[set[0]].NPlanes())
		}
		ro.tpcToSet[id] = setID
		members[i] = tpc
	}
	return members, nil
}

func (ro *ROPReadout) NChannels() uint32 {
	return ro.nChannels
}

func (ro *ROPReadout) FindChannel(id geometry.WireID) (uint32, bool) {
	p, ok := ro.planes[id.PlaneID]
	if !ok || id.Wire >= p.nWires {
		return 0, false
	}
	return p.rng.First + id.Wire, true
}

func (ro *ROPReadout) PlaneWireToChannel(id geometry.WireID) (uint32, error) {
	c, ok := ro.FindChannel(id)
	if !ok {
		return 0, fmt.Errorf("wire %s: %w", id, channelmap.ErrOutOfRange)
	}
	return c, nil
}

func (ro *ROPReadout) ropOf(c uint32) (*ropEntry, bool) {
	if c >= ro.nChannels {
		return nil, false
	}
	i := sort.Search(len(ro.rops), func(i int) bool { return ro.rops[i].rng.First > c }) - 1
	if i < 0 || !ro.rops[i].rng.Contains(c) {
		return nil, false
	}
	return &ro.rops[i], true
}

func (ro *ROPReadout) ChannelToWire(c uint32) ([]geometry.WireID, error) {
	rop, ok := ro.ropOf(c)
	if !ok {
		return nil, &channelmap.RangeError{Channel: c, NChannels: ro.nChannels}
	}
	var wires []geometry.WireID
	for _, id := range rop.planes {
		p := ro.planes[id]
		if p.rng.Contains(c) {
			wires = append(wires, geometry.WireID{PlaneID: id, Wire: c - p.rng.First})
		}
	}
	return wires, nil
}

func (ro *ROPReadout) ChannelToROP(c uint32) (ROPID, bool) {
	rop, ok := ro.ropOf(c)
	if !ok {
		return ROPID{}, false
	}
	return rop.id, true
}

func (ro *ROPReadout) FirstChannelInROP(id ROPID) (uint32, bool) {
	i, ok := ro.ropIndex[id]
	if !ok {
		return 0, false
	}
	return ro.rops[i].rng.First, true
}

func (ro *ROPReadout) NTPCSets(cryostat uint32) int {
	if int(cryostat) >= len(ro.sets) {
		return 0
	}
	return len(ro.sets[cryostat])
}

func (ro *ROPReadout) NROPs(set TPCSetID) int {
	return ro.ropCount[set]
}

func (ro *ROPReadout) TPCtoTPCSet(id geometry.TPCID) (TPCSetID, bool) {
	set, ok := ro.tpcToSet[id]
	return set, ok
}

func (ro *ROPReadout) TPCSetToTPCs(set TPCSetID) []geometry.TPCID {
	if ro.NTPCSets(set.Cryostat) <= int(set.TPCSet) {
		return nil
	}
	return append([]geometry.TPCID(nil), ro.sets[set.Cryostat][set.TPCSet]...)
}

func (ro *ROPReadout) ROPtoWirePlanes(id ROPID) []geometry.PlaneID {
	i, ok := ro.ropIndex[id]
	if !ok {
		return nil
	}
	return append([]geometry.PlaneID(nil), ro.rops[i].planes...)
}

func (ro *ROPReadout) WirePlaneToROP(id geometry.PlaneID) (ROPID, bool) {
	p, ok := ro.planes[id]
	return p.rop, ok
}

func (ro *ROPReadout) SignalType(c uint32) SignalType {
	rop, ok := ro.ropOf(c)
	if !ok {
		return MysteryType
	}
	return signalTypeOfPlane(rop.id.ROP)
}

func (ro *ROPReadout) View(c uint32) geometry.View {
	rop, ok := ro.ropOf(c)
	if !ok {
		return geometry.ViewUnknown
	}
	return ro.planes[rop.planes[0]].view
}

func (ro *ROPReadout) PlaneRanges() []PlaneRange {
	ranges := make([]PlaneRange, 0, len(ro.order))
	for _, id := range ro.order {
		p := ro.planes[id]
		ranges = append(ranges, PlaneRange{Plane: id, ROP: p.rop, View: p.view, NWires: p.nWires, Range: p.rng})
	}
	return ranges
}

func (ro *ROPReadout) ChannelsIntersect(c1, c2 uint32) (r3.Vec, bool) {
	return channelsIntersect(ro, ro.wirePlanes, c1, c2)
}
