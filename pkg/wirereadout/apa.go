package wirereadout

import (
	"fmt"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// APAReadout numbers the wires of horizontal drift APAs. The two TPCs of
// an APA share its channels: induction wires wrap around the frame, so
// wire w and wire w+N of a plane with N anchored wires read the same
// channel, alternating between the two TPCs.
type APAReadout struct {
	wirePlanes
	nTPCs      uint32
	nCryostats uint32
	views      []geometry.View
	anchored   []uint32
	nWires     []uint32
	first      []uint32
	next       []uint32
	perAPA     uint32
	nChannels  uint32
}

// NewAPAReadout derives the plane blocks from TPC 0 of cryostat 0. Every
// cryostat must hold the same even number of TPCs with the same planes.
func NewAPAReadout(src geometry.Source) (*APAReadout, error) {
	cryostats := src.Cryostats()
	if len(cryostats) == 0 || len(cryostats[0].TPCs) == 0 {
		return nil, channelmap.NewConfigurationError("", 0, "APA readout needs at least one TPC")
	}
	nTPCs := len(cryostats[0].TPCs)
	if nTPCs%2 != 0 {
		return nil, channelmap.NewConfigurationError("", 0, "APA readout needs TPC pairs, cryostat 0 has %d TPCs", nTPCs)
	}
	reference := &cryostats[0].TPCs[0]
	nPlanes := reference.NPlanes()
	if nPlanes == 0 {
		return nil, channelmap.NewConfigurationError(reference.ID.String(), 0, "TPC has no planes")
	}
	for c := range cryostats {
		if len(cryostats[c].TPCs) != nTPCs {
			return nil, channelmap.NewConfigurationError("", 0,
				"cryostat %d has %d TPCs, cryostat 0 has %d", c, len(cryostats[c].TPCs), nTPCs)
		}
		for t := range cryostats[c].TPCs {
			tpc := &cryostats[c].TPCs[t]
			if tpc.NPlanes() != nPlanes {
				return nil, channelmap.NewConfigurationError(tpc.ID.String(), 0,
					"TPC has %d planes, expected %d", tpc.NPlanes(), nPlanes)
			}
			for p := range tpc.Planes {
				if tpc.Planes[p].NWires() != reference.Planes[p].NWires() {
					return nil, channelmap.NewConfigurationError(tpc.Planes[p].ID.String(), 0,
						"plane has %d wires, expected %d", tpc.Planes[p].NWires(), reference.Planes[p].NWires())
				}
			}
		}
	}

	ro := &APAReadout{
		wirePlanes: newWirePlanes(cryostats),
		nTPCs:      uint32(nTPCs),
		nCryostats: uint32(len(cryostats)),
		views:      make([]geometry.View, nPlanes),
		anchored:   make([]uint32, nPlanes),
		nWires:     make([]uint32, nPlanes),
		first:      make([]uint32, nPlanes),
		next:       make([]uint32, nPlanes),
	}
	var next uint32
	for p := range reference.Planes {
		plane := &reference.Planes[p]
		if plane.NWires() == 0 {
			return nil, channelmap.NewConfigurationError(plane.ID.String(), 0, "plane has no wires")
		}
		ro.views[p] = plane.View
		ro.nWires[p] = uint32(plane.NWires())
		ro.anchored[p] = anchoredWires(plane)
		if ro.anchored[p] == 0 {
			return nil, channelmap.NewConfigurationError(plane.ID.String(), 0, "plane has no anchored wires")
		}
		ro.first[p] = next
		next += 2 * ro.anchored[p]
		ro.next[p] = next
	}
	ro.perAPA = next
	ro.nChannels = ro.nCryostats * (ro.nTPCs / 2) * ro.perAPA

	if configuration := channelmap.GetConfiguration(); configuration.Verbosity > 0 {
		channelmap.GetLogger().Info(fmt.Sprintf("APA readout: %d channels per APA, %d channels, anchored wires %v",
			ro.perAPA, ro.nChannels, ro.anchored), "wirereadout")
	}
	return ro, nil
}

// anchoredWires counts the wires of a plane attached to the side of one
// TPC: the index of the first wire whose centre shares its z with the next
// one. Z view planes are fully anchored, as is a plane without such a pair.
func anchoredWires(plane *geometry.Plane) uint32 {
	n := uint32(plane.NWires())
	if plane.View == geometry.ViewZ {
		return n
	}
	for w := 0; w+1 < plane.NWires(); w++ {
		if plane.Wires[w].Center().Z == plane.Wires[w+1].Center().Z {
			return uint32(w)
		}
	}
	return n
}

func (ro *APAReadout) NChannels() uint32 {
	return ro.nChannels
}

// AnchoredWires returns N for every plane, in plane order.
func (ro *APAReadout) AnchoredWires() []uint32 {
	return append([]uint32(nil), ro.anchored...)
}

// ChannelsPerAPA is the width of one APA block.
func (ro *APAReadout) ChannelsPerAPA() uint32 {
	return ro.perAPA
}

func (ro *APAReadout) validWire(id geometry.WireID) bool {
	return id.Cryostat < ro.nCryostats && id.TPC < ro.nTPCs &&
		int(id.Plane) < len(ro.nWires) && id.Wire < ro.nWires[id.Plane]
}

func (ro *APAReadout) apaOffset(cryostat, apa uint32) uint32 {
	return cryostat*(ro.nTPCs/2)*ro.perAPA + apa*ro.perAPA
}

func (ro *APAReadout) FindChannel(id geometry.WireID) (uint32, bool) {
	if !ro.validWire(id) {
		return 0, false
	}
	n := ro.anchored[id.Plane]
	return ro.first[id.Plane] + ro.apaOffset(id.Cryostat, id.TPC/2) + ((id.TPC%2)*n+id.Wire)%(2*n), true
}

func (ro *APAReadout) PlaneWireToChannel(id geometry.WireID) (uint32, error) {
	c, ok := ro.FindChannel(id)
	if !ok {
		return 0, fmt.Errorf("wire %s: %w", id, channelmap.ErrOutOfRange)
	}
	return c, nil
}

// locate splits a channel into its cryostat, APA within the cryostat,
// plane and offset within the plane block.
func (ro *APAReadout) locate(c uint32) (cryostat, apa, plane, offset uint32, ok bool) {
	if c >= ro.nChannels {
		return 0, 0, 0, 0, false
	}
	apas := ro.nTPCs / 2
	global := c / ro.perAPA
	local := c % ro.perAPA
	for p := range ro.first {
		if local >= ro.first[p] && local < ro.next[p] {
			return global / apas, global % apas, uint32(p), local - ro.first[p], true
		}
	}
	return 0, 0, 0, 0, false
}

// ChannelToWire lists the wire segments read by c, alternating between
// the two TPCs of the APA and moving N wires along the plane each time.
func (ro *APAReadout) ChannelToWire(c uint32) ([]geometry.WireID, error) {
	cryostat, apa, plane, offset, ok := ro.locate(c)
	if !ok {
		return nil, &channelmap.RangeError{Channel: c, NChannels: ro.nChannels}
	}
	n := ro.anchored[plane]
	tpc := 2 * apa
	bottom := offset % n
	direction := 1
	if offset/n == 1 {
		tpc++
		direction = -1
	}

	var wires []geometry.WireID
	for k := uint32(0); bottom+k*n < ro.nWires[plane]; k++ {
		segmentTPC := int(tpc) + direction*int(k%2)
		wires = append(wires, geometry.WireID{
			PlaneID: geometry.PlaneID{
				TPCID: geometry.TPCID{Cryostat: cryostat, TPC: uint32(segmentTPC)},
				Plane: plane,
			},
			Wire: bottom + k*n,
		})
	}
	return wires, nil
}

func (ro *APAReadout) ChannelToROP(c uint32) (ROPID, bool) {
	cryostat, apa, plane, _, ok := ro.locate(c)
	if !ok {
		return ROPID{}, false
	}
	return ROPID{TPCSetID: TPCSetID{Cryostat: cryostat, TPCSet: apa}, ROP: plane}, true
}

func (ro *APAReadout) validROP(id ROPID) bool {
	return id.Cryostat < ro.nCryostats && id.TPCSet < ro.nTPCs/2 && int(id.ROP) < len(ro.first)
}

func (ro *APAReadout) FirstChannelInROP(id ROPID) (uint32, bool) {
	if !ro.validROP(id) {
		return 0, false
	}
	return ro.apaOffset(id.Cryostat, id.TPCSet) + ro.first[id.ROP], true
}

func (ro *APAReadout) NTPCSets(cryostat uint32) int {
	if cryostat >= ro.nCryostats {
		return 0
	}
	return int(ro.nTPCs / 2)
}

func (ro *APAReadout) NROPs(set TPCSetID) int {
	if set.Cryostat >= ro.nCryostats || set.TPCSet >= ro.nTPCs/2 {
		return 0
	}
	return len(ro.first)
}

func (ro *APAReadout) TPCtoTPCSet(id geometry.TPCID) (TPCSetID, bool) {
	if id.Cryostat >= ro.nCryostats || id.TPC >= ro.nTPCs {
		return TPCSetID{}, false
	}
	return TPCSetID{Cryostat: id.Cryostat, TPCSet: id.TPC / 2}, true
}

func (ro *APAReadout) TPCSetToTPCs(set TPCSetID) []geometry.TPCID {
	if ro.NROPs(set) == 0 {
		return nil
	}
	return []geometry.TPCID{
		{Cryostat: set.Cryostat, TPC: 2 * set.TPCSet},
		{Cryostat: set.Cryostat, TPC: 2*set.TPCSet + 1},
	}
}

func (ro *APAReadout) ROPtoWirePlanes(id ROPID) []geometry.PlaneID {
	if !ro.validROP(id) {
		return nil
	}
	var planes []geometry.PlaneID
	for _, tpc := range ro.TPCSetToTPCs(id.TPCSetID) {
		planes = append(planes, geometry.PlaneID{TPCID: tpc, Plane: id.ROP})
	}
	return planes
}

func (ro *APAReadout) WirePlaneToROP(id geometry.PlaneID) (ROPID, bool) {
	set, ok := ro.TPCtoTPCSet(id.TPCID)
	if !ok || int(id.Plane) >= len(ro.first) {
		return ROPID{}, false
	}
	return ROPID{TPCSetID: set, ROP: id.Plane}, true
}

func (ro *APAReadout) SignalType(c uint32) SignalType {
	_, _, plane, _, ok := ro.locate(c)
	if !ok {
		return MysteryType
	}
	return signalTypeOfPlane(plane)
}

func (ro *APAReadout) View(c uint32) geometry.View {
	_, _, plane, _, ok := ro.locate(c)
	if !ok {
		return geometry.ViewUnknown
	}
	return ro.views[plane]
}

// PlaneRanges reports the block of each plane. Both TPCs of an APA read
// the same block.
func (ro *APAReadout) PlaneRanges() []PlaneRange {
	var ranges []PlaneRange
	for c := uint32(0); c < ro.nCryostats; c++ {
		for t := uint32(0); t < ro.nTPCs; t++ {
			for p := range ro.first {
				offset := ro.apaOffset(c, t/2)
				ranges = append(ranges, PlaneRange{
					Plane:  geometry.PlaneID{TPCID: geometry.TPCID{Cryostat: c, TPC: t}, Plane: uint32(p)},
					ROP:    ROPID{TPCSetID: TPCSetID{Cryostat: c, TPCSet: t / 2}, ROP: uint32(p)},
					View:   ro.views[p],
					NWires: ro.nWires[p],
					Range:  ChannelRange{First: offset + ro.first[p], Next: offset + ro.next[p]},
				})
			}
		}
	}
	return ranges
}

func (ro *APAReadout) ChannelsIntersect(c1, c2 uint32) (r3.Vec, bool) {
	return channelsIntersect(ro, ro.wirePlanes, c1, c2)
}
