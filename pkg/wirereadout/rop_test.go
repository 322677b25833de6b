package wirereadout_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
	"github.com/dune/channelmap_go/pkg/wirereadout"
)

func planeID(tpc, plane uint32) geometry.PlaneID {
	return geometry.PlaneID{TPCID: geometry.TPCID{TPC: tpc}, Plane: plane}
}

func rangesByPlane(ro wirereadout.Readout) map[geometry.PlaneID]wirereadout.ChannelRange {
	ranges := make(map[geometry.PlaneID]wirereadout.ChannelRange)
	for _, r := range ro.PlaneRanges() {
		ranges[r.Plane] = r.Range
	}
	return ranges
}

func TestCRUFromFile(t *testing.T) {
	ro, err := wirereadout.Load("testdata/cru.yaml", channelmap.ReadoutCRU)
	require.NoError(t, err)
	require.Equal(t, uint32(25), ro.NChannels())

	ranges := rangesByPlane(ro)
	require.Equal(t, wirereadout.ChannelRange{First: 0, Next: 4}, ranges[planeID(0, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 4, Next: 8}, ranges[planeID(0, 1)])
	require.Equal(t, wirereadout.ChannelRange{First: 8, Next: 13}, ranges[planeID(0, 2)])
	require.Equal(t, wirereadout.ChannelRange{First: 13, Next: 16}, ranges[planeID(1, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 16, Next: 19}, ranges[planeID(1, 1)])
	require.Equal(t, wirereadout.ChannelRange{First: 19, Next: 25}, ranges[planeID(1, 2)])

	c, ok := ro.FindChannel(geometry.WireID{PlaneID: planeID(1, 2), Wire: 0})
	require.True(t, ok)
	require.Equal(t, uint32(19), c)
	_, ok = ro.FindChannel(geometry.WireID{PlaneID: planeID(1, 2), Wire: 6})
	require.False(t, ok)

	wires, err := ro.ChannelToWire(19)
	require.NoError(t, err)
	require.Equal(t, []geometry.WireID{{PlaneID: planeID(1, 2), Wire: 0}}, wires)

	rop, ok := ro.ChannelToROP(19)
	require.True(t, ok)
	require.Equal(t, wirereadout.ROPID{TPCSetID: wirereadout.TPCSetID{TPCSet: 1}, ROP: 2}, rop)

	set, ok := ro.TPCtoTPCSet(geometry.TPCID{TPC: 1})
	require.True(t, ok)
	require.Equal(t, wirereadout.TPCSetID{TPCSet: 1}, set)
	require.Equal(t, 2, ro.NTPCSets(0))
	require.Equal(t, 3, ro.NROPs(set))
	require.Equal(t, 0, ro.NROPs(wirereadout.TPCSetID{TPCSet: 2}))
	require.Equal(t, []geometry.PlaneID{planeID(1, 0)}, ro.ROPtoWirePlanes(wirereadout.ROPID{TPCSetID: set}))

	require.Equal(t, geometry.ViewU, ro.View(13))
	require.Equal(t, geometry.ViewV, ro.View(4))
	require.Equal(t, wirereadout.Collection, ro.SignalType(19))
	require.Equal(t, wirereadout.Induction, ro.SignalType(18))

	_, err = ro.ChannelToWire(25)
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)
}

func TestCRUWireQueries(t *testing.T) {
	ro, err := wirereadout.Load("testdata/cru.yaml", channelmap.ReadoutCRU)
	require.NoError(t, err)

	// collection wires of TPC 0 sit at z = 0.5 + w
	coordinate, err := ro.WireCoordinate(r3.Vec{X: -20, Y: 3, Z: 2.7}, planeID(0, 2))
	require.NoError(t, err)
	require.InDelta(t, 2.2, coordinate, 1e-9)

	id, err := ro.NearestWireID(r3.Vec{Y: 3, Z: 4.9}, planeID(0, 2))
	require.NoError(t, err)
	require.Equal(t, geometry.WireID{PlaneID: planeID(0, 2), Wire: 4}, id)

	// U wire w runs through y = 0, z = w
	id, err = ro.NearestWireID(r3.Vec{Z: 2}, planeID(0, 0))
	require.NoError(t, err)
	require.Equal(t, uint32(2), id.Wire)

	_, err = ro.NearestWireID(r3.Vec{Z: 5.2}, planeID(0, 2))
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)
	_, err = ro.NearestWireID(r3.Vec{Z: -3}, planeID(0, 2))
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)
	_, err = ro.WireCoordinate(r3.Vec{}, planeID(5, 0))
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)

	// U wire 1 (channel 1) crosses collection wire 2 (channel 10) at y = -1.5
	point, ok := ro.ChannelsIntersect(1, 10)
	require.True(t, ok)
	require.InDelta(t, -2.0, point.X, 1e-9)
	require.InDelta(t, -1.5, point.Y, 1e-9)
	require.InDelta(t, 2.5, point.Z, 1e-9)

	_, ok = ro.ChannelsIntersect(1, 2)
	require.False(t, ok, "same plane")
	_, ok = ro.ChannelsIntersect(1, 19)
	require.False(t, ok, "different TPCs")
	_, ok = ro.ChannelsIntersect(1, 99)
	require.False(t, ok, "out of range")
}

func TestCRUWireOrder(t *testing.T) {
	detector, err := geometry.LoadDetector("testdata/cru.yaml", channelmap.ReadoutCRU)
	require.NoError(t, err)
	tpc, ok := detector.TPC(geometry.TPCID{TPC: 0})
	require.True(t, ok)
	require.Equal(t, 50.0, tpc.Center.Z)
	for p, view := range []geometry.View{geometry.ViewU, geometry.ViewV, geometry.ViewZ} {
		plane := tpc.Planes[p]
		require.Equal(t, view, plane.View)
		for w := 1; w < plane.NWires(); w++ {
			require.Less(t, plane.Wires[w-1].Center().Z, plane.Wires[w].Center().Z, "plane %d wire %d", p, w)
		}
	}
}

func TestCRP(t *testing.T) {
	const n, shift = 10, 3
	detector := sorted(t, verticalDriftCryostat(2, 2, n, shift*pitch), geometry.CRUSorter{DriftAxis: geometry.CoordX, SplitViews: true})
	ro, err := wirereadout.Build(detector, channelmap.ReadoutCRP)
	require.NoError(t, err)
	require.Equal(t, uint32(4*shift+8*n), ro.NChannels())
	require.Equal(t, 1, ro.NTPCSets(0))

	set := wirereadout.TPCSetID{}
	require.Equal(t, []geometry.TPCID{{TPC: 0}, {TPC: 1}, {TPC: 2}, {TPC: 3}}, ro.TPCSetToTPCs(set))
	require.Equal(t, 3, ro.NROPs(set))

	ranges := rangesByPlane(ro)
	require.Equal(t, wirereadout.ChannelRange{First: 0, Next: 10}, ranges[planeID(0, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 3, Next: 13}, ranges[planeID(1, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 13, Next: 23}, ranges[planeID(2, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 16, Next: 26}, ranges[planeID(3, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 29, Next: 39}, ranges[planeID(1, 1)])
	require.Equal(t, wirereadout.ChannelRange{First: 52, Next: 62}, ranges[planeID(0, 2)])
	require.Equal(t, wirereadout.ChannelRange{First: 82, Next: 92}, ranges[planeID(3, 2)])

	for r, first := range []uint32{0, 26, 52} {
		got, ok := ro.FirstChannelInROP(wirereadout.ROPID{TPCSetID: set, ROP: uint32(r)})
		require.True(t, ok)
		require.Equal(t, first, got)
	}

	// the last U wire of TPC 0 continues as wire 6 of TPC 1
	wires, err := ro.ChannelToWire(9)
	require.NoError(t, err)
	require.Equal(t, []geometry.WireID{
		{PlaneID: planeID(0, 0), Wire: 9},
		{PlaneID: planeID(1, 0), Wire: 6},
	}, wires)

	wires, err = ro.ChannelToWire(35)
	require.NoError(t, err)
	require.Equal(t, []geometry.WireID{
		{PlaneID: planeID(0, 1), Wire: 9},
		{PlaneID: planeID(1, 1), Wire: 6},
	}, wires)

	requirePartition(t, detector, ro)
}

func TestCRPTwoSets(t *testing.T) {
	detector := sorted(t, verticalDriftCryostat(4, 2, 6, 2*pitch), geometry.CRUSorter{DriftAxis: geometry.CoordX, SplitViews: true})
	ro, err := wirereadout.Build(detector, channelmap.ReadoutCRP)
	require.NoError(t, err)
	require.Equal(t, 2, ro.NTPCSets(0))
	require.Equal(t, []geometry.TPCID{{TPC: 4}, {TPC: 5}, {TPC: 6}, {TPC: 7}}, ro.TPCSetToTPCs(wirereadout.TPCSetID{TPCSet: 1}))

	set, ok := ro.TPCtoTPCSet(geometry.TPCID{TPC: 5})
	require.True(t, ok)
	require.Equal(t, uint32(1), set.TPCSet)
	requirePartition(t, detector, ro)
}

func TestCRPBadTPCCount(t *testing.T) {
	cryostats := verticalDriftCryostat(3, 2, 6, 2*pitch)
	detector := sorted(t, cryostats, geometry.CRUSorter{DriftAxis: geometry.CoordX, SplitViews: true})
	_, err := wirereadout.Build(detector, channelmap.ReadoutCRP)
	require.ErrorIs(t, err, channelmap.ErrConfiguration)

	twoCryostats := append(verticalDriftCryostat(2, 2, 6, 2*pitch), verticalDriftCryostat(2, 2, 6, 2*pitch)...)
	twoCryostats[1].Center.X = 1000
	detector = sorted(t, twoCryostats, geometry.CRUSorter{DriftAxis: geometry.CoordX, SplitViews: true})
	_, err = wirereadout.Build(detector, channelmap.ReadoutCRP)
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func TestCRPAmbiguousStitch(t *testing.T) {
	cryostats := verticalDriftCryostat(2, 2, 6, 2*pitch)
	// a duplicated U wire leaves two candidates at the same distance
	for i := range cryostats[0].TPCs {
		tpc := &cryostats[0].TPCs[i]
		if tpc.Center.Y > 2*pitch && tpc.Center.Z < 6*pitch {
			u := &tpc.Planes[2]
			u.Wires = append(u.Wires, u.Wires...)
		}
	}
	detector := sorted(t, cryostats, geometry.CRUSorter{DriftAxis: geometry.CoordX, SplitViews: true})
	_, err := wirereadout.Build(detector, channelmap.ReadoutCRP)
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func coldBox(n, shift int) []geometry.Cryostat {
	cryo := geometry.Cryostat{}
	for iz := 0; iz < 2; iz++ {
		for iy := 0; iy < 2; iy++ {
			uShift := 0
			if iz == 1 {
				uShift = shift - n
			}
			cryo.TPCs = append(cryo.TPCs, verticalDriftTPC(iz, iy, n, 20, uShift))
		}
	}
	return []geometry.Cryostat{cryo}
}

func TestColdBox(t *testing.T) {
	const n, shift = 10, 3
	detector := sorted(t, coldBox(n, shift), geometry.SorterFor(channelmap.ReadoutColdBox, coldBox(n, shift)))
	ro, err := wirereadout.Build(detector, channelmap.ReadoutColdBox)
	require.NoError(t, err)
	require.Equal(t, uint32(2*(n+shift+4*n)), ro.NChannels())
	require.Equal(t, 2, ro.NTPCSets(0))
	require.Equal(t, []geometry.TPCID{{TPC: 0}, {TPC: 2}}, ro.TPCSetToTPCs(wirereadout.TPCSetID{}))
	require.Equal(t, []geometry.TPCID{{TPC: 1}, {TPC: 3}}, ro.TPCSetToTPCs(wirereadout.TPCSetID{TPCSet: 1}))

	ranges := rangesByPlane(ro)
	require.Equal(t, wirereadout.ChannelRange{First: 0, Next: 10}, ranges[planeID(0, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 3, Next: 13}, ranges[planeID(2, 0)])
	require.Equal(t, wirereadout.ChannelRange{First: 13, Next: 23}, ranges[planeID(0, 1)])
	require.Equal(t, wirereadout.ChannelRange{First: 23, Next: 33}, ranges[planeID(2, 1)])
	require.Equal(t, wirereadout.ChannelRange{First: 43, Next: 53}, ranges[planeID(2, 2)])
	require.Equal(t, wirereadout.ChannelRange{First: 53, Next: 63}, ranges[planeID(1, 0)])

	rop, ok := ro.WirePlaneToROP(planeID(3, 1))
	require.True(t, ok)
	require.Equal(t, wirereadout.ROPID{TPCSetID: wirereadout.TPCSetID{TPCSet: 1}, ROP: 1}, rop)

	requirePartition(t, detector, ro)
}

func TestColdBoxNeedsFourTPCs(t *testing.T) {
	cryostats := verticalDriftCryostat(4, 2, 6, 2*pitch)
	detector := sorted(t, cryostats, geometry.SorterFor(channelmap.ReadoutColdBox, cryostats))
	_, err := wirereadout.Build(detector, channelmap.ReadoutColdBox)
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func TestBuildUnknownVariant(t *testing.T) {
	detector := sorted(t, coldBox(4, 1), geometry.CRUSorter{})
	_, err := wirereadout.Build(detector, channelmap.ReadoutVariant(9))
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func TestTopologies(t *testing.T) {
	detector := sorted(t, verticalDriftCryostat(2, 2, 4, pitch), geometry.CRUSorter{DriftAxis: geometry.CoordX})

	sets, err := wirereadout.PerTPC{}.Group(detector.Cryostats())
	require.NoError(t, err)
	require.Len(t, sets[0], 4)

	sets, err = wirereadout.Pairs{}.Group(detector.Cryostats())
	require.NoError(t, err)
	require.Equal(t, [][]geometry.TPCID{{{TPC: 0}, {TPC: 2}}, {{TPC: 1}, {TPC: 3}}}, sets[0])

	sets, err = wirereadout.Quads{}.Group(detector.Cryostats())
	require.NoError(t, err)
	require.Equal(t, [][]geometry.TPCID{{{TPC: 0}, {TPC: 1}, {TPC: 2}, {TPC: 3}}}, sets[0])
}

func TestTPCInTwoSets(t *testing.T) {
	detector := sorted(t, verticalDriftCryostat(2, 2, 4, pitch), geometry.CRUSorter{DriftAxis: geometry.CoordX})
	_, err := wirereadout.NewROPReadout(detector, overlapping{}, wirereadout.Contiguous{})
	require.ErrorIs(t, err, channelmap.ErrLogic)
}

type overlapping struct{}

func (overlapping) Group(cryostats []geometry.Cryostat) ([][][]geometry.TPCID, error) {
	tpcs := cryostats[0].TPCs
	return [][][]geometry.TPCID{{{tpcs[0].ID, tpcs[1].ID}, {tpcs[1].ID, tpcs[2].ID}}}, nil
}
