package wirereadout

import (
	"fmt"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// wirePlanes answers the geometric queries of a readout.
type wirePlanes map[geometry.PlaneID]*geometry.Plane

func newWirePlanes(cryostats []geometry.Cryostat) wirePlanes {
	planes := make(wirePlanes)
	for c := range cryostats {
		for t := range cryostats[c].TPCs {
			tpc := &cryostats[c].TPCs[t]
			for p := range tpc.Planes {
				planes[tpc.Planes[p].ID] = &tpc.Planes[p]
			}
		}
	}
	return planes
}

func (wp wirePlanes) plane(id geometry.PlaneID) (*geometry.Plane, error) {
	plane, ok := wp[id]
	if !ok {
		return nil, fmt.Errorf("plane %s: %w", id, channelmap.ErrOutOfRange)
	}
	return plane, nil
}

// WireCoordinate is the position of point across a plane in units of its
// pitch.
func (wp wirePlanes) WireCoordinate(point r3.Vec, id geometry.PlaneID) (float64, error) {
	plane, err := wp.plane(id)
	if err != nil {
		return 0, err
	}
	return plane.WireCoordinate(point)
}

// NearestWireID returns the wire of a plane closest to point, counted in
// pitches.
func (wp wirePlanes) NearestWireID(point r3.Vec, id geometry.PlaneID) (geometry.WireID, error) {
	plane, err := wp.plane(id)
	if err != nil {
		return geometry.WireID{}, err
	}
	w, err := plane.ClosestWire(point)
	if err != nil {
		return geometry.WireID{}, err
	}
	return geometry.WireID{PlaneID: id, Wire: w}, nil
}

// intersect finds the first crossing between a wire of first and a wire of
// second lying in a different plane of the same TPC.
func (wp wirePlanes) intersect(first, second []geometry.WireID) (r3.Vec, bool) {
	for _, a := range first {
		for _, b := range second {
			if a.TPCID != b.TPCID || a.Plane == b.Plane {
				continue
			}
			pa, pb := wp[a.PlaneID], wp[b.PlaneID]
			if pa == nil || pb == nil {
				continue
			}
			if point, ok := pa.Wires[a.Wire].Intersect(pb.Wires[b.Wire]); ok {
				return point, true
			}
		}
	}
	return r3.Vec{}, false
}

type channelWires interface {
	ChannelToWire(c uint32) ([]geometry.WireID, error)
}

func channelsIntersect(ro channelWires, planes wirePlanes, c1, c2 uint32) (r3.Vec, bool) {
	first, err := ro.ChannelToWire(c1)
	if err != nil {
		return r3.Vec{}, false
	}
	second, err := ro.ChannelToWire(c2)
	if err != nil {
		return r3.Vec{}, false
	}
	return planes.intersect(first, second)
}
