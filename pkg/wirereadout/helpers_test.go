package wirereadout_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dune/channelmap_go/pkg/geometry"
	"github.com/dune/channelmap_go/pkg/wirereadout"
)

const pitch = 1.0

func wireAt(center, direction r3.Vec) geometry.Wire {
	half := r3.Scale(0.5, direction)
	return geometry.Wire{Start: r3.Sub(center, half), End: r3.Add(center, half)}
}

// stepPlane lays n parallel wires along z from z0, listed last to first.
func stepPlane(view geometry.View, x, y, z0 float64, n int, direction r3.Vec) geometry.Plane {
	plane := geometry.Plane{View: view}
	for k := n - 1; k >= 0; k-- {
		plane.Wires = append(plane.Wires, wireAt(r3.Vec{X: x, Y: y, Z: z0 + float64(k)*pitch}, direction))
	}
	return plane
}

// apaPlane builds an APA plane whose first anchored wires climb in z and
// whose wrapped wires then share z pairwise. Z planes are vertical.
func apaPlane(view geometry.View, x, z0 float64, nWires, anchored int) geometry.Plane {
	plane := geometry.Plane{View: view}
	for w := nWires - 1; w >= 0; w-- {
		if view == geometry.ViewZ {
			plane.Wires = append(plane.Wires, wireAt(r3.Vec{X: x, Y: 50, Z: z0 + float64(w)}, r3.Vec{Y: 10}))
			continue
		}
		z := z0 + float64(min(w, anchored))
		plane.Wires = append(plane.Wires, wireAt(r3.Vec{X: x, Y: float64(nWires - w), Z: z}, r3.Vec{Y: 1, Z: 1}))
	}
	return plane
}

// apaCryostats lays out cryostats of APAs, each APA with a TPC on either
// side drifting towards it.
func apaCryostats(nCryostats, nAPAs int, wires, anchored [3]int) []geometry.Cryostat {
	views := [3]geometry.View{geometry.ViewU, geometry.ViewV, geometry.ViewZ}
	cryostats := make([]geometry.Cryostat, 0, nCryostats)
	for c := nCryostats - 1; c >= 0; c-- {
		cx := float64(c) * 1000
		cryo := geometry.Cryostat{Center: r3.Vec{X: cx}}
		for a := 0; a < nAPAs; a++ {
			az := float64(a) * 1000
			for _, side := range []float64{1, -1} {
				tpc := geometry.TPC{
					Center: r3.Vec{X: cx + side*50, Z: az},
					Drift:  geometry.Drift{Axis: geometry.CoordX, Sign: -int(side)},
				}
				for p := 2; p >= 0; p-- {
					x := cx + side*float64(3-p)
					tpc.Planes = append(tpc.Planes, apaPlane(views[p], x, az, wires[p], anchored[p]))
				}
				cryo.TPCs = append(cryo.TPCs, tpc)
			}
		}
		cryostats = append(cryostats, cryo)
	}
	return cryostats
}

// verticalDriftTPC builds a TPC of a charge readout plane at (iz, iy).
// U wires run along (0, 1, -1) and V wires along (0, 1, 1); the U plane
// starts uShift wires further along z.
func verticalDriftTPC(iz, iy, n int, height float64, uShift int) geometry.TPC {
	length := float64(n) * pitch
	y := float64(iy)*height + height/2
	z0 := float64(iz) * length
	return geometry.TPC{
		Center: r3.Vec{X: -50, Y: y, Z: z0 + length/2},
		Drift:  geometry.Drift{Axis: geometry.CoordX, Sign: 1},
		Planes: []geometry.Plane{
			stepPlane(geometry.ViewZ, -1, y, z0, n, r3.Vec{Y: 2}),
			stepPlane(geometry.ViewV, -2, y, z0, n, r3.Vec{Y: 1, Z: 1}),
			stepPlane(geometry.ViewU, -3, y, z0+float64(uShift)*pitch, n, r3.Vec{Y: 1, Z: -1}),
		},
	}
}

func verticalDriftCryostat(nZ, nY, n int, height float64) []geometry.Cryostat {
	cryo := geometry.Cryostat{}
	for iz := nZ - 1; iz >= 0; iz-- {
		for iy := 0; iy < nY; iy++ {
			cryo.TPCs = append(cryo.TPCs, verticalDriftTPC(iz, iy, n, height, 0))
		}
	}
	return []geometry.Cryostat{cryo}
}

func sorted(t *testing.T, cryostats []geometry.Cryostat, sorter geometry.Sorter) *geometry.Detector {
	t.Helper()
	detector, err := geometry.NewDetector("test", cryostats, sorter)
	require.NoError(t, err)
	return detector
}

// requirePartition checks that every channel is read by at least one
// wire and that every wire reads a channel mapping back to it.
func requirePartition(t *testing.T, src geometry.Source, ro wirereadout.Readout) {
	t.Helper()
	for _, cryo := range src.Cryostats() {
		for _, tpc := range cryo.TPCs {
			for _, plane := range tpc.Planes {
				for w := range plane.Wires {
					id := geometry.WireID{PlaneID: plane.ID, Wire: uint32(w)}
					c, err := ro.PlaneWireToChannel(id)
					require.NoError(t, err)
					wires, err := ro.ChannelToWire(c)
					require.NoError(t, err)
					require.Contains(t, wires, id, "channel %d", c)
				}
			}
		}
	}
	for c := uint32(0); c < ro.NChannels(); c++ {
		wires, err := ro.ChannelToWire(c)
		require.NoError(t, err)
		require.NotEmpty(t, wires, "channel %d", c)
	}
}
