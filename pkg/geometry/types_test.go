package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
)

func TestParseView(t *testing.T) {
	for s, want := range map[string]geometry.View{"U": geometry.ViewU, "v": geometry.ViewV, "Z": geometry.ViewZ, "W": geometry.ViewZ, "y": geometry.ViewZ} {
		view, err := geometry.ParseView(s)
		require.NoError(t, err, s)
		require.Equal(t, want, view, s)
	}
	_, err := geometry.ParseView("T")
	require.Error(t, err)
	require.Equal(t, "unknown", geometry.View(9).String())
}

func TestDrift(t *testing.T) {
	d, err := geometry.ParseDrift("+x")
	require.NoError(t, err)
	require.Equal(t, geometry.Drift{Axis: geometry.CoordX, Sign: 1}, d)
	require.Equal(t, "+x", d.String())

	d, err = geometry.ParseDrift("-Z")
	require.NoError(t, err)
	require.Equal(t, geometry.Drift{Axis: geometry.CoordZ, Sign: -1}, d)

	for _, s := range []string{"", "x", "*x", "+q", "+xx"} {
		_, err := geometry.ParseDrift(s)
		require.Error(t, err, s)
	}
	require.False(t, geometry.Drift{}.Known())
	require.Equal(t, "unknown", geometry.Drift{}.String())
}

func TestWire(t *testing.T) {
	w := geometry.Wire{Start: r3.Vec{X: 0, Y: -10, Z: 10}, End: r3.Vec{X: 0, Y: 10, Z: -10}}
	require.Equal(t, r3.Vec{}, w.Center())
	require.InDelta(t, math.Sqrt(800), w.Length(), 1e-9)
	require.InDelta(t, 3*math.Pi/4, w.ThetaZ(), 1e-9)

	vertical := geometry.Wire{Start: r3.Vec{Y: -1, Z: 2}, End: r3.Vec{Y: 1, Z: 2}}
	require.InDelta(t, math.Pi/2, vertical.ThetaZ(), 1e-9)
	require.InDelta(t, 1.5, vertical.DistanceTo(r3.Vec{Y: 30, Z: 3.5}), 1e-9)

	point := geometry.Wire{Start: r3.Vec{X: 1}, End: r3.Vec{X: 1}}
	require.InDelta(t, 1, point.DistanceTo(r3.Vec{}), 1e-9)
	require.Equal(t, 0.0, point.ThetaZ())
}

func verticalWires(zs ...float64) []geometry.Wire {
	wires := make([]geometry.Wire, len(zs))
	for i, z := range zs {
		wires[i] = geometry.Wire{Start: r3.Vec{Y: -5, Z: z}, End: r3.Vec{Y: 5, Z: z}}
	}
	return wires
}

func TestNearestWire(t *testing.T) {
	plane := &geometry.Plane{View: geometry.ViewZ, Wires: verticalWires(0, 1, 2)}

	w, err := plane.NearestWire(r3.Vec{Y: 100, Z: 1.2})
	require.NoError(t, err)
	require.Equal(t, uint32(1), w)

	w, err = plane.NearestWire(r3.Vec{Z: -7})
	require.NoError(t, err)
	require.Equal(t, uint32(0), w)

	_, err = plane.NearestWire(r3.Vec{Z: 0.5})
	require.ErrorIs(t, err, channelmap.ErrConfiguration)

	empty := &geometry.Plane{}
	_, err = empty.NearestWire(r3.Vec{})
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func TestWireCoordinate(t *testing.T) {
	plane := &geometry.Plane{View: geometry.ViewZ, Wires: verticalWires(0, 1, 2)}

	pitch, err := plane.Pitch()
	require.NoError(t, err)
	require.InDelta(t, 1.0, pitch, 1e-12)

	coordinate, err := plane.WireCoordinate(r3.Vec{X: 7, Y: 40, Z: 1.2})
	require.NoError(t, err)
	require.InDelta(t, 1.2, coordinate, 1e-12)

	w, err := plane.ClosestWire(r3.Vec{Z: 2.4})
	require.NoError(t, err)
	require.Equal(t, uint32(2), w)

	_, err = plane.ClosestWire(r3.Vec{Z: 2.6})
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)
	_, err = plane.ClosestWire(r3.Vec{Z: -0.6})
	require.ErrorIs(t, err, channelmap.ErrOutOfRange)

	single := &geometry.Plane{Wires: verticalWires(0)}
	_, err = single.Pitch()
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
	_, err = single.ClosestWire(r3.Vec{})
	require.ErrorIs(t, err, channelmap.ErrConfiguration)
}

func TestSlantedWireCoordinate(t *testing.T) {
	// wires along (0, 1, 1) spaced by 1 in z are sqrt(1/2) apart
	plane := &geometry.Plane{View: geometry.ViewV}
	for z := 0.0; z < 4; z++ {
		plane.Wires = append(plane.Wires, geometry.Wire{Start: r3.Vec{Y: -1, Z: z - 1}, End: r3.Vec{Y: 1, Z: z + 1}})
	}
	pitch, err := plane.Pitch()
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(0.5), pitch, 1e-12)

	coordinate, err := plane.WireCoordinate(r3.Vec{Y: 0.5, Z: 3.5})
	require.NoError(t, err)
	require.InDelta(t, 3.0, coordinate, 1e-12)
}

func TestWireIntersect(t *testing.T) {
	vertical := geometry.Wire{Start: r3.Vec{X: 1, Y: -5, Z: 2}, End: r3.Vec{X: 1, Y: 5, Z: 2}}
	slanted := geometry.Wire{Start: r3.Vec{X: 3, Y: -2, Z: 0}, End: r3.Vec{X: 3, Y: 2, Z: 4}}

	point, ok := vertical.Intersect(slanted)
	require.True(t, ok)
	require.InDelta(t, 2.0, point.X, 1e-12)
	require.InDelta(t, 0.0, point.Y, 1e-12)
	require.InDelta(t, 2.0, point.Z, 1e-12)

	short := geometry.Wire{Start: r3.Vec{X: 3, Y: -2, Z: 0}, End: r3.Vec{X: 3, Y: -1, Z: 1}}
	_, ok = vertical.Intersect(short)
	require.False(t, ok)

	parallel := geometry.Wire{Start: r3.Vec{X: 3, Y: -5, Z: 3}, End: r3.Vec{X: 3, Y: 5, Z: 3}}
	_, ok = vertical.Intersect(parallel)
	require.False(t, ok)
}

func TestPlaneCenter(t *testing.T) {
	plane := &geometry.Plane{Wires: verticalWires(0, 1, 2)}
	require.Equal(t, r3.Vec{Z: 1}, plane.Center())
	require.Equal(t, 3, plane.NWires())
	require.Equal(t, r3.Vec{Z: 2}, plane.LastWire().Center())
	require.Equal(t, r3.Vec{}, (&geometry.Plane{}).Center())
}

func TestIDStrings(t *testing.T) {
	id := geometry.WireID{PlaneID: geometry.PlaneID{TPCID: geometry.TPCID{Cryostat: 1, TPC: 2}, Plane: 0}, Wire: 7}
	require.Equal(t, "C:1 T:2 P:0 W:7", id.String())
	require.Equal(t, "C:1 T:2 P:0", id.PlaneID.String())
	require.Equal(t, "C:1 T:2", id.TPCID.String())
}
