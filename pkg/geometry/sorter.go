package geometry

import (
	"math"

	channelmap "github.com/dune/channelmap_go/pkg"
)

const (
	// tolerance on wire coordinates, cm
	wireTolerance = 1e-4
	// tolerance on TPC centres, cm
	tpcTolerance = 0.001
	// wires steeper than this angle to z belong to the U view
	uViewThetaZ = 1.57
)

// Sorter orders the elements of a detector. Each method reports whether a
// sorts before b.
type Sorter interface {
	LessCryostats(a, b *Cryostat) bool
	LessTPCs(a, b *TPC) bool
	LessPlanes(a, b *Plane, drift Drift) bool
	LessWires(a, b *Wire) bool
}

// planesAlongDrift puts first the plane drifting charge reaches first.
func planesAlongDrift(a, b *Plane, drift Drift) bool {
	return float64(drift.Sign)*drift.Axis.Of(a.Center()) < float64(drift.Sign)*drift.Axis.Of(b.Center())
}

// APASorter orders horizontal drift detectors read by wrapped-wire APAs.
type APASorter struct{}

func (APASorter) LessCryostats(a, b *Cryostat) bool {
	return a.Center.X < b.Center.X
}

func (APASorter) LessTPCs(a, b *TPC) bool {
	if a.Center.Z != b.Center.Z {
		return a.Center.Z < b.Center.Z
	}
	if a.Center.Y != b.Center.Y {
		return a.Center.Y < b.Center.Y
	}
	return a.Center.X < b.Center.X
}

func (APASorter) LessPlanes(a, b *Plane, drift Drift) bool {
	return planesAlongDrift(a, b, drift)
}

// LessWires counts wires of the upper TPCs from the top down and of the
// lower TPCs from the bottom up.
func (APASorter) LessWires(a, b *Wire) bool {
	ca, cb := a.Center(), b.Center()
	if ca.Y > 0 && ca.Y > cb.Y {
		return true
	}
	if ca.Y < 0 && ca.Y < cb.Y {
		return true
	}
	return ca.Y == cb.Y && ca.Z < cb.Z
}

// CRUSorter orders vertical drift detectors read by charge readout units.
// DriftAxis is the drift coordinate shared by every TPC.
type CRUSorter struct {
	DriftAxis Coordinate
	// SplitViews sorts angled wires of the V view by decreasing z.
	SplitViews bool
}

func (s CRUSorter) LessCryostats(a, b *Cryostat) bool {
	return a.Center.X < b.Center.X
}

func (s CRUSorter) LessTPCs(a, b *TPC) bool {
	da, db := s.DriftAxis.Of(a.Center), s.DriftAxis.Of(b.Center)
	if math.Abs(da-db) > tpcTolerance {
		return da < db
	}
	if math.Abs(a.Center.Z-b.Center.Z) > tpcTolerance {
		return a.Center.Z < b.Center.Z
	}
	if s.DriftAxis == CoordX {
		return a.Center.Y < b.Center.Y
	}
	return a.Center.X > b.Center.X
}

func (s CRUSorter) LessPlanes(a, b *Plane, drift Drift) bool {
	return planesAlongDrift(a, b, drift)
}

// transverse is the in-plane coordinate orthogonal to z.
func (s CRUSorter) transverse() Coordinate {
	if s.DriftAxis == CoordY {
		return CoordX
	}
	return CoordY
}

func (s CRUSorter) LessWires(a, b *Wire) bool {
	ca, cb := a.Center(), b.Center()
	delta := a.Delta()
	t := s.transverse()
	dt := t.Of(delta)

	if math.Abs(delta.Z) < wireTolerance {
		return ca.Z < cb.Z
	}
	if math.Abs(dt) < wireTolerance {
		return t.Of(ca) < t.Of(cb)
	}
	// the V view of split sorters runs against z
	reversed := s.SplitViews && a.ThetaZ() <= uViewThetaZ
	if math.Abs(cb.Z-ca.Z) < wireTolerance {
		if delta.Z < 0 {
			dt = -dt
		}
		if reversed {
			dt = -dt
		}
		if dt < 0 {
			return t.Of(ca) < t.Of(cb)
		}
		if dt > 0 {
			return t.Of(ca) > t.Of(cb)
		}
	}
	if reversed {
		return ca.Z > cb.Z
	}
	return ca.Z < cb.Z
}

// SorterFor returns the sorter used by a readout variant. Vertical drift
// sorters take their drift axis from the first TPC.
func SorterFor(variant channelmap.ReadoutVariant, cryostats []Cryostat) Sorter {
	axis := CoordX
	for _, c := range cryostats {
		if len(c.TPCs) > 0 {
			axis = c.TPCs[0].Drift.Axis
			break
		}
	}
	switch variant {
	case channelmap.ReadoutCRP:
		return CRUSorter{DriftAxis: axis, SplitViews: true}
	case channelmap.ReadoutCRU, channelmap.ReadoutColdBox:
		return CRUSorter{DriftAxis: axis}
	}
	return APASorter{}
}
