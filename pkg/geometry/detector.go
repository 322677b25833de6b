package geometry

import (
	"fmt"
	"math"
	"sort"

	channelmap "github.com/dune/channelmap_go/pkg"
	"gonum.org/v1/gonum/spatial/r3"
)

// Source supplies the sorted, numbered elements of a detector.
type Source interface {
	Cryostats() []Cryostat
}

// Detector is a Source built from an unordered description.
type Detector struct {
	Name      string
	cryostats []Cryostat
}

// NewDetector copies the description, sorts every level with the sorter
// and numbers cryostats, TPCs, planes and wires in that order. Every TPC
// must have a known drift direction.
func NewDetector(name string, cryostats []Cryostat, sorter Sorter) (*Detector, error) {
	sorted := make([]Cryostat, len(cryostats))
	for i, c := range cryostats {
		sorted[i] = c
		sorted[i].TPCs = make([]TPC, len(c.TPCs))
		for j, t := range c.TPCs {
			if !t.Drift.Known() {
				return nil, channelmap.NewConfigurationError(name, 0, "TPC %d of cryostat %d has unknown drift direction", j, i)
			}
			sorted[i].TPCs[j] = t
			sorted[i].TPCs[j].Planes = make([]Plane, len(t.Planes))
			for k, p := range t.Planes {
				sorted[i].TPCs[j].Planes[k] = p
				sorted[i].TPCs[j].Planes[k].Wires = append([]Wire(nil), p.Wires...)
			}
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorter.LessCryostats(&sorted[i], &sorted[j])
	})
	for c := range sorted {
		cryo := &sorted[c]
		cryo.ID = uint32(c)
		sort.SliceStable(cryo.TPCs, func(i, j int) bool {
			return sorter.LessTPCs(&cryo.TPCs[i], &cryo.TPCs[j])
		})
		for t := range cryo.TPCs {
			tpc := &cryo.TPCs[t]
			tpc.ID = TPCID{Cryostat: uint32(c), TPC: uint32(t)}
			sort.SliceStable(tpc.Planes, func(i, j int) bool {
				return sorter.LessPlanes(&tpc.Planes[i], &tpc.Planes[j], tpc.Drift)
			})
			for p := range tpc.Planes {
				plane := &tpc.Planes[p]
				plane.ID = PlaneID{TPCID: tpc.ID, Plane: uint32(p)}
				sort.SliceStable(plane.Wires, func(i, j int) bool {
					return sorter.LessWires(&plane.Wires[i], &plane.Wires[j])
				})
			}
		}
	}
	return &Detector{Name: name, cryostats: sorted}, nil
}

func (d *Detector) Cryostats() []Cryostat {
	return d.cryostats
}

func (d *Detector) TPC(id TPCID) (*TPC, bool) {
	if int(id.Cryostat) >= len(d.cryostats) {
		return nil, false
	}
	cryo := &d.cryostats[id.Cryostat]
	if int(id.TPC) >= len(cryo.TPCs) {
		return nil, false
	}
	return &cryo.TPCs[id.TPC], true
}

func (d *Detector) Plane(id PlaneID) (*Plane, bool) {
	tpc, ok := d.TPC(id.TPCID)
	if !ok || int(id.Plane) >= len(tpc.Planes) {
		return nil, false
	}
	return &tpc.Planes[id.Plane], true
}

func (d *Detector) Wire(id WireID) (Wire, bool) {
	plane, ok := d.Plane(id.PlaneID)
	if !ok || int(id.Wire) >= len(plane.Wires) {
		return Wire{}, false
	}
	return plane.Wires[id.Wire], true
}

// NearestWire returns the wire of the plane whose line passes closest to
// point. A plane without wires, or two wires at the same distance, is a
// configuration error.
func (p *Plane) NearestWire(point r3.Vec) (uint32, error) {
	if len(p.Wires) == 0 {
		return 0, channelmap.NewConfigurationError(p.ID.String(), 0, "plane has no wires")
	}
	best := 0
	bestDistance, secondDistance := math.Inf(1), math.Inf(1)
	for i, w := range p.Wires {
		d := w.DistanceTo(point)
		if d < bestDistance {
			best, bestDistance, secondDistance = i, d, bestDistance
		} else if d < secondDistance {
			secondDistance = d
		}
	}
	if secondDistance-bestDistance < wireTolerance {
		return 0, channelmap.NewConfigurationError(p.ID.String(), 0,
			"no single wire nearest to (%g, %g, %g)", point.X, point.Y, point.Z)
	}
	return uint32(best), nil
}

// pitchAxis returns the unit vector across the wires, pointing from wire 0
// to wire 1, and the distance between the two along it.
func (p *Plane) pitchAxis() (r3.Vec, float64, error) {
	if len(p.Wires) < 2 {
		return r3.Vec{}, 0, channelmap.NewConfigurationError(p.ID.String(), 0, "plane with %d wires has no pitch", len(p.Wires))
	}
	direction := p.Wires[0].Delta()
	if r3.Norm(direction) < wireTolerance {
		return r3.Vec{}, 0, channelmap.NewConfigurationError(p.ID.String(), 0, "wire 0 has no length")
	}
	direction = r3.Unit(direction)
	step := r3.Sub(p.Wires[1].Center(), p.Wires[0].Center())
	across := r3.Sub(step, r3.Scale(r3.Dot(step, direction), direction))
	pitch := r3.Norm(across)
	if pitch < wireTolerance {
		return r3.Vec{}, 0, channelmap.NewConfigurationError(p.ID.String(), 0, "wires 0 and 1 overlap")
	}
	return r3.Scale(1/pitch, across), pitch, nil
}

// Pitch is the distance between adjacent wires, measured across them.
func (p *Plane) Pitch() (float64, error) {
	_, pitch, err := p.pitchAxis()
	return pitch, err
}

// WireCoordinate is the position of point across the plane in units of
// the pitch, with wire w at w. Wires are assumed evenly spaced.
func (p *Plane) WireCoordinate(point r3.Vec) (float64, error) {
	axis, pitch, err := p.pitchAxis()
	if err != nil {
		return 0, err
	}
	return r3.Dot(r3.Sub(point, p.Wires[0].Center()), axis) / pitch, nil
}

// ClosestWire rounds the wire coordinate of point. A point more than half
// a pitch outside the plane is out of range.
func (p *Plane) ClosestWire(point r3.Vec) (uint32, error) {
	coordinate, err := p.WireCoordinate(point)
	if err != nil {
		return 0, err
	}
	w := math.Round(coordinate)
	if w < 0 || w >= float64(len(p.Wires)) {
		return 0, fmt.Errorf("point (%g, %g, %g) at wire coordinate %g of plane %s: %w",
			point.X, point.Y, point.Z, coordinate, p.ID, channelmap.ErrOutOfRange)
	}
	return uint32(w), nil
}
