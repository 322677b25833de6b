// Package geometry describes the wire planes of a detector and orders them
// so that wires, planes, TPCs and cryostats receive stable numbers.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Coordinate int

const (
	CoordX Coordinate = iota
	CoordY
	CoordZ
)

var coordinateStrings = []string{"x", "y", "z"}

func (c Coordinate) String() string {
	if c < CoordX || c > CoordZ {
		return "UNKNOWN"
	}
	return coordinateStrings[c]
}

// Of returns the component of p along the coordinate.
func (c Coordinate) Of(p r3.Vec) float64 {
	switch c {
	case CoordX:
		return p.X
	case CoordY:
		return p.Y
	}
	return p.Z
}

// Drift is the axis and direction electrons drift along in a TPC. A zero
// sign means the direction is unknown.
type Drift struct {
	Axis Coordinate
	Sign int
}

func (d Drift) Known() bool {
	return d.Sign == 1 || d.Sign == -1
}

func (d Drift) String() string {
	switch d.Sign {
	case 1:
		return "+" + d.Axis.String()
	case -1:
		return "-" + d.Axis.String()
	}
	return "unknown"
}

type View int

const (
	ViewUnknown View = iota
	ViewU
	ViewV
	ViewZ
)

var viewStrings = []string{"unknown", "U", "V", "Z"}

func (v View) String() string {
	if v < ViewUnknown || v > ViewZ {
		return "unknown"
	}
	return viewStrings[v]
}

// ParseView accepts U, V, Z and the collection aliases Y, W and X.
func ParseView(s string) (View, error) {
	switch s {
	case "U", "u":
		return ViewU, nil
	case "V", "v":
		return ViewV, nil
	case "Z", "z", "Y", "y", "W", "w", "X", "x":
		return ViewZ, nil
	}
	return ViewUnknown, fmt.Errorf("invalid view: %s", s)
}

type TPCID struct {
	Cryostat uint32
	TPC      uint32
}

func (id TPCID) String() string {
	return fmt.Sprintf("C:%d T:%d", id.Cryostat, id.TPC)
}

type PlaneID struct {
	TPCID
	Plane uint32
}

func (id PlaneID) String() string {
	return fmt.Sprintf("C:%d T:%d P:%d", id.Cryostat, id.TPC, id.Plane)
}

type WireID struct {
	PlaneID
	Wire uint32
}

func (id WireID) String() string {
	return fmt.Sprintf("C:%d T:%d P:%d W:%d", id.Cryostat, id.TPC, id.Plane, id.Wire)
}

type Wire struct {
	Start r3.Vec
	End   r3.Vec
}

func (w Wire) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(w.Start, w.End))
}

// Delta is the vector from the start to the end of the wire.
func (w Wire) Delta() r3.Vec {
	return r3.Sub(w.End, w.Start)
}

func (w Wire) Length() float64 {
	return r3.Norm(w.Delta())
}

// ThetaZ is the angle between the wire and the z axis.
func (w Wire) ThetaZ() float64 {
	length := w.Length()
	if length == 0 {
		return 0
	}
	cos := w.Delta().Z / length
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// DistanceTo returns the distance from p to the line through the wire.
func (w Wire) DistanceTo(p r3.Vec) float64 {
	d := w.Delta()
	length := r3.Norm(d)
	if length == 0 {
		return r3.Norm(r3.Sub(p, w.Start))
	}
	return r3.Norm(r3.Cross(r3.Sub(p, w.Start), d)) / length
}

type Plane struct {
	ID    PlaneID
	View  View
	Wires []Wire
}

func (p *Plane) NWires() int {
	return len(p.Wires)
}

// Center is the mean of the wire centres.
func (p *Plane) Center() r3.Vec {
	var c r3.Vec
	if len(p.Wires) == 0 {
		return c
	}
	for _, w := range p.Wires {
		c = r3.Add(c, w.Center())
	}
	return r3.Scale(1/float64(len(p.Wires)), c)
}

func (p *Plane) LastWire() Wire {
	return p.Wires[len(p.Wires)-1]
}

type TPC struct {
	ID     TPCID
	Center r3.Vec
	Drift  Drift
	Planes []Plane
}

func (t *TPC) NPlanes() int {
	return len(t.Planes)
}

type Cryostat struct {
	ID     uint32
	Center r3.Vec
	TPCs   []TPC
}

func (c *Cryostat) NTPCs() int {
	return len(c.TPCs)
}

// Intersect returns where the two wires cross when seen along their common
// normal, halfway between them. Parallel wires, or wires whose crossing is
// beyond the end of either, do not intersect.
func (w Wire) Intersect(other Wire) (r3.Vec, bool) {
	da, db := w.Delta(), other.Delta()
	a, b, c := r3.Dot(da, da), r3.Dot(da, db), r3.Dot(db, db)
	denom := a*c - b*b
	if a == 0 || c == 0 || denom <= intersectTolerance*a*c {
		return r3.Vec{}, false
	}
	offset := r3.Sub(w.Start, other.Start)
	d, e := r3.Dot(da, offset), r3.Dot(db, offset)
	s := (b*e - c*d) / denom
	t := (a*e - b*d) / denom
	if s < -intersectTolerance || s > 1+intersectTolerance || t < -intersectTolerance || t > 1+intersectTolerance {
		return r3.Vec{}, false
	}
	onW := r3.Add(w.Start, r3.Scale(s, da))
	onOther := r3.Add(other.Start, r3.Scale(t, db))
	return r3.Scale(0.5, r3.Add(onW, onOther)), true
}

const intersectTolerance = 1e-9
