package geometry

import (
	"fmt"
	"io"
	"os"

	channelmap "github.com/dune/channelmap_go/pkg"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Vec is a point written as [x, y, z].
type Vec [3]float64

func (v Vec) vec() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Description is the YAML form of a detector. Wires are listed one by one
// or produced by a repeat block that steps a first wire Count times.
type Description struct {
	Name      string                `yaml:"name"`
	Cryostats []CryostatDescription `yaml:"cryostats"`
}

type CryostatDescription struct {
	Center Vec              `yaml:"center"`
	TPCs   []TPCDescription `yaml:"tpcs"`
}

type TPCDescription struct {
	Center Vec                `yaml:"center"`
	Drift  string             `yaml:"drift"`
	Planes []PlaneDescription `yaml:"planes"`
}

type PlaneDescription struct {
	View   string             `yaml:"view"`
	Wires  []WireDescription  `yaml:"wires"`
	Repeat *RepeatDescription `yaml:"repeat"`
}

type WireDescription struct {
	Start Vec `yaml:"start"`
	End   Vec `yaml:"end"`
}

type RepeatDescription struct {
	Start Vec `yaml:"start"`
	End   Vec `yaml:"end"`
	Step  Vec `yaml:"step"`
	Count int `yaml:"count"`
}

// ParseDrift reads a drift direction such as "-x".
func ParseDrift(s string) (Drift, error) {
	if len(s) != 2 {
		return Drift{}, fmt.Errorf("invalid drift: %q", s)
	}
	var d Drift
	switch s[0] {
	case '+':
		d.Sign = 1
	case '-':
		d.Sign = -1
	default:
		return Drift{}, fmt.Errorf("invalid drift: %q", s)
	}
	switch s[1] {
	case 'x', 'X':
		d.Axis = CoordX
	case 'y', 'Y':
		d.Axis = CoordY
	case 'z', 'Z':
		d.Axis = CoordZ
	default:
		return Drift{}, fmt.Errorf("invalid drift: %q", s)
	}
	return d, nil
}

func ReadDescription(r io.Reader, source string) (Description, error) {
	var d Description
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return d, &channelmap.ConfigurationError{Source: source, Message: "cannot decode geometry", Err: err}
	}
	if d.Name == "" {
		d.Name = source
	}
	return d, nil
}

func LoadDescription(filename string) (Description, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Description{}, &channelmap.ConfigurationError{
			Source:  filename,
			Message: "cannot open geometry file",
			Err:     &channelmap.ErrOpenFile{Filename: filename, Err: err},
		}
	}
	defer file.Close()
	return ReadDescription(file, filename)
}

// Build converts the description into unsorted cryostats.
func (d Description) Build() ([]Cryostat, error) {
	cryostats := make([]Cryostat, len(d.Cryostats))
	for i, cd := range d.Cryostats {
		cryostats[i] = Cryostat{Center: cd.Center.vec()}
		for j, td := range cd.TPCs {
			drift, err := ParseDrift(td.Drift)
			if err != nil {
				return nil, &channelmap.ConfigurationError{
					Source:  d.Name,
					Message: fmt.Sprintf("cryostat %d TPC %d", i, j),
					Err:     err,
				}
			}
			tpc := TPC{Center: td.Center.vec(), Drift: drift}
			for k, pd := range td.Planes {
				view, err := ParseView(pd.View)
				if err != nil {
					return nil, &channelmap.ConfigurationError{
						Source:  d.Name,
						Message: fmt.Sprintf("cryostat %d TPC %d plane %d", i, j, k),
						Err:     err,
					}
				}
				tpc.Planes = append(tpc.Planes, Plane{View: view, Wires: pd.wires()})
			}
			cryostats[i].TPCs = append(cryostats[i].TPCs, tpc)
		}
	}
	return cryostats, nil
}

func (pd PlaneDescription) wires() []Wire {
	wires := make([]Wire, 0, len(pd.Wires))
	for _, wd := range pd.Wires {
		wires = append(wires, Wire{Start: wd.Start.vec(), End: wd.End.vec()})
	}
	if pd.Repeat != nil {
		step := pd.Repeat.Step.vec()
		for n := 0; n < pd.Repeat.Count; n++ {
			shift := r3.Scale(float64(n), step)
			wires = append(wires, Wire{
				Start: r3.Add(pd.Repeat.Start.vec(), shift),
				End:   r3.Add(pd.Repeat.End.vec(), shift),
			})
		}
	}
	return wires
}

// LoadDetector reads a geometry file and sorts it for a readout variant.
func LoadDetector(filename string, variant channelmap.ReadoutVariant) (*Detector, error) {
	description, err := LoadDescription(filename)
	if err != nil {
		return nil, err
	}
	cryostats, err := description.Build()
	if err != nil {
		return nil, err
	}
	return NewDetector(description.Name, cryostats, SorterFor(variant, cryostats))
}
