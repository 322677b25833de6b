package channelmap

import (
	"cmp"
	"strings"

	"golang.org/x/exp/slices"
)

// CrateEntry is one line of a crate list.
type CrateEntry struct {
	Crate   uint32
	APAName string
	Line    int
}

// CrateDescriptor is what the map knows about an installed crate.
type CrateDescriptor struct {
	Crate   uint32
	APAName string
	Upright uint32
	TPCSet  uint32
}

// CrateTopology maps crates to the TPC sets they read and back. It is
// immutable once built.
type CrateTopology struct {
	byCrate      map[uint32]CrateDescriptor
	byTPCSet     map[uint32]uint32
	defaultCrate uint32
}

type crateOptions struct {
	defaultCrate    uint32
	hasDefaultCrate bool
	nTPCSets        uint32
}

type CrateOption func(*crateOptions)

// WithDefaultCrate sets the crate used for lookups naming a crate that is
// not installed. It must be one of the listed crates.
func WithDefaultCrate(crate uint32) CrateOption {
	return func(o *crateOptions) {
		o.defaultCrate = crate
		o.hasDefaultCrate = true
	}
}

// WithTPCSets bounds the TPC sets a crate may serve.
func WithTPCSets(n uint32) CrateOption {
	return func(o *crateOptions) {
		o.nTPCSets = n
	}
}

// ParseAPAName derives the orientation and TPC set from an APA name such
// as APA_F03SU. The two digits at offset 5 are the column, N, M and S the
// position in the row (the last one present wins) and a U marks an upright
// APA.
func ParseAPAName(name string) (upright uint32, tpcSet uint32, ok bool) {
	if len(name) < 7 {
		return 0, 0, false
	}
	column := uint32(0)
	digits := 0
	for _, r := range name[5:7] {
		if r < '0' || r > '9' {
			break
		}
		column = 10*column + uint32(r-'0')
		digits++
	}
	if digits == 0 || column < 1 {
		return 0, 0, false
	}
	if strings.ContainsRune(name, 'U') {
		upright = 1
	}
	nms := uint32(0) // N
	if strings.ContainsRune(name, 'M') {
		nms = 1
	}
	if strings.ContainsRune(name, 'S') {
		nms = 2
	}
	return upright, 6*(column-1) + 3*upright + nms, true
}

// NewCrateTopology builds the topology from a crate list. Unless
// WithDefaultCrate says otherwise, the first entry is the default crate.
func NewCrateTopology(entries []CrateEntry, source string, opts ...CrateOption) (*CrateTopology, error) {
	options := crateOptions{nTPCSets: NumAPAs}
	for _, opt := range opts {
		opt(&options)
	}
	if len(entries) == 0 {
		return nil, NewConfigurationError(source, 0, "empty crate list")
	}

	t := &CrateTopology{
		byCrate:      make(map[uint32]CrateDescriptor, len(entries)),
		byTPCSet:     make(map[uint32]uint32, len(entries)),
		defaultCrate: entries[0].Crate,
	}
	for _, e := range entries {
		if _, found := t.byCrate[e.Crate]; found {
			return nil, NewConfigurationError(source, e.Line, "duplicate crate %d", e.Crate)
		}
		upright, tpcSet, ok := ParseAPAName(e.APAName)
		if !ok {
			return nil, NewConfigurationError(source, e.Line, "malformed APA name %q", e.APAName)
		}
		if tpcSet >= options.nTPCSets {
			return nil, NewConfigurationError(source, e.Line, "APA %s maps to TPC set %d, detector has %d", e.APAName, tpcSet, options.nTPCSets)
		}
		if other, found := t.byTPCSet[tpcSet]; found {
			return nil, NewConfigurationError(source, e.Line, "crates %d and %d both read TPC set %d", other, e.Crate, tpcSet)
		}
		t.byCrate[e.Crate] = CrateDescriptor{
			Crate:   e.Crate,
			APAName: e.APAName,
			Upright: upright,
			TPCSet:  tpcSet,
		}
		t.byTPCSet[tpcSet] = e.Crate
	}

	if options.hasDefaultCrate {
		if _, found := t.byCrate[options.defaultCrate]; !found {
			return nil, NewConfigurationError(source, 0, "default crate %d is not in the crate list", options.defaultCrate)
		}
		t.defaultCrate = options.defaultCrate
	}
	return t, nil
}

// Crate returns the descriptor of an installed crate.
func (t *CrateTopology) Crate(crate uint32) (CrateDescriptor, bool) {
	d, ok := t.byCrate[crate]
	return d, ok
}

// Resolve returns the descriptor of the crate, or of the default crate when
// the crate is not installed.
func (t *CrateTopology) Resolve(crate uint32) CrateDescriptor {
	if d, ok := t.byCrate[crate]; ok {
		return d
	}
	return t.byCrate[t.defaultCrate]
}

// CrateForTPCSet returns the crate reading a TPC set.
func (t *CrateTopology) CrateForTPCSet(tpcSet uint32) (CrateDescriptor, bool) {
	crate, ok := t.byTPCSet[tpcSet]
	if !ok {
		return CrateDescriptor{}, false
	}
	return t.byCrate[crate], true
}

func (t *CrateTopology) DefaultCrate() uint32 {
	return t.defaultCrate
}

func (t *CrateTopology) Len() int {
	return len(t.byCrate)
}

// Crates returns every descriptor ordered by crate number.
func (t *CrateTopology) Crates() []CrateDescriptor {
	crates := make([]CrateDescriptor, 0, len(t.byCrate))
	for _, d := range t.byCrate {
		crates = append(crates, d)
	}
	slices.SortFunc(crates, func(a, b CrateDescriptor) int {
		return cmp.Compare(a.Crate, b.Crate)
	})
	return crates
}
