package wirereadout

import (
	"math"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
)

// Topology groups the TPCs of each cryostat into TPC sets. The result is
// indexed by cryostat, then TPC set.
type Topology interface {
	Group(cryostats []geometry.Cryostat) ([][][]geometry.TPCID, error)
}

// PerTPC makes every TPC its own TPC set.
type PerTPC struct{}

func (PerTPC) Group(cryostats []geometry.Cryostat) ([][][]geometry.TPCID, error) {
	sets := make([][][]geometry.TPCID, len(cryostats))
	for c := range cryostats {
		for _, tpc := range cryostats[c].TPCs {
			sets[c] = append(sets[c], []geometry.TPCID{tpc.ID})
		}
	}
	return sets, nil
}

func singleCryostat(cryostats []geometry.Cryostat, what string) error {
	if len(cryostats) != 1 {
		return channelmap.NewConfigurationError("", 0, "%s needs exactly one cryostat, geometry has %d", what, len(cryostats))
	}
	return nil
}

// Pairs groups the four TPCs of a cold box into the sets {0, 2} and
// {1, 3}.
type Pairs struct{}

func (Pairs) Group(cryostats []geometry.Cryostat) ([][][]geometry.TPCID, error) {
	if err := singleCryostat(cryostats, "cold box readout"); err != nil {
		return nil, err
	}
	tpcs := cryostats[0].TPCs
	if len(tpcs) != 4 {
		return nil, channelmap.NewConfigurationError("", 0, "cold box readout needs 4 TPCs, geometry has %d", len(tpcs))
	}
	return [][][]geometry.TPCID{{
		{tpcs[0].ID, tpcs[2].ID},
		{tpcs[1].ID, tpcs[3].ID},
	}}, nil
}

// Quads groups TPCs into 2x2 blocks read by one charge readout plane. TPCs
// must be sorted by drift volume, then z, then the other coordinate.
type Quads struct{}

const quadTolerance = 1e-4

func (Quads) Group(cryostats []geometry.Cryostat) ([][][]geometry.TPCID, error) {
	if err := singleCryostat(cryostats, "CRP readout"); err != nil {
		return nil, err
	}
	tpcs := cryostats[0].TPCs
	ntpc := len(tpcs)
	if ntpc == 0 || ntpc%4 != 0 {
		return nil, channelmap.NewConfigurationError("", 0, "CRP readout needs a multiple of 4 TPCs, geometry has %d", ntpc)
	}

	// drift volumes, counted from changes of drift direction
	ncells := 1
	for i := 1; i < ntpc && ncells < 2; i++ {
		if tpcs[i].Drift != tpcs[i-1].Drift {
			ncells++
		}
	}

	// TPCs sharing the z of the first one
	nz := 0
	z0 := tpcs[0].Center.Z
	for _, tpc := range tpcs[:ntpc/ncells] {
		if math.Abs(tpc.Center.Z-z0) >= quadTolerance {
			break
		}
		nz++
	}
	no := ntpc / nz
	if ntpc%nz != 0 || nz%2 != 0 || no%2 != 0 {
		return nil, channelmap.NewConfigurationError("", 0, "cannot split %d TPCs into CRPs: %d TPCs per z row", ntpc, nz)
	}

	var sets [][]geometry.TPCID
	for irow := 0; irow < no; irow += 2 {
		for icol := 0; icol < nz; icol += 2 {
			idx0 := icol + irow*nz
			idx2 := icol + (irow+1)*nz
			if idx2+1 >= ntpc {
				return nil, channelmap.NewConfigurationError("", 0, "CRP %d needs TPC %d, geometry has %d", len(sets), idx2+1, ntpc)
			}
			sets = append(sets, []geometry.TPCID{tpcs[idx0].ID, tpcs[idx0+1].ID, tpcs[idx2].ID, tpcs[idx2+1].ID})
		}
	}
	if len(sets) != ntpc/4 {
		return nil, channelmap.NewConfigurationError("", 0, "found %d CRPs for %d TPCs", len(sets), ntpc)
	}
	return [][][]geometry.TPCID{sets}, nil
}
