package wirereadout

import (
	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
)

// Assigner numbers the planes of one ROP starting at next. It returns one
// range per plane and the first channel after the ROP.
type Assigner interface {
	Assign(rop ROPID, planes []*geometry.Plane, next uint32) ([]ChannelRange, uint32, error)
}

// Contiguous gives every plane its own block of channels.
type Contiguous struct{}

func (Contiguous) Assign(rop ROPID, planes []*geometry.Plane, next uint32) ([]ChannelRange, uint32, error) {
	ranges := make([]ChannelRange, len(planes))
	for i, plane := range planes {
		ranges[i] = contiguous(plane, next)
		next = ranges[i].Next
	}
	return ranges, next, nil
}

// PairwiseStitch is the CRP policy. Collection planes are contiguous. In
// the induction ROPs the second plane of each pair continues the wires of
// the first one, so the wire crossing the boundary shares its channel.
type PairwiseStitch struct{}

func (PairwiseStitch) Assign(rop ROPID, planes []*geometry.Plane, next uint32) ([]ChannelRange, uint32, error) {
	ranges := make([]ChannelRange, len(planes))
	first := next
	for i, plane := range planes {
		if rop.ROP > 1 || i%2 == 0 {
			ranges[i] = contiguous(plane, next)
		} else {
			r, err := stitch(plane, planes[i-1], first, next)
			if err != nil {
				return nil, 0, err
			}
			ranges[i] = r
		}
		next = ranges[i].Next
	}
	return ranges, next, nil
}

// FirstROPStitch is the cold box policy: only the planes of ROP 0 after the
// first one are stitched to their predecessor.
type FirstROPStitch struct{}

func (FirstROPStitch) Assign(rop ROPID, planes []*geometry.Plane, next uint32) ([]ChannelRange, uint32, error) {
	ranges := make([]ChannelRange, len(planes))
	first := next
	for i, plane := range planes {
		if i == 0 || rop.ROP != 0 {
			ranges[i] = contiguous(plane, next)
		} else {
			r, err := stitch(plane, planes[i-1], first, next)
			if err != nil {
				return nil, 0, err
			}
			ranges[i] = r
		}
		next = ranges[i].Next
	}
	return ranges, next, nil
}

func contiguous(plane *geometry.Plane, next uint32) ChannelRange {
	return ChannelRange{First: next, Next: next + uint32(plane.NWires())}
}

// stitch numbers plane so that its wire nearest to the centre of the last
// wire of previous reads channel next-1. The stitched range must stay inside
// the ROP and extend it.
func stitch(plane, previous *geometry.Plane, ropFirst, next uint32) (ChannelRange, error) {
	if previous.NWires() == 0 {
		return ChannelRange{}, channelmap.NewConfigurationError(previous.ID.String(), 0, "plane has no wires")
	}
	matched, err := plane.NearestWire(previous.LastWire().Center())
	if err != nil {
		return ChannelRange{}, err
	}
	if next == 0 || matched > next-1 || (next-1)-matched < ropFirst {
		return ChannelRange{}, channelmap.NewConfigurationError(plane.ID.String(), 0,
			"wire %d continuing %s starts before the readout plane", matched, previous.ID)
	}
	first := (next - 1) - matched
	r := ChannelRange{First: first, Next: first + uint32(plane.NWires())}
	if r.Next < next {
		return ChannelRange{}, channelmap.NewConfigurationError(plane.ID.String(), 0,
			"wire %d continuing %s leaves the plane short of channel %d", matched, previous.ID, next)
	}
	return r, nil
}
