package wirereadout

import (
	"fmt"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Readout answers channel queries for a numbered detector. Implementations
// are immutable once built and safe for concurrent readers.
type Readout interface {
	NChannels() uint32

	// FindChannel returns false for a wire outside the geometry.
	FindChannel(id geometry.WireID) (uint32, bool)
	PlaneWireToChannel(id geometry.WireID) (uint32, error)
	ChannelToWire(c uint32) ([]geometry.WireID, error)

	ChannelToROP(c uint32) (ROPID, bool)
	FirstChannelInROP(id ROPID) (uint32, bool)
	NTPCSets(cryostat uint32) int
	NROPs(set TPCSetID) int
	TPCtoTPCSet(id geometry.TPCID) (TPCSetID, bool)
	TPCSetToTPCs(set TPCSetID) []geometry.TPCID
	ROPtoWirePlanes(id ROPID) []geometry.PlaneID
	WirePlaneToROP(id geometry.PlaneID) (ROPID, bool)

	SignalType(c uint32) SignalType
	View(c uint32) geometry.View
	PlaneRanges() []PlaneRange

	// WireCoordinate and NearestWireID measure point across the wires of a
	// plane in units of its pitch.
	WireCoordinate(point r3.Vec, plane geometry.PlaneID) (float64, error)
	NearestWireID(point r3.Vec, plane geometry.PlaneID) (geometry.WireID, error)
	// ChannelsIntersect returns where wires of the two channels cross
	// within one TPC.
	ChannelsIntersect(c1, c2 uint32) (r3.Vec, bool)
}

// Build numbers src with the topology and assignment policy of variant.
// src must already be sorted with the matching geometry.Sorter.
func Build(src geometry.Source, variant channelmap.ReadoutVariant) (Readout, error) {
	var (
		ro  Readout
		err error
	)
	switch variant {
	case channelmap.ReadoutAPA:
		ro, err = NewAPAReadout(src)
	case channelmap.ReadoutCRU:
		ro, err = NewROPReadout(src, PerTPC{}, Contiguous{})
	case channelmap.ReadoutCRP:
		ro, err = NewROPReadout(src, Quads{}, PairwiseStitch{})
	case channelmap.ReadoutColdBox:
		ro, err = NewROPReadout(src, Pairs{}, FirstROPStitch{})
	default:
		return nil, channelmap.NewConfigurationError("", 0, "unknown readout variant %d", int(variant))
	}
	if err != nil {
		return nil, fmt.Errorf("error building %s readout: %w", variant, err)
	}
	if configuration := channelmap.GetConfiguration(); configuration.Verbosity > 0 {
		channelmap.GetLogger().Info(fmt.Sprintf("%s readout: %d channels", variant, ro.NChannels()), "wirereadout")
	}
	return ro, nil
}

// Load reads a geometry description, sorts it for variant and numbers it.
func Load(filename string, variant channelmap.ReadoutVariant) (Readout, error) {
	detector, err := geometry.LoadDetector(filename, variant)
	if err != nil {
		return nil, err
	}
	return Build(detector, variant)
}
