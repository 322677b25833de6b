package export

import (
	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/wirereadout"
)

const STRLEN = 20

type ChannelHDF5 struct {
	offlchan     int32
	crate        int32
	apaName      [STRLEN]byte
	upright      int32
	wib          int32
	link         int32
	fembOnLink   int32
	cebchan      int32
	plane        int32
	chanInPlane  int32
	femb         int32
	asic         int32
	asicchan     int32
	wibframechan int32
}

type CrateHDF5 struct {
	crate   int32
	apaName [STRLEN]byte
	upright int32
	tpcset  int32
}

type ElectronicsHDF5 struct {
	offlchan      int32
	electronicsID int64
	detid         int32
	detelement    int32
	crate         int32
	slot          int32
	stream        int32
	streamchan    int32
	plane         int32
	chanInPlane   int32
	femb          int32
	asic          int32
	asicchan      int32
}

type PlaneHDF5 struct {
	cryostat int32
	tpc      int32
	plane    int32
	view     [STRLEN]byte
	tpcset   int32
	rop      int32
	nwires   int32
	first    int32
	next     int32
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

// The arrays MUST be allocated at creation, HDF5 panics on appended
// slices.

func channelRows(channels []channelmap.ChannelInfo) []ChannelHDF5 {
	rows := make([]ChannelHDF5, len(channels))
	for i, c := range channels {
		rows[i] = ChannelHDF5{
			offlchan:     int32(c.OfflChan),
			crate:        int32(c.Crate),
			apaName:      convertToHdf5String(c.APAName),
			upright:      int32(c.Upright),
			wib:          int32(c.WIB),
			link:         int32(c.Link),
			fembOnLink:   int32(c.FEMBOnLink),
			cebchan:      int32(c.CEBChan),
			plane:        int32(c.Plane),
			chanInPlane:  int32(c.ChanInPlane),
			femb:         int32(c.FEMB),
			asic:         int32(c.ASIC),
			asicchan:     int32(c.ASICChan),
			wibframechan: int32(c.WIBFrameChan),
		}
	}
	return rows
}

func crateRows(crates []channelmap.CrateDescriptor) []CrateHDF5 {
	rows := make([]CrateHDF5, len(crates))
	for i, c := range crates {
		rows[i] = CrateHDF5{
			crate:   int32(c.Crate),
			apaName: convertToHdf5String(c.APAName),
			upright: int32(c.Upright),
			tpcset:  int32(c.TPCSet),
		}
	}
	return rows
}

func electronicsRows(channels []channelmap.TPCChanInfo) []ElectronicsHDF5 {
	rows := make([]ElectronicsHDF5, len(channels))
	for i, c := range channels {
		rows[i] = ElectronicsHDF5{
			offlchan:      int32(c.OfflChan),
			electronicsID: int64(channelmap.PackElectronicsID(c.DetID, c.Crate, c.Slot, c.Stream, c.StreamChan)),
			detid:         int32(c.DetID),
			detelement:    int32(c.DetElement),
			crate:         int32(c.Crate),
			slot:          int32(c.Slot),
			stream:        int32(c.Stream),
			streamchan:    int32(c.StreamChan),
			plane:         int32(c.Plane),
			chanInPlane:   int32(c.ChanInPlane),
			femb:          int32(c.FEMB),
			asic:          int32(c.ASIC),
			asicchan:      int32(c.ASICChan),
		}
	}
	return rows
}

func planeRows(ranges []wirereadout.PlaneRange) []PlaneHDF5 {
	rows := make([]PlaneHDF5, len(ranges))
	for i, r := range ranges {
		rows[i] = PlaneHDF5{
			cryostat: int32(r.Plane.Cryostat),
			tpc:      int32(r.Plane.TPC),
			plane:    int32(r.Plane.Plane),
			view:     convertToHdf5String(r.View.String()),
			tpcset:   int32(r.ROP.TPCSet),
			rop:      int32(r.ROP.ROP),
			nwires:   int32(r.NWires),
			first:    int32(r.Range.First),
			next:     int32(r.Range.Next),
		}
	}
	return rows
}
