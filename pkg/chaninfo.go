package channelmap

import "fmt"

// Wire plane indices used by the cold electronics tables.
const (
	PlaneU uint32 = iota
	PlaneV
	PlaneX
)

// ChannelInfo identifies one TPC channel by hardware address and offline
// number. Lookups that do not match instrumented hardware return a record
// with Valid set to false.
type ChannelInfo struct {
	OfflChan     uint32
	Crate        uint32
	APAName      string
	Upright      uint32
	WIB          uint32
	Link         uint32
	FEMBOnLink   uint32
	CEBChan      uint32
	Plane        uint32
	ChanInPlane  uint32
	FEMB         uint32
	ASIC         uint32
	ASICChan     uint32
	WIBFrameChan uint32
	Valid        bool
}

func (c ChannelInfo) String() string {
	if !c.Valid {
		return "invalid channel"
	}
	return fmt.Sprintf("offlchan %d crate %d (%s) upright %d wib %d link %d femb_on_link %d cebchan %d plane %d chan_in_plane %d femb %d asic %d asicchan %d wibframechan %d",
		c.OfflChan, c.Crate, c.APAName, c.Upright, c.WIB, c.Link, c.FEMBOnLink, c.CEBChan,
		c.Plane, c.ChanInPlane, c.FEMB, c.ASIC, c.ASICChan, c.WIBFrameChan)
}

// TPCChanInfo is a channel of the map keyed by detector id, crate, slot,
// stream and stream channel.
type TPCChanInfo struct {
	OfflChan    uint32
	DetID       uint32
	DetElement  uint32
	Crate       uint32
	Slot        uint32
	Stream      uint32
	StreamChan  uint32
	Plane       uint32
	ChanInPlane uint32
	FEMB        uint32
	ASIC        uint32
	ASICChan    uint32
	Valid       bool
}

func (c TPCChanInfo) String() string {
	if !c.Valid {
		return "invalid channel"
	}
	return fmt.Sprintf("offlchan %d detid %d detelement %d crate %d slot %d stream %d streamchan %d plane %d chan_in_plane %d femb %d asic %d asicchan %d",
		c.OfflChan, c.DetID, c.DetElement, c.Crate, c.Slot, c.Stream, c.StreamChan,
		c.Plane, c.ChanInPlane, c.FEMB, c.ASIC, c.ASICChan)
}
