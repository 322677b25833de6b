package channelmap

const (
	ChannelsPerAPA         = 2560
	NumAPAs                = 150
	FEMBsPerAPA            = 20
	ASICsPerFEMB           = 8
	ChannelsPerASIC        = 16
	InductionChansPerFEMB  = 40
	CollectionChansPerFEMB = 48
	ChannelsPerFEMB        = 2*InductionChansPerFEMB + CollectionChansPerFEMB
	FrameChansPerFEMB      = 128
	StreamChans            = 64
)

// HardwareAddress is the address a WIB frame gives for one channel.
type HardwareAddress struct {
	Crate        uint32
	Slot         uint32
	Link         uint32
	WIBFrameChan uint32
}

// Address returns the hardware address of the channel. Slots count from
// zero while WIBs count from one.
func (c ChannelInfo) Address() HardwareAddress {
	return HardwareAddress{
		Crate:        c.Crate,
		Slot:         c.WIB - 1,
		Link:         c.Link,
		WIBFrameChan: c.WIBFrameChan,
	}
}

// Plane served by each ASIC channel of a FEMB.
var asicPlane = [ASICsPerFEMB][ChannelsPerASIC]uint32{
	{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2},
	{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2},
	{2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2},
	{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2},
	{2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
}

// One-based channel within the plane served by each ASIC channel.
var asicPlaneChan = [ASICsPerFEMB][ChannelsPerASIC]uint32{
	{19, 17, 15, 13, 11, 19, 17, 15, 13, 11, 23, 21, 19, 17, 15, 13},
	{9, 7, 5, 3, 1, 9, 7, 5, 3, 1, 11, 9, 7, 5, 3, 1},
	{14, 16, 18, 20, 22, 24, 12, 14, 16, 18, 20, 12, 14, 16, 18, 20},
	{2, 4, 6, 8, 10, 12, 2, 4, 6, 8, 10, 2, 4, 6, 8, 10},
	{29, 27, 25, 23, 21, 29, 27, 25, 23, 21, 35, 33, 31, 29, 27, 25},
	{39, 37, 35, 33, 31, 39, 37, 35, 33, 31, 47, 45, 43, 41, 39, 37},
	{26, 28, 30, 32, 34, 36, 22, 24, 26, 28, 30, 22, 24, 26, 28, 30},
	{38, 40, 42, 44, 46, 48, 32, 34, 36, 38, 40, 32, 34, 36, 38, 40},
}

var wibFromFEMB = [FEMBsPerAPA]uint32{1, 1, 2, 2, 1, 1, 2, 2, 3, 3, 4, 4, 3, 3, 4, 4, 5, 5, 5, 5}
var linkFromFEMB = [FEMBsPerAPA]uint32{1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0}
var fembOnLinkFromFEMB = [FEMBsPerAPA]uint32{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}

type asicChannel struct {
	asic     uint32
	asicChan uint32
	ok       bool
}

// inverse of asicPlane/asicPlaneChan indexed by plane and zero-based channel
var planeChanToASIC [3][CollectionChansPerFEMB]asicChannel

func init() {
	for asic := range asicPlane {
		for ch := range asicPlane[asic] {
			plane := asicPlane[asic][ch]
			chanInPlane := asicPlaneChan[asic][ch] - 1
			planeChanToASIC[plane][chanInPlane] = asicChannel{asic: uint32(asic), asicChan: uint32(ch), ok: true}
		}
	}
}

// FEMBLocation is where a FEMB of an APA is read out.
type FEMBLocation struct {
	WIB        uint32
	Link       uint32
	FEMBOnLink uint32
}

// LocateFEMB returns the WIB, link and position on the link of a FEMB
// numbered from 1 to 20.
func LocateFEMB(femb uint32) (FEMBLocation, bool) {
	if femb < 1 || femb > FEMBsPerAPA {
		return FEMBLocation{}, false
	}
	i := femb - 1
	return FEMBLocation{
		WIB:        wibFromFEMB[i],
		Link:       linkFromFEMB[i],
		FEMBOnLink: fembOnLinkFromFEMB[i],
	}, true
}

// PlaneChannels returns the number of channels a FEMB reads from a plane.
func PlaneChannels(plane uint32) uint32 {
	switch plane {
	case PlaneU, PlaneV:
		return InductionChansPerFEMB
	case PlaneX:
		return CollectionChansPerFEMB
	}
	return 0
}

// ASICChannel returns the ASIC and ASIC channel reading the given
// zero-based channel of a plane on one FEMB.
func ASICChannel(plane uint32, chanInPlane uint32) (asic uint32, asicChan uint32, ok bool) {
	if plane > PlaneX || chanInPlane >= PlaneChannels(plane) {
		return 0, 0, false
	}
	a := planeChanToASIC[plane][chanInPlane]
	return a.asic, a.asicChan, a.ok
}

// PlaneChannel is the inverse of ASICChannel.
func PlaneChannel(asic uint32, asicChan uint32) (plane uint32, chanInPlane uint32, ok bool) {
	if asic >= ASICsPerFEMB || asicChan >= ChannelsPerASIC {
		return 0, 0, false
	}
	return asicPlane[asic][asicChan], asicPlaneChan[asic][asicChan] - 1, true
}

// CEBChan is the cold electronics channel of an ASIC channel on its FEMB.
func CEBChan(asic uint32, asicChan uint32) uint32 {
	return ChannelsPerASIC*asic + asicChan
}

// FrameChan packs a channel into the WIB frame: 128 slots per FEMB on the
// link, U first, V from 40 and X from 80.
func FrameChan(fembOnLink uint32, plane uint32, chanInPlane uint32) uint32 {
	wfc := FrameChansPerFEMB*fembOnLink + chanInPlane
	switch plane {
	case PlaneV:
		wfc += InductionChansPerFEMB
	case PlaneX:
		wfc += 2 * InductionChansPerFEMB
	}
	return wfc
}

// WIBEthFrameChan packs a channel into the WIBEth frame, ordered by ASIC.
func WIBEthFrameChan(fembOnLink uint32, asic uint32, asicChan uint32) uint32 {
	return FrameChansPerFEMB*fembOnLink + CEBChan(asic, asicChan)
}

// SplitStream converts a link and WIBEth frame channel into the stream and
// stream channel of the electronics readout.
func SplitStream(link uint32, wibFrameChan uint32) (stream uint32, streamChan uint32) {
	stream = StreamChans*link + wibFrameChan/StreamChans
	streamChan = wibFrameChan % StreamChans
	return stream, streamChan
}

// JoinStream is the inverse of SplitStream.
func JoinStream(stream uint32, streamChan uint32) (link uint32, wibFrameChan uint32) {
	link = stream / StreamChans
	wibFrameChan = (stream%StreamChans)*StreamChans + streamChan
	return link, wibFrameChan
}

// wibKey identifies a row of the FDHD table regardless of the APA it is
// installed in.
type wibKey struct {
	upright      uint32
	wib          uint32
	link         uint32
	wibFrameChan uint32
}
