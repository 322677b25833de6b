package channelmap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var apaPlanes = []string{"N", "M", "S"}
var apaOrientations = []string{"U", "L"}

// GenerateCrateList numbers crates from 1 over rows, then the N, M and S
// APA planes of the row, then upright and inverted APAs.
func GenerateCrateList(rows int) []CrateEntry {
	entries := make([]CrateEntry, 0, rows*len(apaPlanes)*len(apaOrientations))
	crate := uint32(0)
	for row := 1; row <= rows; row++ {
		for _, plane := range apaPlanes {
			for _, orientation := range apaOrientations {
				crate++
				entries = append(entries, CrateEntry{
					Crate:   crate,
					APAName: fmt.Sprintf("APA_F%02d%s%s", row, plane, orientation),
					Line:    len(entries) + 1,
				})
			}
		}
	}
	return entries
}

// apaChannel returns the channel within the APA of a FEMB channel. Upright
// and inverted APAs number their wires from opposite ends, and induction
// channels are shifted by three wires around the 800-channel plane.
func apaChannel(upright bool, plane uint32, ifemb int, ich int) uint32 {
	var offl int
	switch plane {
	case PlaneU:
		if !upright {
			if ifemb < 10 {
				offl = 348 + InductionChansPerFEMB*ifemb + ich
			} else {
				offl = 348 + InductionChansPerFEMB*(ifemb-20) + ich
				if offl < 0 {
					offl += 800
				}
			}
			offl += 3
			if offl > 799 {
				offl -= 800
			}
		} else {
			if ifemb < 10 {
				offl = 399 - InductionChansPerFEMB*ifemb - ich
			} else {
				offl = 400 + InductionChansPerFEMB*(20-ifemb) - ich - 1
			}
			offl -= 3
			if offl < 0 {
				offl += 800
			}
		}
	case PlaneV:
		if !upright {
			if ifemb < 10 {
				offl = 1547 - InductionChansPerFEMB*ifemb - ich
			} else {
				offl = 1548 - InductionChansPerFEMB*(ifemb-20) - ich - 1
				if offl > 1599 {
					offl -= 800
				}
			}
			offl += 3
			if offl > 1599 {
				offl -= 800
			}
		} else {
			if ifemb < 10 {
				offl = 800 + InductionChansPerFEMB*ifemb + ich
			} else {
				offl = 1599 + InductionChansPerFEMB*(ifemb-20) + ich + 1
			}
			offl -= 3
			if offl < 800 {
				offl += 800
			}
		}
	case PlaneX:
		if !upright {
			if ifemb < 10 {
				offl = 2080 + CollectionChansPerFEMB*ifemb + ich
			} else {
				offl = 1600 + CollectionChansPerFEMB*(20-ifemb) - ich - 1
			}
		} else {
			if ifemb < 10 {
				offl = 1600 + CollectionChansPerFEMB*ifemb + ich
			} else {
				offl = 2080 + CollectionChansPerFEMB*(20-ifemb) - ich - 1
			}
		}
	}
	return uint32(offl)
}

// fembChannels lists the channels of one FEMB of an APA, U then V then X.
func fembChannels(upright bool, ifemb int) []ChannelInfo {
	location, _ := LocateFEMB(uint32(ifemb + 1))
	uprightFlag := uint32(0)
	if upright {
		uprightFlag = 1
	}
	channels := make([]ChannelInfo, 0, ChannelsPerFEMB)
	for _, plane := range []uint32{PlaneU, PlaneV, PlaneX} {
		for ich := 0; ich < int(PlaneChannels(plane)); ich++ {
			asic, asicChan, _ := ASICChannel(plane, uint32(ich))
			channels = append(channels, ChannelInfo{
				OfflChan:     apaChannel(upright, plane, ifemb, ich),
				Upright:      uprightFlag,
				WIB:          location.WIB,
				Link:         location.Link,
				FEMBOnLink:   location.FEMBOnLink,
				CEBChan:      CEBChan(asic, asicChan),
				Plane:        plane,
				ChanInPlane:  uint32(ich),
				FEMB:         uint32(ifemb + 1),
				ASIC:         asic,
				ASICChan:     asicChan,
				WIBFrameChan: FrameChan(location.FEMBOnLink, plane, uint32(ich)),
				Valid:        true,
			})
		}
	}
	return channels
}

// GenerateFDHDTable returns the per-APA table for inverted APAs followed
// by upright APAs.
func GenerateFDHDTable() []ChannelInfo {
	table := make([]ChannelInfo, 0, 2*ChannelsPerAPA)
	for _, upright := range []bool{false, true} {
		for ifemb := 0; ifemb < FEMBsPerAPA; ifemb++ {
			table = append(table, fembChannels(upright, ifemb)...)
		}
	}
	return table
}

// ASIC numbers as cabled, indexed by the ASIC number of the board design.
var cabledASIC = [ASICsPerFEMB]uint32{3, 0, 2, 1, 4, 7, 5, 6}

// GenerateElectronicsMap lays the WIBEth readout of every crate of the
// list over consecutive blocks of 2560 offline channels. With permuteASICs
// the channels follow the cabled ASIC numbering: each readout slot keeps its
// ASIC, ASIC channel and stream address and takes the wire of the design
// ASIC cabled to it.
func GenerateElectronicsMap(crates []CrateEntry, permuteASICs bool) []TPCChanInfo {
	var designASIC [ASICsPerFEMB]uint32
	for design, cabled := range cabledASIC {
		designASIC[cabled] = uint32(design)
	}

	table := make([]TPCChanInfo, 0, len(crates)*ChannelsPerAPA)
	for icrate, entry := range crates {
		upright := !strings.Contains(entry.APAName, "L")
		offset := uint32(icrate) * ChannelsPerAPA
		for ifemb := 0; ifemb < FEMBsPerAPA; ifemb++ {
			channels := fembChannels(upright, ifemb)
			var byASIC [ASICsPerFEMB][ChannelsPerASIC]int
			for i, c := range channels {
				byASIC[c.ASIC][c.ASICChan] = i
			}
			for _, c := range channels {
				wire := c
				if permuteASICs {
					wire = channels[byASIC[designASIC[c.ASIC]][c.ASICChan]]
				}
				wfc := WIBEthFrameChan(c.FEMBOnLink, c.ASIC, c.ASICChan)
				stream, streamChan := SplitStream(c.Link, wfc)
				table = append(table, TPCChanInfo{
					OfflChan:    offset + wire.OfflChan,
					DetID:       3,
					DetElement:  entry.Crate - 1,
					Crate:       entry.Crate,
					Slot:        c.WIB - 1,
					Stream:      stream,
					StreamChan:  streamChan,
					Plane:       wire.Plane,
					ChanInPlane: wire.ChanInPlane,
					FEMB:        c.FEMB,
					ASIC:        c.ASIC,
					ASICChan:    c.ASICChan,
					Valid:       true,
				})
			}
		}
	}
	return table
}

// WriteFDHDTable writes rows in the format read by ReadFDHDTable.
func WriteFDHDTable(w io.Writer, table []ChannelInfo) error {
	bw := bufio.NewWriter(w)
	for _, c := range table {
		_, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			c.OfflChan, c.Upright, c.WIB, c.Link, c.FEMBOnLink, c.CEBChan,
			c.Plane, c.ChanInPlane, c.FEMB, c.ASIC, c.ASICChan, c.WIBFrameChan)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteCrateList writes entries in the format read by ReadCrateList.
func WriteCrateList(w io.Writer, entries []CrateEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%3d   %s\n", e.Crate, e.APAName); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteElectronicsTable writes rows in the format read by
// ReadElectronicsTable.
func WriteElectronicsTable(w io.Writer, table []TPCChanInfo) error {
	bw := bufio.NewWriter(w)
	for _, c := range table {
		_, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			c.OfflChan, c.DetID, c.DetElement, c.Crate, c.Slot, c.Stream, c.StreamChan,
			c.Plane, c.ChanInPlane, c.FEMB, c.ASIC, c.ASICChan)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
