package channelmap

import (
	"fmt"
)

// FDHDMap translates between WIB addresses and offline channels of the
// horizontal drift far detector. Every APA carries the same table, selected
// by orientation, and the crate list places APAs in the detector. An
// FDHDMap is immutable and safe for concurrent use.
type FDHDMap struct {
	crates   *CrateTopology
	byWIB    map[wibKey]ChannelInfo
	byOffl   [2][]ChannelInfo
	nAPAs    uint32
	nEntries int
}

type fdhdOptions struct {
	nAPAs        uint32
	defaultCrate uint32
	hasDefault   bool
	crateSource  string
	tableLines   []int
}

type FDHDOption func(*fdhdOptions)

// WithNAPAs sets the number of APAs, and therefore of channels, of the
// detector. The far detector has 150.
func WithNAPAs(n uint32) FDHDOption {
	return func(o *fdhdOptions) {
		o.nAPAs = n
	}
}

// WithFDHDDefaultCrate replaces the crate used for unknown crate numbers.
func WithFDHDDefaultCrate(crate uint32) FDHDOption {
	return func(o *fdhdOptions) {
		o.defaultCrate = crate
		o.hasDefault = true
	}
}

// WithCrateSource names the crate list in errors. It defaults to the
// source of the table.
func WithCrateSource(source string) FDHDOption {
	return func(o *fdhdOptions) {
		o.crateSource = source
	}
}

// WithTableLines gives the source line of every table row, as returned by
// ReadFDHDTableLines. Without it errors report the 1-based row.
func WithTableLines(lines []int) FDHDOption {
	return func(o *fdhdOptions) {
		o.tableLines = lines
	}
}

func fdhdOptionsFromConfig(config Configuration) []FDHDOption {
	var opts []FDHDOption
	if config.NAPAs > 0 {
		opts = append(opts, WithNAPAs(uint32(config.NAPAs)))
	}
	if config.SubstituteCrate >= 0 {
		opts = append(opts, WithFDHDDefaultCrate(uint32(config.SubstituteCrate)))
	}
	return opts
}

// NewFDHDMap builds the map from the per-APA table and the crate list. The
// table offline channels are local to the APA. A table row or crate that
// appears twice, or a row with WIB 0, is a configuration error.
func NewFDHDMap(table []ChannelInfo, crates []CrateEntry, source string, opts ...FDHDOption) (*FDHDMap, error) {
	options := fdhdOptions{nAPAs: NumAPAs}
	for _, opt := range opts {
		opt(&options)
	}
	if options.nAPAs == 0 {
		return nil, NewConfigurationError(source, 0, "detector without APAs")
	}

	crateOpts := []CrateOption{WithTPCSets(options.nAPAs)}
	if options.hasDefault {
		crateOpts = append(crateOpts, WithDefaultCrate(options.defaultCrate))
	}
	crateSource := source
	if options.crateSource != "" {
		crateSource = options.crateSource
	}
	topology, err := NewCrateTopology(crates, crateSource, crateOpts...)
	if err != nil {
		return nil, err
	}

	m := &FDHDMap{
		crates: topology,
		byWIB:  make(map[wibKey]ChannelInfo, len(table)),
		nAPAs:  options.nAPAs,
	}
	for upright := range m.byOffl {
		m.byOffl[upright] = make([]ChannelInfo, ChannelsPerAPA)
	}

	for i, row := range table {
		line := i + 1
		if i < len(options.tableLines) {
			line = options.tableLines[i]
		}
		if row.Upright > 1 {
			return nil, NewConfigurationError(source, line, "upright flag %d must be 0 or 1", row.Upright)
		}
		if row.OfflChan >= ChannelsPerAPA {
			return nil, NewConfigurationError(source, line, "APA channel %d must be lower than %d", row.OfflChan, ChannelsPerAPA)
		}
		if row.WIB == 0 {
			return nil, NewConfigurationError(source, line, "WIB numbers start at 1")
		}
		row.Crate = 0
		row.APAName = ""
		row.Valid = true

		key := wibKey{upright: row.Upright, wib: row.WIB, link: row.Link, wibFrameChan: row.WIBFrameChan}
		if _, found := m.byWIB[key]; found {
			return nil, NewConfigurationError(source, line, "duplicate hardware address upright %d wib %d link %d wibframechan %d",
				row.Upright, row.WIB, row.Link, row.WIBFrameChan)
		}
		if m.byOffl[row.Upright][row.OfflChan].Valid {
			return nil, NewConfigurationError(source, line, "duplicate APA channel %d for upright %d", row.OfflChan, row.Upright)
		}
		m.byWIB[key] = row
		m.byOffl[row.Upright][row.OfflChan] = row
	}
	m.nEntries = len(table)

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Channel map %s: %d table entries, %d crates, %d channels", source, len(table), topology.Len(), m.NChans())
		logger.Info(message, "fdhd")
	}
	if configuration.Verbosity > 1 && len(table) != 2*ChannelsPerAPA {
		message := fmt.Sprintf("Channel map %s is partial: %d of %d entries", source, len(table), 2*ChannelsPerAPA)
		logger.Info(message, "fdhd")
	}
	return m, nil
}

// NChans returns the number of offline channels of the detector.
func (m *FDHDMap) NChans() uint32 {
	return m.nAPAs * ChannelsPerAPA
}

func (m *FDHDMap) Crates() []CrateDescriptor {
	return m.crates.Crates()
}

func (m *FDHDMap) Crate(crate uint32) (CrateDescriptor, bool) {
	return m.crates.Crate(crate)
}

// DefaultCrate is used in place of crates missing from the crate list.
func (m *FDHDMap) DefaultCrate() uint32 {
	return m.crates.DefaultCrate()
}

// TableSize is the number of per-APA table rows.
func (m *FDHDMap) TableSize() int {
	return m.nEntries
}

// FindWIBElements looks up the channel read at a hardware address. An
// unknown crate is replaced by the default crate.
func (m *FDHDMap) FindWIBElements(crate uint32, slot uint32, link uint32, wibFrameChan uint32) (ChannelInfo, bool) {
	d := m.crates.Resolve(crate)
	key := wibKey{upright: d.Upright, wib: slot + 1, link: link, wibFrameChan: wibFrameChan}
	info, ok := m.byWIB[key]
	if !ok {
		return ChannelInfo{}, false
	}
	info.OfflChan += d.TPCSet * ChannelsPerAPA
	info.Crate = d.Crate
	info.APAName = d.APAName
	return info, true
}

// GetChanInfoFromWIBElements is FindWIBElements returning a record with
// Valid false when nothing is read at the address.
func (m *FDHDMap) GetChanInfoFromWIBElements(crate uint32, slot uint32, link uint32, wibFrameChan uint32) ChannelInfo {
	info, ok := m.FindWIBElements(crate, slot, link, wibFrameChan)
	if !ok {
		return ChannelInfo{Valid: false}
	}
	return info
}

// GetChanInfoFromOfflChan returns the hardware reading an offline channel.
func (m *FDHDMap) GetChanInfoFromOfflChan(offlChan uint32) (ChannelInfo, error) {
	if offlChan >= m.NChans() {
		return ChannelInfo{}, &RangeError{Channel: offlChan, NChannels: m.NChans()}
	}
	tpcSet := offlChan / ChannelsPerAPA
	local := offlChan % ChannelsPerAPA

	d, ok := m.crates.CrateForTPCSet(tpcSet)
	if !ok {
		return ChannelInfo{}, NewLogicError("no crate reads TPC set %d (offline channel %d)", tpcSet, offlChan)
	}
	info := m.byOffl[d.Upright][local]
	if !info.Valid {
		return ChannelInfo{}, NewLogicError("no table entry for APA channel %d with upright %d (offline channel %d)", local, d.Upright, offlChan)
	}
	info.OfflChan = offlChan
	info.Crate = d.Crate
	info.APAName = d.APAName
	return info, nil
}

// Channels returns the full record of every offline channel read by an
// installed crate, in offline channel order.
func (m *FDHDMap) Channels() []ChannelInfo {
	channels := make([]ChannelInfo, 0, m.crates.Len()*ChannelsPerAPA)
	for tpcSet := uint32(0); tpcSet < m.nAPAs; tpcSet++ {
		d, ok := m.crates.CrateForTPCSet(tpcSet)
		if !ok {
			continue
		}
		for local, info := range m.byOffl[d.Upright] {
			if !info.Valid {
				continue
			}
			info.OfflChan = tpcSet*ChannelsPerAPA + uint32(local)
			info.Crate = d.Crate
			info.APAName = d.APAName
			channels = append(channels, info)
		}
	}
	return channels
}
