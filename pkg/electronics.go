package channelmap

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Widths of the fields packed into an electronics identifier.
const (
	maxDetID      = 1 << 6
	maxCrate      = 1 << 10
	maxSlot       = 1 << 4
	maxStream     = 1 << 8
	maxStreamChan = 1 << 12
)

type electronicsKey struct {
	detID      uint32
	crate      uint32
	slot       uint32
	stream     uint32
	streamChan uint32
}

// TPCChannelMap translates between electronics identifiers (detector id,
// crate, slot, stream, stream channel) and offline channels. Offline
// channels need not be contiguous. A TPCChannelMap is immutable and safe
// for concurrent use.
type TPCChannelMap struct {
	byElectronics   map[electronicsKey]TPCChanInfo
	byOffl          map[uint32]TPCChanInfo
	substituteCrate uint32
}

type tpcMapOptions struct {
	substituteCrate uint32
}

type TPCMapOption func(*tpcMapOptions)

// WithSubstituteCrate sets the crate tried when a lookup misses.
func WithSubstituteCrate(crate uint32) TPCMapOption {
	return func(o *tpcMapOptions) {
		o.substituteCrate = crate
	}
}

func tpcMapOptionsFromConfig(config Configuration) []TPCMapOption {
	if config.SubstituteCrate < 0 {
		return nil
	}
	return []TPCMapOption{WithSubstituteCrate(uint32(config.SubstituteCrate))}
}

// PackElectronicsID packs an electronics identifier into one integer. The
// fields must fit their widths.
func PackElectronicsID(detID, crate, slot, stream, streamChan uint32) uint64 {
	return uint64(detID&0x3f)<<34 ^ uint64(crate&0x3ff)<<24 ^ uint64(slot&0xf)<<20 ^
		uint64(stream&0xff)<<12 ^ uint64(streamChan&0xfff)
}

// NewTPCChannelMap builds the map from table rows. Rows sharing an
// electronics identifier or an offline channel are a configuration error.
func NewTPCChannelMap(table []TPCChanInfo, source string, opts ...TPCMapOption) (*TPCChannelMap, error) {
	options := tpcMapOptions{substituteCrate: 1}
	for _, opt := range opts {
		opt(&options)
	}

	m := &TPCChannelMap{
		byElectronics:   make(map[electronicsKey]TPCChanInfo, len(table)),
		byOffl:          make(map[uint32]TPCChanInfo, len(table)),
		substituteCrate: options.substituteCrate,
	}
	for i, row := range table {
		line := i + 1
		if row.DetID >= maxDetID || row.Crate >= maxCrate || row.Slot >= maxSlot ||
			row.Stream >= maxStream || row.StreamChan >= maxStreamChan {
			return nil, NewConfigurationError(source, line, "electronics id detid %d crate %d slot %d stream %d streamchan %d does not fit the packed identifier",
				row.DetID, row.Crate, row.Slot, row.Stream, row.StreamChan)
		}
		row.Valid = true
		key := electronicsKey{detID: row.DetID, crate: row.Crate, slot: row.Slot, stream: row.Stream, streamChan: row.StreamChan}
		if _, found := m.byElectronics[key]; found {
			return nil, NewConfigurationError(source, line, "duplicate electronics id detid %d crate %d slot %d stream %d streamchan %d",
				row.DetID, row.Crate, row.Slot, row.Stream, row.StreamChan)
		}
		if _, found := m.byOffl[row.OfflChan]; found {
			return nil, NewConfigurationError(source, line, "duplicate offline channel %d", row.OfflChan)
		}
		m.byElectronics[key] = row
		m.byOffl[row.OfflChan] = row
	}

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Channel map %s: %d channels, substitute crate %d", source, len(table), m.substituteCrate)
		logger.Info(message, "electronics")
	}
	return m, nil
}

// FindElectronicsIDs looks up a channel by electronics identifier, trying
// the substitute crate when the crate given has no such channel.
func (m *TPCChannelMap) FindElectronicsIDs(detID, crate, slot, stream, streamChan uint32) (TPCChanInfo, bool) {
	key := electronicsKey{detID: detID, crate: crate, slot: slot, stream: stream, streamChan: streamChan}
	if info, ok := m.byElectronics[key]; ok {
		return info, true
	}
	key.crate = m.substituteCrate
	info, ok := m.byElectronics[key]
	return info, ok
}

// ChanInfoFromElectronicsIDs is FindElectronicsIDs returning a record with
// Valid false on a miss.
func (m *TPCChannelMap) ChanInfoFromElectronicsIDs(detID, crate, slot, stream, streamChan uint32) TPCChanInfo {
	info, ok := m.FindElectronicsIDs(detID, crate, slot, stream, streamChan)
	if !ok {
		return TPCChanInfo{Valid: false}
	}
	return info
}

func (m *TPCChannelMap) FindOfflChan(offlChan uint32) (TPCChanInfo, bool) {
	info, ok := m.byOffl[offlChan]
	return info, ok
}

// ChanInfoFromOfflChan returns a record with Valid false for offline
// channels not in the map.
func (m *TPCChannelMap) ChanInfoFromOfflChan(offlChan uint32) TPCChanInfo {
	info, ok := m.byOffl[offlChan]
	if !ok {
		return TPCChanInfo{Valid: false}
	}
	return info
}

func (m *TPCChannelMap) NChannels() uint32 {
	return uint32(len(m.byOffl))
}

func (m *TPCChannelMap) SubstituteCrate() uint32 {
	return m.substituteCrate
}

// Channels returns every record ordered by offline channel.
func (m *TPCChannelMap) Channels() []TPCChanInfo {
	channels := make([]TPCChanInfo, 0, len(m.byOffl))
	for _, info := range m.byOffl {
		channels = append(channels, info)
	}
	sortTPCChanInfos(channels)
	return channels
}

func sortTPCChanInfos(channels []TPCChanInfo) {
	slices.SortFunc(channels, func(a, b TPCChanInfo) int {
		return cmp.Compare(a.OfflChan, b.OfflChan)
	})
}
