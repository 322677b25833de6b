package channelmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FDHDSuite struct {
	suite.Suite
	m *FDHDMap
}

func (s *FDHDSuite) SetupSuite() {
	s.m = fullFDHDMap(s.T())
}

func (s *FDHDSuite) TestSize() {
	require.Equal(s.T(), uint32(384000), s.m.NChans())
	require.Equal(s.T(), 2*ChannelsPerAPA, s.m.TableSize())
	require.Len(s.T(), s.m.Crates(), NumAPAs)
	require.Equal(s.T(), uint32(1), s.m.DefaultCrate())
}

func (s *FDHDSuite) TestFirstChannel() {
	info, err := s.m.GetChanInfoFromOfflChan(0)
	require.NoError(s.T(), err)
	require.Equal(s.T(), ChannelInfo{
		OfflChan:     0,
		Crate:        2,
		APAName:      "APA_F01NL",
		Upright:      0,
		WIB:          4,
		Link:         1,
		FEMBOnLink:   0,
		CEBChan:      63,
		Plane:        PlaneU,
		ChanInPlane:  9,
		FEMB:         12,
		ASIC:         3,
		ASICChan:     15,
		WIBFrameChan: 9,
		Valid:        true,
	}, info)

	addr := info.Address()
	back := s.m.GetChanInfoFromWIBElements(addr.Crate, addr.Slot, addr.Link, addr.WIBFrameChan)
	require.Equal(s.T(), info, back)
}

func (s *FDHDSuite) TestUprightAPA() {
	// crate 1 reads APA_F01NU, TPC set 3
	info, err := s.m.GetChanInfoFromOfflChan(3 * ChannelsPerAPA)
	require.NoError(s.T(), err)
	require.Equal(s.T(), uint32(1), info.Crate)
	require.Equal(s.T(), uint32(1), info.Upright)
	require.Equal(s.T(), uint32(3), info.WIB)
	require.Equal(s.T(), uint32(10), info.FEMB)
	require.Equal(s.T(), uint32(36), info.WIBFrameChan)
}

func (s *FDHDSuite) TestOutOfRange() {
	_, err := s.m.GetChanInfoFromOfflChan(384000)
	require.ErrorIs(s.T(), err, ErrOutOfRange)
	var rangeErr *RangeError
	require.True(s.T(), errors.As(err, &rangeErr))
	require.Equal(s.T(), uint32(384000), rangeErr.NChannels)

	_, err = s.m.GetChanInfoFromOfflChan(383999)
	require.NoError(s.T(), err)
}

func (s *FDHDSuite) TestUnknownCrateUsesDefault() {
	info, ok := s.m.FindWIBElements(999, 2, 1, 36)
	require.True(s.T(), ok)
	require.Equal(s.T(), uint32(1), info.Crate)
	require.Equal(s.T(), uint32(3*ChannelsPerAPA), info.OfflChan)
}

func (s *FDHDSuite) TestUnknownAddress() {
	_, ok := s.m.FindWIBElements(2, 3, 2, 9)
	require.False(s.T(), ok)
	info := s.m.GetChanInfoFromWIBElements(2, 9, 1, 9)
	require.False(s.T(), info.Valid)
}

func (s *FDHDSuite) TestChannelsInOrder() {
	channels := s.m.Channels()
	require.Len(s.T(), channels, NumAPAs*ChannelsPerAPA)
	for i, c := range channels {
		if uint32(i) != c.OfflChan {
			s.T().Fatalf("channel %d listed at position %d", c.OfflChan, i)
		}
	}
}

func TestFDHDSuite(t *testing.T) {
	suite.Run(t, new(FDHDSuite))
}

func TestFDHDDefaultCrateOption(t *testing.T) {
	m := fullFDHDMap(t, WithFDHDDefaultCrate(2))
	info, ok := m.FindWIBElements(999, 3, 1, 9)
	require.True(t, ok)
	require.Equal(t, uint32(0), info.OfflChan)
	require.Equal(t, uint32(2), info.Crate)

	_, err := NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(1), "generated", WithFDHDDefaultCrate(500))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFDHDPartialCrateList(t *testing.T) {
	m, err := NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(1), "generated")
	require.NoError(t, err)
	require.Equal(t, uint32(384000), m.NChans())
	require.Len(t, m.Channels(), 6*ChannelsPerAPA)

	_, err = m.GetChanInfoFromOfflChan(6 * ChannelsPerAPA)
	require.ErrorIs(t, err, ErrLogic)
}

func TestFDHDNAPAs(t *testing.T) {
	m, err := NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(1), "generated", WithNAPAs(6))
	require.NoError(t, err)
	require.Equal(t, uint32(6*ChannelsPerAPA), m.NChans())
	_, err = m.GetChanInfoFromOfflChan(6 * ChannelsPerAPA)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(2), "generated", WithNAPAs(6))
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = NewFDHDMap(GenerateFDHDTable(), GenerateCrateList(1), "generated", WithNAPAs(0))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFDHDTableErrors(t *testing.T) {
	table := GenerateFDHDTable()
	n := len(table)
	cases := []struct {
		name   string
		modify func([]ChannelInfo) []ChannelInfo
		line   int
	}{
		{"duplicate address", func(rows []ChannelInfo) []ChannelInfo {
			extra := rows[0]
			extra.OfflChan = 0
			return append(rows, extra)
		}, n + 1},
		{"duplicate channel", func(rows []ChannelInfo) []ChannelInfo {
			rows[1].OfflChan = rows[0].OfflChan
			return rows
		}, 2},
		{"bad upright", func(rows []ChannelInfo) []ChannelInfo {
			rows[5].Upright = 2
			return rows
		}, 6},
		{"channel beyond APA", func(rows []ChannelInfo) []ChannelInfo {
			rows[7].OfflChan = ChannelsPerAPA
			return rows
		}, 8},
		{"WIB zero", func(rows []ChannelInfo) []ChannelInfo {
			rows[3].WIB = 0
			return rows
		}, 4},
	}
	for _, tc := range cases {
		rows := tc.modify(append([]ChannelInfo(nil), table...))
		_, err := NewFDHDMap(rows, GenerateCrateList(1), "table.txt")
		require.ErrorIs(t, err, ErrConfiguration, tc.name)
		var configErr *ConfigurationError
		require.True(t, errors.As(err, &configErr), tc.name)
		require.Equal(t, tc.line, configErr.Line, tc.name)
	}
}

func TestFDHDLogging(t *testing.T) {
	log := useVerbosity(t, 2)
	_, err := NewFDHDMap(GenerateFDHDTable()[:100], GenerateCrateList(1), "partial")
	require.NoError(t, err)
	require.Equal(t, []string{
		"[fdhd] Channel map partial: 100 table entries, 6 crates, 384000 channels",
		"[fdhd] Channel map partial is partial: 100 of 5120 entries",
	}, log.infos)
}
