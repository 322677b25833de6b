package channelmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	fdhdColumns        = 12
	electronicsColumns = 12
	crateColumns       = 2
)

// scanFields calls fn with the fields of every line that is neither blank
// nor a # comment.
func scanFields(r io.Reader, source string, columns int, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != columns {
			return NewConfigurationError(source, line, "expected %d columns, found %d", columns, len(fields))
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return &ConfigurationError{Source: source, Line: line, Message: "error reading file", Err: err}
	}
	return nil
}

func parseUints(source string, line int, fields []string, names []string) ([]uint32, error) {
	values := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, &ConfigurationError{
				Source:  source,
				Line:    line,
				Message: fmt.Sprintf("invalid %s %q", names[i], f),
				Err:     err,
			}
		}
		values[i] = uint32(v)
	}
	return values, nil
}

var fdhdColumnNames = []string{"offlchan", "upright", "wib", "link", "femb_on_link", "cebchan",
	"plane", "chan_in_plane", "femb", "asic", "asicchan", "wibframechan"}

// ReadFDHDTable parses a per-APA channel table with the columns
// offlchan upright wib link femb_on_link cebchan plane chan_in_plane femb
// asic asicchan wibframechan.
func ReadFDHDTable(r io.Reader, source string) ([]ChannelInfo, error) {
	table, _, err := ReadFDHDTableLines(r, source)
	return table, err
}

// ReadFDHDTableLines is ReadFDHDTable also returning the line each row was
// read from.
func ReadFDHDTableLines(r io.Reader, source string) ([]ChannelInfo, []int, error) {
	var (
		table []ChannelInfo
		lines []int
	)
	err := scanFields(r, source, fdhdColumns, func(line int, fields []string) error {
		v, err := parseUints(source, line, fields, fdhdColumnNames)
		if err != nil {
			return err
		}
		table = append(table, ChannelInfo{
			OfflChan:     v[0],
			Upright:      v[1],
			WIB:          v[2],
			Link:         v[3],
			FEMBOnLink:   v[4],
			CEBChan:      v[5],
			Plane:        v[6],
			ChanInPlane:  v[7],
			FEMB:         v[8],
			ASIC:         v[9],
			ASICChan:     v[10],
			WIBFrameChan: v[11],
			Valid:        true,
		})
		lines = append(lines, line)
		return nil
	})
	return table, lines, err
}

// ReadCrateList parses "crate APA_name" lines.
func ReadCrateList(r io.Reader, source string) ([]CrateEntry, error) {
	var entries []CrateEntry
	err := scanFields(r, source, crateColumns, func(line int, fields []string) error {
		crate, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return &ConfigurationError{Source: source, Line: line, Message: fmt.Sprintf("invalid crate %q", fields[0]), Err: err}
		}
		entries = append(entries, CrateEntry{Crate: uint32(crate), APAName: fields[1], Line: line})
		return nil
	})
	return entries, err
}

var electronicsColumnNames = []string{"offlchan", "detid", "detelement", "crate", "slot", "stream",
	"streamchan", "plane", "chan_in_plane", "femb", "asic", "asicchan"}

// ReadElectronicsTable parses a channel table with the columns
// offlchan detid detelement crate slot stream streamchan plane
// chan_in_plane femb asic asicchan.
func ReadElectronicsTable(r io.Reader, source string) ([]TPCChanInfo, error) {
	var table []TPCChanInfo
	err := scanFields(r, source, electronicsColumns, func(line int, fields []string) error {
		v, err := parseUints(source, line, fields, electronicsColumnNames)
		if err != nil {
			return err
		}
		table = append(table, TPCChanInfo{
			OfflChan:    v[0],
			DetID:       v[1],
			DetElement:  v[2],
			Crate:       v[3],
			Slot:        v[4],
			Stream:      v[5],
			StreamChan:  v[6],
			Plane:       v[7],
			ChanInPlane: v[8],
			FEMB:        v[9],
			ASIC:        v[10],
			ASICChan:    v[11],
			Valid:       true,
		})
		return nil
	})
	return table, err
}

func openMapFile(filename string) (*os.File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ConfigurationError{
			Source:  filename,
			Message: "cannot open map file",
			Err:     &ErrOpenFile{Filename: filename, Err: err},
		}
	}
	return file, nil
}

// ReadFDHDMapFromFiles builds an FDHDMap from a channel table file and a
// crate list file.
func ReadFDHDMapFromFiles(chanMapFile string, crateMapFile string, opts ...FDHDOption) (*FDHDMap, error) {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading channel map %s and crate map %s", chanMapFile, crateMapFile)
		logger.Info(message, "files")
	}
	chanFile, err := openMapFile(chanMapFile)
	if err != nil {
		return nil, err
	}
	defer chanFile.Close()
	table, lines, err := ReadFDHDTableLines(chanFile, chanMapFile)
	if err != nil {
		return nil, err
	}

	crateFile, err := openMapFile(crateMapFile)
	if err != nil {
		return nil, err
	}
	defer crateFile.Close()
	crates, err := ReadCrateList(crateFile, crateMapFile)
	if err != nil {
		return nil, err
	}
	opts = append([]FDHDOption{WithCrateSource(crateMapFile), WithTableLines(lines)}, opts...)
	return NewFDHDMap(table, crates, chanMapFile, opts...)
}

// ReadTPCChannelMapFromFile builds a TPCChannelMap from a table file.
func ReadTPCChannelMapFromFile(filename string, opts ...TPCMapOption) (*TPCChannelMap, error) {
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Reading channel map %s", filename)
		logger.Info(message, "files")
	}
	file, err := openMapFile(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	table, err := ReadElectronicsTable(file, filename)
	if err != nil {
		return nil, err
	}
	return NewTPCChannelMap(table, filename, opts...)
}
