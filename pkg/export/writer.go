// Package export writes channel maps and wire readouts to HDF5 tables.
package export

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/wirereadout"
)

// Writer holds an HDF5 file with the groups /ChannelMap and /WireReadout.
// Groups and tables are created on first use.
type Writer struct {
	File             *hdf5.File
	Filename         string
	ChannelMapGroup  *hdf5.Group
	WireReadoutGroup *hdf5.Group
	ChannelsTable    *hdf5.Dataset
	CratesTable      *hdf5.Dataset
	ElectronicsTable *hdf5.Dataset
	PlanesTable      *hdf5.Dataset
	compressionLevel int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	// Set string size for HDF5
	hdf5.SetStringLength(STRLEN)

	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	if configuration := channelmap.GetConfiguration(); configuration.Verbosity > 0 {
		channelmap.GetLogger().Info(fmt.Sprintf("Creating file %s", filename), "export")
	}
	return &Writer{File: file, Filename: filename, compressionLevel: compressionLevel}, nil
}

func (w *Writer) channelMapGroup() (*hdf5.Group, error) {
	if w.ChannelMapGroup == nil {
		g, err := createGroup(w.File, "ChannelMap")
		if err != nil {
			return nil, err
		}
		w.ChannelMapGroup = g
	}
	return w.ChannelMapGroup, nil
}

func (w *Writer) table(slot **hdf5.Dataset, group *hdf5.Group, name string, datatype interface{}) (*hdf5.Dataset, error) {
	if *slot == nil {
		dset, err := createTable(group, name, datatype, w.compressionLevel)
		if err != nil {
			return nil, err
		}
		*slot = dset
	}
	return *slot, nil
}

// WriteFDHDMap writes every channel of the map to /ChannelMap/channels and
// its crates to /ChannelMap/crates.
func (w *Writer) WriteFDHDMap(m *channelmap.FDHDMap) error {
	group, err := w.channelMapGroup()
	if err != nil {
		return err
	}
	channels, err := w.table(&w.ChannelsTable, group, "channels", ChannelHDF5{})
	if err != nil {
		return err
	}
	crates, err := w.table(&w.CratesTable, group, "crates", CrateHDF5{})
	if err != nil {
		return err
	}

	channelData := channelRows(m.Channels())
	if err := writeArrayToTable(channels, &channelData); err != nil {
		return fmt.Errorf("error writing channels: %w", err)
	}
	crateData := crateRows(m.Crates())
	if err := writeArrayToTable(crates, &crateData); err != nil {
		return fmt.Errorf("error writing crates: %w", err)
	}
	return nil
}

// WriteTPCChannelMap writes an electronics map to /ChannelMap/electronics.
func (w *Writer) WriteTPCChannelMap(m *channelmap.TPCChannelMap) error {
	group, err := w.channelMapGroup()
	if err != nil {
		return err
	}
	table, err := w.table(&w.ElectronicsTable, group, "electronics", ElectronicsHDF5{})
	if err != nil {
		return err
	}
	data := electronicsRows(m.Channels())
	if err := writeArrayToTable(table, &data); err != nil {
		return fmt.Errorf("error writing electronics channels: %w", err)
	}
	return nil
}

// WriteReadout writes the channel range of every wire plane to
// /WireReadout/planes.
func (w *Writer) WriteReadout(ro wirereadout.Readout) error {
	if w.WireReadoutGroup == nil {
		g, err := createGroup(w.File, "WireReadout")
		if err != nil {
			return err
		}
		w.WireReadoutGroup = g
	}
	table, err := w.table(&w.PlanesTable, w.WireReadoutGroup, "planes", PlaneHDF5{})
	if err != nil {
		return err
	}
	data := planeRows(ro.PlaneRanges())
	if err := writeArrayToTable(table, &data); err != nil {
		return fmt.Errorf("error writing planes: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if configuration := channelmap.GetConfiguration(); configuration.Verbosity > 0 {
		channelmap.GetLogger().Info(fmt.Sprintf("Closing file %s", w.Filename), "export")
	}
	var errs []error

	tables := []struct {
		name string
		dset *hdf5.Dataset
	}{
		{"channels", w.ChannelsTable},
		{"crates", w.CratesTable},
		{"electronics", w.ElectronicsTable},
		{"planes", w.PlanesTable},
	}
	for _, t := range tables {
		if t.dset == nil {
			continue
		}
		if err := t.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s table: %w", t.name, err))
		}
	}
	if w.ChannelMapGroup != nil {
		if err := w.ChannelMapGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing channel map group: %w", err))
		}
	}
	if w.WireReadoutGroup != nil {
		if err := w.WireReadoutGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing wire readout group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
