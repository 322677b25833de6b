package channelmap

import (
	"encoding/json"
	"fmt"
	"os"
)

type Configuration struct {
	Verbosity        int            `json:"verbosity"`
	Source           Source         `json:"source"`
	MapFormat        MapFormat      `json:"map_format"`
	ChanMapFile      string         `json:"chan_map_file"`
	CrateMapFile     string         `json:"crate_map_file"`
	SubstituteCrate  int            `json:"substitute_crate"`
	NAPAs            int            `json:"n_apas"`
	RunNumber        int            `json:"run_number"`
	Host             string         `json:"host"`
	User             string         `json:"user"`
	Passwd           string         `json:"pass"`
	DBName           string         `json:"dbname"`
	NumWorkers       int            `json:"num_workers"`
	SelfTest         bool           `json:"self_test"`
	Queries          []uint32       `json:"queries"`
	FileOut          string         `json:"file_out"`
	CompressionLevel int            `json:"compression_level"`
	GeometryFile     string         `json:"geometry_file"`
	ReadoutVariant   ReadoutVariant `json:"readout_variant"`
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}

// DefaultConfiguration returns the values used for every field missing from
// a configuration file. A negative substitute crate selects the first crate
// of the crate map.
func DefaultConfiguration() Configuration {
	return Configuration{
		Verbosity:        0,
		Source:           SourceFile,
		MapFormat:        FormatFDHD,
		SubstituteCrate:  -1,
		NAPAs:            NumAPAs,
		Host:             "localhost",
		User:             "dunereader",
		Passwd:           "readonly",
		DBName:           "DUNEChannelMaps",
		NumWorkers:       4,
		CompressionLevel: 4,
		ReadoutVariant:   ReadoutAPA,
	}
}

func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &ErrOpenFile{Filename: filename, Err: err}
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("error decoding configuration file %q: %w", filename, err)
	}
	return config, nil
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Source: %s", config.Source), "config")
	logger.Info(fmt.Sprintf("Map format: %s", config.MapFormat), "config")
	logger.Info(fmt.Sprintf("Channel map file: %s", config.ChanMapFile), "config")
	logger.Info(fmt.Sprintf("Crate map file: %s", config.CrateMapFile), "config")
	logger.Info(fmt.Sprintf("Substitute crate: %d", config.SubstituteCrate), "config")
	logger.Info(fmt.Sprintf("Number of APAs: %d", config.NAPAs), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Self test: %t", config.SelfTest), "config")
	logger.Info(fmt.Sprintf("Queries: %v", config.Queries), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Geometry file: %s", config.GeometryFile), "config")
	logger.Info(fmt.Sprintf("Readout variant: %s", config.ReadoutVariant), "config")
}
