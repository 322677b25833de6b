package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/export"
	"github.com/dune/channelmap_go/pkg/geometry"
	"github.com/dune/channelmap_go/pkg/wirereadout"
)

var configuration channelmap.Configuration

var logger channelmap.SlogLogger

func init() {
	logger = channelmap.NewSlogLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	variant := flag.String("variant", "", "Readout variant, overrides the configuration (apa, cru, crp, coldbox)")
	flag.Parse()

	if err := run(*configFilename, *variant); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configFilename string, variant string) error {
	var err error
	configuration, err = channelmap.LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	if variant != "" {
		configuration.ReadoutVariant, err = channelmap.ParseReadoutVariant(variant)
		if err != nil {
			return err
		}
	}
	channelmap.SetConfiguration(configuration)
	channelmap.SetLogger(logger)
	if configuration.Verbosity > 0 {
		channelmap.PrintConfiguration(configuration, logger)
	}

	start := time.Now()
	detector, err := geometry.LoadDetector(configuration.GeometryFile, configuration.ReadoutVariant)
	if err != nil {
		return err
	}
	ro, err := wirereadout.Build(detector, configuration.ReadoutVariant)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("%s: %d channels in %d ms", detector.Name, ro.NChannels(), time.Since(start).Milliseconds()), "main")

	if configuration.Verbosity > 1 {
		for _, r := range ro.PlaneRanges() {
			message := fmt.Sprintf("plane %s view %s ROP %s: %d wires, channels [%d, %d)",
				r.Plane, r.View, r.ROP, r.NWires, r.Range.First, r.Range.Next)
			logger.Info(message, "wirereadout")
		}
	}

	for _, c := range configuration.Queries {
		wires, err := ro.ChannelToWire(c)
		if err != nil {
			logger.Error(fmt.Sprintf("query %d: %v", c, err))
			continue
		}
		rop, _ := ro.ChannelToROP(c)
		logger.Info(fmt.Sprintf("channel %d: %s %s ROP %s wires %v", c, ro.SignalType(c), ro.View(c), rop, wires), "query")
	}

	if configuration.FileOut != "" {
		writer, err := export.NewWriter(configuration.FileOut, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writer.WriteReadout(ro); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	}
	return nil
}
