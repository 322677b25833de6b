package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	sqlx "github.com/jmoiron/sqlx"

	channelmap "github.com/dune/channelmap_go/pkg"
	"github.com/dune/channelmap_go/pkg/export"
)

var configuration channelmap.Configuration

var (
	logger         channelmap.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = channelmap.NewSlogLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	if err := run(*configFilename); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configFilename string) error {
	var err error
	configuration, err = channelmap.LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	channelmap.SetConfiguration(configuration)
	channelmap.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		channelmap.PrintConfiguration(configuration, logger)
	}

	var db sqlx.Queryer
	if configuration.Source == channelmap.SourceDB {
		dbConn, err := channelmap.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()
		db = dbConn
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if configuration.MapFormat == channelmap.FormatElectronics {
		return runElectronics(db)
	}
	return runFDHD(ctx, db)
}

func runFDHD(ctx context.Context, db sqlx.Queryer) error {
	registry := channelmap.NewFDHDRegistry(configuration, db)
	start := time.Now()
	m, err := registry.ForRun(configuration.RunNumber)
	if err != nil {
		return fmt.Errorf("error loading channel map for run %d: %w", configuration.RunNumber, err)
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Channel map loaded in %d ms: %d channels, default crate %d",
			time.Since(start).Milliseconds(), m.NChans(), m.DefaultCrate())
		logger.Info(message, "main")
	}

	for _, offlChan := range configuration.Queries {
		info, err := m.GetChanInfoFromOfflChan(offlChan)
		if err != nil {
			logger.Error(fmt.Sprintf("query %d: %v", offlChan, err))
			continue
		}
		address := info.Address()
		back := m.GetChanInfoFromWIBElements(address.Crate, address.Slot, address.Link, address.WIBFrameChan)
		logger.Info(fmt.Sprintf("%s -> offline channel %d", info, back.OfflChan), "query")
	}

	if configuration.SelfTest {
		start := time.Now()
		report, err := channelmap.SelfTest(ctx, m, configuration.NumWorkers)
		if err != nil {
			return fmt.Errorf("self test interrupted after %d channels: %w", report.Checked, err)
		}
		for _, mismatch := range report.Mismatches {
			logger.Error(mismatch.String())
		}
		message := fmt.Sprintf("Self test: %d channels checked, %d mismatches in %d ms",
			report.Checked, len(report.Mismatches), time.Since(start).Milliseconds())
		logger.Info(message, "selftest")
		if !report.OK() {
			return fmt.Errorf("self test failed with %d mismatches", len(report.Mismatches))
		}
	}

	if configuration.FileOut != "" {
		writer, err := export.NewWriter(configuration.FileOut, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writer.WriteFDHDMap(m); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	}
	return nil
}

func runElectronics(db sqlx.Queryer) error {
	registry := channelmap.NewTPCChannelMapRegistry(configuration, db)
	m, err := registry.ForRun(configuration.RunNumber)
	if err != nil {
		return fmt.Errorf("error loading channel map for run %d: %w", configuration.RunNumber, err)
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Channel map loaded: %d channels, substitute crate %d", m.NChannels(), m.SubstituteCrate())
		logger.Info(message, "main")
	}

	for _, offlChan := range configuration.Queries {
		info, ok := m.FindOfflChan(offlChan)
		if !ok {
			logger.Error(fmt.Sprintf("query %d: no such offline channel", offlChan))
			continue
		}
		back := m.ChanInfoFromElectronicsIDs(info.DetID, info.Crate, info.Slot, info.Stream, info.StreamChan)
		logger.Info(fmt.Sprintf("%s -> offline channel %d", info, back.OfflChan), "query")
	}

	if configuration.FileOut != "" {
		writer, err := export.NewWriter(configuration.FileOut, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writer.WriteTPCChannelMap(m); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	}
	return nil
}
