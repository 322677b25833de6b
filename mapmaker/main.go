package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	channelmap "github.com/dune/channelmap_go/pkg"
)

var logger channelmap.SlogLogger

func init() {
	logger = channelmap.NewSlogLogger(os.Stdout, os.Stderr, slog.LevelDebug)
}

func main() {
	outDir := flag.String("out", ".", "Output directory")
	rows := flag.Int("rows", 25, "Number of APA rows (6 crates each)")
	permute := flag.Bool("permute", false, "Apply the ASIC cabling permutation to the electronics map")
	flag.Parse()

	if err := run(*outDir, *rows, *permute); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return &channelmap.ErrOpenFile{Filename: path, Err: err}
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	logger.Info(fmt.Sprintf("Wrote %s", path), "mapmaker")
	return nil
}

func run(outDir string, rows int, permute bool) error {
	if rows < 1 || 6*rows > channelmap.NumAPAs {
		return fmt.Errorf("rows must be between 1 and %d", channelmap.NumAPAs/6)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	crates := channelmap.GenerateCrateList(rows)
	table := channelmap.GenerateFDHDTable()
	electronics := channelmap.GenerateElectronicsMap(crates, permute)

	err := writeFile(filepath.Join(outDir, "FDHDChannelMap.txt"), func(w io.Writer) error {
		return channelmap.WriteFDHDTable(w, table)
	})
	if err != nil {
		return err
	}
	err = writeFile(filepath.Join(outDir, "FDHDCrateMap.txt"), func(w io.Writer) error {
		return channelmap.WriteCrateList(w, crates)
	})
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, "FDHDElectronicsMap.txt"), func(w io.Writer) error {
		return channelmap.WriteElectronicsTable(w, electronics)
	})
}
