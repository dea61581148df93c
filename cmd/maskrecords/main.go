// Command maskrecords prints the MaskRecords (centroid and outline) for mask
// PNGs as JSON, using the same extraction as the local mask store.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mask-annotator/internal/backend"
	"mask-annotator/internal/contour"
	maskimage "mask-annotator/internal/image"
)

func main() {
	dir := flag.String("dir", "", "Directory of mask PNGs (alternative to listing files)")
	indent := flag.Bool("indent", false, "Indent the JSON output")
	verbose := flag.Bool("v", false, "Log each mask to stderr")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: maskrecords [-dir masks/] [-indent] [mask.png ...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	paths := flag.Args()
	if *dir != "" {
		found, err := filepath.Glob(filepath.Join(*dir, "*.png"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list %s: %v\n", *dir, err)
			os.Exit(1)
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	records, failed := collect(paths, logger)
	if err := write(os.Stdout, records, *indent); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write records: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// collect extracts a record per path. Empty masks are skipped; unreadable
// files are counted as failures.
func collect(paths []string, logger *slog.Logger) ([]backend.MaskRecord, int) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	records := make([]backend.MaskRecord, 0, len(paths))
	failed := 0
	for _, path := range paths {
		rec, err := record(path)
		switch {
		case errors.Is(err, contour.ErrEmptyMask):
			logger.Warn("skipping empty mask", "path", path)
		case err != nil:
			logger.Error("failed to process mask", "path", path, "err", err)
			failed++
		default:
			logger.Debug("mask processed", "path", path, "mask_id", rec.MaskID, "points", len(rec.Contour))
			records = append(records, rec)
		}
	}
	return records, failed
}

func record(path string) (backend.MaskRecord, error) {
	src, err := maskimage.Load(path)
	if err != nil {
		return backend.MaskRecord{}, err
	}
	gray := maskimage.ToGray(src.Image)
	bin := *gray
	bin.Pix = append([]uint8(nil), gray.Pix...)
	maskimage.Binarize(&bin, maskimage.BinaryThreshold)

	res, err := contour.Extract(&bin)
	if err != nil {
		return backend.MaskRecord{}, fmt.Errorf("%s: %w", path, err)
	}
	return backend.MaskRecord{
		MaskID:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Centroid: res.Centroid,
		Contour:  res.Contour,
	}, nil
}

func write(w io.Writer, records []backend.MaskRecord, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(records)
}
