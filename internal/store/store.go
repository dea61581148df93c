// Package store keeps saved masks in a local directory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"mask-annotator/internal/backend"
	"mask-annotator/internal/contour"
	maskimage "mask-annotator/internal/image"
)

const indexFile = "index.json"

// DirStore writes each mask as <id>.png next to an index of MaskRecords.
type DirStore struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

var (
	_ backend.Store           = (*DirStore)(nil)
	_ backend.SessionResetter = (*DirStore)(nil)
)

// NewDirStore opens or creates the store directory.
func NewDirStore(dir string, logger *slog.Logger) (*DirStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &DirStore{dir: dir, logger: logger.With("component", "store")}, nil
}

// Dir returns the store directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// MaskPath returns where the PNG for maskID lives.
func (s *DirStore) MaskPath(maskID string) string {
	return filepath.Join(s.dir, maskID+".png")
}

// Save writes the mask and records its centroid and contour. Saving an
// existing maskID replaces its record.
func (s *DirStore) Save(ctx context.Context, maskID string, mask *image.Gray) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if maskID == "" || strings.ContainsAny(maskID, `/\`) {
		return fmt.Errorf("save mask: invalid id %q", maskID)
	}

	res, err := contour.Extract(mask)
	if err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := maskimage.SavePNG(s.MaskPath(maskID), mask); err != nil {
		return fmt.Errorf("save mask %s: %w", maskID, err)
	}

	records, err := s.readIndex()
	if err != nil {
		return err
	}
	rec := backend.MaskRecord{MaskID: maskID, Centroid: res.Centroid, Contour: res.Contour}
	if i := slices.IndexFunc(records, func(r backend.MaskRecord) bool { return r.MaskID == maskID }); i >= 0 {
		records[i] = rec
	} else {
		records = append(records, rec)
	}
	if err := s.writeIndex(records); err != nil {
		return err
	}

	s.logger.Info("mask saved", "mask_id", maskID,
		"vertices", len(res.Contour), "area", res.Area)
	return nil
}

// List returns records in save order.
func (s *DirStore) List(ctx context.Context) ([]backend.MaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readIndex()
}

// Reset deletes every saved mask and the index.
func (s *DirStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (name != indexFile && filepath.Ext(name) != ".png") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
		removed++
	}
	s.logger.Info("store reset", "removed", removed)
	return nil
}

func (s *DirStore) readIndex() ([]backend.MaskRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var records []backend.MaskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	return records, nil
}

func (s *DirStore) writeIndex(records []backend.MaskRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	tmp := filepath.Join(s.dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, indexFile)); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}
