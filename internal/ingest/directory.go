package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/extract"
)

type FileResult struct {
	Path    string
	HashHex string
	Err     string
}

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// ListPDFs walks root and returns the PDF files under it, sorted by path.
// Hidden entries are skipped when skipHidden is set. Unreadable entries are
// counted as failed and reported in results; the walk continues.
func ListPDFs(ctx context.Context, root string, skipHidden bool) ([]string, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var paths []string
	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, results, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)
	return paths, results, stats, nil
}

// LoadSources reads each path into an extract.Source named after the file's
// base name. The content hash of each file is returned alongside.
func LoadSources(paths []string) ([]extract.Source, []string, error) {
	sources := make([]extract.Source, 0, len(paths))
	hashes := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", p, err)
		}
		sum := sha256.Sum256(data)
		sources = append(sources, extract.Source{Name: filepath.Base(p), Path: p, Data: data})
		hashes = append(hashes, hex.EncodeToString(sum[:]))
	}
	return sources, hashes, nil
}
