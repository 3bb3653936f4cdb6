// Package segment stores each corpus as a checksummed, snappy-compressed
// .wdx file inside a data directory.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
)

// Dir implements corpus.Store over a directory of segment files.
type Dir struct {
	dataDir string
	writer  *Writer
	logger  *slog.Logger
}

// OpenDir creates dataDir if needed.
func OpenDir(dataDir string) (*Dir, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating corpus data directory: %w", err)
	}
	return &Dir{
		dataDir: dataDir,
		writer:  NewWriter(dataDir),
		logger:  slog.Default().With("component", "segment-store"),
	}, nil
}

func (d *Dir) Save(ctx context.Context, snap corpus.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := d.writer.Write(snap)
	if err != nil {
		return fmt.Errorf("writing segment for %q: %w", snap.Name, err)
	}
	d.logger.Info("segment written", "segment", name, "words", len(snap.Words))
	return nil
}

// LoadAll reads every segment in name order. Unreadable segments are logged
// and skipped so one bad file does not block startup.
func (d *Dir) LoadAll(ctx context.Context) ([]corpus.Snapshot, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), FileExt) {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	snaps := make([]corpus.Snapshot, 0, len(segFiles))
	for _, name := range segFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seg, err := Read(filepath.Join(d.dataDir, name))
		if err != nil {
			d.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		snaps = append(snaps, seg.Snapshot)
	}
	d.logger.Info("segment recovery complete", "segments_loaded", len(snaps))
	return snaps, nil
}

func (d *Dir) Delete(ctx context.Context, name string) error {
	path := filepath.Join(d.dataDir, FileName(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing segment %s: %w", path, err)
	}
	return nil
}
