package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadOptions controls how a file is turned into a Snapshot.
type LoadOptions struct {
	CoerceOptions
	// Delimiter for CSV. If 0, chosen from the file extension.
	Delimiter rune
	// Sheet selects an XLSX sheet by name. Empty uses SheetIndex.
	Sheet string
	// SheetIndex is 1-based; <= 0 means the first sheet.
	SheetIndex int
	// MaxRows limits the rows kept; 0 means unlimited.
	MaxRows int
}

// Loader reads one tabular file format.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt LoadOptions) (*Snapshot, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Load selects a loader by filename and reads the file into a Snapshot.
func Load(path string, opt LoadOptions) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	for _, l := range registry {
		if !l.CanLoad(path) {
			continue
		}
		start := time.Now()
		snap, err := l.Load(path, opt)
		if err != nil {
			return nil, err
		}
		if snap.Name == "" {
			snap.Name = filepath.Base(path)
		}
		if err := snap.Validate(); err != nil {
			return nil, err
		}
		slog.Debug("dataset loaded",
			"path", path,
			"fields", len(snap.Fields),
			"rows", len(snap.Rows),
			"seen", snap.Seen,
			"elapsed", time.Since(start))
		return snap, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

// keepRow reports whether another row fits under MaxRows.
func (o LoadOptions) keepRow(kept int) bool {
	return o.MaxRows <= 0 || kept < o.MaxRows
}

// headerFields trims header cells and names blank ones column_N.
func headerFields(header []string) []string {
	fields := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := trimBOM(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s_%d", base, n)
				if seen[name] == 0 {
					break
				}
			}
			seen[base] = n
		}
		seen[name]++
		fields[i] = name
	}
	return fields
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(jsonLoader{})
}
