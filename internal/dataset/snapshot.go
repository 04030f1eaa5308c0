package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot is returned when a snapshot's field list is unusable.
var ErrInvalidSnapshot = errors.New("invalid dataset snapshot")

// Row is a single record keyed by field name. A key that is not present is
// treated as an absent value. Values are nil, a number, a string or a bool.
type Row map[string]any

// Snapshot is the (fields, rows) pair handed to the analysis engine.
// It must not be mutated while an analysis is running.
type Snapshot struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []string `json:"fields" yaml:"fields"`
	Rows   []Row    `json:"rows" yaml:"rows"`
	// Seen counts the records read from the source; it is larger than
	// len(Rows) when a loader stopped at MaxRows.
	Seen int `json:"seen,omitempty" yaml:"seen,omitempty"`
}

// New builds a snapshot from the given fields and rows.
func New(name string, fields []string, rows []Row) *Snapshot {
	return &Snapshot{Name: name, Fields: fields, Rows: rows, Seen: len(rows)}
}

// Truncated reports whether the loader dropped rows because of MaxRows.
func (s *Snapshot) Truncated() bool { return s.Seen > len(s.Rows) }

// Validate checks that field names are non-empty and unique.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrInvalidSnapshot)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: field %d has an empty name", ErrInvalidSnapshot, i+1)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSnapshot, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}
