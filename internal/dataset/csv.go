package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ReadCSV(f, filepath.Base(path), delim, opt)
}

// ReadCSV reads delimited text with a header row from r.
func ReadCSV(r io.Reader, name string, delim rune, opt LoadOptions) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Snapshot{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	fields := headerFields(header)
	snap := &Snapshot{Name: name, Fields: fields}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", snap.Seen+1, err)
		}
		snap.Seen++
		if !opt.keepRow(len(snap.Rows)) {
			continue
		}
		row := make(Row, len(fields))
		for j, field := range fields {
			// short records leave trailing fields absent
			if j >= len(rec) {
				break
			}
			row[field] = CoerceCell(rec[j], opt.CoerceOptions)
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func trimBOM(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
