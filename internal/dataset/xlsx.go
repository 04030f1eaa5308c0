package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

// Load reads the selected sheet. The first row is the header.
func (xlsxLoader) Load(path string, opt LoadOptions) (*Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.Sheet, opt.SheetIndex, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	name := filepath.Base(path)
	if opt.Sheet != "" {
		name = fmt.Sprintf("%s (sheet: %s)", name, sheet)
	}
	snap := &Snapshot{Name: name}
	first := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", snap.Seen+1, err)
		}
		if first {
			first = false
			snap.Fields = headerFields(cols)
			continue
		}
		snap.Seen++
		if !opt.keepRow(len(snap.Rows)) {
			continue
		}
		row := make(Row, len(snap.Fields))
		for j, field := range snap.Fields {
			if j >= len(cols) {
				break
			}
			row[field] = CoerceCell(cols[j], opt.CoerceOptions)
		}
		snap.Rows = append(snap.Rows, row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate sheet %q: %w", sheet, err)
	}
	return snap, nil
}

func pickSheet(sheets []string, name string, index int, file string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook '%s' has no sheets", file)
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			name, file, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range in workbook '%s' (%d sheets)", index, file, len(sheets))
	}
	return sheets[index-1], nil
}
