package quality

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// ErrInvalidView is returned for an unknown View.
var ErrInvalidView = errors.New("invalid view")

// View is the display mode the caller is rendering. Only ViewMissingness
// runs the correlation and heatmap passes.
type View string

const (
	ViewTable       View = "table"
	ViewMissingness View = "missingness"
)

// ParseView accepts "table" or "missingness"; empty means ViewTable.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewTable:
		return ViewTable, nil
	case ViewMissingness, "missing":
		return ViewMissingness, nil
	default:
		return "", fmt.Errorf("%w: %s (use table|missingness)", ErrInvalidView, s)
	}
}

// Options controls one Analyze call.
type Options struct {
	View     View
	Layout   HeatmapLayout
	Criteria Criteria
	// SampleCap bounds the sample matrix rows; 0 uses DefaultSampleCap.
	SampleCap int
	// TopPairs is the number of ranked co-missing pairs; 0 uses DefaultTopPairs.
	TopPairs int
	// TopMissing is the number of top missing fields; 0 uses DefaultTopMissing.
	TopMissing int
	// PreviewRows copies up to this many filtered rows into Result.Preview.
	PreviewRows int
}

// DefaultOptions returns the table view with no filters.
func DefaultOptions() Options {
	return Options{
		View:       ViewTable,
		Layout:     LayoutColumns,
		SampleCap:  DefaultSampleCap,
		TopPairs:   DefaultTopPairs,
		TopMissing: DefaultTopMissing,
	}
}

// Result bundles everything one recomputation produces.
type Result struct {
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	View      View          `json:"view" yaml:"view"`
	Layout    HeatmapLayout `json:"layout,omitempty" yaml:"layout,omitempty"`
	Criteria  Criteria      `json:"criteria" yaml:"criteria"`
	Fields    []string      `json:"fields" yaml:"fields"`
	Columns   []ColumnStat  `json:"columns" yaml:"columns"`
	Summary   Summary       `json:"summary" yaml:"summary"`
	Filtered  []dataset.Row `json:"-" yaml:"-"`
	// FilteredIndexes are positions of the filtered rows in the snapshot.
	FilteredIndexes []int `json:"filtered_indexes" yaml:"filtered_indexes"`
	// Preview holds copies of the first filtered rows with NaN as null.
	Preview []dataset.Row `json:"preview,omitempty" yaml:"preview,omitempty"`

	Correlation       *Correlation      `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	CorrelationMatrix [][]float64       `json:"correlation_matrix,omitempty" yaml:"correlation_matrix,omitempty"`
	SampleMatrix      [][]bool          `json:"sample_matrix,omitempty" yaml:"sample_matrix,omitempty"`
	ColumnAggregate   []ColumnIntensity `json:"column_aggregate,omitempty" yaml:"column_aggregate,omitempty"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Analyze runs the engine over snap. Column statistics, the summary and the
// filtered rows are always computed; the co-missingness pass and heatmaps
// only for ViewMissingness. The only errors are invalid options.
func Analyze(snap *dataset.Snapshot, opt Options) (*Result, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot is nil", dataset.ErrInvalidSnapshot)
	}
	view, err := ParseView(string(opt.View))
	if err != nil {
		return nil, err
	}
	layout, err := ParseLayout(string(opt.Layout))
	if err != nil {
		return nil, err
	}
	rows, fields := snap.Rows, snap.Fields

	idx, err := FilterIndexes(rows, fields, opt.Criteria)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Name:            snap.Name,
		View:            view,
		Criteria:        opt.Criteria,
		Fields:          fields,
		Columns:         ColumnStatsList(rows, fields),
		Summary:         BuildSummaryTopK(rows, fields, opt.TopMissing),
		FilteredIndexes: idx,
	}
	if opt.Criteria.Active() {
		res.Filtered = make([]dataset.Row, len(idx))
		for i, j := range idx {
			res.Filtered[i] = rows[j]
		}
	} else {
		res.Filtered = rows
	}
	if opt.PreviewRows > 0 {
		res.Preview = previewRows(res.Filtered, opt.PreviewRows)
	}

	if view == ViewMissingness {
		corr := ComputeMissingCorrelationTopK(rows, fields, opt.TopPairs)
		res.Layout = layout
		res.Correlation = &corr
		res.CorrelationMatrix = corr.Values()
		res.Summary.BestPair = corr.BestPair
		res.Summary.BestScore = corr.BestScore
		res.SampleMatrix = BuildSampleMatrix(rows, fields, opt.SampleCap)
		res.ColumnAggregate = ColumnAggregateList(rows, fields)
	}

	if snap.Truncated() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("analyzed only %d/%d rows due to MaxRows", len(rows), snap.Seen))
	}
	if view == ViewMissingness && len(rows) > len(res.SampleMatrix) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("heatmap sample limited to the first %d of %d rows", len(res.SampleMatrix), len(rows)))
	}
	return res, nil
}

// previewRows copies up to n rows, replacing NaN with nil so the copies
// serialize as JSON.
func previewRows(rows []dataset.Row, n int) []dataset.Row {
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]dataset.Row, n)
	for i := 0; i < n; i++ {
		cp := make(dataset.Row, len(rows[i]))
		for k, v := range rows[i] {
			switch t := v.(type) {
			case float64:
				if math.IsNaN(t) {
					v = nil
				}
			case float32:
				if math.IsNaN(float64(t)) {
					v = nil
				}
			}
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
