package quality

import (
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// DefaultTopMissing is the length of Summary.TopMissingFields.
const DefaultTopMissing = 3

// FieldCount pairs a field with its missing-cell count.
type FieldCount struct {
	Field string `json:"field" yaml:"field"`
	Count int    `json:"count" yaml:"count"`
}

// Summary rolls up dataset-wide missingness.
type Summary struct {
	TotalRows            int          `json:"total_rows" yaml:"total_rows"`
	TotalFields          int          `json:"total_fields" yaml:"total_fields"`
	TotalCells           int          `json:"total_cells" yaml:"total_cells"`
	MissingCells         int          `json:"missing_cells" yaml:"missing_cells"`
	MissingRatio         float64      `json:"missing_ratio" yaml:"missing_ratio"` // percent
	RowsWithMissing      int          `json:"rows_with_missing" yaml:"rows_with_missing"`
	RowsWithMissingRatio float64      `json:"rows_with_missing_ratio" yaml:"rows_with_missing_ratio"` // percent
	SingleMissingRows    int          `json:"single_missing_rows" yaml:"single_missing_rows"`
	MultiMissingRows     int          `json:"multi_missing_rows" yaml:"multi_missing_rows"`
	CompleteRows         int          `json:"complete_rows" yaml:"complete_rows"`
	TopMissingFields     []FieldCount `json:"top_missing_fields" yaml:"top_missing_fields"`
	MeanUniqueRatio      float64      `json:"mean_unique_ratio" yaml:"mean_unique_ratio"` // [0,1]
	// Filled by Analyze only for the missingness view.
	BestPair  *PairScore `json:"best_pair,omitempty" yaml:"best_pair,omitempty"`
	BestScore float64    `json:"best_score" yaml:"best_score"`
}

// BuildSummary computes the Summary with DefaultTopMissing top fields.
func BuildSummary(rows []dataset.Row, fields []string) Summary {
	return BuildSummaryTopK(rows, fields, DefaultTopMissing)
}

// BuildSummaryTopK is BuildSummary keeping k top missing fields; k <= 0
// keeps DefaultTopMissing.
func BuildSummaryTopK(rows []dataset.Row, fields []string, k int) Summary {
	if k <= 0 {
		k = DefaultTopMissing
	}
	s := Summary{
		TotalRows:   len(rows),
		TotalFields: len(fields),
		TotalCells:  len(rows) * len(fields),
	}
	perField := make([]int, len(fields))
	for _, row := range rows {
		missing := 0
		for j, f := range fields {
			if MissingAt(row, f) {
				missing++
				perField[j]++
			}
		}
		s.MissingCells += missing
		switch {
		case missing == 1:
			s.RowsWithMissing++
			s.SingleMissingRows++
		case missing > 1:
			s.RowsWithMissing++
			s.MultiMissingRows++
		}
	}
	s.MissingRatio = percent(s.MissingCells, s.TotalCells)
	s.RowsWithMissingRatio = percent(s.RowsWithMissing, s.TotalRows)
	s.CompleteRows = s.TotalRows - s.RowsWithMissing

	top := make([]FieldCount, len(fields))
	for j, f := range fields {
		top[j] = FieldCount{Field: f, Count: perField[j]}
	}
	sort.SliceStable(top, func(a, b int) bool { return top[a].Count > top[b].Count })
	if len(top) > k {
		top = top[:k]
	}
	s.TopMissingFields = top
	s.MeanUniqueRatio = MeanUniqueRatio(rows, fields)
	return s
}
