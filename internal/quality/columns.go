package quality

import (
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/montanaflynn/stats"
)

// ColumnStat holds missing and unique statistics for one field.
//
// UniqueRate divides by the total row count, not by the number of present
// values, so a field with few present values shows a low rate even when
// they are all distinct. MeanUniqueRatio uses the other definition.
type ColumnStat struct {
	Field           string  `json:"field" yaml:"field"`
	MissingCount    int     `json:"missing_count" yaml:"missing_count"`
	NonMissingCount int     `json:"non_missing_count" yaml:"non_missing_count"`
	UniqueCount     int     `json:"unique_count" yaml:"unique_count"`
	MissingRate     float64 `json:"missing_rate" yaml:"missing_rate"`
	UniqueRate      float64 `json:"unique_rate" yaml:"unique_rate"`
}

// ComputeColumnStats returns the statistics of every field keyed by name.
func ComputeColumnStats(rows []dataset.Row, fields []string) map[string]ColumnStat {
	out := make(map[string]ColumnStat, len(fields))
	for _, f := range fields {
		out[f] = columnStat(rows, f)
	}
	return out
}

// ColumnStatsList is ComputeColumnStats in field order.
func ColumnStatsList(rows []dataset.Row, fields []string) []ColumnStat {
	out := make([]ColumnStat, len(fields))
	for i, f := range fields {
		out[i] = columnStat(rows, f)
	}
	return out
}

func columnStat(rows []dataset.Row, field string) ColumnStat {
	s := ColumnStat{Field: field}
	distinct := make(map[string]struct{})
	for _, row := range rows {
		v, ok := row[field]
		if !ok || IsMissing(v) {
			s.MissingCount++
			continue
		}
		s.NonMissingCount++
		distinct[Normalize(v)] = struct{}{}
	}
	s.UniqueCount = len(distinct)
	s.MissingRate = percent(s.MissingCount, len(rows))
	s.UniqueRate = percent(s.UniqueCount, len(rows))
	return s
}

// MeanUniqueRatio averages, over all fields, the share of distinct values
// among present values. A field without present values contributes 0.
// The result is in [0,1]; no fields yields 0.
func MeanUniqueRatio(rows []dataset.Row, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	ratios := make(stats.Float64Data, len(fields))
	for i, f := range fields {
		s := columnStat(rows, f)
		if s.NonMissingCount == 0 {
			continue
		}
		ratios[i] = float64(s.UniqueCount) / float64(s.NonMissingCount)
	}
	// ratios is non-empty here, the only case stats.Mean rejects
	mean, _ := stats.Mean(ratios)
	return mean
}
