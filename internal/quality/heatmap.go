package quality

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// DefaultSampleCap bounds the rows of the sample matrix.
const DefaultSampleCap = 10000

// Alpha range of the column-aggregate intensity.
const (
	alphaFloor = 0.2
	alphaSpan  = 0.8
)

// HeatmapLayout selects between the two missingness heatmaps.
type HeatmapLayout string

const (
	// LayoutRows renders the per-row sample matrix.
	LayoutRows HeatmapLayout = "rows"
	// LayoutColumns renders one aggregated intensity per field.
	LayoutColumns HeatmapLayout = "columns"
)

// ParseLayout accepts "rows" or "columns"; empty means LayoutColumns.
func ParseLayout(s string) (HeatmapLayout, error) {
	switch HeatmapLayout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutColumns:
		return LayoutColumns, nil
	case LayoutRows:
		return LayoutRows, nil
	default:
		return "", fmt.Errorf("unsupported heatmap layout: %s (use rows|columns)", s)
	}
}

// ColumnIntensity is the aggregated missingness of one field.
type ColumnIntensity struct {
	Field string  `json:"field" yaml:"field"`
	Ratio float64 `json:"ratio" yaml:"ratio"` // missing/total rows, [0,1]
	Alpha float64 `json:"alpha" yaml:"alpha"` // 0.2 + 0.8*Ratio
}

// BuildSampleMatrix returns, for the first min(len(rows), limit) rows, one
// missing flag per field in field order. limit <= 0 uses DefaultSampleCap.
func BuildSampleMatrix(rows []dataset.Row, fields []string, limit int) [][]bool {
	if limit <= 0 {
		limit = DefaultSampleCap
	}
	n := len(rows)
	if n > limit {
		n = limit
	}
	out := make([][]bool, n)
	for i := 0; i < n; i++ {
		line := make([]bool, len(fields))
		for j, f := range fields {
			line[j] = MissingAt(rows[i], f)
		}
		out[i] = line
	}
	return out
}

// BuildColumnAggregate returns the intensity of every field keyed by name.
func BuildColumnAggregate(rows []dataset.Row, fields []string) map[string]ColumnIntensity {
	out := make(map[string]ColumnIntensity, len(fields))
	for _, c := range ColumnAggregateList(rows, fields) {
		out[c.Field] = c
	}
	return out
}

// ColumnAggregateList is BuildColumnAggregate in field order.
func ColumnAggregateList(rows []dataset.Row, fields []string) []ColumnIntensity {
	out := make([]ColumnIntensity, len(fields))
	for j, f := range fields {
		missing := 0
		for _, row := range rows {
			if MissingAt(row, f) {
				missing++
			}
		}
		ratio := 0.0
		if len(rows) > 0 {
			ratio = float64(missing) / float64(len(rows))
		}
		out[j] = ColumnIntensity{Field: f, Ratio: ratio, Alpha: alphaFloor + alphaSpan*ratio}
	}
	return out
}
