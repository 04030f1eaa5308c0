// Package quality computes data-quality statistics over a dataset snapshot:
// per-column missing and unique counts, row filtering, co-missingness
// correlation, dataset-wide summaries and heatmap matrices.
//
// Every function is a pure computation over its arguments. Nothing is
// cached between calls and inputs are never modified.
package quality

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// IsMissing reports whether a cell value counts as missing: nil, a NaN
// float, or a string that is empty after trimming. Booleans, other numbers
// (including 0) and values of any other type are present.
func IsMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// Cell returns the value of field in row and whether the key is present.
func Cell(row dataset.Row, field string) (any, bool) {
	v, ok := row[field]
	return v, ok
}

// MissingAt reports whether field is missing in row. Absent keys are missing.
func MissingAt(row dataset.Row, field string) bool {
	v, ok := Cell(row, field)
	return !ok || IsMissing(v)
}

// Normalize returns the comparison key of a present value: numbers in
// shortest form, strings trimmed, booleans as true/false.
func Normalize(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64, bits int) string {
	if f == 0 {
		// folds -0 into 0
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// indicator builds the missing-indicator vector of one field.
func indicator(rows []dataset.Row, field string) []bool {
	out := make([]bool, len(rows))
	for i, row := range rows {
		out[i] = MissingAt(row, field)
	}
	return out
}

// MissingIndicators returns one missing-indicator vector per field, in field
// order; each has one entry per row.
func MissingIndicators(rows []dataset.Row, fields []string) [][]bool {
	out := make([][]bool, len(fields))
	for i, f := range fields {
		out[i] = indicator(rows, f)
	}
	return out
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
