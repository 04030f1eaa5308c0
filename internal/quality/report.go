package quality

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// heatmapRows caps the rows drawn by the text heatmap; the full matrix
// stays available in Result.SampleMatrix.
const heatmapRows = 40

// Markdown renders a compact report suitable for terminals or docs.
func (r *Result) Markdown() string {
	var b strings.Builder
	s := r.Summary
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.TotalRows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.TotalFields))
	b.WriteString(fmt.Sprintf("Missing cells: %d/%d (%.1f%%)\n", s.MissingCells, s.TotalCells, s.MissingRatio))
	b.WriteString(fmt.Sprintf("Rows with missing: %d (%.1f%%; single %d, multiple %d)\n",
		s.RowsWithMissing, s.RowsWithMissingRatio, s.SingleMissingRows, s.MultiMissingRows))
	b.WriteString(fmt.Sprintf("Complete rows: %d\n", s.CompleteRows))
	b.WriteString(fmt.Sprintf("Mean unique ratio: %.3f\n", s.MeanUniqueRatio))
	if len(s.TopMissingFields) > 0 {
		b.WriteString("Top missing fields: ")
		for i, fc := range s.TopMissingFields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", safeName(fc.Field), fc.Count))
		}
		b.WriteString("\n")
	}
	if s.BestPair != nil {
		b.WriteString(fmt.Sprintf("Most co-missing: %s ~ %s (%.1f%%)\n", safeName(s.BestPair.A), safeName(s.BestPair.B), s.BestScore))
	}

	b.WriteString("\n[COLUMNS]\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: missing %d (%.1f%%), unique %d (%.1f%%)\n",
			safeName(c.Field), c.MissingCount, c.MissingRate, c.UniqueCount, c.UniqueRate))
	}

	if r.Criteria.Active() {
		b.WriteString("\n[FILTERED ROWS]\n")
		b.WriteString(fmt.Sprintf("Filter: %s\n", describeCriteria(r.Criteria)))
		b.WriteString(fmt.Sprintf("Matched: %d/%d rows\n", len(r.FilteredIndexes), s.TotalRows))
	}
	if len(r.Preview) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		writeTable(&b, r.Fields, r.Preview)
	}

	if r.Correlation != nil {
		b.WriteString("\n[CO-MISSINGNESS]\n")
		if len(r.Correlation.TopPairs) == 0 {
			b.WriteString("(no co-missing field pairs)\n")
		}
		for _, p := range r.Correlation.TopPairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: jaccard=%.1f%% (%d/%d rows)\n",
				safeName(p.A), safeName(p.B), p.Percent, p.Intersection, p.Union))
		}
	}
	if r.View == ViewMissingness {
		b.WriteString("\n[MISSINGNESS HEATMAP]\n")
		switch r.Layout {
		case LayoutRows:
			writeRowHeatmap(&b, r.Fields, r.SampleMatrix)
		default:
			writeColumnHeatmap(&b, r.ColumnAggregate)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func describeCriteria(c Criteria) string {
	var parts []string
	if c.MissingOnly {
		if c.MissingField != "" {
			parts = append(parts, fmt.Sprintf("missing in %s", c.MissingField))
		} else {
			parts = append(parts, "missing in any field")
		}
	}
	if c.uniqueActive() {
		parts = append(parts, fmt.Sprintf("unique in any of %s", strings.Join(c.UniqueFields, ", ")))
	}
	return strings.Join(parts, " AND ")
}

// writeRowHeatmap draws '.' for missing cells and '#' for present ones.
func writeRowHeatmap(b *strings.Builder, fields []string, m [][]bool) {
	if len(m) == 0 {
		b.WriteString("(no rows)\n")
		return
	}
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(fields, ", ")))
	lim := len(m)
	if lim > heatmapRows {
		lim = heatmapRows
	}
	for i := 0; i < lim; i++ {
		b.WriteString(fmt.Sprintf("%6d ", i+1))
		for _, missing := range m[i] {
			if missing {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteString("\n")
	}
	if len(m) > lim {
		b.WriteString(fmt.Sprintf("... %d more sampled rows\n", len(m)-lim))
	}
}

func writeColumnHeatmap(b *strings.Builder, cols []ColumnIntensity) {
	if len(cols) == 0 {
		b.WriteString("(no columns)\n")
		return
	}
	width := 0
	for _, c := range cols {
		if n := len(safeName(c.Field)); n > width {
			width = n
		}
	}
	for _, c := range cols {
		bar := int(c.Alpha*20 + 0.5)
		b.WriteString(fmt.Sprintf("%-*s |%-20s| missing %.1f%% alpha %.2f\n",
			width, safeName(c.Field), strings.Repeat("█", bar), c.Ratio*100, c.Alpha))
	}
}

func writeTable(b *strings.Builder, fields []string, rows []dataset.Row) {
	b.WriteString("| ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(f))
	}
	b.WriteString(" |\n| ")
	for i := range fields {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i, f := range fields {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if v, ok := row[f]; ok && !IsMissing(v) {
				val = Normalize(v)
			}
			b.WriteString(safeVal(truncateRunes(val, 80)))
		}
		b.WriteString(" |\n")
	}
}

// truncateRunes shortens s to at most n runes, ending in "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
