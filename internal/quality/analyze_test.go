package quality

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func snapshotFixture() *dataset.Snapshot {
	rows, fields := filterFixture()
	return dataset.New("fixture.csv", fields, rows)
}

func TestAnalyzeTableViewSkipsCorrelation(t *testing.T) {
	res, err := Analyze(snapshotFixture(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, ViewTable, res.View)
	assert.Nil(t, res.Correlation)
	assert.Nil(t, res.SampleMatrix)
	assert.Nil(t, res.ColumnAggregate)
	assert.Nil(t, res.Summary.BestPair)
	assert.Len(t, res.Columns, 3)
	assert.Len(t, res.Filtered, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.FilteredIndexes)
}

func TestAnalyzeMissingnessView(t *testing.T) {
	rows := []dataset.Row{
		{"A": nil, "B": 1.0, "C": nil},
		{"A": 1.0, "B": nil, "C": nil},
		{"A": 2.0, "B": 2.0, "C": 2.0},
		{"A": 3.0, "B": 3.0, "C": 3.0},
		{"A": nil, "B": 4.0, "C": 5.0},
	}
	opt := DefaultOptions()
	opt.View = ViewMissingness
	opt.Criteria = Criteria{MissingOnly: true}
	res, err := Analyze(dataset.New("m", []string{"A", "B", "C"}, rows), opt)
	require.NoError(t, err)
	require.NotNil(t, res.Correlation)
	require.NotNil(t, res.Summary.BestPair)
	assert.Equal(t, "B", res.Summary.BestPair.A)
	assert.Equal(t, "C", res.Summary.BestPair.B)
	assert.InDelta(t, 50.0, res.Summary.BestScore, 1e-9)
	assert.Equal(t, res.Correlation.BestScore, res.Summary.BestScore)
	assert.Len(t, res.SampleMatrix, 5)
	assert.Len(t, res.ColumnAggregate, 3)
	assert.Len(t, res.CorrelationMatrix, 3)
	assert.Equal(t, []int{0, 1, 4}, res.FilteredIndexes)
	assert.Len(t, res.Filtered, 3)
}

func TestAnalyzeViewSwitchDoesNotChangeSharedResults(t *testing.T) {
	snap := snapshotFixture()
	table, err := Analyze(snap, DefaultOptions())
	require.NoError(t, err)
	opt := DefaultOptions()
	opt.View = ViewMissingness
	miss, err := Analyze(snap, opt)
	require.NoError(t, err)

	assert.Equal(t, table.Columns, miss.Columns)
	assert.Equal(t, table.FilteredIndexes, miss.FilteredIndexes)
	ignoreBest := cmpopts.IgnoreFields(Summary{}, "BestPair", "BestScore")
	if diff := cmp.Diff(table.Summary, miss.Summary, ignoreBest); diff != "" {
		t.Fatalf("summary differs between views (-table +missingness):\n%s", diff)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	snap := snapshotFixture()
	opt := DefaultOptions()
	opt.View = ViewMissingness
	opt.Criteria = Criteria{UniqueOnly: true, UniqueFields: []string{"A", "B"}}
	first, err := Analyze(snap, opt)
	require.NoError(t, err)
	second, err := Analyze(snap, opt)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Correlation{}, "Matrix")); diff != "" {
		t.Fatalf("repeated analysis differs:\n%s", diff)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	opt := DefaultOptions()
	opt.View = ViewMissingness
	res, err := Analyze(dataset.New("empty", []string{"a", "b"}, nil), opt)
	require.NoError(t, err)
	for _, c := range res.Columns {
		assert.Equal(t, 0.0, c.MissingRate)
		assert.Equal(t, 0.0, c.UniqueRate)
	}
	assert.Equal(t, 0.0, res.Summary.MissingRatio)
	assert.Equal(t, 0.0, res.Summary.RowsWithMissingRatio)
	assert.Equal(t, 0.0, res.Summary.MeanUniqueRatio)
	assert.Equal(t, 0.0, res.Correlation.BestScore)
	assert.Empty(t, res.Correlation.TopPairs)
	assert.Empty(t, res.SampleMatrix)
	for _, c := range res.ColumnAggregate {
		assert.Equal(t, 0.0, c.Ratio)
	}
}

func TestAnalyzeRejectsBadOptions(t *testing.T) {
	snap := snapshotFixture()

	_, err := Analyze(snap, Options{View: "chart"})
	assert.True(t, errors.Is(err, ErrInvalidView))

	_, err = Analyze(snap, Options{Criteria: Criteria{UniqueOnly: true, UniqueFields: []string{"nope"}}})
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "unique_fields", ce.Option)

	_, err = Analyze(nil, DefaultOptions())
	assert.True(t, errors.Is(err, dataset.ErrInvalidSnapshot))
}

func TestAnalyzeWarnsOnTruncationAndSampling(t *testing.T) {
	rows := make([]dataset.Row, 12)
	for i := range rows {
		rows[i] = dataset.Row{"a": float64(i)}
	}
	snap := dataset.New("big", []string{"a"}, rows)
	snap.Seen = 20
	opt := DefaultOptions()
	opt.View = ViewMissingness
	opt.SampleCap = 10
	res, err := Analyze(snap, opt)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "12/20")
	assert.Contains(t, res.Warnings[1], "first 10 of 12")
}

func TestAnalyzePreviewSerializes(t *testing.T) {
	rows := []dataset.Row{{"a": math.NaN(), "b": "x"}, {"a": 1.0, "b": nil}}
	opt := DefaultOptions()
	opt.View = ViewMissingness
	opt.PreviewRows = 5
	res, err := Analyze(dataset.New("nan", []string{"a", "b"}, rows), opt)
	require.NoError(t, err)
	require.Len(t, res.Preview, 2)
	assert.Nil(t, res.Preview[0]["a"])
	assert.True(t, math.IsNaN(rows[0]["a"].(float64)), "input must not be modified")

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"top_pairs"`)
	assert.NotContains(t, string(b), "NaN")

	y, err := yaml.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(y), "mean_unique_ratio")
}

func TestMarkdownSections(t *testing.T) {
	opt := DefaultOptions()
	opt.View = ViewMissingness
	opt.Criteria = Criteria{MissingOnly: true, MissingField: "C"}
	opt.PreviewRows = 2
	res, err := Analyze(snapshotFixture(), opt)
	require.NoError(t, err)
	md := res.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: fixture.csv",
		"Rows: 5",
		"[COLUMNS]",
		"- C: missing 2 (40.0%), unique 3 (60.0%)",
		"[FILTERED ROWS]",
		"Filter: missing in C",
		"Matched: 2/5 rows",
		"[HEAD AND SAMPLE ROWS]",
		"[CO-MISSINGNESS]",
		"[MISSINGNESS HEATMAP]",
		"alpha 0.52",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	opt.Layout = LayoutRows
	res, err = Analyze(snapshotFixture(), opt)
	require.NoError(t, err)
	md = res.Markdown()
	assert.Contains(t, md, "Columns: A, B, C")
	assert.Contains(t, md, "     1 ###")
	assert.Contains(t, md, "     3 ##.")
}

func TestMarkdownPreviewCutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	snap := dataset.New("wide.csv", []string{"note"}, []dataset.Row{{"note": long}})
	opt := DefaultOptions()
	opt.PreviewRows = 1
	res, err := Analyze(snap, opt)
	require.NoError(t, err)
	md := res.Markdown()
	want := strings.Repeat("é", 77) + "..."
	assert.Contains(t, md, "| "+want+" |")
	assert.True(t, utf8.ValidString(md))
	assert.Equal(t, "short", truncateRunes("short", 80))
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewTable, v)
	v, err = ParseView("Missingness")
	require.NoError(t, err)
	assert.Equal(t, ViewMissingness, v)
	_, err = ParseView("graph")
	assert.ErrorIs(t, err, ErrInvalidView)
}
