package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = `{
  "name": "people",
  "fields": ["A", "B", "C"],
  "rows": [
    {"A": null, "B": 1, "C": null},
    {"A": 1, "B": null, "C": null},
    {"A": 2, "B": 2, "C": 2},
    {"A": 3, "B": 3, "C": 3},
    {"A": null, "B": 4, "C": 5}
  ]%s
}`

func newTestServer() *httptest.Server {
	s := New(Config{
		Defaults: quality.DefaultOptions(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return httptest.NewServer(s.Handler())
}

func post(t *testing.T, ts *httptest.Server, path, payload string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeMissingness(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, out := post(t, ts, "/v1/analyze", strings.Replace(body, "%s",
		`, "view": "missingness", "criteria": {"missing_only": true}`, 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "people", out["name"])
	assert.Equal(t, "missingness", out["view"])
	assert.Equal(t, []any{0.0, 1.0, 4.0}, out["filtered_indexes"])

	summary := out["summary"].(map[string]any)
	assert.Equal(t, 5.0, summary["total_rows"])
	assert.InDelta(t, 50.0, summary["best_score"].(float64), 1e-9)
	assert.NotNil(t, out["sample_matrix"])
}

func TestAnalyzeTableViewOmitsCorrelation(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, out := post(t, ts, "/v1/analyze", strings.Replace(body, "%s", "", 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, ok := out["correlation"]
	assert.False(t, ok)
}

func TestFilterUniqueOnly(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, out := post(t, ts, "/v1/filter", `{
		"fields": ["k"],
		"rows": [{"k": "x"}, {"k": "x"}, {"k": "y"}],
		"criteria": {"unique_only": true, "unique_fields": ["k"]}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, out["matched"])
	assert.Equal(t, 3.0, out["total"])
	assert.Equal(t, []any{2.0}, out["indexes"])
}

func TestCorrelationEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, out := post(t, ts, "/v1/correlation", strings.Replace(body, "%s", `, "top_pairs": 1`, 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pairs := out["top_pairs"].([]any)
	require.Len(t, pairs, 1)
	best := out["best_pair"].(map[string]any)
	assert.Equal(t, "B", best["a"])
	assert.Equal(t, "C", best["b"])
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	resp, out := post(t, ts, "/v1/summary", strings.Replace(body, "%s", "", 1))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, out["total_fields"])
}

func TestContractViolationsReturn400(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	cases := map[string]string{
		"unknown missing field": strings.Replace(body, "%s",
			`, "criteria": {"missing_only": true, "missing_field": "Z"}`, 1),
		"unknown unique field": strings.Replace(body, "%s",
			`, "criteria": {"unique_only": true, "unique_fields": ["A", "nope"]}`, 1),
		"unknown field with filter off": strings.Replace(body, "%s",
			`, "criteria": {"missing_field": "zzz"}`, 1),
		"bad view":         strings.Replace(body, "%s", `, "view": "pie"`, 1),
		"malformed":        `{"rows": [`,
		"duplicate fields": `{"fields": ["a", "a"], "rows": []}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := post(t, ts, "/v1/analyze", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()
	payload := `{
		"view": "missingness",
		"datasets": [
			{"name": "one", "rows": [{"a": 1}, {"a": null}]},
			{"rows": [[1]]},
			{"name": "three", "rows": [{"b": ""}]}
		]
	}`
	resp, out := post(t, ts, "/v1/analyze/batch", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := out["results"].([]any)
	require.Len(t, items, 3)

	first := items[0].(map[string]any)
	assert.Equal(t, 0.0, first["index"])
	assert.Equal(t, "one", first["result"].(map[string]any)["name"])

	second := items[1].(map[string]any)
	assert.NotEmpty(t, second["error"])

	third := items[2].(map[string]any)
	assert.Equal(t, "three", third["result"].(map[string]any)["name"])
}
