package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/quality"
	"golang.org/x/sync/errgroup"
)

// analyzeRequest carries the engine options. The dataset itself travels in
// the same body as name, fields and rows and is decoded by dataset.DecodeJSON.
type analyzeRequest struct {
	View        string           `json:"view"`
	Layout      string           `json:"layout"`
	Criteria    quality.Criteria `json:"criteria"`
	SampleCap   int              `json:"sample_cap"`
	TopPairs    int              `json:"top_pairs"`
	TopMissing  int              `json:"top_missing"`
	PreviewRows int              `json:"preview_rows"`
}

type batchRequest struct {
	analyzeRequest
	Datasets []json.RawMessage `json:"datasets"`
}

type batchItem struct {
	Index  int             `json:"index"`
	Result *quality.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type filterResponse struct {
	Name    string        `json:"name,omitempty"`
	Matched int           `json:"matched"`
	Total   int           `json:"total"`
	Indexes []int         `json:"indexes"`
	Rows    []dataset.Row `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, req, err := s.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := quality.Analyze(snap, s.options(req))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	snap, req, err := s.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	idx, err := quality.FilterIndexes(snap.Rows, snap.Fields, req.Criteria)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out := filterResponse{
		Name:    snap.Name,
		Matched: len(idx),
		Total:   len(snap.Rows),
		Indexes: idx,
		Rows:    make([]dataset.Row, len(idx)),
	}
	for i, j := range idx {
		out.Rows[i] = snap.Rows[j]
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	snap, req, err := s.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	corr := quality.ComputeMissingCorrelationTopK(snap.Rows, snap.Fields, s.options(req).TopPairs)
	writeJSON(w, http.StatusOK, map[string]any{
		"best_pair":  corr.BestPair,
		"best_score": corr.BestScore,
		"top_pairs":  corr.TopPairs,
		"fields":     corr.Fields,
		"matrix":     corr.Values(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, req, err := s.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sum := quality.BuildSummaryTopK(snap.Rows, snap.Fields, s.options(req).TopMissing)
	writeJSON(w, http.StatusOK, sum)
}

// handleAnalyzeBatch runs one Analyze per dataset on a bounded worker group.
// Failures are reported per item; the response keeps request order.
func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	opt := s.options(req.analyzeRequest)
	items := make([]batchItem, len(req.Datasets))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, raw := range req.Datasets {
		i, raw := i, raw
		g.Go(func() error {
			items[i].Index = i
			snap, err := dataset.DecodeJSON(raw, fmt.Sprintf("dataset_%d", i+1), dataset.LoadOptions{})
			if err == nil {
				err = snap.Validate()
			}
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			res, err := quality.Analyze(snap, opt)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*dataset.Snapshot, analyzeRequest, error) {
	var req analyzeRequest
	body, err := readBody(w, r)
	if err != nil {
		return nil, req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, req, fmt.Errorf("decode request: %w", err)
	}
	snap, err := dataset.DecodeJSON(body, "request", dataset.LoadOptions{})
	if err != nil {
		return nil, req, err
	}
	if err := snap.Validate(); err != nil {
		return nil, req, err
	}
	return snap, req, nil
}

func (s *Server) options(req analyzeRequest) quality.Options {
	opt := s.defaults
	if req.View != "" {
		opt.View = quality.View(req.View)
	}
	if req.Layout != "" {
		opt.Layout = quality.HeatmapLayout(req.Layout)
	}
	opt.Criteria = req.Criteria
	if req.SampleCap > 0 {
		opt.SampleCap = req.SampleCap
	}
	if req.TopPairs > 0 {
		opt.TopPairs = req.TopPairs
	}
	if req.TopMissing > 0 {
		opt.TopMissing = req.TopMissing
	}
	if req.PreviewRows > 0 {
		opt.PreviewRows = req.PreviewRows
	}
	return opt
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
