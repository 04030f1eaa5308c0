package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type jsonLoader struct{}

func (jsonLoader) CanLoad(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}

func (jsonLoader) Load(path string, opt LoadOptions) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return DecodeJSON(b, filepath.Base(path), opt)
}

// envelope is the {"fields": [...], "rows": [...]} form. Rows may be
// objects or arrays aligned with fields.
type envelope struct {
	Name   string            `json:"name"`
	Fields []string          `json:"fields"`
	Rows   []json.RawMessage `json:"rows"`
}

// DecodeJSON accepts either an array of row objects or an envelope object.
// Without an explicit field list, fields are ordered by first appearance.
func DecodeJSON(b []byte, name string, opt LoadOptions) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return &Snapshot{Name: name}, nil
	}
	var env envelope
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &env.Rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
	case '{':
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		if env.Name != "" {
			name = env.Name
		}
	default:
		return nil, fmt.Errorf("decode dataset: expected array or object, got %q", trimmed[0])
	}

	snap := &Snapshot{Name: name, Fields: env.Fields}
	explicit := len(env.Fields) > 0
	known := make(map[string]struct{}, len(env.Fields))
	for _, f := range env.Fields {
		known[f] = struct{}{}
	}
	for i, raw := range env.Rows {
		snap.Seen++
		if !opt.keepRow(len(snap.Rows)) {
			continue
		}
		keys, row, err := decodeRow(raw, env.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i+1, err)
		}
		if !explicit {
			for _, k := range keys {
				if _, ok := known[k]; !ok {
					known[k] = struct{}{}
					snap.Fields = append(snap.Fields, k)
				}
			}
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap, nil
}

func decodeRow(raw json.RawMessage, fields []string) ([]string, Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil, fmt.Errorf("row must be an object or array")
	}
	row := Row{}
	switch delim {
	case '{':
		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, nil, err
			}
			key, _ := kt.(string)
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, nil, err
			}
			keys = append(keys, key)
			row[key] = jsonValue(v)
		}
		return keys, row, nil
	case '[':
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("array rows need a fields list")
		}
		for j := 0; dec.More(); j++ {
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, nil, err
			}
			if j < len(fields) {
				row[fields[j]] = jsonValue(v)
			}
		}
		return fields, row, nil
	default:
		return nil, nil, fmt.Errorf("row must be an object or array")
	}
}

// jsonValue maps decoded JSON onto row value types. Numbers become float64;
// nested objects and arrays are kept as decoded.
func jsonValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	default:
		return v
	}
}
