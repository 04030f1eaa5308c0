package quality

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// ErrUnknownField is wrapped by ConfigError when criteria name a field that
// is not part of the snapshot.
var ErrUnknownField = errors.New("unknown field")

// ConfigError reports criteria that do not match the snapshot's fields.
type ConfigError struct {
	Option string // "missing_field" or "unique_fields"
	Field  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: field %q is not in the dataset", e.Option, e.Field)
}

func (e *ConfigError) Unwrap() error { return ErrUnknownField }

// Criteria selects which rows FilterRows keeps. It is passed by value on
// every call; the zero value keeps every row.
type Criteria struct {
	// MissingOnly keeps rows with a missing value, in MissingField when it is
	// set or in any field otherwise.
	MissingOnly  bool   `json:"missing_only" yaml:"missing_only"`
	MissingField string `json:"missing_field,omitempty" yaml:"missing_field,omitempty"`
	// UniqueOnly keeps rows holding a value that occurs exactly once in at
	// least one of UniqueFields.
	UniqueOnly   bool     `json:"unique_only" yaml:"unique_only"`
	UniqueFields []string `json:"unique_fields,omitempty" yaml:"unique_fields,omitempty"`
}

func (c Criteria) missingActive() bool { return c.MissingOnly }

func (c Criteria) uniqueActive() bool { return c.UniqueOnly && len(c.UniqueFields) > 0 }

// Active reports whether any filter would drop rows.
func (c Criteria) Active() bool { return c.missingActive() || c.uniqueActive() }

// Validate checks every field named by c against fields, whether or not
// the filter naming it is switched on.
func (c Criteria) Validate(fields []string) error {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	if c.MissingField != "" {
		if _, ok := known[c.MissingField]; !ok {
			return &ConfigError{Option: "missing_field", Field: c.MissingField}
		}
	}
	for _, f := range c.UniqueFields {
		if _, ok := known[f]; !ok {
			return &ConfigError{Option: "unique_fields", Field: f}
		}
	}
	return nil
}

// FilterRows returns the rows that pass every active filter, in input order.
// With no active filter rows is returned as is.
func FilterRows(rows []dataset.Row, fields []string, c Criteria) ([]dataset.Row, error) {
	if !c.Active() {
		if err := c.Validate(fields); err != nil {
			return nil, err
		}
		return rows, nil
	}
	idx, err := FilterIndexes(rows, fields, c)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.Row, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out, nil
}

// FilterIndexes is FilterRows reporting positions into rows instead.
func FilterIndexes(rows []dataset.Row, fields []string, c Criteria) ([]int, error) {
	if err := c.Validate(fields); err != nil {
		return nil, err
	}
	var singles []map[string]struct{}
	var uniqueFields []string
	if c.uniqueActive() {
		uniqueFields = dedupe(c.UniqueFields)
		singles = make([]map[string]struct{}, len(uniqueFields))
		for i, f := range uniqueFields {
			singles[i] = singletonValues(rows, f)
		}
	}
	out := make([]int, 0, len(rows))
	for i, row := range rows {
		if c.missingActive() && !rowMissing(row, fields, c.MissingField) {
			continue
		}
		if c.uniqueActive() && !rowUnique(row, uniqueFields, singles) {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func rowMissing(row dataset.Row, fields []string, only string) bool {
	if only != "" {
		return MissingAt(row, only)
	}
	for _, f := range fields {
		if MissingAt(row, f) {
			return true
		}
	}
	return false
}

// rowUnique is true when any selected field holds a value seen only once.
func rowUnique(row dataset.Row, fields []string, singles []map[string]struct{}) bool {
	for i, f := range fields {
		v, ok := row[f]
		if !ok || IsMissing(v) {
			continue
		}
		if _, once := singles[i][Normalize(v)]; once {
			return true
		}
	}
	return false
}

// singletonValues returns the normalized present values of field that occur
// exactly once across rows.
func singletonValues(rows []dataset.Row, field string) map[string]struct{} {
	counts := make(map[string]int)
	for _, row := range rows {
		v, ok := row[field]
		if !ok || IsMissing(v) {
			continue
		}
		counts[Normalize(v)]++
	}
	out := make(map[string]struct{})
	for k, n := range counts {
		if n == 1 {
			out[k] = struct{}{}
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
