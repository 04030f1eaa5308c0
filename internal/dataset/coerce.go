package dataset

import (
	"math"
	"strconv"
	"strings"
)

// CoerceOptions controls how raw text cells become typed values.
type CoerceOptions struct {
	// DecimalSeparator of numeric cells. If 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator is optional; if 0, common separators are stripped.
	ThousandsSeparator rune
	// RawStrings keeps every non-empty cell as a trimmed string.
	RawStrings bool
}

// CoerceCell converts a raw text cell into a typed value. Blank cells stay
// strings so that the missing-value check sees them as empty text.
func CoerceCell(raw string, opt CoerceOptions) any {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if opt.RawStrings {
		return v
	}
	switch strings.ToLower(v) {
	case "nan":
		return math.NaN()
	case "true":
		return true
	case "false":
		return false
	}
	if x, ok := parseNumeric(v, opt); ok {
		return x
	}
	return v
}

func parseNumeric(s string, opt CoerceOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	// cheap reject for plain text
	if !strings.ContainsAny(raw, "0123456789") {
		return 0, false
	}
	if strings.HasSuffix(raw, "%") {
		raw = strings.TrimSuffix(raw, "%")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
