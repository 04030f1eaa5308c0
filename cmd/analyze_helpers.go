package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/project"
	"github.com/KaramelBytes/dataloom-cli/internal/quality"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// ingestFlags are the file-reading flags shared by analyze and analyze-batch.
type ingestFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
	rawStrings bool
}

func (f ingestFlags) loadOptions() (dataset.LoadOptions, error) {
	var opt dataset.LoadOptions
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	if f.maxRows < 0 {
		return opt, fmt.Errorf("--max-rows must be >= 0")
	}
	opt.Sheet = f.sheetName
	opt.SheetIndex = f.sheetIndex
	opt.MaxRows = f.maxRows
	opt.RawStrings = f.rawStrings
	return opt, nil
}

// engineFlags are the analysis flags shared by analyze and analyze-batch.
type engineFlags struct {
	view         string
	layout       string
	missingOnly  bool
	missingField string
	uniqueOnly   bool
	uniqueFields string
	sampleCap    int
	topPairs     int
	topMissing   int
	previewRows  int
}

func (f engineFlags) options() (quality.Options, error) {
	opt := quality.DefaultOptions()
	if cfg != nil {
		opt.SampleCap = cfg.SampleCap
		opt.TopPairs = cfg.TopPairs
		opt.TopMissing = cfg.TopMissingFields
	}
	view, err := quality.ParseView(f.view)
	if err != nil {
		return opt, err
	}
	layout, err := quality.ParseLayout(f.layout)
	if err != nil {
		return opt, err
	}
	opt.View = view
	opt.Layout = layout
	opt.Criteria = quality.Criteria{
		MissingOnly:  f.missingOnly || f.missingField != "",
		MissingField: strings.TrimSpace(f.missingField),
		UniqueOnly:   f.uniqueOnly,
		UniqueFields: splitList(f.uniqueFields),
	}
	if opt.Criteria.UniqueOnly && len(opt.Criteria.UniqueFields) == 0 {
		return opt, fmt.Errorf("--unique-only requires --unique-fields")
	}
	if f.sampleCap > 0 {
		opt.SampleCap = f.sampleCap
	}
	if f.topPairs > 0 {
		opt.TopPairs = f.topPairs
	}
	if f.topMissing > 0 {
		opt.TopMissing = f.topMissing
	}
	opt.PreviewRows = f.previewRows
	return opt, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// outputFormat returns the flag value, the configured default, or markdown.
func outputFormat(flag string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(flag))
	if f == "" && cfg != nil {
		f = cfg.OutputFormat
	}
	switch f {
	case "", "md", "markdown":
		return "markdown", nil
	case "json", "yaml":
		return f, nil
	case "yml":
		return "yaml", nil
	}
	return "", fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", flag)
}

func renderResult(res *quality.Result, format string) ([]byte, error) {
	switch format {
	case "json":
		return utils.PrettyJSON(res)
	case "yaml":
		b, err := yaml.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	default:
		return []byte(res.Markdown()), nil
	}
}

func formatExt(format string) string {
	switch format {
	case "json":
		return ".json"
	case "yaml":
		return ".yaml"
	default:
		return ".md"
	}
}

// maxRowsDefault prefers an explicit flag, then config.
func maxRowsDefault(flag int, changed bool) int {
	if changed || cfg == nil {
		return flag
	}
	return cfg.MaxRows
}

// reportBase builds a filesystem-safe stem from a dataset path and sheet.
func reportBase(path, sheet string) string {
	base := filepath.Base(path)
	stem := safeStem(strings.TrimSuffix(base, filepath.Ext(base)))
	if sheet != "" {
		stem += "__sheet-" + safeStem(sheet)
	}
	return stem
}

func safeStem(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "dataset"
	}
	return out
}

// attachReport writes data into the project's reports directory without
// overwriting an earlier report of the same stem.
func attachReport(p *project.Project, stem, format string, data []byte) (string, error) {
	ext := ".quality" + formatExt(format)
	name := stem + ext
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(p.ReportsDir(), name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s__%d%s", stem, i, ext)
	}
	out, err := p.AttachReport(name, data)
	if err != nil {
		return "", fmt.Errorf("attach report: %w", err)
	}
	return out, nil
}

// openProject loads the named project. With no name and lookup set, it falls
// back to the project containing the working directory, if any.
func openProject(name string, lookup bool) (*project.Project, error) {
	if name != "" {
		dir, err := resolveProjectDirByName(name)
		if err != nil {
			return nil, err
		}
		return project.LoadProject(dir)
	}
	if !lookup {
		return nil, nil
	}
	dir, err := utils.FindProjectRoot("")
	if err != nil {
		return nil, nil
	}
	slog.Debug("using project from working directory", "dir", dir)
	return project.LoadProject(dir)
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		fmt.Println(strings.TrimRight(string(data), "\n"))
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureProjectDir(dir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote analysis to %s\n", path)
	return nil
}
