package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/quality"
	"github.com/spf13/cobra"
)

var (
	anaProject    string
	anaVersion    string
	anaAttach     bool
	anaOutputPath string
	anaFormat     string
	anaIngest     ingestFlags
	anaEngine     engineFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a CSV/TSV/XLSX/JSON dataset for missing and unique values",
	Long: `Analyze computes per-column missing and unique counts, a dataset summary and
the rows matching the optional filters. With --view missingness it also ranks
co-missing field pairs and emits heatmap data.

Analyze a registered dataset version with -p <project> --version <name[@N]>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(anaFormat)
		if err != nil {
			return err
		}
		ingest := anaIngest
		ingest.maxRows = maxRowsDefault(anaIngest.maxRows, cmd.Flags().Changed("max-rows"))
		loadOpt, err := ingest.loadOptions()
		if err != nil {
			return err
		}
		opt, err := anaEngine.options()
		if err != nil {
			return err
		}

		p, err := openProject(anaProject, anaAttach || anaVersion != "")
		if err != nil {
			return err
		}
		if anaAttach && p == nil {
			return errors.New("--attach requires --project")
		}

		var path string
		switch {
		case anaVersion != "":
			if p == nil {
				return errors.New("--version requires --project")
			}
			if len(args) > 0 {
				return errors.New("pass either a file or --version, not both")
			}
			dv, err := p.Resolve(anaVersion)
			if err != nil {
				return err
			}
			path = dv.Path
		case len(args) == 1:
			path = args[0]
		default:
			return errors.New("a dataset file (or -p with --version) is required")
		}

		res, err := analyzeFile(path, loadOpt, opt)
		if err != nil {
			return err
		}
		data, err := renderResult(res, format)
		if err != nil {
			return err
		}
		if anaAttach {
			out, err := attachReport(p, reportBase(path, loadOpt.Sheet), format, data)
			if err != nil {
				return err
			}
			if err := p.Save(); err != nil {
				return err
			}
			fmt.Printf("✓ Added analysis to project '%s' as %s\n", p.Name, out)
			if anaOutputPath == "" {
				return nil
			}
		}
		return writeOutput(anaOutputPath, data)
	},
}

// analyzeFile loads one dataset and runs the engine over it.
func analyzeFile(path string, loadOpt dataset.LoadOptions, opt quality.Options) (*quality.Result, error) {
	start := time.Now()
	snap, err := dataset.Load(path, loadOpt)
	if err != nil {
		return nil, err
	}
	res, err := quality.Analyze(snap, opt)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", snap.Name, err)
	}
	slog.Debug("analysis complete",
		"dataset", snap.Name,
		"view", res.View,
		"rows", res.Summary.TotalRows,
		"filtered", len(res.FilteredIndexes),
		"elapsed", time.Since(start))
	return res, nil
}

func bindIngestFlags(cmd *cobra.Command, f *ingestFlags) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum rows to analyze (0 = unlimited; default from config)")
	cmd.Flags().BoolVar(&f.rawStrings, "raw", false, "keep cell text as-is instead of detecting numbers and booleans")
}

func bindEngineFlags(cmd *cobra.Command, f *engineFlags) {
	cmd.Flags().StringVar(&f.view, "view", "table", "view: table|missingness")
	cmd.Flags().StringVar(&f.layout, "layout", "columns", "missingness heatmap layout: rows|columns")
	cmd.Flags().BoolVar(&f.missingOnly, "missing-only", false, "keep only rows with a missing value")
	cmd.Flags().StringVar(&f.missingField, "missing-field", "", "restrict --missing-only to this field")
	cmd.Flags().BoolVar(&f.uniqueOnly, "unique-only", false, "keep only rows holding a value that occurs once in --unique-fields")
	cmd.Flags().StringVar(&f.uniqueFields, "unique-fields", "", "comma-separated fields checked by --unique-only")
	cmd.Flags().IntVar(&f.sampleCap, "sample-cap", 0, "max rows in the heatmap sample matrix (default from config)")
	cmd.Flags().IntVar(&f.topPairs, "top-pairs", 0, "number of co-missing pairs to rank (default from config)")
	cmd.Flags().IntVar(&f.topMissing, "top-missing", 0, "number of most-missing fields in the summary (default from config)")
	cmd.Flags().IntVar(&f.previewRows, "rows", 5, "number of filtered rows to include (0 disables)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaProject, "project", "p", "", "project name (for --version and --attach)")
	analyzeCmd.Flags().StringVar(&anaVersion, "version", "", "registered dataset to analyze: name, name@N or id")
	analyzeCmd.Flags().BoolVar(&anaAttach, "attach", false, "save the report into the project's reports directory")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "report format: markdown|json|yaml (default from config)")
	bindIngestFlags(analyzeCmd, &anaIngest)
	bindEngineFlags(analyzeCmd, &anaEngine)
}
