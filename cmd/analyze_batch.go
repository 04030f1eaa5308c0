package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	abProject string
	abFormat  string
	abWorkers int
	abQuiet   bool
	abIngest  ingestFlags
	abEngine  engineFlags
)

type batchReport struct {
	path string
	data []byte
}

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple datasets concurrently with optional project attachment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		format, err := outputFormat(abFormat)
		if err != nil {
			return err
		}
		ingest := abIngest
		ingest.maxRows = maxRowsDefault(abIngest.maxRows, cmd.Flags().Changed("max-rows"))
		loadOpt, err := ingest.loadOptions()
		if err != nil {
			return err
		}
		opt, err := abEngine.options()
		if err != nil {
			return err
		}

		p, err := openProject(abProject, false)
		if err != nil {
			return err
		}

		workers := abWorkers
		if workers <= 0 && cfg != nil {
			workers = cfg.BatchWorkers
		}
		if workers <= 0 {
			workers = 4
		}

		reports := make([]batchReport, len(files))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(workers)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := analyzeFile(path, loadOpt, opt)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				data, err := renderResult(res, format)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				reports[i] = batchReport{path: path, data: data}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Output and attachment stay sequential so reports appear in file order.
		total := len(reports)
		for i, r := range reports {
			if !abQuiet {
				fmt.Printf("[%d/%d] %s\n", i+1, total, filepath.Base(r.path))
			}
			if p != nil {
				out, err := attachReport(p, reportBase(r.path, loadOpt.Sheet), format, r.data)
				if err != nil {
					return err
				}
				if !abQuiet {
					fmt.Printf("✓ Added analysis to project '%s' as %s\n", p.Name, filepath.Base(out))
				}
				continue
			}
			if !abQuiet {
				fmt.Println(string(r.data))
			}
		}
		if p != nil {
			if err := p.Save(); err != nil {
				return err
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and returns
// the deduplicated list in sorted order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abProject, "project", "p", "", "project name to attach reports")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "", "report format: markdown|json|yaml (default from config)")
	analyzeBatchCmd.Flags().IntVar(&abWorkers, "workers", 0, "concurrent analyses (default from config batch_workers)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	bindIngestFlags(analyzeBatchCmd, &abIngest)
	bindEngineFlags(analyzeBatchCmd, &abEngine)
}
