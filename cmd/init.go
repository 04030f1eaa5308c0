package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dataloom-cli/internal/project"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
	initDatasets    string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new DataLoom project",
	Long: `Initialize creates <projects_dir>/<project-name>/project.json. Datasets passed
with --datasets are registered as version 1 of their file name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projDir, err := resolveProjectDirByName(args[0])
		if err != nil {
			return err
		}
		if err := checkEmptyProjectDir(projDir); err != nil {
			return err
		}
		p := project.NewProject(args[0], initDescription, projDir)
		for _, file := range splitList(initDatasets) {
			dv, err := p.AddDataset(file, "", "", defaultLoadOptions())
			if err != nil {
				return err
			}
			fmt.Printf("✓ Dataset added: %s (%d rows, %d fields)\n", dv.Ref(), dv.Rows, len(dv.Fields))
		}
		if err := utils.EnsureProjectDir(projDir); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Project initialized: %s\n", projDir)
		return nil
	},
}

// checkEmptyProjectDir refuses existing projects and non-empty directories.
func checkEmptyProjectDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspect project directory: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "project.json")); err == nil {
		return fmt.Errorf("project already exists at %s", dir)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize project", dir)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().StringVar(&initDatasets, "datasets", "", "comma-separated dataset files to register")
}
