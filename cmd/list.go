package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dataloom-cli/internal/project"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listProjects bool
	listDatasets bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --datasets")
		}
		if listProjects {
			return listAllProjects()
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --datasets")
		}
		projDir, err := resolveProjectDirByName(listProjName)
		if err != nil {
			return err
		}
		p, err := project.LoadProject(projDir)
		if err != nil {
			return err
		}
		if len(p.Datasets) == 0 {
			fmt.Println("(no datasets)")
			return nil
		}
		for _, d := range p.Datasets {
			fmt.Printf("- %s: %s (%d rows, %d fields) %s\n", d.ID, d.Ref(), d.Rows, len(d.Fields), d.Path)
		}
		return nil
	},
}

// listAllProjects prints every directory under projects_dir that loads as
// a project, with its dataset count.
func listAllProjects() error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read projects dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, utils.ProjectMarker)); err != nil {
			continue
		}
		p, err := project.LoadProject(dir)
		if err != nil {
			fmt.Printf("- %s (unreadable: %v)\n", e.Name(), err)
			continue
		}
		fmt.Printf("- %s (%d datasets, %d reports)\n", p.Name, len(p.Names()), len(p.Reports))
		n++
	}
	if n == 0 {
		fmt.Println("(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list dataset versions in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --datasets")
}
