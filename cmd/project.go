package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/project"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var pmProject string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Inspect projects",
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project's datasets, versions and attached reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		dir, err := resolveProjectDirByName(pmProject)
		if err != nil {
			return err
		}
		p, err := project.LoadProject(dir)
		if err != nil {
			return err
		}
		fmt.Printf("Project: %s\n", p.Name)
		if p.Description != "" {
			fmt.Printf("Description: %s\n", p.Description)
		}
		fmt.Printf("Location: %s\n", p.RootDir())
		names := p.Names()
		if len(names) == 0 {
			fmt.Println("Datasets: (none)")
		} else {
			fmt.Println("Datasets:")
		}
		for _, name := range names {
			latest, err := p.Latest(name)
			if err != nil {
				return err
			}
			fmt.Printf("- %s (latest v%d: %d rows, %d fields)\n", name, latest.Version, latest.Rows, len(latest.Fields))
		}
		if len(p.Reports) > 0 {
			fmt.Println("Reports:")
			for _, r := range p.Reports {
				fmt.Printf("- %s\n", r)
			}
		}
		return nil
	},
}

// defaultProjectsDir returns projects_dir with a leading ~ expanded, or
// ~/.dataloom/projects when no config is loaded. The directory is created.
func defaultProjectsDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.ProjectsDir
	}
	if dir == "" || dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		switch dir {
		case "":
			dir = filepath.Join(home, ".dataloom", "projects")
		case "~":
			dir = home
		default:
			dir = filepath.Join(home, dir[2:])
		}
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureProjectDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("project name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid project name %q", name)
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// defaultLoadOptions applies config defaults to dataset loading.
func defaultLoadOptions() dataset.LoadOptions {
	var opt dataset.LoadOptions
	if cfg != nil {
		opt.MaxRows = cfg.MaxRows
	}
	return opt
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectShowCmd.Flags().StringVarP(&pmProject, "project", "p", "", "project name")
}
