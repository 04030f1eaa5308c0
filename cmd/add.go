package cmd

import (
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/project"
	"github.com/spf13/cobra"
)

var (
	addProjectName string
	addName        string
	addDesc        string
	addIngest      ingestFlags
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a dataset file as a new version in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		if addProjectName == "" {
			return fmt.Errorf("--project is required")
		}
		loadOpt, err := addIngest.loadOptions()
		if err != nil {
			return err
		}
		projDir, err := resolveProjectDirByName(addProjectName)
		if err != nil {
			return err
		}
		p, err := project.LoadProject(projDir)
		if err != nil {
			return err
		}
		dv, err := p.AddDataset(file, addName, addDesc, loadOpt)
		if err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset added: %s (%d rows, %d fields)\n", dv.Ref(), dv.Rows, len(dv.Fields))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addProjectName, "project", "p", "", "project name")
	addCmd.Flags().StringVar(&addName, "name", "", "dataset name (default: file name); re-adding a name creates a new version")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "dataset description")
	bindIngestFlags(addCmd, &addIngest)
}
