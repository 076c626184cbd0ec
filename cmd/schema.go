package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/parser"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Project file JSON schema",
	}
	cmd.AddCommand(newSchemaPrintCmd(), newSchemaCheckCmd())
	return cmd
}

func newSchemaPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the project JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := parser.ProjectSchemaJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newSchemaCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <project-file>",
		Short: "Check a project file against the schema and load it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaCheck(cmd.OutOrStdout(), args[0])
		},
	}
}

func runSchemaCheck(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	format := parser.DetectFormat(path, data)
	if format == "json" {
		if err := parser.CheckSchema(path, data); err != nil {
			return err
		}
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.parsers.LoadBytes(path, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: valid %s project %s (%d signals, %d requirements)\n",
		path, format, project.ID, len(project.Signals), len(project.Requirements))
	return nil
}
