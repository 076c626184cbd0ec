package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect the prompt template registry",
	}
	cmd.AddCommand(newPromptsListCmd(), newPromptsShowCmd())
	return cmd
}

func newPromptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered prompt versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPromptsList(cmd.OutOrStdout())
		},
	}
}

func newPromptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <version>",
		Short: "Print the template text of a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsShow(cmd.OutOrStdout(), args[0])
		},
	}
}

func runPromptsList(out io.Writer) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, v := range a.prompts.Versions() {
		marker := " "
		if v.Version == a.cfg.Generation.PromptVersion {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-8s %6d chars  %s\n", marker, v.Version, v.TemplateLength, v.Description)
	}
	return nil
}

func runPromptsShow(out io.Writer, version string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.prompts.Template(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}
