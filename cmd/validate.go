package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/report"
	"github.com/indusense/testgen/internal/validation"
)

type validateOptions struct {
	testType     string
	strict       bool
	jsonOutput   bool
	failOnErrors bool
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate <project-file> <procedure.md>",
		Short: "Validate an existing procedure document against its project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.testType, "test-type", "t", "", "Test type of the document (default: configured type)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Also run strict validation")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&opts.failOnErrors, "fail-on-errors", false, "Exit non-zero when the document fails validation")
	return cmd
}

func runValidate(out io.Writer, projectPath, docPath string, opts validateOptions) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	project, err := a.parsers.Load(projectPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("reading procedure: %w", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("procedure %s is empty", docPath)
	}

	raw := opts.testType
	if raw == "" {
		raw = a.cfg.Generation.DefaultTestType
	}
	testType, err := models.ParseTestType(raw)
	if err != nil {
		return err
	}

	result := validation.ValidateAll(content, project, testType)
	var strict *models.ValidationResult
	if opts.strict {
		s := validation.ValidateStrict(content, project)
		strict = &s
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Result models.ValidationResult  `json:"result"`
			Strict *models.ValidationResult `json:"strict,omitempty"`
		}{result, strict}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, report.Validation(fmt.Sprintf("%s %s", project.ID, testType), result))
		if strict != nil {
			fmt.Fprintln(out, report.Validation("Strict", *strict))
		}
	}

	failed := !result.Passed || (strict != nil && !strict.Passed)
	if opts.failOnErrors && failed {
		return errValidationFailed
	}
	return nil
}
