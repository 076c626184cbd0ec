package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/render"
	"github.com/indusense/testgen/internal/report"
	"github.com/indusense/testgen/internal/validation"
)

type generateOptions struct {
	testTypes     []string
	promptVersion string
	provider      string
	outputDir     string
	pdf           bool
	html          bool
	strict        bool
	failOnErrors  bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <project-file>",
		Short: "Generate test procedures for a project file",
		Long: `Generates one markdown document per test type for a JSON, YAML or TOML
project file, validates each and writes them to the output directory.

Examples:
  testgen generate project.yaml
  testgen generate project.json -t FAT -t SAT --pdf
  testgen generate project.toml --provider mock --strict --fail-on-errors`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.testTypes, "test-type", "t", nil, "Test types to generate (FAT, SAT, IQ, OQ); repeatable. Default: configured type")
	cmd.Flags().StringVar(&opts.promptVersion, "prompt-version", "", "Prompt template version")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Backend: mock or openai (default: by API key)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (default: configured output directory)")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "Also write a PDF for each document")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Also write an HTML page for each document")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Also run strict validation")
	cmd.Flags().BoolVar(&opts.failOnErrors, "fail-on-errors", false, "Exit non-zero when a document fails validation")
	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, path string, opts generateOptions) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	project, err := a.parsers.Load(path)
	if err != nil {
		return err
	}

	testTypes, err := parseTestTypes(opts.testTypes, cfg.Generation.DefaultTestType)
	if err != nil {
		return err
	}

	gen, err := a.generator(opts.provider)
	if err != nil {
		return err
	}

	results, err := gen.GenerateAll(ctx, project, testTypes, opts.promptVersion)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			fmt.Fprintln(out, report.Validation("Project "+project.ID, validation.ProjectValidator{}.Validate(project)))
		}
		return err
	}

	outDir := opts.outputDir
	if outDir == "" {
		outDir = cfg.Storage.OutputDirectory
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	failed := false
	for _, r := range results {
		base := filepath.Join(outDir, outputName(project.ID, r.TestType))
		if err := writeDocuments(base, r, project.ID, opts); err != nil {
			return err
		}
		fmt.Fprintln(out, report.Generation(base+".md", r.Metadata))

		var v models.ValidationResult
		if cfg.Generation.EnableValidation {
			v = validation.ValidateAll(r.Content, project, r.TestType)
			fmt.Fprintln(out, report.Validation(string(r.TestType)+" validation", v))
			failed = failed || !v.Passed

			if opts.strict || cfg.Generation.StrictValidation {
				s := validation.ValidateStrict(r.Content, project)
				fmt.Fprintln(out, report.Validation(string(r.TestType)+" strict validation", s))
				failed = failed || !s.Passed
			}
		}

		if a.metrics != nil && cfg.Metrics.EnableMetricsDB {
			if _, err := a.metrics.Record(ctx, gen.Metrics(r, v)); err != nil {
				a.logger.WithError(err).Warn("Failed to record generation metrics")
			}
		}
		if a.rates != nil {
			eur, quote := a.rates.ToEUR(ctx, r.Metadata.CostUSD)
			fmt.Fprintln(out, report.Dim(fmt.Sprintf("cost: EUR %.6f (rate %.4f, %s)", eur, quote.Rate, quote.Source)))
		}
		fmt.Fprintln(out)
	}

	if opts.failOnErrors && failed {
		return errValidationFailed
	}
	return nil
}

func writeDocuments(base string, r *generator.Result, projectID string, opts generateOptions) error {
	if err := os.WriteFile(base+".md", []byte(r.Content), 0644); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	if opts.pdf {
		data, err := render.NewPDFRenderer().Render(r.Content, projectID)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".pdf", data, 0644); err != nil {
			return fmt.Errorf("writing pdf: %w", err)
		}
	}
	if opts.html {
		data, err := render.NewHTMLRenderer().Render(r.Content)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".html", data, 0644); err != nil {
			return fmt.Errorf("writing html: %w", err)
		}
	}
	return nil
}

func parseTestTypes(raw []string, fallback string) ([]models.TestType, error) {
	if len(raw) == 0 {
		raw = []string{fallback}
	}
	out := make([]models.TestType, 0, len(raw))
	for _, r := range raw {
		tt, err := models.ParseTestType(r)
		if err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// outputName is "<project>_<TYPE>" with path-unsafe characters replaced.
func outputName(projectID string, tt models.TestType) string {
	id := strings.Trim(unsafeName.ReplaceAllString(projectID, "_"), "_")
	if id == "" {
		id = "project"
	}
	return id + "_" + string(tt)
}
