package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/portfolio/internal/fetch"
	"github.com/jonathan/portfolio/internal/observability"
	"github.com/jonathan/portfolio/internal/schemas"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a profile document",
		Long: `Loads the profile document, checks it against the profile schema and prints a
summary or the field errors.

With --schema the document is additionally checked against an external JSON
Schema file, for instance a stricter schema kept alongside a deployment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runValidate(cmd, schemaPath)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to an additional JSON Schema file")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, schemaPath string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := a.cfg.CheckSource(); err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	doc, err := a.newSource().FetchProfile(ctx)
	if err != nil {
		printer.PrintLoadError(err)
		return fmt.Errorf("validation failed: %w", err)
	}

	if schemaPath != "" {
		if err := a.validateAgainst(ctx, schemaPath); err != nil {
			printer.PrintLoadError(err)
			return fmt.Errorf("validation failed against %s: %w", schemaPath, err)
		}
	}

	printer.PrintProfile(doc)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed: %s\n", a.cfg.Source)
	return nil
}

// validateAgainst checks the raw source document against an external schema file.
func (a *app) validateAgainst(ctx context.Context, schemaPath string) error {
	source := a.cfg.Source
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return schemas.ValidateJSON(schemaPath, source)
	}

	schemaContent, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	opts := fetch.DefaultOptions()
	opts.Timeout = a.cfg.Timeout(fetch.DefaultTimeout)
	result, err := fetch.URL(ctx, source, opts)
	if err != nil {
		return err
	}
	return schemas.ValidateJSONString(string(schemaContent), string(result.Body))
}
