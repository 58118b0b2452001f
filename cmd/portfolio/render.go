package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/jonathan/portfolio/internal/observability"
	"github.com/jonathan/portfolio/internal/view"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the portfolio page to a static HTML file",
		Long: `Mounts the portfolio view, waits for the profile document to load and writes
the rendered page to --out (stdout when omitted). A failed load writes nothing
and exits non-zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRender(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output HTML file (default stdout)")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, out string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := a.cfg.CheckSource(); err != nil {
		return err
	}

	renderer, err := a.newRenderer()
	if err != nil {
		return err
	}

	v, err := view.New(a.newSource(), view.Options{
		Logger:   a.logger,
		Renderer: renderer,
		Contact:  a.contact(),
	})
	if err != nil {
		return err
	}
	defer v.Close()

	v.Initialize(ctx)
	if err := v.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for profile document: %w", err)
	}

	snap := v.Snapshot()
	if snap.State != view.StateLoaded {
		if a.cfg.Verbose {
			observability.NewPrinter(cmd.ErrOrStderr()).PrintLoadError(snap.Err)
		}
		return fmt.Errorf("failed to load profile document: %w", snap.Err)
	}

	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		return err
	}

	if a.cfg.Verbose {
		summary, err := observability.SummarizePage(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		observability.NewPrinter(cmd.ErrOrStderr()).PrintPageSummary(summary)
	}

	if out == "" {
		_, err := buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	a.logger.Info("Wrote portfolio page", zap.String("path", out), zap.Int("bytes", buf.Len()))
	return nil
}
