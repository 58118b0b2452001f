package main

import (
	"fmt"

	"github.com/jonathan/portfolio/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio page over HTTP",
		Long: `Mounts the portfolio view and serves it on GET /. The profile document is
loaded once per mount; a failed load can be retried from the page.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}
	cmd.Flags().Int("port", 8080, "Port to listen on")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	renderer, err := a.newRenderer()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:           a.cfg.Port,
		Source:         a.newSource(),
		Renderer:       renderer,
		Contact:        a.contact(),
		RefreshSeconds: a.cfg.RefreshSeconds,
		Logger:         a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}
