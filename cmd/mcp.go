package cmd

import (
	"github.com/spf13/cobra"

	"github.com/indusense/testgen/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the generation tools over the Model Context Protocol (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			// stdout carries the protocol; logs stay on stderr.
			a.logger.Info("Starting MCP server on stdio")
			return mcpserver.New(mcpserver.Deps{
				Config:     a.cfg,
				Parsers:    a.parsers,
				Prompts:    a.prompts,
				Generators: a.generator,
				Recorder:   a.recorder(),
				Version:    Version,
				Logger:     a.logger,
			}).ServeStdio()
		},
	}
}
