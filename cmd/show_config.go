package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowConfigCmd() *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "show-config",
		Short: "Display the effective configuration",
		Long:  `Shows the configuration after the config file, .env file and environment variables are applied.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			if save != "" {
				redacted := *cfg
				redacted.OpenAI.APIKey = ""
				if err := redacted.Save(save); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved to %s\n", save)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the effective configuration to this YAML file")
	return cmd
}
