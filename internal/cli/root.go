package cli

import (
	"github.com/spf13/cobra"
)

// Options holds flags shared by all subcommands.
type Options struct {
	APIBase string
	APIKey  string
}

// Execute runs the porflowctl CLI.
func Execute() error {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:               "porflowctl",
		Short:             "CLI for the porflow mint workflow orchestrator",
		Long:              `Submit mint instructions to a porflow server, run them synchronously, and inspect workflow outcomes.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.APIBase, "api", "http://localhost:8080", "base URL of the porflow server")
	rootCmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", "", "API key sent in the X-API-Key header")

	rootCmd.AddCommand(newSubmitCmd(opts))
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))

	return rootCmd.Execute()
}
