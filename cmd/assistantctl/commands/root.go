// Package commands implements the assistantctl subcommands.
package commands

import "github.com/spf13/cobra"

// NewRootCmd creates the assistantctl command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assistantctl",
		Short:         "Operations tool for Project Assistant",
		Long:          "CLI tool for applying the schema, inspecting project templates and debugging intent detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewMigrateCmd())
	rootCmd.AddCommand(NewTemplatesCmd())
	rootCmd.AddCommand(NewClassifyCmd())
	rootCmd.AddCommand(NewOIDCTestCmd())

	return rootCmd
}
