package commands

import (
	"fmt"
	"os"

	"github.com/benvon/project-assistant/internal/intent"
	"github.com/spf13/cobra"
)

// NewTemplatesCmd creates the templates command
func NewTemplatesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "templates [project-type]",
		Short: "List project templates",
		Long:  "List the template catalogue, or print the suggested tasks for one project type. Unknown types show the generic template.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library := intent.DefaultLibrary()
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read catalogue: %w", err)
				}
				library, err = intent.ParseLibrary(data)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, "Project templates:")
				for _, projectType := range library.Types() {
					tmpl := library.Lookup(projectType)
					fmt.Fprintf(out, "  - %s (%d tasks)\n", projectType, len(tmpl.SuggestedTasks))
				}
				return nil
			}

			projectType := args[0]
			if !library.Has(projectType) {
				fmt.Fprintf(out, "No template for %q, showing %s\n", projectType, intent.DefaultTemplateKey)
				projectType = intent.DefaultTemplateKey
			}
			tmpl := library.Lookup(projectType)
			fmt.Fprintf(out, "%s: %s\n", projectType, tmpl.Description)
			for i, task := range tmpl.SuggestedTasks {
				fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, task.Title, task.Status)
				if task.Description != "" {
					fmt.Fprintf(out, "     %s\n", task.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Validate and use this YAML catalogue instead of the built-in one")

	return cmd
}
