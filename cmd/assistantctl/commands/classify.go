package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/project-assistant/internal/intent"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Classification is what the intent matchers and extractor make of one message
type Classification struct {
	Normalized         string               `yaml:"normalized"`
	Vague              string               `yaml:"vague,omitempty"`
	DeleteCommand      bool                 `yaml:"delete_command"`
	DeleteConfirmation bool                 `yaml:"delete_confirmation"`
	CreateCommand      bool                 `yaml:"create_command"`
	AddAll             bool                 `yaml:"add_all"`
	AddOrYes           bool                 `yaml:"add_or_yes"`
	Decline            bool                 `yaml:"decline"`
	ProjectType        string               `yaml:"project_type,omitempty"`
	UserTasks          []string             `yaml:"user_tasks,omitempty"`
	SuggestedTasks     []intent.ProjectTask `yaml:"suggested_tasks,omitempty"`
}

// Classify runs every matcher over text. Project details are only extracted for creation commands.
func Classify(library *intent.TemplateLibrary, text string) Classification {
	normalized := intent.Normalize(text)
	c := Classification{
		Normalized:         normalized,
		Vague:              string(intent.DetectVague(normalized)),
		DeleteCommand:      intent.IsDeleteCommand(normalized),
		DeleteConfirmation: intent.IsDeleteConfirmation(normalized),
		CreateCommand:      intent.IsCreateCommand(normalized),
		AddAll:             intent.IsAddAll(normalized),
		AddOrYes:           intent.IsAddOrYes(normalized),
		Decline:            intent.IsDecline(normalized),
	}
	if c.CreateCommand {
		info := intent.ExtractProjectInfo(text)
		c.ProjectType = info.ProjectType
		c.UserTasks = info.UserTasks
		c.SuggestedTasks = intent.Reconcile(library.Lookup(info.ProjectType).SuggestedTasks, info.UserTasks)
	}
	return c
}

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Show how a chat message is interpreted",
		Long:  "Run the intent matchers and project extractor over a message without touching any data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := Classify(intent.DefaultLibrary(), strings.Join(args, " "))

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(result); err != nil {
				return fmt.Errorf("failed to encode classification: %w", err)
			}
			return encoder.Close()
		},
	}

	return cmd
}
