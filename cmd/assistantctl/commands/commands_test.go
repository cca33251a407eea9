package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benvon/project-assistant/internal/intent"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want func(*testing.T, Classification)
	}{
		{
			name: "greeting",
			text: "  Hello ",
			want: func(t *testing.T, c Classification) {
				if c.Normalized != "hello" || c.Vague != string(intent.VagueGreeting) {
					t.Errorf("Expected greeting, got %+v", c)
				}
				if c.ProjectType != "" {
					t.Errorf("Expected no extraction for a greeting, got %q", c.ProjectType)
				}
			},
		},
		{
			name: "creation with travel destination",
			text: "Create a project for my trip to Paris",
			want: func(t *testing.T, c Classification) {
				if !c.CreateCommand {
					t.Fatal("Expected a creation command")
				}
				if c.ProjectType != intent.ProjectTypeParisTrip {
					t.Errorf("Expected paris-trip, got %q", c.ProjectType)
				}
				if len(c.SuggestedTasks) == 0 {
					t.Error("Expected template suggestions")
				}
			},
		},
		{
			name: "delete confirmation",
			text: "confirm delete",
			want: func(t *testing.T, c Classification) {
				if !c.DeleteConfirmation || c.CreateCommand {
					t.Errorf("Expected only delete confirmation, got %+v", c)
				}
			},
		},
	}

	library := intent.DefaultLibrary()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.want(t, Classify(library, tt.text))
		})
	}
}

func TestClassifyCmd(t *testing.T) {
	t.Parallel()

	out, err := run(t, "classify", "add", "all")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	var got Classification
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Expected YAML output, got %q: %v", out, err)
	}
	if got.Normalized != "add all" || !got.AddAll {
		t.Errorf("Expected add all, got %+v", got)
	}

	if _, err := run(t, "classify"); err == nil {
		t.Error("Expected error without a message")
	}
}

func TestTemplatesCmd(t *testing.T) {
	t.Parallel()

	out, err := run(t, "templates")
	if err != nil {
		t.Fatalf("templates failed: %v", err)
	}
	for _, projectType := range intent.DefaultLibrary().Types() {
		if !strings.Contains(out, "- "+projectType+" (") {
			t.Errorf("Expected %s in listing, got %q", projectType, out)
		}
	}

	out, err = run(t, "templates", "underwater-basket-weaving")
	if err != nil {
		t.Fatalf("templates failed: %v", err)
	}
	if !strings.Contains(out, "showing "+intent.DefaultTemplateKey) {
		t.Errorf("Expected fallback to the generic template, got %q", out)
	}
}

func TestTemplatesCmd_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	if err := os.WriteFile(valid, []byte("templates:\n  generic:\n    description: Anything\n    tasks:\n      - title: Plan it\n      - title: Do it\n      - title: Review it\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "templates", "--file", valid, "generic")
	if err != nil {
		t.Fatalf("templates --file failed: %v", err)
	}
	if !strings.Contains(out, "1. Plan it [TODO]") {
		t.Errorf("Expected custom catalogue task, got %q", out)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("templates:\n  travel:\n    tasks:\n      - title: Pack\n      - title: Book\n      - title: Go\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "templates", "--file", invalid); err == nil {
		t.Error("Expected error for a catalogue without a generic entry")
	}
}

func TestMigrateCmd_Print(t *testing.T) {
	t.Parallel()

	out, err := run(t, "migrate", "--print")
	if err != nil {
		t.Fatalf("migrate --print failed: %v", err)
	}
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS projects") {
		t.Errorf("Expected schema output, got %q", out)
	}
}
