package intent

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/benvon/project-assistant/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultTemplateKey names the template used for unknown project types
const DefaultTemplateKey = ProjectTypeGeneric

//go:embed templates.yaml
var builtinTemplates []byte

// ProjectTask is a task proposal carried by a template or extracted from user text
type ProjectTask struct {
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description" yaml:"description"`
	Status      models.TaskStatus `json:"status" yaml:"status,omitempty"`
}

// ProjectTemplate is the canned content offered for a project type
type ProjectTemplate struct {
	Description    string        `json:"description" yaml:"description"`
	SuggestedTasks []ProjectTask `json:"suggested_tasks" yaml:"tasks"`
}

// TemplateLibrary maps project types to templates
type TemplateLibrary struct {
	templates map[string]ProjectTemplate
}

type templateFile struct {
	Templates map[string]ProjectTemplate `yaml:"templates"`
}

// ErrNoDefaultTemplate is returned when a catalogue lacks the default entry
var ErrNoDefaultTemplate = errors.New("template catalogue has no generic entry")

// DefaultLibrary returns the built-in template catalogue
func DefaultLibrary() *TemplateLibrary {
	lib, err := ParseLibrary(builtinTemplates)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in template catalogue: %v", err))
	}
	return lib
}

// SuggestedTaskCount is the number of suggested tasks every template carries
const SuggestedTaskCount = 3

// ParseLibrary parses a YAML template catalogue
func ParseLibrary(data []byte) (*TemplateLibrary, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template catalogue: %w", err)
	}
	if _, ok := file.Templates[DefaultTemplateKey]; !ok {
		return nil, ErrNoDefaultTemplate
	}
	for key, tmpl := range file.Templates {
		if len(tmpl.SuggestedTasks) != SuggestedTaskCount {
			return nil, fmt.Errorf("template %q has %d suggested tasks, want %d", key, len(tmpl.SuggestedTasks), SuggestedTaskCount)
		}
		for i := range tmpl.SuggestedTasks {
			if tmpl.SuggestedTasks[i].Status == "" {
				tmpl.SuggestedTasks[i].Status = models.TaskStatusTodo
			}
			if !tmpl.SuggestedTasks[i].Status.Valid() {
				return nil, fmt.Errorf("template %q has invalid task status %q", key, tmpl.SuggestedTasks[i].Status)
			}
		}
	}
	return &TemplateLibrary{templates: file.Templates}, nil
}

// Lookup returns the template for projectType, falling back to the default entry.
// The returned task slice is a copy.
func (l *TemplateLibrary) Lookup(projectType string) ProjectTemplate {
	tmpl, ok := l.templates[projectType]
	if !ok {
		tmpl = l.templates[DefaultTemplateKey]
	}
	tmpl.SuggestedTasks = append([]ProjectTask(nil), tmpl.SuggestedTasks...)
	return tmpl
}

// Has reports whether projectType has its own template
func (l *TemplateLibrary) Has(projectType string) bool {
	_, ok := l.templates[projectType]
	return ok
}

// Types lists the catalogue keys in sorted order
func (l *TemplateLibrary) Types() []string {
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
