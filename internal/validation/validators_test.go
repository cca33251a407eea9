package validation

import (
	"strings"
	"testing"
)

type taskInput struct {
	Title  string `json:"title" validate:"notblank,max=200"`
	Status string `json:"status" validate:"omitempty,task_status"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   taskInput
		wantErr string
	}{
		{"valid", taskInput{Title: "Book flights", Status: "TODO"}, ""},
		{"status omitted", taskInput{Title: "Book flights"}, ""},
		{"blank title", taskInput{Title: "   "}, "title is required"},
		{"long title", taskInput{Title: strings.Repeat("x", 201)}, "title must be at most 200 characters"},
		{"bad status", taskInput{Title: "x", Status: "BLOCKED"}, "invalid status: BLOCKED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"a\x00b", "ab"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"TODO", "IN_PROGRESS", "DONE"} {
		if err := ValidateTaskStatus(ok); err != nil {
			t.Errorf("ValidateTaskStatus(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"todo", "", "BLOCKED"} {
		if err := ValidateTaskStatus(bad); err == nil {
			t.Errorf("ValidateTaskStatus(%q) = nil, want error", bad)
		}
	}
}
