package intent

import (
	"reflect"
	"testing"
)

func TestDetectVague(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  VagueCategory
	}{
		{name: "new start phrase", input: "i wanna start something cool", want: VagueNewStart},
		{name: "new idea", input: "i have a new idea", want: VagueNewStart},
		{name: "exact help", input: "help", want: VagueGeneralHelp},
		{name: "help me", input: "help me", want: VagueGeneralHelp},
		{name: "not sure", input: "i'm not sure what to do today", want: VagueGeneralHelp},
		{name: "help inside sentence", input: "can you help with my kitchen", want: VagueNone},
		{name: "greeting", input: "hello", want: VagueGreeting},
		{name: "two word greeting", input: "hi there", want: VagueGreeting},
		{name: "greeting with extra words", input: "hi there friend", want: VagueNone},
		{name: "new start wins over greeting words", input: "hey i want to start", want: VagueNewStart},
		{name: "command", input: "create a project", want: VagueNone},
		{name: "empty", input: "", want: VagueNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectVague(tt.input); got != tt.want {
				t.Errorf("DetectVague(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCommandMatchers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		match func(string) bool
		want  bool
	}{
		{name: "delete this project", input: "please delete this project", match: IsDeleteCommand, want: true},
		{name: "remove the project", input: "remove the project", match: IsDeleteCommand, want: true},
		{name: "delete a task is not a project delete", input: "delete this task", match: IsDeleteCommand, want: false},
		{name: "confirm delete", input: "confirm delete", match: IsDeleteConfirmation, want: true},
		{name: "confirm alone", input: "confirm", match: IsDeleteConfirmation, want: false},
		{name: "create a project", input: "create a project", match: IsCreateCommand, want: true},
		{name: "new project", input: "start a new project for my wedding", match: IsCreateCommand, want: true},
		{name: "make a project", input: "make a project", match: IsCreateCommand, want: true},
		{name: "no create", input: "create a task", match: IsCreateCommand, want: false},
		{name: "add all", input: "add all", match: IsAddAll, want: true},
		{name: "add them all", input: "please add them all", match: IsAddAll, want: true},
		{name: "add one", input: "add 1", match: IsAddAll, want: false},
		{name: "yes", input: "yes", match: IsAddOrYes, want: true},
		{name: "add", input: "add 2", match: IsAddOrYes, want: true},
		{name: "no", input: "no thanks", match: IsDecline, want: true},
		{name: "dont", input: "dont bother", match: IsDecline, want: true},
		{name: "ok", input: "ok", match: IsDecline, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.match(tt.input); got != tt.want {
				t.Errorf("match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSelectTasks(t *testing.T) {
	t.Parallel()

	suggested := []ProjectTask{
		{Title: "Choose destination", Description: "Research and select final destination"},
		{Title: "Book transportation", Description: "Reserve flights, train tickets, or plan road trip"},
		{Title: "Plan accommodations", Description: "Book hotels or other lodging options"},
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "ordinals", input: "add 1, 3", want: []string{"Choose destination", "Plan accommodations"}},
		{name: "ordinals in written order", input: "add 3 and 1", want: []string{"Plan accommodations", "Choose destination"}},
		{name: "out of range ignored", input: "add 0, 2, 7", want: []string{"Book transportation"}},
		{name: "by name", input: "add book transportation please", want: []string{"Book transportation"}},
		{name: "add without reference selects all", input: "add some", want: []string{"Choose destination", "Book transportation", "Plan accommodations"}},
		{name: "bare yes selects all", input: "yes", want: []string{"Choose destination", "Book transportation", "Plan accommodations"}},
		{name: "yes with words selects nothing", input: "yes maybe", want: nil},
		{name: "only out of range with add selects all", input: "add 9", want: []string{"Choose destination", "Book transportation", "Plan accommodations"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, task := range SelectTasks(tt.input, suggested) {
				got = append(got, task.Title)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTasks(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("  Create A Project \n"); got != "create a project" {
		t.Errorf("Normalize() = %q, want %q", got, "create a project")
	}
}
