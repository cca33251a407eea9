// Package intent classifies free-form chat text into the commands the assistant understands.
// Everything here is a pure function over the latest user text.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// VagueCategory is the broad intent of an utterance that carries no actionable command
type VagueCategory string

const (
	VagueNone        VagueCategory = ""
	VagueNewStart    VagueCategory = "new_start"
	VagueGeneralHelp VagueCategory = "general_help"
	VagueGreeting    VagueCategory = "greeting"
)

var (
	newStartPhrases = []string{
		"start something",
		"wanna start",
		"begin something",
		"create something",
		"new idea",
		"i want to start",
	}
	helpExact     = []string{"help", "help me", "i need help", "assist me"}
	helpPhrases   = []string{"not sure what to do"}
	greetingExact = []string{"hi", "hello", "hey", "yo", "hi there", "hello there"}

	deletePhrases = []string{
		"remove this project",
		"delete this project",
		"remove the project",
		"delete the project",
	}
	createPhrases  = []string{"make a project", "create a project", "new project"}
	addAllPhrases  = []string{"add all", "add everything", "add them all"}
	declinePhrases = []string{"no", "don't", "dont"}

	ordinalPattern = regexp.MustCompile(`\d+`)
)

// Normalize lower-cases and trims text before matching
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// DetectVague classifies normalized text. Categories are evaluated in order
// new_start, general_help, greeting and the first match wins.
func DetectVague(normalized string) VagueCategory {
	if containsAny(normalized, newStartPhrases) {
		return VagueNewStart
	}
	if equalsAny(normalized, helpExact) || containsAny(normalized, helpPhrases) {
		return VagueGeneralHelp
	}
	if equalsAny(normalized, greetingExact) && len(strings.Split(normalized, " ")) <= 2 {
		return VagueGreeting
	}
	return VagueNone
}

// IsDeleteCommand reports a request to delete the currently selected project
func IsDeleteCommand(normalized string) bool {
	return containsAny(normalized, deletePhrases)
}

// IsDeleteConfirmation reports the confirmation phrase for a pending deletion
func IsDeleteConfirmation(normalized string) bool {
	return strings.Contains(normalized, "confirm delete")
}

// IsCreateCommand reports a request to create a new project
func IsCreateCommand(normalized string) bool {
	return containsAny(normalized, createPhrases)
}

// IsAddAll reports a request to accept every suggested task
func IsAddAll(normalized string) bool {
	return containsAny(normalized, addAllPhrases)
}

// IsAddOrYes reports a selective acceptance of suggested tasks
func IsAddOrYes(normalized string) bool {
	return strings.Contains(normalized, "add") || strings.Contains(normalized, "yes")
}

// IsDecline reports a refusal of the suggested tasks
func IsDecline(normalized string) bool {
	return containsAny(normalized, declinePhrases)
}

// SelectTasks picks the suggested tasks a reply refers to.
//
// Ordinals come first: every integer in the text within [1, len(suggested)] selects
// that task, in the order written. Without ordinals, every task whose lower-cased
// title appears in the text is selected. If nothing matched and the text contains
// "add" or is exactly "yes", all suggested tasks are selected.
func SelectTasks(normalized string, suggested []ProjectTask) []ProjectTask {
	var selected []ProjectTask

	for _, numStr := range ordinalPattern.FindAllString(normalized, -1) {
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		if num > 0 && num <= len(suggested) {
			selected = append(selected, suggested[num-1])
		}
	}

	if len(selected) == 0 {
		for _, task := range suggested {
			if strings.Contains(normalized, strings.ToLower(task.Title)) {
				selected = append(selected, task)
			}
		}
	}

	if len(selected) == 0 && (strings.Contains(normalized, "add") || normalized == "yes") {
		selected = append(selected, suggested...)
	}

	return selected
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func equalsAny(s string, values []string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
