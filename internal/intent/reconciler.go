package intent

import "strings"

// Reconcile drops every suggested task whose title overlaps a user task title,
// compared case-insensitively in either direction. The order of the remaining
// suggestions is preserved.
func Reconcile(suggested []ProjectTask, userTasks []string) []ProjectTask {
	lowered := make([]string, 0, len(userTasks))
	for _, t := range userTasks {
		lowered = append(lowered, strings.ToLower(t))
	}

	kept := make([]ProjectTask, 0, len(suggested))
	for _, task := range suggested {
		title := strings.ToLower(task.Title)
		if overlapsAny(title, lowered) {
			continue
		}
		kept = append(kept, task)
	}
	return kept
}

func overlapsAny(title string, userTasks []string) bool {
	for _, u := range userTasks {
		if strings.Contains(u, title) || strings.Contains(title, u) {
			return true
		}
	}
	return false
}
