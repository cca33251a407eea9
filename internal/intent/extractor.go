package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Project types produced by ExtractProjectInfo
const (
	ProjectTypeHomeDecoration = "home-decoration"
	ProjectTypeTravel         = "travel"
	ProjectTypeParisTrip      = "paris-trip"
	ProjectTypeWedding        = "wedding"
	ProjectTypeAppDevelopment = "app-development"
	ProjectTypeFitness        = "fitness"
	ProjectTypeDiet           = "diet"
	ProjectTypeFinance        = "finance"
	ProjectTypeGeneric        = "generic"
)

// ProjectInfo is what a creation request says about the project to be created
type ProjectInfo struct {
	ProjectType string   `json:"project_type"`
	UserTasks   []string `json:"user_tasks"`
}

type typeRule struct {
	projectType string
	keywords    []string
}

// typeLadder is evaluated top to bottom; the first matching rule wins.
var typeLadder = []typeRule{
	{ProjectTypeHomeDecoration, []string{"home decoration", "interior", "decorat"}},
	{ProjectTypeTravel, []string{"trip", "travel", "vacation"}},
	{ProjectTypeWedding, []string{"wedding", "marry"}},
	{ProjectTypeAppDevelopment, []string{"app", "software", "development"}},
	{ProjectTypeFitness, []string{"workout", "fitness", "exercise"}},
	{ProjectTypeDiet, []string{"diet", "nutrition", "food"}},
	{ProjectTypeFinance, []string{"financial", "finance", "money", "budget"}},
}

// destinationRules refine a travel classification. Every matching rule
// overwrites the previous one, so the last match wins.
var destinationRules = []typeRule{
	{ProjectTypeParisTrip, []string{"paris"}},
}

var (
	numberedTaskPattern = regexp.MustCompile(`\d+\.\s*([^.,!?]+)`)
	bulletedTaskPattern = regexp.MustCompile(`[•\-*]\s*([^.,!?]+)`)
	taskMarkerPattern   = regexp.MustCompile(`tasks:|to-do:|todo:`)
	taskItemSeparator   = regexp.MustCompile(`,|;|\n`)
	needToPattern       = regexp.MustCompile(`(?:need to|have to|want to) ([^.,!?]+)`)
)

// ExtractProjectInfo classifies the project type of text and pulls out any tasks
// the user listed. Extracted tasks are lower-cased.
func ExtractProjectInfo(text string) ProjectInfo {
	input := strings.ToLower(text)

	info := ProjectInfo{
		ProjectType: classifyProjectType(input),
		UserTasks:   []string{},
	}

	info.UserTasks = append(info.UserTasks, captureAll(numberedTaskPattern, input)...)
	info.UserTasks = append(info.UserTasks, captureAll(bulletedTaskPattern, input)...)
	info.UserTasks = append(info.UserTasks, markerTasks(input)...)
	info.UserTasks = append(info.UserTasks, needToTasks(input)...)

	return info
}

func classifyProjectType(input string) string {
	for _, rule := range typeLadder {
		if !containsAny(input, rule.keywords) {
			continue
		}
		projectType := rule.projectType
		if projectType == ProjectTypeTravel {
			for _, dest := range destinationRules {
				if containsAny(input, dest.keywords) {
					projectType = dest.projectType
				}
			}
		}
		return projectType
	}
	return ProjectTypeGeneric
}

func captureAll(pattern *regexp.Regexp, input string) []string {
	var tasks []string
	for _, m := range pattern.FindAllStringSubmatch(input, -1) {
		if task := strings.TrimSpace(m[1]); task != "" {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// markerTasks returns the items between the first task marker and the next one
func markerTasks(input string) []string {
	parts := taskMarkerPattern.Split(input, -1)
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}

	var tasks []string
	for _, item := range taskItemSeparator.Split(parts[1], -1) {
		item = strings.TrimSpace(item)
		if item == "" || strings.Contains(item, "project") || utf8.RuneCountInString(item) <= 3 {
			continue
		}
		tasks = append(tasks, item)
	}
	return tasks
}

// needToTasks collects "need to X" phrases without repeating one it already found
func needToTasks(input string) []string {
	var tasks []string
	seen := make(map[string]bool)
	for _, task := range captureAll(needToPattern, input) {
		if seen[task] {
			continue
		}
		seen[task] = true
		tasks = append(tasks, task)
	}
	return tasks
}
