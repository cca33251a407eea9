package assistant

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/benvon/project-assistant/internal/intent"
)

// Fixed assistant replies
const (
	WelcomeMessage          = "Hi there! I'm your AI Project Assistant. How can I help you today?"
	DeleteConfirmPrompt     = `Are you sure you want to delete this project? This will also delete all tasks associated with it. This action cannot be undone. Reply "confirm delete" to proceed.`
	ProjectDeletedMessage   = "Project successfully deleted."
	DeleteFailedMessage     = "Sorry, I couldn't delete the project. Please try again later."
	NamingPrompt            = "I'd be happy to create a new project for you! To make it easier to find later, what would you like to name this project?"
	CreateFailedMessage     = "Sorry, I couldn't create the project. Please try again later."
	AllTasksAddedMessage    = "Great! I've added all the suggested tasks to your project. You can see them in the task panel."
	UnclearSelectionMessage = `I'm not sure which tasks you'd like to add. Please specify by task number (e.g., "add 1, 3") or name.`
	DeclinedMessage         = "No problem! You can always add more tasks later if you need to."
	NoProjectMessage        = "I couldn't find the project to add tasks to."
	FallbackFailedMessage   = "Sorry, I couldn't reach the assistant service. Please try again later."
	GenericErrorMessage     = "Sorry, I encountered an error. Please try again."
	LoginRequiredMessage    = "Please log in to continue."
)

var vagueResponses = map[intent.VagueCategory][]string{
	intent.VagueNewStart: {
		"A new adventure, huh%s? Are we talking about launching the next billion-dollar startup, planning a trip, or maybe starting a rock band? Give me a hint about what kind of project you're dreaming of!",
		"I love that spark of inspiration%s! What kind of project are you thinking about? A personal goal, a business idea, or maybe organizing an event?",
		"Ready to start something exciting%s? I'm here for it! Are you thinking about a business venture, a fitness challenge, or maybe a home improvement project?",
		"That's the spirit%s! Tell me more about what you want to create. Is it a work project, a creative endeavor, or maybe a personal development goal?",
	},
	intent.VagueGeneralHelp: {
		"I'd be happy to help%s! What area would you like assistance with? Project planning, task management, or something else entirely?",
		"Sure thing%s! To point you in the right direction, could you share what you're working on or what kind of help you need?",
		"Ready to assist%s! Are you looking for help with organizing tasks, creating a new project, or managing an existing one?",
		"At your service%s! To provide the best help, could you tell me a bit more about what you're trying to accomplish?",
	},
	intent.VagueGreeting: {
		"Hey there%s! What's on your mind today? Need help with a project or want to start something new?",
		"Hello%s! Ready to be productive today? What would you like to work on?",
		"Hi%s! Great to see you. Would you like to continue with an existing project or start a fresh one?",
		"Welcome back%s! What can I help you with today? Need project ideas or help organizing your tasks?",
	},
}

var fillerResponses = []string{
	"I see what you're saying%s. How can I help move this forward?",
	"Thanks for sharing that. What specific aspect would you like assistance with?",
	"Got it. Is there anything else you'd like to add or explain?",
	"I understand. Would you like some suggestions related to this?",
	"Interesting! Do you want me to help brainstorm some next steps?",
}

// Composer renders assistant replies. Variant selection goes through intn so tests
// can make it deterministic.
type Composer struct {
	intn func(n int) int
}

// NewComposer creates a composer. A nil intn uses math/rand.
func NewComposer(intn func(n int) int) *Composer {
	if intn == nil {
		intn = rand.IntN
	}
	return &Composer{intn: intn}
}

// Vague returns one of the canned replies for a vague category, addressed to name
// when it is not empty. Unknown categories use the general help replies.
func (c *Composer) Vague(category intent.VagueCategory, name string) string {
	variants, ok := vagueResponses[category]
	if !ok {
		variants = vagueResponses[intent.VagueGeneralHelp]
	}
	personalized := ""
	if name != "" {
		personalized = " " + name
	}
	return fmt.Sprintf(c.pick(variants), personalized)
}

// Filler returns a generic conversational reply used when the chat service has nothing to say
func (c *Composer) Filler(name string) string {
	variant := c.pick(fillerResponses)
	if !strings.Contains(variant, "%s") {
		return variant
	}
	personalized := ""
	if name != "" {
		personalized = ", " + name
	}
	return fmt.Sprintf(variant, personalized)
}

// ProjectCreated summarizes a new project, its user tasks and any suggestions still on offer
func (c *Composer) ProjectCreated(title string, userTasks []string, suggested []intent.ProjectTask) string {
	var b strings.Builder
	b.WriteString(`I've created your new project "` + title + `"`)

	if len(userTasks) > 0 {
		b.WriteString(" with the following tasks:\n\n")
		b.WriteString(numbered(userTasks))
	} else {
		b.WriteString(".")
	}

	if len(suggested) > 0 {
		b.WriteString("\n\nI also have some suggested tasks that might help. Would you like me to add any of these?\n\n")
		b.WriteString(numbered(taskTitles(suggested)))
		b.WriteString("\n\nLet me know which ones you'd like to add, or say \"add all\" to include all of them.")
	}

	return b.String()
}

// TasksAdded lists the suggested tasks that were added to the project
func (c *Composer) TasksAdded(tasks []intent.ProjectTask) string {
	return "Great! I've added the following tasks to your project: " + strings.Join(taskTitles(tasks), ", ")
}

// TaskFailed reports a task that could not be created after the tasks in added were
func (c *Composer) TaskFailed(added []string, failed string) string {
	if len(added) == 0 {
		return `Sorry, I couldn't add the task "` + failed + `". Please try again later.`
	}
	return `I added ` + strings.Join(quoteAll(added), ", ") + `, but I couldn't add the task "` + failed + `". Please try again later.`
}

func (c *Composer) pick(variants []string) string {
	i := c.intn(len(variants))
	if i < 0 || i >= len(variants) {
		i = 0
	}
	return variants[i]
}

func numbered(items []string) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

func taskTitles(tasks []intent.ProjectTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

// ProjectCreatedTaskFailed reports a project that was created while one of its
// user tasks could not be
func (c *Composer) ProjectCreatedTaskFailed(title string, added []string, failed string) string {
	msg := `I've created your new project "` + title + `"`
	if len(added) > 0 {
		msg += " with the tasks " + strings.Join(quoteAll(added), ", ")
	}
	return msg + `, but I couldn't add the task "` + failed + `". Please try again later.`
}

func quoteAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, `"`+item+`"`)
	}
	return out
}
