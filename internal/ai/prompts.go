package ai

import (
	"fmt"
	"strings"
)

// NoneReply is the sentinel every prompt asks for when nothing fits.
const NoneReply = "None"

// BuildDuplicatePrompt asks for the single existing text that is an exact
// duplicate of candidate, echoed verbatim, or NoneReply.
func BuildDuplicatePrompt(candidate string, existing []string) string {
	var sb strings.Builder
	sb.WriteString("You are a deduplication assistant for a project tracker. ")
	sb.WriteString("Decide whether the NEW ITEM is an exact duplicate of one of the EXISTING ITEMS ")
	sb.WriteString("(same request, possibly with different casing, punctuation or spacing).\n\n")
	fmt.Fprintf(&sb, "NEW ITEM:\n%s\n\n", candidate)
	sb.WriteString("EXISTING ITEMS:\n")
	for _, text := range existing {
		fmt.Fprintf(&sb, "- %s\n", text)
	}
	sb.WriteString("\nRESPONSE FORMAT:\n")
	sb.WriteString("Reply with the duplicate existing item copied exactly as listed, and nothing else.\n")
	fmt.Fprintf(&sb, "If there is no exact duplicate, reply with %s.\n", NoneReply)
	return sb.String()
}

// BuildStoryIndexPrompt asks which numbered story message belongs under.
func BuildStoryIndexPrompt(message string, titles []string) string {
	var sb strings.Builder
	sb.WriteString("You are a project assistant routing incoming requests to existing user stories. ")
	sb.WriteString("Pick the story the MESSAGE most naturally belongs to as a sub-task.\n\n")
	fmt.Fprintf(&sb, "MESSAGE:\n%s\n\n", message)
	sb.WriteString("STORIES:\n")
	for i, title := range titles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
	}
	sb.WriteString("\nRESPONSE FORMAT:\n")
	sb.WriteString("Reply with only the number of the best story.\n")
	fmt.Fprintf(&sb, "If none of the stories is related, reply with %s.\n", NoneReply)
	return sb.String()
}

// BuildDescriptionPrompt asks for a short task description.
func BuildDescriptionPrompt(title string) string {
	return "You are a project assistant. Based on the following task title, " +
		"write a clear, concise task description in 2-3 sentences.\n" +
		"Task title: " + title
}

// BuildPriorityPrompt asks for one of the given priority names.
func BuildPriorityPrompt(title string, names []string) string {
	return "You're a project assistant. Based on the task below, decide the best priority.\n\n" +
		"Task: " + title + "\n" +
		"Available Priorities: " + strings.Join(names, ", ") + "\n\n" +
		"Reply only with the exact priority name."
}
