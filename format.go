package prdoc

import (
	"fmt"
	"strings"
)

// PromptFormatter renders a change set as structured text for LLM prompts.
// The files argument carries the analyzable subset, already truncated to the
// caller's input budget.
type PromptFormatter interface {
	Format(cs *ChangeSet, files []FileChange) string
}

// DefaultFormatter implements PromptFormatter with the standard format.
type DefaultFormatter struct{}

// Format renders PR metadata and per-file patches as structured text. Title
// and description are always included: they carry author intent that is not
// visible in the diff.
func (f *DefaultFormatter) Format(cs *ChangeSet, files []FileChange) string {
	var sb strings.Builder

	sb.WriteString("<context>\n")
	fmt.Fprintf(&sb, "PR Title: %s\n", cs.Title)
	if cs.Description != "" {
		fmt.Fprintf(&sb, "PR Description:\n%s\n", cs.Description)
	}
	if cs.BaseBranch != "" || cs.HeadBranch != "" {
		fmt.Fprintf(&sb, "Branches: %s -> %s\n", cs.HeadBranch, cs.BaseBranch)
	}
	if len(cs.CommitMessages) > 0 {
		sb.WriteString("\nCommits:\n")
		for i, msg := range cs.CommitMessages {
			fmt.Fprintf(&sb, "- Commit %d: %s\n", i+1, firstLine(msg))
		}
	}
	sb.WriteString("</context>\n\n")

	sb.WriteString("<diff>\n")
	for _, fc := range files {
		fmt.Fprintf(&sb, "=== FILE: %s (%s, +%d/-%d) ===\n",
			fc.Path, fc.Status, fc.Additions, fc.Deletions)
		if fc.Patch == "" {
			sb.WriteString("(no textual diff available)\n\n")
			continue
		}
		sb.WriteString(fc.Patch)
		if !strings.HasSuffix(fc.Patch, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("</diff>")

	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
