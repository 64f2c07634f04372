package prdoc

import (
	"fmt"
	"strings"
)

// maxPreviewLines bounds the diff preview so comments stay readable.
const maxPreviewLines = 100

// BuildComment renders the pull request comment describing a documentation
// update: the classification summary, the applied changes, and a collapsed
// diff preview.
func BuildComment(c *Classification, diffPreview string, notes []string) string {
	var sb strings.Builder

	sb.WriteString("## 📚 Documentation Update\n\n")
	sb.WriteString("Significant changes were detected and merged into the documentation.\n\n")
	fmt.Fprintf(&sb, "**Significance:** %s\n\n", strings.ToUpper(c.Significance.String()))

	writeFeatureList(&sb, "New Features", c.AddedFeatures)
	writeFeatureList(&sb, "Removed Features", c.RemovedFeatures)

	if len(c.ChangedBehavior) > 0 {
		sb.WriteString("**Changed Behavior:**\n")
		for _, note := range c.ChangedBehavior {
			fmt.Fprintf(&sb, "- %s\n", note)
		}
		sb.WriteString("\n")
	}
	if len(c.ConfigChanges) > 0 {
		sb.WriteString("**Configuration:**\n")
		for _, cc := range c.ConfigChanges {
			if cc.Effect != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", cc.Key, cc.Effect)
			} else {
				fmt.Fprintf(&sb, "- %s\n", cc.Key)
			}
		}
		sb.WriteString("\n")
	}
	if c.Summary != "" {
		fmt.Fprintf(&sb, "**Summary:**\n%s\n\n", c.Summary)
	}

	for _, note := range notes {
		fmt.Fprintf(&sb, "> Note: %s\n", note)
	}
	if len(notes) > 0 {
		sb.WriteString("\n")
	}

	if diffPreview != "" {
		sb.WriteString("### Document Changes\n\n")
		sb.WriteString("<details>\n<summary>Click to view diff</summary>\n\n```diff\n")
		sb.WriteString(truncatePreview(diffPreview))
		sb.WriteString("\n```\n\n</details>\n\n")
	}

	sb.WriteString("---\n\n*🤖 Generated by prdoc*\n")
	return sb.String()
}

func writeFeatureList(sb *strings.Builder, title string, features []Feature) {
	if len(features) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s:**\n", title)
	for _, f := range features {
		if f.Description != "" {
			fmt.Fprintf(sb, "- %s: %s\n", f.Name, f.Description)
		} else {
			fmt.Fprintf(sb, "- %s\n", f.Name)
		}
	}
	sb.WriteString("\n")
}

func truncatePreview(preview string) string {
	lines := strings.Split(preview, "\n")
	if len(lines) <= maxPreviewLines {
		return preview
	}
	return strings.Join(lines[:maxPreviewLines], "\n") + "\n... (diff truncated)"
}
