package prdoc_test

import (
	"testing"

	"github.com/fwojciec/prdoc"
	"github.com/stretchr/testify/assert"
)

func TestDefaultFormatter_Format(t *testing.T) {
	t.Parallel()

	cs := &prdoc.ChangeSet{
		Title:          "Add email validation",
		Description:    "Validates addresses before queueing.",
		BaseBranch:     "main",
		HeadBranch:     "feature/email",
		CommitMessages: []string{"Add validator\n\nLonger body here", "Wire into handler"},
	}
	files := []prdoc.FileChange{
		{
			Path:      "validator.go",
			Status:    prdoc.StatusAdded,
			Additions: 40,
			Deletions: 0,
			Patch:     "@@ -0,0 +1,3 @@\n+package mail\n+\n+func Valid(s string) bool { return true }",
		},
		{Path: "assets/logo.png", Status: prdoc.StatusModified},
	}

	out := (&prdoc.DefaultFormatter{}).Format(cs, files)

	assert.Contains(t, out, "PR Title: Add email validation")
	assert.Contains(t, out, "Validates addresses before queueing.")
	assert.Contains(t, out, "Branches: feature/email -> main")
	// Only the first line of a commit message is included.
	assert.Contains(t, out, "- Commit 1: Add validator")
	assert.NotContains(t, out, "Longer body here")
	assert.Contains(t, out, "=== FILE: validator.go (added, +40/-0) ===")
	assert.Contains(t, out, "+func Valid(s string) bool { return true }")
	assert.Contains(t, out, "(no textual diff available)")
	assert.Contains(t, out, "<context>")
	assert.Contains(t, out, "</diff>")
}
