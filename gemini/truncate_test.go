package gemini_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoHunkPatch = "@@ -1,3 +1,4 @@\n ctx\n+added line one\n more\n last\n" +
	"@@ -10,2 +11,3 @@\n tail\n+added line two\n keep"

func TestTruncateFiles_WithinBudget(t *testing.T) {
	t.Parallel()

	files := []prdoc.FileChange{
		{Path: "a.go", Patch: twoHunkPatch},
		{Path: "b.go", Patch: "@@ -1,1 +1,2 @@\n keep\n+more"},
	}

	got := gemini.TruncateFiles(files, 1<<20)

	assert.Equal(t, files, got)
}

func TestTruncateFiles_ZeroBudgetDisablesTruncation(t *testing.T) {
	t.Parallel()

	files := []prdoc.FileChange{{Path: "a.go", Patch: twoHunkPatch}}

	got := gemini.TruncateFiles(files, 0)

	assert.Equal(t, files, got)
}

func TestTruncateFiles_DropsTrailingHunks(t *testing.T) {
	t.Parallel()

	files := []prdoc.FileChange{{Path: "a.go", Patch: twoHunkPatch}}
	budget := strings.Index(twoHunkPatch, "@@ -10") + 4

	got := gemini.TruncateFiles(files, budget)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Patch, "added line one")
	assert.NotContains(t, got[0].Patch, "added line two")
	assert.LessOrEqual(t, len(got[0].Patch), budget)
}

func TestTruncateFiles_BudgetSpentInFileOrder(t *testing.T) {
	t.Parallel()

	files := []prdoc.FileChange{
		{Path: "a.go", Patch: twoHunkPatch},
		{Path: "b.go", Patch: "@@ -1,1 +1,2 @@\n keep\n+second file change"},
	}

	got := gemini.TruncateFiles(files, len(twoHunkPatch)+8)

	require.Len(t, got, 2)
	// The first file fits whole; the second absorbs the truncation.
	assert.Equal(t, twoHunkPatch, got[0].Patch)
	assert.NotContains(t, got[1].Patch, "second file change")
}

func TestTruncateFiles_NonDiffFallsBackToLineCut(t *testing.T) {
	t.Parallel()

	patch := "not a unified diff\nline two\nline three\n"
	files := []prdoc.FileChange{{Path: "weird.bin", Patch: patch}}

	got := gemini.TruncateFiles(files, len("not a unified diff\nline tw"))

	require.Len(t, got, 1)
	// The cut lands on the last complete line within the budget.
	assert.Equal(t, "not a unified diff", got[0].Patch)
}

func TestTruncateFiles_EmptyPatchPassesThrough(t *testing.T) {
	t.Parallel()

	files := []prdoc.FileChange{
		{Path: "assets/logo.png", Patch: ""},
		{Path: "a.go", Patch: "@@ -1,1 +1,1 @@\n-x\n+y"},
	}

	got := gemini.TruncateFiles(files, 1<<20)

	assert.Equal(t, files, got)
}
