package gemini

import (
	"strings"

	"github.com/fwojciec/prdoc"
	"github.com/fwojciec/prdoc/gitdiff"
)

// TruncateFiles bounds the total patch bytes across files so the formatted
// prompt stays within the oracle's input limit. The budget is spent in file
// order; within a file, trailing hunks are dropped first so the leading
// hunks, which usually carry the core of the change, survive.
func TruncateFiles(files []prdoc.FileChange, budget int) []prdoc.FileChange {
	if budget <= 0 {
		return files
	}

	out := make([]prdoc.FileChange, len(files))
	remaining := budget
	for i, fc := range files {
		out[i] = fc
		if fc.Patch == "" {
			continue
		}
		if len(fc.Patch) <= remaining {
			remaining -= len(fc.Patch)
			continue
		}
		out[i].Patch = truncatePatch(fc, remaining)
		remaining -= len(out[i].Patch)
	}
	return out
}

// truncatePatch trims a patch to at most limit bytes by dropping whole hunks
// from the end. Falls back to a byte cut at a line boundary when the patch
// does not parse as a unified diff.
func truncatePatch(fc prdoc.FileChange, limit int) string {
	if limit <= 0 {
		return ""
	}

	hunks, err := gitdiff.ParsePatch(fc.Path, fc.Patch)
	if err != nil || len(hunks) == 0 {
		return cutAtLine(fc.Patch, limit)
	}

	kept := hunks[:0]
	size := 0
	for _, h := range hunks {
		if size+len(h.Raw) > limit {
			break
		}
		size += len(h.Raw)
		kept = append(kept, h)
	}
	if len(kept) == 0 {
		// Even the first hunk exceeds the budget; keep its head.
		return cutAtLine(hunks[0].Raw, limit)
	}
	return gitdiff.Reassemble(kept)
}

// cutAtLine truncates text to at most limit bytes, at a line boundary when
// one exists.
func cutAtLine(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i]
	}
	return cut
}
