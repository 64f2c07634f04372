// Package gitdiff parses unified diff patch fragments using
// bluekeyes/go-gitdiff.
package gitdiff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Hunk is one contiguous block of changes within a file's patch, kept as the
// raw text needed to reassemble a truncated patch.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Raw                string // header line plus prefixed content lines
}

// ParsePatch splits a file's patch into hunks. Diff sources deliver patches
// as bare hunk sequences without file headers, so a minimal header pair is
// synthesized before parsing.
func ParsePatch(path, patch string) ([]Hunk, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}
	text := fmt.Sprintf("--- a/%s\n+++ b/%s\n%s", path, path, patch)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing patch for %s: %w", path, err)
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("parsing patch for %s: expected one file, got %d", path, len(files))
	}

	hunks := make([]Hunk, 0, len(files[0].TextFragments))
	for _, frag := range files[0].TextFragments {
		hunks = append(hunks, convertFragment(frag))
	}
	return hunks, nil
}

func convertFragment(frag *gitdiff.TextFragment) Hunk {
	h := Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if frag.Comment != "" {
		sb.WriteString(" ")
		sb.WriteString(frag.Comment)
	}
	sb.WriteString("\n")

	for _, l := range frag.Lines {
		switch l.Op {
		case gitdiff.OpAdd:
			sb.WriteString("+")
		case gitdiff.OpDelete:
			sb.WriteString("-")
		default:
			sb.WriteString(" ")
		}
		sb.WriteString(l.Line)
		if !strings.HasSuffix(l.Line, "\n") {
			sb.WriteString("\n")
		}
	}

	h.Raw = sb.String()
	return h
}

// Reassemble joins hunks back into a patch fragment without a trailing
// newline, matching the form diff sources deliver.
func Reassemble(hunks []Hunk) string {
	var sb strings.Builder
	for _, h := range hunks {
		sb.WriteString(h.Raw)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
