// Package document implements parsing, patching and serialization of
// markdown-style documentation files as a section tree. Untouched sections
// round-trip byte-for-byte; patch operations only ever add, replace or
// delete body lines inside a single target section.
package document

import (
	"regexp"
	"strings"
)

// headingRe recognizes ATX-style headings: one to six markers, whitespace,
// then the heading text.
var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Section is a node in the document tree: a heading, its body lines, and its
// nested subsections. The root has level 0, no heading, and holds any
// content that precedes the first heading.
type Section struct {
	HeadingRaw   string // exact heading line as read, empty for the root
	HeadingText  string
	HeadingLevel int
	BodyLines    []string
	Children     []*Section

	// leadingBlank marks sections created by the patcher so serialization
	// separates them from preceding content. Never set by Parse, which
	// keeps round-trips exact.
	leadingBlank bool
}

// Parse builds a section tree from raw text. A document without recognized
// headings yields a root whose body is the entire input and no children; the
// patcher still operates on such documents by appending new sections.
func Parse(raw string) *Section {
	root := &Section{}
	lines := strings.Split(raw, "\n")

	stack := []*Section{root}
	for _, line := range lines {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			cur := stack[len(stack)-1]
			cur.BodyLines = append(cur.BodyLines, line)
			continue
		}

		sec := &Section{
			HeadingRaw:   line,
			HeadingText:  strings.TrimSpace(m[2]),
			HeadingLevel: len(m[1]),
		}
		// A heading closes every open section of equal or deeper level.
		for len(stack) > 1 && stack[len(stack)-1].HeadingLevel >= sec.HeadingLevel {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, sec)
		stack = append(stack, sec)
	}

	return root
}

// Serialize reconstructs the document by depth-first traversal. For any tree
// produced by Parse and mutated only through the patcher's operations, the
// output reproduces every untouched line byte-for-byte.
func Serialize(root *Section) string {
	var lines []string
	var walk func(s *Section)
	walk = func(s *Section) {
		if s.HeadingRaw != "" || s.HeadingLevel > 0 {
			if s.leadingBlank && len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
				lines = append(lines, "")
			}
			lines = append(lines, s.HeadingRaw)
		}
		lines = append(lines, s.BodyLines...)
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(root)
	return strings.Join(lines, "\n")
}

// find returns the first section (depth-first, document order) whose heading
// contains any of the given synonyms, case-insensitively. Returns nil if no
// section matches.
func find(root *Section, synonyms []string) *Section {
	var dfs func(s *Section) *Section
	dfs = func(s *Section) *Section {
		if s.HeadingRaw != "" {
			heading := strings.ToLower(s.HeadingText)
			for _, syn := range synonyms {
				if syn != "" && strings.Contains(heading, strings.ToLower(syn)) {
					return s
				}
			}
		}
		for _, child := range s.Children {
			if found := dfs(child); found != nil {
				return found
			}
		}
		return nil
	}
	return dfs(root)
}

// newSection creates a patcher-owned section with a canonical heading.
// Levels deeper than markdown's six are clamped so the result reparses.
func newSection(heading string, level int) *Section {
	if level > 6 {
		level = 6
	}
	return &Section{
		HeadingRaw:   strings.Repeat("#", level) + " " + heading,
		HeadingText:  heading,
		HeadingLevel: level,
		BodyLines:    []string{""},
		leadingBlank: true,
	}
}

// bulletRe recognizes the bullet syntaxes the patcher operates on. Lines
// that are not bullets are never touched.
var bulletRe = regexp.MustCompile(`^\s*[-*+]\s+(.*\S)\s*$`)

// bulletText extracts the text of a bullet line, or ("", false) when the
// line is not a bullet.
func bulletText(line string) (string, bool) {
	m := bulletRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// normalizeWS collapses runs of whitespace so incidental spacing differences
// do not defeat duplicate suppression.
func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeLoose lowercases and strips punctuation for removal matching,
// which must tolerate manual edits to bullet decoration.
func normalizeLoose(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t':
			b.WriteRune(' ')
		}
	}
	return normalizeWS(b.String())
}

// insertLine appends a line to a section's body after the last non-blank
// line, so trailing blank lines that separate this section from the next
// stay where they were.
func insertLine(sec *Section, line string) {
	pos := 0
	for i, l := range sec.BodyLines {
		if strings.TrimSpace(l) != "" {
			pos = i + 1
		}
	}
	if pos == 0 && len(sec.BodyLines) > 0 {
		// Only blank lines so far; keep the customary blank after the
		// heading in place.
		pos = 1
	}
	sec.BodyLines = append(sec.BodyLines[:pos], append([]string{line}, sec.BodyLines[pos:]...)...)
}

// containsLine reports whether the section body already holds a line with
// the same whitespace-normalized text.
func containsLine(sec *Section, line string) bool {
	want := normalizeWS(line)
	for _, l := range sec.BodyLines {
		if normalizeWS(l) == want {
			return true
		}
	}
	return false
}
