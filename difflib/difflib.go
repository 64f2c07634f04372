// Package difflib computes line-level unified diffs for documentation
// change previews.
package difflib

import (
	"fmt"
	"strings"
)

// defaultContext is the number of unchanged lines shown around each change.
const defaultContext = 3

type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	line string
}

// Unified returns a unified diff between two texts, or the empty string when
// they are identical.
func Unified(oldText, newText, fromFile, toFile string) string {
	if oldText == newText {
		return ""
	}

	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")
	ops := diffOps(oldLines, newLines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", fromFile)
	fmt.Fprintf(&sb, "+++ %s\n", toFile)

	for _, h := range hunks(ops, defaultContext) {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
		for _, o := range h.ops {
			switch o.kind {
			case opDelete:
				sb.WriteString("-")
			case opInsert:
				sb.WriteString("+")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(o.line)
			sb.WriteString("\n")
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// diffOps computes an edit script via LCS over lines. Uses O(n*m) dynamic
// programming with a flat table to minimize allocations.
func diffOps(oldLines, newLines []string) []op {
	m, n := len(oldLines), len(newLines)

	table := make([]int, (m+1)*(n+1))
	stride := n + 1

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				table[i*stride+j] = table[(i-1)*stride+j-1] + 1
			} else if table[(i-1)*stride+j] > table[i*stride+j-1] {
				table[i*stride+j] = table[(i-1)*stride+j]
			} else {
				table[i*stride+j] = table[i*stride+j-1]
			}
		}
	}

	// Backtrack into a reversed edit script.
	ops := make([]op, 0, m+n)
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case oldLines[i-1] == newLines[j-1]:
			ops = append(ops, op{opEqual, oldLines[i-1]})
			i--
			j--
		case table[(i-1)*stride+j] >= table[i*stride+j-1]:
			ops = append(ops, op{opDelete, oldLines[i-1]})
			i--
		default:
			ops = append(ops, op{opInsert, newLines[j-1]})
			j--
		}
	}
	for i > 0 {
		ops = append(ops, op{opDelete, oldLines[i-1]})
		i--
	}
	for j > 0 {
		ops = append(ops, op{opInsert, newLines[j-1]})
		j--
	}

	for left, right := 0, len(ops)-1; left < right; left, right = left+1, right-1 {
		ops[left], ops[right] = ops[right], ops[left]
	}
	return ops
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	ops                []op
}

// hunks groups the edit script into context-bounded hunks.
func hunks(ops []op, context int) []hunk {
	var out []hunk
	oldLine, newLine := 1, 1

	i := 0
	for i < len(ops) {
		// Skip the equal run before the next change.
		start := i
		for i < len(ops) && ops[i].kind == opEqual {
			i++
		}
		if i == len(ops) {
			break
		}
		equalRun := i - start
		oldLine += equalRun
		newLine += equalRun

		// Open a hunk with up to `context` leading equal lines.
		lead := equalRun
		if lead > context {
			lead = context
		}
		h := hunk{
			oldStart: oldLine - lead,
			newStart: newLine - lead,
			ops:      append([]op(nil), ops[i-lead:i]...),
		}

		// Consume changes, folding in equal runs shorter than the gap that
		// would split two hunks.
		for i < len(ops) {
			if ops[i].kind == opEqual {
				run := 0
				for i+run < len(ops) && ops[i+run].kind == opEqual {
					run++
				}
				if run > 2*context || i+run == len(ops) {
					// Close the hunk with trailing context.
					tail := run
					if tail > context {
						tail = context
					}
					h.ops = append(h.ops, ops[i:i+tail]...)
					i += run
					oldLine += run
					newLine += run
					break
				}
				h.ops = append(h.ops, ops[i:i+run]...)
				i += run
				oldLine += run
				newLine += run
				continue
			}
			h.ops = append(h.ops, ops[i])
			if ops[i].kind == opDelete {
				oldLine++
			} else {
				newLine++
			}
			i++
		}

		for _, o := range h.ops {
			switch o.kind {
			case opEqual:
				h.oldCount++
				h.newCount++
			case opDelete:
				h.oldCount++
			case opInsert:
				h.newCount++
			}
		}
		out = append(out, h)
	}

	return out
}
