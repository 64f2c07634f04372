package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/prdoc"
)

// Compile-time interface verification.
var _ prdoc.DocumentPatcher = (*Patcher)(nil)

// Canonical headings used when the document has no matching section yet.
const (
	canonicalFeatureHeading = "Features"
	canonicalConfigHeading  = "Configuration"
)

// Patcher applies a classification to a section tree. All operations are
// idempotent: applying the same classification twice produces the same
// document as applying it once.
type Patcher struct {
	featureSynonyms   []string
	configSynonyms    []string
	changelogSynonyms []string
}

// NewPatcher creates a patcher with the given section synonym sets.
func NewPatcher(featureSynonyms, configSynonyms, changelogSynonyms []string) *Patcher {
	return &Patcher{
		featureSynonyms:   featureSynonyms,
		configSynonyms:    configSynonyms,
		changelogSynonyms: changelogSynonyms,
	}
}

// Apply merges a classification into the tree. It reports whether anything
// changed and returns non-fatal notes, e.g. a removal target that was not
// found. It never fails for a tree produced by Parse: operations only grow
// or edit body lines, never restructure headings.
func (p *Patcher) Apply(root *Section, c *prdoc.Classification) (changed bool, notes []string) {
	if len(c.AddedFeatures) > 0 || len(c.ChangedBehavior) > 0 {
		target := p.featureSection(root)
		for _, f := range c.AddedFeatures {
			if addBullet(target, renderFeature(f)) {
				changed = true
			}
		}
		for _, note := range c.ChangedBehavior {
			if addBullet(target, renderNote(note)) {
				changed = true
			}
		}
	}

	if len(c.RemovedFeatures) > 0 {
		target := find(root, p.featureSynonyms)
		for _, f := range c.RemovedFeatures {
			if target == nil {
				notes = append(notes, fmt.Sprintf("removed feature %q: no features section to remove from", f.Name))
				continue
			}
			if removeBullet(target, f.Name) {
				changed = true
			} else {
				notes = append(notes, fmt.Sprintf("removed feature %q: no matching bullet found", f.Name))
			}
		}
	}

	if len(c.ConfigChanges) > 0 {
		target := p.configSection(root)
		for _, cc := range c.ConfigChanges {
			if upsertConfigBullet(target, cc) {
				changed = true
			}
		}
	}

	return changed, notes
}

// featureSection resolves the features target, creating a canonical section
// at the root when none exists. Existing content is never displaced.
func (p *Patcher) featureSection(root *Section) *Section {
	if sec := find(root, p.featureSynonyms); sec != nil {
		return sec
	}
	sec := newSection(canonicalFeatureHeading, 2)
	root.Children = append(root.Children, sec)
	return sec
}

func (p *Patcher) configSection(root *Section) *Section {
	if sec := find(root, p.configSynonyms); sec != nil {
		return sec
	}
	sec := newSection(canonicalConfigHeading, 2)
	root.Children = append(root.Children, sec)
	return sec
}

// renderFeature produces the canonical bullet line for a feature.
func renderFeature(f prdoc.Feature) string {
	name := strings.TrimSpace(f.Name)
	if desc := strings.TrimSpace(f.Description); desc != "" {
		return "- " + name + ": " + desc
	}
	return "- " + name
}

func renderNote(note string) string {
	return "- " + strings.TrimSpace(note)
}

// renderConfig produces the canonical bullet line for a config entry.
func renderConfig(cc prdoc.ConfigChange) string {
	key := strings.TrimSpace(cc.Key)
	if effect := strings.TrimSpace(cc.Effect); effect != "" {
		return "- " + key + ": " + effect
	}
	return "- " + key
}

// addBullet appends a bullet unless an equivalent line is already present.
func addBullet(sec *Section, line string) bool {
	if containsLine(sec, line) {
		return false
	}
	insertLine(sec, line)
	return true
}

// removeBullet deletes the first bullet whose name equals the feature name,
// case- and punctuation-insensitively. The name is the bullet text before
// the first colon, so removing "validation" cannot delete an unrelated
// "Email validation" bullet. Reports whether a bullet was removed.
func removeBullet(sec *Section, name string) bool {
	want := normalizeLoose(name)
	if want == "" {
		return false
	}
	for i, line := range sec.BodyLines {
		text, ok := bulletText(line)
		if !ok {
			continue
		}
		if normalizeLoose(bulletKey(text)) != want {
			continue
		}
		sec.BodyLines = append(sec.BodyLines[:i], sec.BodyLines[i+1:]...)
		return true
	}
	return false
}

// upsertConfigBullet appends a config bullet keyed by the entry's key: a
// changed effect for an existing key replaces the prior line instead of
// appending a duplicate.
func upsertConfigBullet(sec *Section, cc prdoc.ConfigChange) bool {
	line := renderConfig(cc)
	wantKey := normalizeLoose(cc.Key)
	for i, existing := range sec.BodyLines {
		text, ok := bulletText(existing)
		if !ok {
			continue
		}
		if normalizeLoose(bulletKey(text)) != wantKey {
			continue
		}
		if normalizeWS(existing) == normalizeWS(line) {
			return false
		}
		sec.BodyLines[i] = line
		return true
	}
	insertLine(sec, line)
	return true
}

// bulletKey extracts the name portion of a bullet's text: everything before
// the first colon, or the whole text for a bare bullet.
func bulletKey(text string) string {
	if i := strings.IndexByte(text, ':'); i >= 0 {
		return text[:i]
	}
	return text
}

// Changelog subsection headings, in emission order.
var changelogParts = []struct {
	heading string
	lines   func(c *prdoc.Classification) []string
}{
	{"Added", func(c *prdoc.Classification) []string { return featureBullets(c.AddedFeatures) }},
	{"Removed", func(c *prdoc.Classification) []string { return featureBullets(c.RemovedFeatures) }},
	{"Changed", func(c *prdoc.Classification) []string {
		var out []string
		for _, n := range c.ChangedBehavior {
			out = append(out, renderNote(n))
		}
		return out
	}},
	{"Configuration", func(c *prdoc.Classification) []string {
		var out []string
		for _, cc := range c.ConfigChanges {
			out = append(out, renderConfig(cc))
		}
		return out
	}},
}

func featureBullets(features []prdoc.Feature) []string {
	var out []string
	for _, f := range features {
		out = append(out, renderFeature(f))
	}
	return out
}

// ApplyChangelog merges a dated changelog entry for the classification into
// the tree. The entry lands directly under the first recognized changelog
// heading, or at the end of the document when none exists. Re-applying the
// same classification on the same day is a no-op.
func (p *Patcher) ApplyChangelog(root *Section, c *prdoc.Classification, version string, date time.Time) bool {
	if c.IsEmpty() {
		return false
	}
	if version == "" {
		version = "Unreleased"
	}
	heading := fmt.Sprintf("%s (%s)", version, date.Format("2006-01-02"))

	entry, parent, idx := p.findEntry(root, heading)
	if entry == nil {
		level := 2
		if parent != nil {
			level = parent.HeadingLevel + 1
		}
		entry = newSection(heading, level)
		if parent != nil {
			parent.Children = append(parent.Children, nil)
			copy(parent.Children[idx+1:], parent.Children[idx:])
			parent.Children[idx] = entry
		} else {
			root.Children = append(root.Children, entry)
		}
	}

	changed := false
	for _, part := range changelogParts {
		lines := part.lines(c)
		if len(lines) == 0 {
			continue
		}
		sub := findChild(entry, part.heading)
		if sub == nil {
			sub = newSection(part.heading, entry.HeadingLevel+1)
			entry.Children = append(entry.Children, sub)
			changed = true
		}
		for _, line := range lines {
			if addBullet(sub, line) {
				changed = true
			}
		}
	}
	return changed
}

// findEntry locates an existing changelog entry section with the given
// heading, or the insertion point for a new one: the first child slot of the
// recognized changelog section.
func (p *Patcher) findEntry(root *Section, heading string) (entry, parent *Section, idx int) {
	log := find(root, p.changelogSynonyms)
	if log == nil {
		if existing := find(root, []string{heading}); existing != nil {
			return existing, nil, 0
		}
		return nil, nil, 0
	}
	want := strings.ToLower(heading)
	for _, child := range log.Children {
		if strings.ToLower(child.HeadingText) == want {
			return child, nil, 0
		}
	}
	return nil, log, 0
}

// Patch implements prdoc.DocumentPatcher over raw text: parse, apply,
// serialize. Unchanged input is returned verbatim.
func (p *Patcher) Patch(current string, c *prdoc.Classification) (string, bool, []string) {
	root := Parse(current)
	changed, notes := p.Apply(root, c)
	if !changed {
		return current, false, notes
	}
	return Serialize(root), true, notes
}

// PatchChangelog implements the changelog half of prdoc.DocumentPatcher.
func (p *Patcher) PatchChangelog(current string, c *prdoc.Classification, now time.Time) (string, bool) {
	root := Parse(current)
	if !p.ApplyChangelog(root, c, "Unreleased", now) {
		return current, false
	}
	return Serialize(root), true
}

func findChild(sec *Section, heading string) *Section {
	want := strings.ToLower(heading)
	for _, child := range sec.Children {
		if strings.ToLower(child.HeadingText) == want {
			return child
		}
	}
	return nil
}
