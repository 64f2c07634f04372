package prdoc

import (
	"fmt"
	"strings"
)

// Significance is the ordinal severity of a change's documentation-worthiness.
type Significance int

// Significance levels, ordered low < medium < high.
const (
	SignificanceLow Significance = iota
	SignificanceMedium
	SignificanceHigh
)

// String returns the level name.
func (s Significance) String() string {
	switch s {
	case SignificanceMedium:
		return "medium"
	case SignificanceHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseSignificance parses a level name strictly. Only the three canonical
// names are accepted; synonym coercion is the oracle adapter's concern.
func ParseSignificance(s string) (Significance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SignificanceLow, nil
	case "medium":
		return SignificanceMedium, nil
	case "high":
		return SignificanceHigh, nil
	}
	return SignificanceLow, fmt.Errorf("invalid significance %q", s)
}

// Feature is a named capability added to or removed from the project.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ConfigChange describes a change to configuration, dependencies or CI.
type ConfigChange struct {
	Key    string `json:"key"`
	Effect string `json:"effect,omitempty"`
}

// Classification is the oracle's structured description of a change set.
// Every slice may be empty but is never nil once validated.
type Classification struct {
	AddedFeatures   []Feature      `json:"added_features"`
	RemovedFeatures []Feature      `json:"removed_features"`
	ChangedBehavior []string       `json:"changed_behavior"`
	ConfigChanges   []ConfigChange `json:"configuration_changes"`
	Significance    Significance   `json:"-"`
	Summary         string         `json:"summary,omitempty"`
}

// IsEmpty reports whether the classification carries no documentation-worthy
// content at all.
func (c *Classification) IsEmpty() bool {
	return len(c.AddedFeatures) == 0 &&
		len(c.RemovedFeatures) == 0 &&
		len(c.ChangedBehavior) == 0 &&
		len(c.ConfigChanges) == 0
}

// ValidationError describes a single invariant violation in a classification.
type ValidationError struct {
	Field  string
	Index  int // index within the field's slice, -1 if not applicable
	Reason string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateClassification checks schema invariants the oracle adapter must
// enforce before handing a classification to callers. Returns a slice of
// validation errors, or nil if the classification is valid.
func ValidateClassification(c *Classification) []ValidationError {
	var errs []ValidationError

	if c.Significance < SignificanceLow || c.Significance > SignificanceHigh {
		errs = append(errs, ValidationError{
			Field:  "significance",
			Index:  -1,
			Reason: fmt.Sprintf("out of range: %d", int(c.Significance)),
		})
	}

	for i, f := range c.AddedFeatures {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, ValidationError{Field: "added_features", Index: i, Reason: "empty name"})
		}
	}
	for i, f := range c.RemovedFeatures {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, ValidationError{Field: "removed_features", Index: i, Reason: "empty name"})
		}
	}
	for i, cc := range c.ConfigChanges {
		if strings.TrimSpace(cc.Key) == "" {
			errs = append(errs, ValidationError{Field: "configuration_changes", Index: i, Reason: "empty key"})
		}
	}

	return errs
}

// Normalize replaces nil slices with empty ones so callers can rely on the
// "never absent" invariant, and drops blank changed-behavior notes.
func (c *Classification) Normalize() {
	if c.AddedFeatures == nil {
		c.AddedFeatures = []Feature{}
	}
	if c.RemovedFeatures == nil {
		c.RemovedFeatures = []Feature{}
	}
	if c.ConfigChanges == nil {
		c.ConfigChanges = []ConfigChange{}
	}
	notes := c.ChangedBehavior[:0]
	for _, n := range c.ChangedBehavior {
		if strings.TrimSpace(n) != "" {
			notes = append(notes, n)
		}
	}
	if notes == nil {
		notes = []string{}
	}
	c.ChangedBehavior = notes
}
