package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fwojciec/prdoc"
)

// wireClassification mirrors the response schema with significance as raw
// text, so enum validation stays explicit instead of hiding in unmarshal.
type wireClassification struct {
	AddedFeatures   []prdoc.Feature      `json:"added_features"`
	RemovedFeatures []prdoc.Feature      `json:"removed_features"`
	ChangedBehavior []string             `json:"changed_behavior"`
	ConfigChanges   []prdoc.ConfigChange `json:"configuration_changes"`
	Significance    string               `json:"significance"`
	Summary         string               `json:"summary"`
}

// significanceSynonyms coerces near-miss significance values the oracle
// tends to produce. Anything outside this table is a validation failure,
// never a silent default.
var significanceSynonyms = map[string]string{
	"minor":       "low",
	"trivial":     "low",
	"minimal":     "low",
	"cosmetic":    "low",
	"none":        "low",
	"moderate":    "medium",
	"normal":      "medium",
	"average":     "medium",
	"major":       "high",
	"critical":    "high",
	"significant": "high",
	"breaking":    "high",
}

// fenceRe strips a markdown code fence wrapped around the payload.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ParseClassification coerces raw oracle output into a validated
// classification. Strategy: strict parse first; on failure one normalization
// pass (unwrap fences and trailing commentary, coerce significance synonyms);
// if still invalid, the error describes why so the caller can re-prompt.
func ParseClassification(raw string) (*prdoc.Classification, error) {
	c, strictErr := parseOnce(raw, false)
	if strictErr == nil {
		return c, nil
	}

	c, repairErr := parseOnce(extractPayload(raw), true)
	if repairErr == nil {
		return c, nil
	}
	return nil, fmt.Errorf("strict parse: %v; after repair: %v", strictErr, repairErr)
}

func parseOnce(raw string, coerce bool) (*prdoc.Classification, error) {
	var wire wireClassification
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}

	sig := wire.Significance
	if coerce {
		if canonical, ok := significanceSynonyms[strings.ToLower(strings.TrimSpace(sig))]; ok {
			sig = canonical
		}
	}
	significance, err := prdoc.ParseSignificance(sig)
	if err != nil {
		return nil, err
	}

	c := &prdoc.Classification{
		AddedFeatures:   wire.AddedFeatures,
		RemovedFeatures: wire.RemovedFeatures,
		ChangedBehavior: wire.ChangedBehavior,
		ConfigChanges:   wire.ConfigChanges,
		Significance:    significance,
		Summary:         strings.TrimSpace(wire.Summary),
	}
	c.Normalize()

	if errs := prdoc.ValidateClassification(c); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return c, nil
}

// extractPayload unwraps the JSON object from fences or surrounding
// commentary. Returns the input unchanged if no candidate object is found.
func extractPayload(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
