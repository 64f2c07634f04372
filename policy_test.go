package prdoc_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/prdoc"
	"github.com/stretchr/testify/assert"
)

func TestShouldUpdate_ThresholdComparison(t *testing.T) {
	t.Parallel()

	tests := []struct {
		significance prdoc.Significance
		threshold    prdoc.Significance
		want         bool
	}{
		{prdoc.SignificanceLow, prdoc.SignificanceLow, true},
		{prdoc.SignificanceLow, prdoc.SignificanceMedium, false},
		{prdoc.SignificanceLow, prdoc.SignificanceHigh, false},
		{prdoc.SignificanceMedium, prdoc.SignificanceLow, true},
		{prdoc.SignificanceMedium, prdoc.SignificanceMedium, true},
		{prdoc.SignificanceMedium, prdoc.SignificanceHigh, false},
		{prdoc.SignificanceHigh, prdoc.SignificanceLow, true},
		{prdoc.SignificanceHigh, prdoc.SignificanceMedium, true},
		{prdoc.SignificanceHigh, prdoc.SignificanceHigh, true},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s_vs_%s", tt.significance, tt.threshold)
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := &prdoc.Classification{Significance: tt.significance}
			assert.Equal(t, tt.want, prdoc.ShouldUpdate(c, tt.threshold))
		})
	}
}

func TestShouldUpdate_Monotonic(t *testing.T) {
	t.Parallel()

	// If an update fires at threshold T, it fires at any threshold <= T.
	levels := []prdoc.Significance{prdoc.SignificanceLow, prdoc.SignificanceMedium, prdoc.SignificanceHigh}
	for _, sig := range levels {
		c := &prdoc.Classification{Significance: sig}
		for i, hi := range levels {
			if !prdoc.ShouldUpdate(c, hi) {
				continue
			}
			for _, lo := range levels[:i+1] {
				assert.True(t, prdoc.ShouldUpdate(c, lo),
					"significance %s fires at %s but not at lower threshold %s", sig, hi, lo)
			}
		}
	}
}

func TestShouldUpdate_ConfigChangesAlwaysUpdate(t *testing.T) {
	t.Parallel()

	c := &prdoc.Classification{
		Significance:  prdoc.SignificanceLow,
		ConfigChanges: []prdoc.ConfigChange{{Key: "GROQ_API_KEY"}},
	}

	assert.True(t, prdoc.ShouldUpdate(c, prdoc.SignificanceHigh))
}
