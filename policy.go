package prdoc

// ShouldUpdate decides whether a classification warrants a documentation
// update at the configured threshold. Configuration changes are tracked
// unconditionally: they affect reproducibility even when no user-facing
// feature changed.
func ShouldUpdate(c *Classification, threshold Significance) bool {
	if len(c.ConfigChanges) > 0 {
		return true
	}
	return c.Significance >= threshold
}
