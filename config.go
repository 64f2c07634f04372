package prdoc

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values, matching the protocol the filter and the
// commit sink share across runs.
const (
	DefaultSkipToken         = "[skip-pr-analyzer]"
	DefaultDocumentPath      = "README.md"
	DefaultCommitPrefix      = "docs: update README based on PR changes"
	DefaultInputBudget       = 32 * 1024
	DefaultMaxOracleAttempts = 3
)

// Config is the complete configuration surface consumed by the analyzer.
// It is constructed explicitly and passed in; no process-wide state.
type Config struct {
	// DocumentPath is the managed documentation file.
	DocumentPath string `yaml:"document_path"`
	// ChangelogPath, when set, receives a dated changelog entry per run.
	ChangelogPath string `yaml:"changelog_path"`

	// SignificanceThreshold gates documentation updates.
	SignificanceThreshold Significance `yaml:"-"`
	// Threshold is the textual form of SignificanceThreshold for YAML.
	Threshold string `yaml:"significance_threshold"`

	// SkipToken is embedded in every commit message this tool writes.
	SkipToken string `yaml:"skip_token"`
	// ExtraSkipTokens are additionally recognized on input, covering tokens
	// written by earlier versions or by users suppressing analysis manually.
	ExtraSkipTokens []string `yaml:"extra_skip_tokens"`

	// Section synonym sets, matched case-insensitively against headings.
	FeatureSections   []string `yaml:"feature_sections"`
	ConfigSections    []string `yaml:"config_sections"`
	ChangelogSections []string `yaml:"changelog_sections"`

	// InputBudget bounds the formatted diff handed to the oracle, in bytes.
	InputBudget int `yaml:"input_budget"`
	// MaxOracleAttempts bounds retries of transient oracle failures.
	MaxOracleAttempts int `yaml:"max_oracle_attempts"`

	// CommitPrefix is the human-readable part of the commit message.
	CommitPrefix string `yaml:"commit_prefix"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		DocumentPath:          DefaultDocumentPath,
		SignificanceThreshold: SignificanceMedium,
		SkipToken:             DefaultSkipToken,
		ExtraSkipTokens: []string{
			"[skip-analyzer]",
			"[no-analyze]",
			DefaultCommitPrefix,
		},
		FeatureSections:   []string{"features", "key features", "functionality", "what it does"},
		ConfigSections:    []string{"configuration", "config", "environment", "setup"},
		ChangelogSections: []string{"latest updates", "changelog", "release notes"},
		InputBudget:       DefaultInputBudget,
		MaxOracleAttempts: DefaultMaxOracleAttempts,
		CommitPrefix:      DefaultCommitPrefix,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Threshold != "" {
		threshold, err := ParseSignificance(cfg.Threshold)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.SignificanceThreshold = threshold
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DocumentPath) == "" {
		return fmt.Errorf("config: document_path must not be empty")
	}
	if strings.TrimSpace(c.SkipToken) == "" {
		return fmt.Errorf("config: skip_token must not be empty")
	}
	if c.InputBudget <= 0 {
		return fmt.Errorf("config: input_budget must be positive")
	}
	if c.MaxOracleAttempts <= 0 {
		return fmt.Errorf("config: max_oracle_attempts must be positive")
	}
	return nil
}

// SkipTokens returns every token recognized on input, the configured output
// token first.
func (c *Config) SkipTokens() []string {
	tokens := make([]string, 0, len(c.ExtraSkipTokens)+1)
	tokens = append(tokens, c.SkipToken)
	tokens = append(tokens, c.ExtraSkipTokens...)
	return tokens
}

// ManagedPaths returns the documentation files this tool writes.
func (c *Config) ManagedPaths() []string {
	paths := []string{c.DocumentPath}
	if c.ChangelogPath != "" {
		paths = append(paths, c.ChangelogPath)
	}
	return paths
}

// CommitMessage returns the commit message for a documentation update. The
// skip token is part of the cross-run contract: the next triggered run's
// filter must recognize and ignore this commit.
func (c *Config) CommitMessage() string {
	return c.CommitPrefix + " " + c.SkipToken
}
