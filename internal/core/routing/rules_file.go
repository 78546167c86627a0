package routing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRulesFile reads extra routing rules from a YAML file of the form
//
//	rules:
//	  - pattern: "mezzanine"
//	    law_codes: ["PD 1096", "Rule VII"]
func LoadRulesFile(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing rules: %w", err)
	}
	return ParseRules(raw)
}

// ParseRules decodes YAML rules and rejects entries without a pattern or law code.
func ParseRules(raw []byte) ([]Rule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse routing rules: %w", err)
	}
	for i, rule := range file.Rules {
		if rule.Pattern == "" {
			return nil, fmt.Errorf("routing rule %d: pattern is required", i)
		}
		if len(rule.LawCodes) == 0 {
			return nil, fmt.Errorf("routing rule %d (%q): law_codes is required", i, rule.Pattern)
		}
	}
	return file.Rules, nil
}

// WithExtraRules appends extra to the built-in table without modifying DefaultRules.
func WithExtraRules(extra []Rule) []Rule {
	out := make([]Rule, 0, len(DefaultRules)+len(extra))
	out = append(out, DefaultRules...)
	out = append(out, extra...)
	return out
}
