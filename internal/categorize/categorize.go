// Package categorize assigns category labels via ordered regex rule sets.
// Rule order is a contract: the first category whose any pattern matches
// wins, so rules are held in a slice and YAML mapping order is preserved
// during decoding.
package categorize

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule is one category with its patterns, in declaration order.
type Rule struct {
	Category string
	Patterns []*regexp.Regexp
}

// Categorizer matches descriptions against the configured rules.
type Categorizer struct {
	rules []Rule
}

// ruleFile mirrors the YAML layout:
//
//	categories:
//	  groceries:
//	    - WOOLWORTHS
//	    - COLES
type ruleFile struct {
	Categories yaml.Node `yaml:"categories"`
}

// New builds a categorizer from ordered (category, patterns) pairs.
// Patterns compile case-insensitively; a bad pattern is a configuration
// error and fails the load.
func New(categories []string, patterns map[string][]string) (*Categorizer, error) {
	c := &Categorizer{}
	for _, category := range categories {
		rule := Rule{Category: category}
		for _, expr := range patterns[category] {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("category %q: invalid pattern %q: %w", category, expr, err)
			}
			rule.Patterns = append(rule.Patterns, re)
		}
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// Parse decodes YAML rule content, keeping the mapping order of the
// categories block.
func Parse(data []byte) (*Categorizer, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse category rules: %w", err)
	}
	if file.Categories.Kind == 0 {
		return &Categorizer{}, nil
	}
	if file.Categories.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse category rules: categories must be a mapping")
	}

	var order []string
	patterns := make(map[string][]string)
	content := file.Categories.Content
	for i := 0; i+1 < len(content); i += 2 {
		key := content[i].Value
		var exprs []string
		if err := content[i+1].Decode(&exprs); err != nil {
			return nil, fmt.Errorf("parse category rules: category %q: %w", key, err)
		}
		order = append(order, key)
		patterns[key] = exprs
	}
	return New(order, patterns)
}

// Load reads and parses a YAML rule file. Missing or invalid rule files are
// fatal at startup, not per row.
func Load(path string) (*Categorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load category rules: %w", err)
	}
	return Parse(data)
}

// Categorize returns the first matching category in rule order, or nil
// when nothing matches. There is no fallback category.
func (c *Categorizer) Categorize(description string) *string {
	for _, rule := range c.rules {
		for _, re := range rule.Patterns {
			if re.MatchString(description) {
				category := rule.Category
				return &category
			}
		}
	}
	return nil
}

// Categories lists the configured categories in rule order.
func (c *Categorizer) Categories() []string {
	out := make([]string, len(c.rules))
	for i, rule := range c.rules {
		out[i] = rule.Category
	}
	return out
}
