// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intent provides cheap heuristic routing of user messages without
// a full classifier model. The Classifier interface keeps the heuristics
// pluggable so they can later be swapped for a model without touching the
// cascade.
package intent

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Intent labels what a user message is about.
type Intent string

const (
	// IntentMiningStats asks about pool or miner status.
	IntentMiningStats Intent = "mining_stats"

	// IntentKnowledge asks about the project, ecosystem or documentation.
	IntentKnowledge Intent = "knowledge"

	// IntentGeneral is the default conversational intent.
	IntentGeneral Intent = "general"
)

// Classifier maps a user message to an intent.
type Classifier interface {
	Classify(message string) Intent
}

// Rule is one declarative classification rule. A rule matches when any of
// its keywords appears in the message, when its pattern matches, or when
// its expr condition evaluates to true. First matching rule wins.
type Rule struct {
	// Intent is the label assigned when this rule matches.
	Intent string `yaml:"intent"`

	// Keywords match case-insensitively as substrings.
	Keywords []string `yaml:"keywords,omitempty"`

	// Pattern is an optional regular expression over the raw message.
	Pattern string `yaml:"pattern,omitempty"`

	// Condition is an optional expr expression. The environment exposes
	// `message` (lowercased) and `words` (whitespace-split tokens).
	Condition string `yaml:"condition,omitempty"`
}

type compiledRule struct {
	intent    Intent
	keywords  []string
	pattern   *regexp.Regexp
	condition *vm.Program
}

// RuleClassifier evaluates an ordered rule list.
type RuleClassifier struct {
	rules []compiledRule
}

// NewRuleClassifier compiles rules into a classifier. Invalid patterns or
// conditions fail construction rather than silently never matching.
func NewRuleClassifier(rules []Rule) (*RuleClassifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Intent == "" {
			return nil, fmt.Errorf("intent: rule %d has no intent label", i)
		}
		cr := compiledRule{intent: Intent(r.Intent)}
		for _, kw := range r.Keywords {
			cr.keywords = append(cr.keywords, strings.ToLower(kw))
		}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("intent: rule %d pattern: %w", i, err)
			}
			cr.pattern = re
		}
		if r.Condition != "" {
			program, err := expr.Compile(r.Condition, expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("intent: rule %d condition: %w", i, err)
			}
			cr.condition = program
		}
		compiled = append(compiled, cr)
	}
	return &RuleClassifier{rules: compiled}, nil
}

// Classify returns the intent of the first matching rule, or IntentGeneral.
func (c *RuleClassifier) Classify(message string) Intent {
	lower := strings.ToLower(message)
	var env map[string]interface{}

	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
		if r.pattern != nil && r.pattern.MatchString(message) {
			return r.intent
		}
		if r.condition != nil {
			if env == nil {
				env = map[string]interface{}{
					"message": lower,
					"words":   strings.Fields(lower),
				}
			}
			out, err := expr.Run(r.condition, env)
			if err != nil {
				log.Debugf("intent condition error for %s: %v", r.intent, err)
				continue
			}
			if matched, ok := out.(bool); ok && matched {
				return r.intent
			}
		}
	}
	return IntentGeneral
}

// DefaultRules is the built-in rule set used when no rules file is configured.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:   string(IntentMiningStats),
			Keywords: []string{"hashrate", "hash rate", "miner", "mining", "pool", "shares", "payout"},
		},
		{
			Intent:   string(IntentKnowledge),
			Keywords: []string{"xmrt", "dao", "token", "treasury", "governance", "roadmap"},
		},
	}
}

// LoadRules reads a YAML rule file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent: failed to read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("intent: failed to parse rules file: %w", err)
	}
	return rules, nil
}
