// Package engine contains the compatibility scanner: the fixed rule set, the
// file walker, the line scanner, verdict derivation, and check orchestration.
package engine

import (
	"regexp"
	"strings"
)

// UploadsMarker is the literal path fragment naming the platform's only
// writable directory. A filesystem write in the same evaluated text is exempt.
const UploadsMarker = "wp-content/uploads"

// RuleCategory groups rules by the platform restriction they enforce.
type RuleCategory string

const (
	// CategoryFilesystemWrite flags writes outside the uploads directory.
	CategoryFilesystemWrite RuleCategory = "filesystem-write"
	// CategoryShellExecution flags process execution, which is never allowed.
	CategoryShellExecution RuleCategory = "shell-execution"
)

// Rule IDs.
const (
	RuleFilesystemWrite = "filesystem-write"
	RuleShellExecution  = "shell-execution"
)

// Rule is a named detector matching whole-word call sites of a fixed token list.
type Rule struct {
	// ID is the stable rule identifier recorded in findings.
	ID string

	// Category is the restriction the rule enforces.
	Category RuleCategory

	// Tokens are the function names matched as call sites ("name(").
	Tokens []string

	// ExemptIfContains suppresses a match when the evaluated text also contains
	// this literal. Empty means no exemption.
	ExemptIfContains string

	// Message is the default English description attached to findings.
	Message string

	pattern *regexp.Regexp
}

// Match is one rule that fired on a unit of text.
type Match struct {
	Rule  *Rule
	Token string
}

// newRule compiles a word-boundary-anchored call-site pattern for the tokens.
// The token must be followed immediately by "(".
func newRule(id string, category RuleCategory, tokens []string, exempt, message string) Rule {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return Rule{
		ID:               id,
		Category:         category,
		Tokens:           tokens,
		ExemptIfContains: exempt,
		Message:          message,
		pattern:          regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\(`),
	}
}

// Evaluate reports whether the rule fires on text and returns the first call
// site found. Matching is case-sensitive and purely textual.
func (r *Rule) Evaluate(text string) (token string, ok bool) {
	loc := r.pattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	if r.ExemptIfContains != "" && strings.Contains(text, r.ExemptIfContains) {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// RuleSet is the fixed, ordered catalogue of rules.
type RuleSet struct {
	rules []Rule
}

// DefaultRuleSet returns the platform rule catalogue in definition order.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{rules: []Rule{
		newRule(RuleFilesystemWrite, CategoryFilesystemWrite,
			[]string{"fopen", "file_put_contents", "fwrite", "rename", "unlink"},
			UploadsMarker,
			"Write operation for directory other than uploads detected"),
		newRule(RuleShellExecution, CategoryShellExecution,
			[]string{"exec", "shell_exec", "system", "passthru", "popen"},
			"",
			"Shell command execution detected"),
	}}
}

// Rules returns the rules in definition order.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// IDs returns the rule IDs in definition order.
func (s *RuleSet) IDs() []string {
	ids := make([]string, len(s.rules))
	for i := range s.rules {
		ids[i] = s.rules[i].ID
	}
	return ids
}

// Evaluate runs every rule against text and returns the matches in rule
// definition order. Rules are independent of each other.
func (s *RuleSet) Evaluate(text string) []Match {
	var matches []Match
	for i := range s.rules {
		if token, ok := s.rules[i].Evaluate(text); ok {
			matches = append(matches, Match{Rule: &s.rules[i], Token: token})
		}
	}
	return matches
}
