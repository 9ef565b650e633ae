// Package classify decides whether a response text signals success,
// failure, or neither, using keyword and pattern matching.
package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// Outcome is the verdict for one response.
type Outcome string

const (
	// OutcomeSuccess means the response signals the operation worked.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means the response signals the operation was
	// rejected.
	OutcomeFailure Outcome = "failure"

	// OutcomeAmbiguous means neither signal was found. Typically the
	// session is still mid-flow.
	OutcomeAmbiguous Outcome = "ambiguous"
)

// Classification pairs the verdict with the evidence that produced it.
type Classification struct {
	// Outcome is the verdict.
	Outcome Outcome `json:"outcome"`

	// Matched lists the keywords and patterns that fired for the winning
	// outcome.
	Matched []string `json:"matched,omitempty"`
}

// Default keyword sets cover the English, French, and Kinyarwanda phrasing
// commonly seen on menu services.
var (
	defaultSuccessKeywords = []string{
		"success", "successful", "successfully",
		"completed", "confirmed", "approved", "accepted",
		"thank you", "transaction complete",
		"réussi", "réussie", "succès", "confirmé",
		"byagenze neza", "murakoze", "yemejwe",
	}

	defaultFailureKeywords = []string{
		"fail", "failed", "failure",
		"invalid", "incorrect", "wrong",
		"error", "denied", "rejected", "declined",
		"insufficient", "expired", "not allowed", "try again",
		"échoué", "échec", "invalide", "incorrect", "refusé",
		"ntibyakunze", "ntabwo byakunze", "wongere ugerageze",
	}

	defaultSuccessPatterns = []string{
		`(?i)\btransaction\s+(id|ref)\b`,
		`(?i)\bbalance\s*(is|:)\b`,
	}

	defaultFailurePatterns = []string{
		`(?i)\b(pin|code)\s+(is\s+)?(invalid|incorrect|wrong)\b`,
		`(?i)\bdoes\s+not\s+match\b`,
	}
)

// Config adds keywords and patterns on top of the built-in sets. Patterns
// are compiled at construction; matching at classification time is
// substring checks and precompiled regexes only.
type Config struct {
	ExtraSuccessKeywords []string
	ExtraFailureKeywords []string
	ExtraSuccessPatterns []string
	ExtraFailurePatterns []string
}

// Classifier applies keyword and pattern sets to response text. Safe for
// concurrent use once constructed.
type Classifier struct {
	successKeywords []string
	failureKeywords []string
	successPatterns []*regexp.Regexp
	failurePatterns []*regexp.Regexp
}

// New builds a classifier from the default sets plus the extras in cfg.
func New(cfg Config) (*Classifier, error) {
	c := &Classifier{
		successKeywords: lowerAll(append(append([]string(nil), defaultSuccessKeywords...), cfg.ExtraSuccessKeywords...)),
		failureKeywords: lowerAll(append(append([]string(nil), defaultFailureKeywords...), cfg.ExtraFailureKeywords...)),
	}

	var err error
	c.successPatterns, err = compileAll(append(append([]string(nil), defaultSuccessPatterns...), cfg.ExtraSuccessPatterns...))
	if err != nil {
		return nil, fmt.Errorf("success patterns: %w", err)
	}
	c.failurePatterns, err = compileAll(append(append([]string(nil), defaultFailurePatterns...), cfg.ExtraFailurePatterns...))
	if err != nil {
		return nil, fmt.Errorf("failure patterns: %w", err)
	}
	return c, nil
}

// Default returns a classifier with only the built-in sets.
func Default() *Classifier {
	c, err := New(Config{})
	if err != nil {
		panic(err)
	}
	return c
}

// Classify decides the outcome for one response. Matching is
// case-insensitive and any single hit suffices. When both success and
// failure evidence is present, failure wins. An empty or signal-free
// response is ambiguous.
func (c *Classifier) Classify(response string) Classification {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return Classification{Outcome: OutcomeAmbiguous}
	}
	lower := strings.ToLower(trimmed)

	if matched := match(lower, trimmed, c.failureKeywords, c.failurePatterns); len(matched) > 0 {
		return Classification{Outcome: OutcomeFailure, Matched: matched}
	}
	if matched := match(lower, trimmed, c.successKeywords, c.successPatterns); len(matched) > 0 {
		return Classification{Outcome: OutcomeSuccess, Matched: matched}
	}
	return Classification{Outcome: OutcomeAmbiguous}
}

func match(lower, original string, keywords []string, patterns []*regexp.Regexp) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, keyword)
		}
	}
	for _, pattern := range patterns {
		if pattern.MatchString(original) {
			matched = append(matched, pattern.String())
		}
	}
	return matched
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}
