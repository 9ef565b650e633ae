package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// AcceptAll accepts every response, including the empty string.
type AcceptAll struct{}

// Validate implements Validator.
func (AcceptAll) Validate(string) Result {
	return Valid()
}

// Pattern validates that a response contains a match for a regular
// expression.
type Pattern struct {
	re          *regexp.Regexp
	description string
}

// NewPattern compiles the expression and returns a Pattern validator.
// An invalid expression is a configuration error.
func NewPattern(expr string) (*Pattern, error) {
	return NewPatternDescribed(expr, "pattern: "+expr)
}

// NewPatternDescribed is NewPattern with a human-readable description used
// in failure reasons.
func NewPatternDescribed(expr, description string) (*Pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("pattern expression is required")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if description == "" {
		description = "pattern: " + expr
	}
	return &Pattern{re: re, description: description}, nil
}

// Validate implements Validator.
func (p *Pattern) Validate(response string) Result {
	if p.re.MatchString(response) {
		return Valid()
	}
	return Invalid("response does not match " + p.description)
}

// Length validates that a response length is within [Min, Max] inclusive.
type Length struct {
	Min int
	Max int
}

// NewLength returns a Length validator. Min must be non-negative and Max
// must not be below Min.
func NewLength(min, max int) (*Length, error) {
	if min < 0 {
		return nil, fmt.Errorf("min length cannot be negative: %d", min)
	}
	if max < min {
		return nil, fmt.Errorf("max length %d cannot be less than min length %d", max, min)
	}
	return &Length{Min: min, Max: max}, nil
}

// Validate implements Validator.
func (l *Length) Validate(response string) Result {
	n := len(response)
	if n < l.Min {
		return Invalid(fmt.Sprintf("response too short: %d chars (minimum %d)", n, l.Min))
	}
	if n > l.Max {
		return Invalid(fmt.Sprintf("response too long: %d chars (maximum %d)", n, l.Max))
	}
	return Valid()
}

// Keywords validates that a response contains required keywords.
type Keywords struct {
	keywords      []string
	caseSensitive bool
	requireAll    bool
}

// NewKeywords returns a Keywords validator. With requireAll false, any one
// keyword satisfies the validator; with requireAll true, every keyword must
// be present.
func NewKeywords(caseSensitive, requireAll bool, keywords ...string) (*Keywords, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return nil, fmt.Errorf("keywords cannot be empty")
		}
	}
	return &Keywords{
		keywords:      append([]string(nil), keywords...),
		caseSensitive: caseSensitive,
		requireAll:    requireAll,
	}, nil
}

// Validate implements Validator.
func (k *Keywords) Validate(response string) Result {
	haystack := response
	if !k.caseSensitive {
		haystack = strings.ToLower(response)
	}

	if k.requireAll {
		for _, kw := range k.keywords {
			needle := kw
			if !k.caseSensitive {
				needle = strings.ToLower(kw)
			}
			if !strings.Contains(haystack, needle) {
				return Invalid("missing required keyword: " + kw)
			}
		}
		return Valid()
	}

	for _, kw := range k.keywords {
		needle := kw
		if !k.caseSensitive {
			needle = strings.ToLower(kw)
		}
		if strings.Contains(haystack, needle) {
			return Valid()
		}
	}
	return Invalid("response does not contain any of the required keywords")
}

// And combines validators; every validator must pass. Evaluation
// short-circuits on the first failure.
func And(validators ...Validator) Validator {
	return composite{validators: validators, all: true}
}

// Or combines validators; one passing validator suffices. Evaluation
// short-circuits on the first success, otherwise the failure reasons are
// concatenated.
func Or(validators ...Validator) Validator {
	return composite{validators: validators, all: false}
}

type composite struct {
	validators []Validator
	all        bool
}

func (c composite) Validate(response string) Result {
	if len(c.validators) == 0 {
		return Invalid("no validators configured")
	}

	if c.all {
		for _, v := range c.validators {
			if result := v.Validate(response); !result.Valid {
				return result
			}
		}
		return Valid()
	}

	reasons := make([]string, 0, len(c.validators))
	for _, v := range c.validators {
		result := v.Validate(response)
		if result.Valid {
			return Valid()
		}
		reasons = append(reasons, result.Reason)
	}
	return Invalid("all validators failed: " + strings.Join(reasons, "; "))
}

// Not inverts a validator: success becomes failure and vice versa.
func Not(v Validator) Validator {
	return inverted{inner: v}
}

type inverted struct {
	inner Validator
}

func (n inverted) Validate(response string) Result {
	if result := n.inner.Validate(response); result.Valid {
		return Invalid("validation succeeded but should have failed")
	}
	return Valid()
}
