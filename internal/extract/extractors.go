package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Metadata keys written by the built-in extractors.
const (
	MetaMethod         = "extraction_method"
	MetaCurrency       = "currency"
	MetaRawAmount      = "raw_amount"
	MetaOriginalFormat = "original_format"
	MetaHadPrefix      = "had_prefix"
	MetaIDType         = "id_type"
	MetaOriginalValue  = "original_value"
	MetaPrimaryKey     = "primary_key"
)

// FullResponse returns the entire response unchanged.
type FullResponse struct{}

// Extract implements Extractor.
func (FullResponse) Extract(response string) Result {
	return Extracted(response, nil)
}

// Pattern extracts a capture group from the first regex match.
type Pattern struct {
	re          *regexp.Regexp
	group       int
	description string
}

// NewPattern compiles the expression and extracts capture group 1.
func NewPattern(expr string) (*Pattern, error) {
	return NewPatternGroup(expr, 1)
}

// NewPatternGroup compiles the expression and extracts the given capture
// group (1-based).
func NewPatternGroup(expr string, group int) (*Pattern, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("pattern expression is required")
	}
	if group < 1 {
		return nil, fmt.Errorf("capture group must be >= 1, got %d", group)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return &Pattern{re: re, group: group, description: "pattern: " + expr}, nil
}

// Extract implements Extractor.
func (p *Pattern) Extract(response string) Result {
	match := p.re.FindStringSubmatch(response)
	if match == nil {
		return NotFound("pattern not found: " + p.description)
	}
	if len(match)-1 < p.group {
		return NotFound(fmt.Sprintf("capture group %d not found (pattern has %d groups)", p.group, len(match)-1))
	}
	value := strings.TrimSpace(match[p.group])
	if value == "" {
		return NotFound(fmt.Sprintf("capture group %d matched empty text", p.group))
	}
	return Extracted(value, nil)
}

// DigitCode extracts short numeric codes such as one-time passwords. It
// tries a keyword-prefixed pattern first ("code: 123456") and falls back to
// any bare digit run within the configured width; the metadata records
// which strategy matched.
type DigitCode struct {
	minDigits int
	maxDigits int
	explicit  *regexp.Regexp
	bare      *regexp.Regexp
}

// NewDigitCode returns a DigitCode extractor for codes of minDigits to
// maxDigits digits. Widths above 20 are rejected.
func NewDigitCode(minDigits, maxDigits int) (*DigitCode, error) {
	if minDigits < 1 {
		return nil, fmt.Errorf("min digits must be at least 1, got %d", minDigits)
	}
	if maxDigits < minDigits {
		return nil, fmt.Errorf("max digits %d cannot be less than min digits %d", maxDigits, minDigits)
	}
	if maxDigits > 20 {
		return nil, fmt.Errorf("max digits cannot exceed 20, got %d", maxDigits)
	}

	// The explicit form tolerates spaces and dashes between digit groups,
	// so the raw match may be up to half again as long as the code itself.
	explicit := regexp.MustCompile(fmt.Sprintf(
		`(?i)(?:otp|code|pin|verification code)[:\s]+([\d\s-]{%d,%d})`,
		minDigits, maxDigits+maxDigits/2,
	))
	bare := regexp.MustCompile(fmt.Sprintf(`\b(\d{%d,%d})\b`, minDigits, maxDigits))

	return &DigitCode{
		minDigits: minDigits,
		maxDigits: maxDigits,
		explicit:  explicit,
		bare:      bare,
	}, nil
}

// Extract implements Extractor.
func (d *DigitCode) Extract(response string) Result {
	if match := d.explicit.FindStringSubmatch(response); match != nil {
		cleaned := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(match[1])
		if len(cleaned) >= d.minDigits && len(cleaned) <= d.maxDigits {
			return Extracted(cleaned, map[string]string{MetaMethod: "explicit_keyword"})
		}
	}

	if match := d.bare.FindStringSubmatch(response); match != nil {
		return Extracted(match[1], map[string]string{MetaMethod: "pattern_match"})
	}

	return NotFound(fmt.Sprintf("no numeric code found (%d-%d digits)", d.minDigits, d.maxDigits))
}

// phonePattern matches national (07XXXXXXXX) and international
// (2507XXXXXXXX, +2507XXXXXXXX) forms after separators are stripped.
var phonePattern = regexp.MustCompile(`(\+?250|0)?(7[0-9]{8})`)

var phoneSeparators = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", "\t", "")

// PhoneNumber extracts a subscriber number and normalizes it to the
// canonical international form. Metadata records the original format and
// whether a dialing prefix was present.
type PhoneNumber struct{}

// Extract implements Extractor.
func (PhoneNumber) Extract(response string) Result {
	cleaned := phoneSeparators.Replace(response)

	match := phonePattern.FindStringSubmatch(cleaned)
	if match == nil {
		return NotFound("no valid phone number found")
	}

	hadPrefix := "no"
	if match[1] != "" {
		hadPrefix = "yes"
	}
	return Extracted("250"+match[2], map[string]string{
		MetaOriginalFormat: match[0],
		MetaHadPrefix:      hadPrefix,
	})
}

var (
	// Keyword-anchored form: "Balance: RWF 15,000.50".
	amountExplicitPattern = regexp.MustCompile(
		`(?i)(?:balance|amount|total)[:\s]*((?:[A-Z]{3}|[$€£]))?\s*([-+]?[\d,]+(?:\.\d{1,2})?)\s*((?:[A-Z]{3}|[$€£]))?`)

	// Bare form: any amount with a currency marker before or after.
	amountBarePattern = regexp.MustCompile(
		`((?:[A-Z]{3}|[$€£]))?\s*([-+]?[\d,]+(?:\.\d{1,2})?)\s*((?:[A-Z]{3}|[$€£]))?`)
)

// Amount extracts a monetary amount. The keyword-anchored pattern is tried
// first, then the bare amount+currency fallback. Thousands separators are
// stripped from the value; metadata carries the currency and raw amount.
type Amount struct{}

// Extract implements Extractor.
func (Amount) Extract(response string) Result {
	if result, ok := matchAmount(amountExplicitPattern, response, "explicit_keyword"); ok {
		return result
	}
	if result, ok := matchAmount(amountBarePattern, response, "pattern_match"); ok {
		return result
	}
	return NotFound("no balance or amount found")
}

func matchAmount(re *regexp.Regexp, response, method string) (Result, bool) {
	match := re.FindStringSubmatch(response)
	if match == nil || match[2] == "" {
		return Result{}, false
	}

	currency := match[1]
	if currency == "" {
		currency = match[3]
	}
	return Extracted(strings.ReplaceAll(match[2], ",", ""), map[string]string{
		MetaCurrency:  strings.TrimSpace(currency),
		MetaRawAmount: match[2],
		MetaMethod:    method,
	}), true
}

var transactionPattern = regexp.MustCompile(`(?i)(transaction|txn|ref(?:erence)?|id)[:\s#]?\s*([A-Z0-9]{6,20})`)

// TransactionID extracts an alphanumeric transaction reference of 6 to 20
// characters, anchored to a leading keyword.
type TransactionID struct{}

// Extract implements Extractor.
func (TransactionID) Extract(response string) Result {
	match := transactionPattern.FindStringSubmatch(response)
	if match == nil {
		return NotFound("no transaction id found")
	}
	return Extracted(match[2], map[string]string{
		MetaIDType: strings.ToLower(match[1]),
	})
}
