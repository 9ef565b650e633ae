// Package extract pulls structured values out of session response text.
//
// Extractors are pure and never panic. A miss is an ordinary NotFound
// result carrying a reason, not an error.
package extract

// Result is the outcome of running an extractor against a response.
type Result struct {
	Found    bool
	Value    string
	Reason   string
	Metadata map[string]string
}

// Extracted returns a successful result.
func Extracted(value string, metadata map[string]string) Result {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Result{Found: true, Value: value, Metadata: md}
}

// NotFound returns a failed result with a reason.
func NotFound(reason string) Result {
	if reason == "" {
		reason = "no value found"
	}
	return Result{Found: false, Reason: reason, Metadata: map[string]string{}}
}

func (r Result) String() string {
	if r.Found {
		return "extracted: " + r.Value
	}
	return "not found: " + r.Reason
}

// Extractor is a pure function from response text to an optional value.
type Extractor interface {
	Extract(response string) Result
}

// Func adapts a plain function to the Extractor interface.
type Func func(response string) Result

// Extract implements Extractor.
func (f Func) Extract(response string) Result {
	return f(response)
}
