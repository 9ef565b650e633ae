// Package validation classifies session responses as acceptable or not.
//
// Validators are pure: the same response always yields the same result, and
// Validate never panics. An empty response is an ordinary Invalid outcome,
// not an exceptional condition.
package validation

// Result is the outcome of validating a response.
type Result struct {
	Valid  bool
	Reason string
}

// Valid returns a passing result.
func Valid() Result {
	return Result{Valid: true}
}

// Invalid returns a failing result with a reason.
func Invalid(reason string) Result {
	if reason == "" {
		reason = "validation failed"
	}
	return Result{Valid: false, Reason: reason}
}

func (r Result) String() string {
	if r.Valid {
		return "valid"
	}
	return "invalid: " + r.Reason
}

// Validator is a pure predicate over a response string.
type Validator interface {
	Validate(response string) Result
}

// Func adapts a plain function to the Validator interface.
type Func func(response string) Result

// Validate implements Validator.
func (f Func) Validate(response string) Result {
	return f(response)
}
