// Package sequences provides loading and building of menu sequence
// definitions authored in YAML.
package sequences

// Definition is a sequence as authored on disk, before validators and
// extractors are constructed.
type Definition struct {
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	DialCode      string     `yaml:"dial_code"`
	Channel       *int       `yaml:"channel,omitempty"`
	GlobalTimeout string     `yaml:"global_timeout,omitempty"`
	StopOnError   bool       `yaml:"stop_on_error"`
	Variables     []Variable `yaml:"variables,omitempty"`
	Steps         []StepSpec `yaml:"steps"`
	Tags          []string   `yaml:"tags,omitempty"`
	Source        string     // file path or "builtin"
}

// StepSpec is one authored step. Expect and Keywords both constrain the
// response; when both are present the response must satisfy both.
type StepSpec struct {
	Description string   `yaml:"description,omitempty"`
	Expect      string   `yaml:"expect,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	RequireAll  bool     `yaml:"require_all,omitempty"`
	Send        string   `yaml:"send,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	Extract     string   `yaml:"extract,omitempty"`
	Output      string   `yaml:"output,omitempty"`
}

// Variable describes a binding a sequence expects from the caller.
type Variable struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default,omitempty"`
	Required    bool   `yaml:"required"`
}

// Extract modes accepted in StepSpec.Extract. The "pattern:" prefix takes
// a regular expression whose first capture group is extracted.
const (
	ExtractFull          = "full"
	ExtractCode          = "code"
	ExtractPhone         = "phone"
	ExtractAmount        = "amount"
	ExtractTransactionID = "txid"
	ExtractPatternPrefix = "pattern:"
)
