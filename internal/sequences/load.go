package sequences

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadSequence reads a single sequence definition from disk.
func LoadSequence(path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sequence path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", path, err)
	}

	def, err := parseSequence(data)
	if err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// LoadSequencesFromDir loads all sequence definitions from a directory.
func LoadSequencesFromDir(dir string) ([]*Definition, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Definition{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Definition{}, nil
		}
		return nil, fmt.Errorf("read sequences dir %s: %w", dir, err)
	}

	definitions := make([]*Definition, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, name)
		def, err := LoadSequence(path)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions, nil
}

func parseSequence(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}

	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return nil, fmt.Errorf("sequence name is required")
	}
	def.Description = strings.TrimSpace(def.Description)

	def.DialCode = strings.TrimSpace(def.DialCode)
	if def.DialCode == "" {
		return nil, fmt.Errorf("sequence dial_code is required")
	}

	if def.GlobalTimeout != "" {
		if err := checkDuration(def.GlobalTimeout); err != nil {
			return nil, fmt.Errorf("sequence global_timeout: %w", err)
		}
	}

	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("sequence steps are required")
	}

	seen := make(map[string]struct{})
	for i := range def.Variables {
		name := strings.TrimSpace(def.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("sequence variable name is required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate sequence variable %q", name)
		}
		seen[name] = struct{}{}
		def.Variables[i].Name = name
	}

	for i := range def.Steps {
		if err := normalizeStep(&def.Steps[i]); err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i+1, err)
		}
	}

	return &def, nil
}

func normalizeStep(step *StepSpec) error {
	step.Description = strings.TrimSpace(step.Description)
	step.Expect = strings.TrimSpace(step.Expect)
	step.Timeout = strings.TrimSpace(step.Timeout)
	step.Extract = strings.TrimSpace(step.Extract)
	step.Output = strings.TrimSpace(step.Output)

	if step.Timeout != "" {
		if err := checkDuration(step.Timeout); err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}

	for i, keyword := range step.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			return fmt.Errorf("empty keyword")
		}
		step.Keywords[i] = keyword
	}

	// The pattern remainder keeps its case; only the mode keyword is
	// normalized.
	mode := strings.ToLower(step.Extract)
	switch mode {
	case "", ExtractFull, ExtractCode, ExtractPhone, ExtractAmount, ExtractTransactionID:
		step.Extract = mode
	default:
		if !strings.HasPrefix(mode, ExtractPatternPrefix) {
			return fmt.Errorf("unknown extract mode %q", step.Extract)
		}
		expr := strings.TrimSpace(step.Extract[len(ExtractPatternPrefix):])
		if expr == "" {
			return fmt.Errorf("extract pattern is required")
		}
		step.Extract = ExtractPatternPrefix + expr
	}

	if step.Output != "" && step.Extract == "" {
		return fmt.Errorf("output %q set but step has no extract mode", step.Output)
	}

	return nil
}

func checkDuration(value string) error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if duration <= 0 {
		return fmt.Errorf("duration must be greater than 0")
	}
	return nil
}
