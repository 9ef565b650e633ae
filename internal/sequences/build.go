package sequences

import (
	"fmt"
	"strings"
	"time"

	"github.com/menuflow/menuflow/internal/extract"
	"github.com/menuflow/menuflow/internal/models"
	"github.com/menuflow/menuflow/internal/validation"
)

// DefaultStepTimeout applies when an authored step has no timeout of its
// own.
const DefaultStepTimeout = 8 * time.Second

// Build turns a definition into an executable sequence with variables
// applied. Required variables must be supplied in vars unless they carry a
// default. Steps without an explicit timeout get DefaultStepTimeout. The
// returned sequence has already passed validation.
func Build(def *Definition, vars map[string]string) (models.Sequence, error) {
	return BuildWithStepTimeout(def, vars, DefaultStepTimeout)
}

// BuildWithStepTimeout is Build with a caller-chosen fallback timeout for
// steps that do not set their own. A non-positive fallback selects
// DefaultStepTimeout.
func BuildWithStepTimeout(def *Definition, vars map[string]string, stepTimeout time.Duration) (models.Sequence, error) {
	if def == nil {
		return models.Sequence{}, fmt.Errorf("sequence definition is required")
	}
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}

	data := make(map[string]string, len(vars))
	for key, value := range vars {
		data[key] = value
	}

	for _, variable := range def.Variables {
		value := strings.TrimSpace(data[variable.Name])
		if value == "" {
			if variable.Default != "" {
				data[variable.Name] = variable.Default
				continue
			}
			if variable.Required {
				return models.Sequence{}, fmt.Errorf("missing required variable %q", variable.Name)
			}
		}
	}

	steps := make([]models.Step, 0, len(def.Steps))
	for i, spec := range def.Steps {
		step, err := buildStep(spec, stepTimeout)
		if err != nil {
			return models.Sequence{}, fmt.Errorf("sequence %q step %d: %w", def.Name, i+1, err)
		}
		steps = append(steps, step)
	}

	globalTimeout := time.Duration(0)
	if def.GlobalTimeout != "" {
		parsed, err := time.ParseDuration(def.GlobalTimeout)
		if err != nil {
			return models.Sequence{}, fmt.Errorf("sequence %q: invalid global_timeout: %w", def.Name, err)
		}
		globalTimeout = parsed
	}

	selector := models.DefaultChannelSelector
	if def.Channel != nil {
		selector = *def.Channel
	}

	seq := models.NewSequence(models.SequenceConfig{
		Name:            def.Name,
		Description:     def.Description,
		DialCode:        def.DialCode,
		Steps:           steps,
		Variables:       data,
		GlobalTimeout:   globalTimeout,
		ChannelSelector: selector,
		StopOnError:     def.StopOnError,
	})
	if err := seq.Validate(); err != nil {
		return models.Sequence{}, fmt.Errorf("sequence %q: %w", def.Name, err)
	}
	return seq, nil
}

func buildStep(spec StepSpec, fallbackTimeout time.Duration) (models.Step, error) {
	timeout := fallbackTimeout
	if spec.Timeout != "" {
		parsed, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return models.Step{}, fmt.Errorf("invalid timeout: %w", err)
		}
		timeout = parsed
	}

	validator, err := buildValidator(spec)
	if err != nil {
		return models.Step{}, err
	}
	extractor, err := buildExtractor(spec.Extract)
	if err != nil {
		return models.Step{}, err
	}

	return models.Step{
		Description:     spec.Description,
		ExpectedPattern: spec.Expect,
		Send:            spec.Send,
		Timeout:         timeout,
		Retries:         spec.Retries,
		Validator:       validator,
		Extractor:       extractor,
		OutputVar:       spec.Output,
	}, nil
}

func buildValidator(spec StepSpec) (validation.Validator, error) {
	var validators []validation.Validator

	if spec.Expect != "" {
		pattern, err := validation.NewPattern(spec.Expect)
		if err != nil {
			return nil, fmt.Errorf("invalid expect pattern: %w", err)
		}
		validators = append(validators, pattern)
	}
	if len(spec.Keywords) > 0 {
		keywords, err := validation.NewKeywords(false, spec.RequireAll, spec.Keywords...)
		if err != nil {
			return nil, fmt.Errorf("invalid keywords: %w", err)
		}
		validators = append(validators, keywords)
	}

	switch len(validators) {
	case 0:
		return nil, nil
	case 1:
		return validators[0], nil
	default:
		return validation.And(validators...), nil
	}
}

func buildExtractor(mode string) (extract.Extractor, error) {
	switch mode {
	case "":
		return nil, nil
	case ExtractFull:
		return extract.FullResponse{}, nil
	case ExtractCode:
		return extract.NewDigitCode(4, 8)
	case ExtractPhone:
		return extract.PhoneNumber{}, nil
	case ExtractAmount:
		return extract.Amount{}, nil
	case ExtractTransactionID:
		return extract.TransactionID{}, nil
	default:
		if !strings.HasPrefix(mode, ExtractPatternPrefix) {
			return nil, fmt.Errorf("unknown extract mode %q", mode)
		}
		return extract.NewPattern(mode[len(ExtractPatternPrefix):])
	}
}
